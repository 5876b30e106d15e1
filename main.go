package main

import (
	"os"

	"github.com/gotwalt/chronicle/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
