package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chronicle-eval",
		Short: "Evaluation harness for Chronicle annotation quality",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "chronicle-eval.yaml", "config file path")
	root.AddCommand(newRunCmd())
	root.AddCommand(newJudgeCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newListCmd())
	return root
}
