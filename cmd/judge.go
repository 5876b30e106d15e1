package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/judge"
	"github.com/spf13/cobra"
)

func newJudgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "judge <runs.jsonl>",
		Short: "Re-judge persisted runs without re-executing agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := config.LoadSecrets(cfg); err != nil {
				log.Printf("warning: could not load secrets: %v", err)
			}
			if flagJudgeModel != "" {
				cfg.Judge.Model = flagJudgeModel
			}

			logPath := args[0]
			if _, err := os.Stat(logPath); err != nil {
				return fmt.Errorf("run log not found: %s", logPath)
			}

			j, err := judge.New(cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Judging existing results: %s\n", logPath)
			fmt.Printf("Judge model: %s\n", cfg.Judge.Model)
			outPath, err := judge.JudgeLog(context.Background(), j, logPath, cfg.Eval.TasksDir)
			if err != nil {
				return err
			}
			fmt.Printf("Judged results written to: %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagJudgeModel, "judge-model", "", "override judge model")
	return cmd
}
