package cmd

import (
	"fmt"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/task"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			ids, err := task.List(cfg.Eval.TasksDir)
			if err != nil {
				return err
			}
			fmt.Println("Tasks:")
			for _, id := range ids {
				t, err := task.Load(cfg.Eval.TasksDir, id)
				if err != nil {
					fmt.Printf("  - %s (unreadable: %v)\n", id, err)
					continue
				}
				fmt.Printf("  - %s [%s] %s (%d ground truth items)\n",
					t.ID, t.Difficulty, t.Name, len(t.GroundTruth))
			}
			return nil
		},
	}
}
