package cmd

import (
	"fmt"
	"os"

	"github.com/gotwalt/chronicle/internal/analysis"
	"github.com/gotwalt/chronicle/internal/report"
	"github.com/spf13/cobra"
)

var flagPerTask bool

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <baseline.jsonl> <experiment.jsonl>",
		Short: "Compare two completed batches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comparison, err := analysis.Compare(args[0], args[1])
			if err != nil {
				return err
			}
			if err := report.WriteComparison(os.Stdout, comparison); err != nil {
				return err
			}
			if flagPerTask {
				rows, err := analysis.PerTaskCoverage(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Println("\nPer-task coverage (covered items, baseline->experiment):")
				return report.WritePerTaskCoverage(os.Stdout, rows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagPerTask, "per-task", false, "show per-task coverage detail")
	return cmd
}
