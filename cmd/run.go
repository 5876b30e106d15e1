package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/judge"
	"github.com/gotwalt/chronicle/internal/report"
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/runner"
	"github.com/gotwalt/chronicle/internal/task"
	"github.com/spf13/cobra"
)

var (
	flagTask       string
	flagVariant    string
	flagOutput     string
	flagWorkDir    string
	flagDryRun     bool
	flagJudge      bool
	flagNoJudge    bool
	flagJudgeModel string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an evaluation batch",
		RunE:  runBatch,
	}
	cmd.Flags().StringVar(&flagTask, "task", "", "run a single task instead of all configured tasks")
	cmd.Flags().StringVar(&flagVariant, "variant", "", "prompt variant to install (default: from config)")
	cmd.Flags().StringVar(&flagOutput, "output", "", "output directory (default: timestamped under results dir)")
	cmd.Flags().StringVar(&flagWorkDir, "work-dir", "", "fixed scratch directory, kept after the run")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would run without executing")
	cmd.Flags().BoolVar(&flagJudge, "judge", false, "enable LLM judging (overrides config)")
	cmd.Flags().BoolVar(&flagNoJudge, "no-judge", false, "disable LLM judging (overrides config)")
	cmd.Flags().StringVar(&flagJudgeModel, "judge-model", "", "override judge model")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.LoadSecrets(cfg); err != nil {
		log.Printf("warning: could not load secrets: %v", err)
	}
	applyJudgeFlags(cfg)

	variant := cfg.Eval.PromptVariant
	if flagVariant != "" {
		variant = flagVariant
	}
	taskIDs := cfg.Eval.Tasks
	if flagTask != "" {
		taskIDs = []string{flagTask}
	}
	if len(taskIDs) == 0 {
		taskIDs, err = task.List(cfg.Eval.TasksDir)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(cfg.Chronicle.Binary); err != nil {
		return fmt.Errorf("chronicle binary not found at %s", cfg.Chronicle.Binary)
	}

	if flagDryRun {
		return printDryRun(cfg, taskIDs, variant)
	}

	outputDir := flagOutput
	if outputDir == "" {
		outputDir, err = result.CreateRunDir(cfg.Results.Dir)
		if err != nil {
			return err
		}
	} else if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	logPath := filepath.Join(outputDir, result.LogName)
	fmt.Printf("Run directory: %s\n", outputDir)

	var j *judge.Judge
	if cfg.Judge.Enabled {
		j, err = judge.New(cfg)
		if errors.Is(err, judge.ErrNoCredential) {
			log.Printf("warning: %v; judging skipped", err)
		} else if err != nil {
			return err
		}
	}

	ctx := context.Background()
	var reports []*result.ScoreReport

	for _, taskID := range taskIDs {
		fmt.Printf("\nRunning task: %s (variant: %s)\n", taskID, variant)

		t, err := task.Load(cfg.Eval.TasksDir, taskID)
		if err != nil {
			fmt.Printf("  ERROR: %v\n", err)
			continue
		}

		run, scores, err := runner.RunTask(ctx, cfg, t, &runner.Opts{
			WorkDir: flagWorkDir,
			Variant: variant,
		})
		if err != nil {
			return err
		}

		if j != nil && run.Success {
			fmt.Println("  Running LLM judge...")
			scores.Judge = j.JudgeRun(ctx, run, t)
			fmt.Printf("  Judge: %dH/%dM/%dL/%dN\n",
				scores.Judge.HighValueCount, scores.Judge.ModerateValueCount,
				scores.Judge.LowValueCount, scores.Judge.NoiseCount)
		}

		// Persist before the next task so a later failure cannot lose
		// this run.
		if err := result.AppendLog(logPath, &result.LogEntry{Run: *run, Scores: *scores}); err != nil {
			return err
		}
		reports = append(reports, scores)

		if run.Success {
			fmt.Printf("  Success in %.1fs (annotations: %d, wisdom: %d)\n",
				run.ElapsedSeconds, scores.AnnotationCount, scores.WisdomCount)
		} else {
			fmt.Printf("  FAILED: %s\n", run.Error)
		}
	}

	fmt.Println("\nSUMMARY -- Heuristics")
	if err := report.WriteHeuristicSummary(os.Stdout, reports); err != nil {
		return err
	}
	if err := report.WriteJudgeSummary(os.Stdout, reports); err != nil {
		return err
	}
	fmt.Printf("\nResults written to: %s\n", logPath)
	return nil
}

func applyJudgeFlags(cfg *config.Config) {
	if flagJudge {
		cfg.Judge.Enabled = true
	}
	if flagNoJudge {
		cfg.Judge.Enabled = false
	}
	if flagJudgeModel != "" {
		cfg.Judge.Model = flagJudgeModel
	}
}

func printDryRun(cfg *config.Config, taskIDs []string, variant string) error {
	fmt.Println("=== DRY RUN ===")
	fmt.Printf("Tasks:   %v\n", taskIDs)
	fmt.Printf("Variant: %s\n", variant)
	fmt.Printf("Model:   %s\n", cfg.Agent.Model)
	fmt.Printf("Budget:  $%.2f\n", cfg.Agent.MaxBudgetUSD)
	fmt.Printf("Timeout: %ds\n", cfg.Agent.TimeoutSeconds)
	fmt.Printf("Binary:  %s\n", cfg.Chronicle.Binary)
	fmt.Printf("Judge:   %v\n", cfg.Judge.Enabled)
	if cfg.Judge.Enabled {
		fmt.Printf("  Model:       %s\n", cfg.Judge.Model)
		fmt.Printf("  Max retries: %d\n", cfg.Judge.MaxRetries)
		fmt.Printf("  Diff chars:  %d\n", cfg.Judge.DiffMaxChars)
	}
	for _, taskID := range taskIDs {
		t, err := task.Load(cfg.Eval.TasksDir, taskID)
		if err != nil {
			return err
		}
		fmt.Printf("\nTask: %s (%s)\n", t.ID, t.Difficulty)
		fmt.Printf("Name: %s\n", t.Name)
		fmt.Printf("Ground truth: %d items\n", len(t.GroundTruth))
		for _, gt := range t.GroundTruth {
			content := gt.Content
			if len(content) > 60 {
				content = content[:60] + "..."
			}
			fmt.Printf("  [%s] %s: %s\n", gt.Tier, gt.Category, content)
		}
	}
	return nil
}
