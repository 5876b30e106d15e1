// Package runner sequences one task evaluation: provision the sandbox, run
// the agent, extract state, and score. Failures in any stage are isolated
// to the task: they become a failed RunResult, never a batch abort.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotwalt/chronicle/internal/agent"
	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/extract"
	"github.com/gotwalt/chronicle/internal/provision"
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/scoring"
	"github.com/gotwalt/chronicle/internal/task"
)

// Opts bounds a single task run.
type Opts struct {
	// WorkDir, when set, is used instead of a fresh scratch directory and
	// is not cleaned up; the caller owns it.
	WorkDir string
	Variant string
}

// RunTask executes the full pipeline for one task and heuristically scores
// the outcome. The returned RunResult is always usable: stage errors are
// converted into a failed result with empty extracted state and the error
// text recorded.
func RunTask(ctx context.Context, cfg *config.Config, t *task.Task, opts *Opts) (*result.RunResult, *result.ScoreReport, error) {
	workDir := opts.WorkDir
	cleanup := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "chronicle-eval-")
		if err != nil {
			return nil, nil, fmt.Errorf("creating scratch dir: %w", err)
		}
		workDir = dir
		cleanup = true
	}
	if cleanup {
		defer os.RemoveAll(workDir)
	}

	run := execute(ctx, cfg, t, opts.Variant, workDir)
	report := scoring.Score(run)
	return run, report, nil
}

// execute runs provision, agent, and extraction, converting any stage error
// into a failed RunResult.
func execute(ctx context.Context, cfg *config.Config, t *task.Task, variant, workDir string) *result.RunResult {
	fail := func(err error) *result.RunResult {
		return &result.RunResult{
			TaskID:         t.ID,
			PromptVariant:  variant,
			Annotations:    []result.Annotation{},
			CommitMessages: []string{},
			FilesChanged:   []string{},
			Success:        false,
			Error:          err.Error(),
		}
	}

	repoDir := filepath.Join(workDir, t.ID)
	if err := provision.Provision(cfg, t, variant, repoDir); err != nil {
		return fail(err)
	}

	prompt, err := agent.BuildPrompt(t, cfg.Chronicle.Binary)
	if err != nil {
		return fail(err)
	}
	agentResult, err := agent.Run(ctx, agent.OptsFromConfig(cfg, t.ID, repoDir), prompt)
	if err != nil {
		return fail(err)
	}

	extracted, err := extract.ExtractAll(repoDir, cfg.Chronicle.Binary)
	if err != nil {
		return fail(err)
	}

	extracted.TaskID = t.ID
	extracted.PromptVariant = variant
	extracted.AgentOutput = agentResult.Output
	extracted.ElapsedSeconds = agentResult.Elapsed.Seconds()
	extracted.Success = true
	return extracted
}
