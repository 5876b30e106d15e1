// Package agent runs the external coding agent against a provisioned
// sandbox under hard resource limits and captures everything needed for
// scoring.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/task"
)

// TimeoutError reports that the agent subprocess hit its wall-clock limit.
// The orchestrator records it as a failed run; it is never retried.
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent timed out on %s after %s", e.TaskID, e.Timeout)
}

// RunOpts bounds a single agent execution.
type RunOpts struct {
	Binary       string
	Model        string
	MaxBudgetUSD float64
	Timeout      time.Duration
	AllowedTools []string
	WorkDir      string
	TaskID       string
}

// Result carries the captured transcript and timing of one agent run.
type Result struct {
	Output  string
	Elapsed time.Duration
}

// BuildPrompt constructs the full natural-language prompt for the agent,
// embedding the task instructions and the exact annotate invocation
// template.
func BuildPrompt(t *task.Task, chronicleBinary string) (string, error) {
	absBinary, err := filepath.Abs(chronicleBinary)
	if err != nil {
		return "", fmt.Errorf("resolving chronicle binary: %w", err)
	}

	return fmt.Sprintf(`You are working on a software project. Here is your task:

%s

After fixing the bug and verifying tests pass, commit your changes with a
descriptive commit message.

Then annotate the commit using Chronicle. Use the annotate skill in
.claude/skills/annotate/SKILL.md for guidance. Here is the command pattern:

`+"```bash"+`
%s annotate --live << 'EOF'
{
  "commit": "HEAD",
  "summary": "WHY you chose this approach (not what you changed)",
  "wisdom": [
    {
      "category": "dead_end|gotcha|insight|unfinished_thread",
      "content": "What you learned that isn't visible in the code",
      "file": "path/to/relevant/file"
    }
  ]
}
EOF
`+"```"+`

Capture what you learned during this task, especially:
- Approaches you tried that didn't work (dead_end)
- Non-obvious traps or constraints (gotcha)
- Key insights about the codebase (insight)
- Anything left unfinished or uncertain (unfinished_thread)
`, strings.TrimSpace(t.Prompt), absBinary), nil
}

// OptsFromConfig maps the agent section of the config onto RunOpts for one
// task sandbox.
func OptsFromConfig(cfg *config.Config, taskID, workDir string) *RunOpts {
	return &RunOpts{
		Binary:       cfg.Agent.Binary,
		Model:        cfg.Agent.Model,
		MaxBudgetUSD: cfg.Agent.MaxBudgetUSD,
		Timeout:      time.Duration(cfg.Agent.TimeoutSeconds) * time.Second,
		AllowedTools: cfg.Agent.AllowedTools,
		WorkDir:      workDir,
		TaskID:       taskID,
	}
}

// Run executes the agent with the sandbox as working directory. Elapsed time
// is measured around the subprocess only. On a non-zero exit the captured
// output is still returned with stderr appended; the caller decides
// pass/fail. A wall-clock timeout returns a *TimeoutError.
func Run(ctx context.Context, opts *RunOpts, prompt string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	args := []string{
		"-p", prompt,
		"--model", opts.Model,
		"--output-format", "text",
		"--permission-mode", "bypassPermissions",
		"--max-budget-usd", fmt.Sprintf("%.2f", opts.MaxBudgetUSD),
		"--tools", strings.Join(opts.AllowedTools, ","),
	}
	cmd := exec.CommandContext(runCtx, opts.Binary, args...)
	cmd.Dir = opts.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, &TimeoutError{TaskID: opts.TaskID, Timeout: opts.Timeout}
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n--- STDERR ---\n" + stderr.String()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("launching agent %s: %w", opts.Binary, err)
		}
		// Non-zero exit: keep the transcript, note the failure in it.
		output += fmt.Sprintf("\n--- AGENT EXIT: %d ---\n", exitErr.ExitCode())
	}

	return &Result{Output: output, Elapsed: elapsed}, nil
}
