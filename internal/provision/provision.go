// Package provision builds an isolated, git-tracked sandbox repository for
// one task and installs the chronicle instructions into it.
package provision

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/task"
)

// Tag names the setup script and the installer leave in the sandbox. The
// extractor prefers TagAgentStart so installed instruction files are never
// attributed to the agent.
const (
	TagSetupComplete = "eval-setup-complete"
	TagAgentStart    = "eval-agent-start"
)

// installCommitDate keeps the install commit reproducible across runs.
const installCommitDate = "2025-01-15T10:01:00+00:00"

// Error is a fatal setup defect for one task. It is never retried; the
// orchestrator records the task as failed and moves on.
type Error struct {
	TaskID string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provisioning %s: %s: %v", e.TaskID, e.Reason, e.Err)
	}
	return fmt.Sprintf("provisioning %s: %s", e.TaskID, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	gitChronicleRe = regexp.MustCompile(`git chronicle\b`)
	gitDashChronRe = regexp.MustCompile(`git-chronicle\b`)
)

// RewriteBinaryRefs replaces the two literal tool-invocation patterns with
// an absolute binary path so the sandboxed agent does not depend on PATH.
func RewriteBinaryRefs(text, absBinary string) string {
	text = gitChronicleRe.ReplaceAllString(text, absBinary)
	return gitDashChronRe.ReplaceAllString(text, absBinary)
}

// Provision runs the task's setup script against repoDir, verifies the
// sandbox it produced, installs the chronicle instructions for the given
// prompt variant, and tags the pre-agent state.
func Provision(cfg *config.Config, t *task.Task, variant, repoDir string) error {
	if err := runSetupScript(t, repoDir); err != nil {
		return err
	}
	if err := installInstructions(cfg, t, variant, repoDir); err != nil {
		return err
	}
	return nil
}

// runSetupScript invokes `bash <init_script> <repoDir>` and verifies the
// setup contract: exit 0, a git repository at repoDir, and the
// eval-setup-complete tag.
func runSetupScript(t *task.Task, repoDir string) error {
	cmd := exec.Command("bash", t.InitScript, repoDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &Error{TaskID: t.ID, Reason: fmt.Sprintf("setup script failed: %s", strings.TrimSpace(string(out))), Err: err}
	}
	if fi, err := os.Stat(filepath.Join(repoDir, ".git")); err != nil || !fi.IsDir() {
		return &Error{TaskID: t.ID, Reason: "setup script did not create a git repository"}
	}
	if !hasTag(repoDir, TagSetupComplete) {
		return &Error{TaskID: t.ID, Reason: fmt.Sprintf("setup script did not create the %s tag", TagSetupComplete)}
	}
	return nil
}

// installInstructions writes the annotate skill (the prompt variant), the
// context skill, and the CLAUDE.md snippet into the sandbox, rewrites tool
// references to the absolute chronicle binary, then commits and tags the
// result so later extraction can separate install from agent work.
func installInstructions(cfg *config.Config, t *task.Task, variant, repoDir string) error {
	absBinary, err := filepath.Abs(cfg.Chronicle.Binary)
	if err != nil {
		return &Error{TaskID: t.ID, Reason: "resolving chronicle binary", Err: err}
	}

	installs := []struct {
		src, dst string
	}{
		{
			src: filepath.Join(cfg.Chronicle.PromptsDir, variant+".md"),
			dst: filepath.Join(repoDir, ".claude", "skills", "annotate", "SKILL.md"),
		},
		{
			src: filepath.Join(cfg.Chronicle.SkillsDir, "context", "SKILL.md"),
			dst: filepath.Join(repoDir, ".claude", "skills", "context", "SKILL.md"),
		},
		{
			src: cfg.Chronicle.SnippetMD,
			dst: filepath.Join(repoDir, ".claude", "CLAUDE.md"),
		},
	}
	for _, in := range installs {
		data, err := os.ReadFile(in.src)
		if err != nil {
			return &Error{TaskID: t.ID, Reason: fmt.Sprintf("reading instruction source %s", in.src), Err: err}
		}
		if err := os.MkdirAll(filepath.Dir(in.dst), 0o755); err != nil {
			return &Error{TaskID: t.ID, Reason: "creating instruction dir", Err: err}
		}
		rewritten := RewriteBinaryRefs(string(data), absBinary)
		if err := os.WriteFile(in.dst, []byte(rewritten), 0o644); err != nil {
			return &Error{TaskID: t.ID, Reason: fmt.Sprintf("writing %s", in.dst), Err: err}
		}
	}

	if err := commitInstall(repoDir); err != nil {
		return &Error{TaskID: t.ID, Reason: "committing instruction install", Err: err}
	}
	if err := runGit(repoDir, nil, "tag", "-f", TagAgentStart); err != nil {
		return &Error{TaskID: t.ID, Reason: "tagging pre-agent state", Err: err}
	}
	return nil
}

func commitInstall(repoDir string) error {
	if err := runGit(repoDir, nil, "add", "-A"); err != nil {
		return err
	}
	env := append(os.Environ(),
		"GIT_AUTHOR_DATE="+installCommitDate,
		"GIT_COMMITTER_DATE="+installCommitDate,
	)
	return runGit(repoDir, env, "commit", "-m", "Add Chronicle annotation skills")
}

func hasTag(repoDir, tag string) bool {
	cmd := exec.Command("git", "tag", "-l", tag)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), tag)
}

func runGit(repoDir string, env []string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	if env != nil {
		cmd.Env = env
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}
