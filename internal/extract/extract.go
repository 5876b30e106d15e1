// Package extract recovers agent-authored commits, diffs, changed files,
// and exported annotation records from a sandbox after the agent finishes.
package extract

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/gotwalt/chronicle/internal/provision"
	"github.com/gotwalt/chronicle/internal/result"
)

// BaselineTag returns the marker to diff against. The post-install
// eval-agent-start tag is preferred so installed instruction files are never
// misattributed to the agent; eval-setup-complete is the fallback for
// sandboxes provisioned by older tooling.
func BaselineTag(repoDir string) string {
	cmd := exec.Command("git", "tag", "-l", provision.TagAgentStart)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err == nil && strings.Contains(string(out), provision.TagAgentStart) {
		return provision.TagAgentStart
	}
	return provision.TagSetupComplete
}

// CommitMessages returns the full messages of commits strictly after the
// baseline, oldest first.
func CommitMessages(repoDir string) ([]string, error) {
	tag := BaselineTag(repoDir)
	out, err := runGit(repoDir, "log", tag+"..HEAD", "--format=%B%x00", "--reverse")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	var messages []string
	for _, m := range strings.Split(out, "\x00") {
		if m = strings.TrimSpace(m); m != "" {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

// FilesChanged returns the unique paths changed versus the baseline.
func FilesChanged(repoDir string) ([]string, error) {
	tag := BaselineTag(repoDir)
	out, err := runGit(repoDir, "diff", "--name-only", tag+"..HEAD")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range strings.Split(out, "\n") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// DiffText returns the full textual diff versus the baseline.
func DiffText(repoDir string) (string, error) {
	tag := BaselineTag(repoDir)
	return runGit(repoDir, "diff", tag+"..HEAD")
}

func runGit(repoDir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = ": " + strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s%s: %w", strings.Join(args, " "), detail, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ExtractAll gathers commit messages, changed files, the full diff, and the
// exported annotations from the sandbox.
func ExtractAll(repoDir, chronicleBinary string) (*result.RunResult, error) {
	messages, err := CommitMessages(repoDir)
	if err != nil {
		return nil, err
	}
	files, err := FilesChanged(repoDir)
	if err != nil {
		return nil, err
	}
	diff, err := DiffText(repoDir)
	if err != nil {
		return nil, err
	}
	export, err := ExportAnnotations(repoDir, chronicleBinary)
	if err != nil {
		return nil, err
	}
	return &result.RunResult{
		Annotations:    export.Annotations,
		CommitMessages: messages,
		FilesChanged:   files,
		DiffText:       diff,
	}, nil
}
