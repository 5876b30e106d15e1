package extract_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gotwalt/chronicle/internal/extract"
	"github.com/gotwalt/chronicle/internal/provision"
)

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// initTaggedRepo builds a repo with one baseline commit tagged
// eval-setup-complete, mirroring what provisioning leaves behind.
func initTaggedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git(t, dir, "init", "-q")
	git(t, dir, "config", "user.email", "eval@example.com")
	git(t, dir, "config", "user.name", "Eval Harness")
	writeFile(t, dir, "main.py", "print('hello')\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "initial state")
	git(t, dir, "tag", provision.TagSetupComplete)
	return dir
}

func TestBaselineTagFallsBackToSetupComplete(t *testing.T) {
	dir := initTaggedRepo(t)
	if got := extract.BaselineTag(dir); got != provision.TagSetupComplete {
		t.Errorf("got %q, want %q", got, provision.TagSetupComplete)
	}
}

func TestBaselineTagPrefersAgentStart(t *testing.T) {
	dir := initTaggedRepo(t)
	writeFile(t, dir, "CLAUDE.md", "instructions\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "Install evaluation instructions")
	git(t, dir, "tag", provision.TagAgentStart)

	if got := extract.BaselineTag(dir); got != provision.TagAgentStart {
		t.Errorf("got %q, want %q", got, provision.TagAgentStart)
	}
}

func TestCommitMessagesOldestFirst(t *testing.T) {
	dir := initTaggedRepo(t)
	writeFile(t, dir, "a.py", "a\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "first change")
	writeFile(t, dir, "b.py", "b\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "second change")

	messages, err := extract.CommitMessages(dir)
	if err != nil {
		t.Fatalf("CommitMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2: %v", len(messages), messages)
	}
	if messages[0] != "first change" || messages[1] != "second change" {
		t.Errorf("order wrong: %v", messages)
	}
}

func TestCommitMessagesNoneAfterBaseline(t *testing.T) {
	dir := initTaggedRepo(t)
	messages, err := extract.CommitMessages(dir)
	if err != nil {
		t.Fatalf("CommitMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages, want 0", len(messages))
	}
}

func TestCommitMessagesExcludeInstallCommit(t *testing.T) {
	dir := initTaggedRepo(t)
	writeFile(t, dir, "CLAUDE.md", "instructions\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "Install evaluation instructions")
	git(t, dir, "tag", provision.TagAgentStart)
	writeFile(t, dir, "fix.py", "fix\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "agent fix")

	messages, err := extract.CommitMessages(dir)
	if err != nil {
		t.Fatalf("CommitMessages: %v", err)
	}
	if len(messages) != 1 || messages[0] != "agent fix" {
		t.Errorf("install commit should be before the baseline: %v", messages)
	}
}

func TestFilesChangedAndDiffText(t *testing.T) {
	dir := initTaggedRepo(t)
	writeFile(t, dir, "main.py", "print('changed')\n")
	writeFile(t, dir, "util.py", "pass\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "edit two files")

	files, err := extract.FilesChanged(dir)
	if err != nil {
		t.Fatalf("FilesChanged: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %v, want two files", files)
	}

	diff, err := extract.DiffText(dir)
	if err != nil {
		t.Fatalf("DiffText: %v", err)
	}
	for _, want := range []string{"main.py", "util.py", "print('changed')"} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q", want)
		}
	}
}

func TestExtractAll(t *testing.T) {
	dir := initTaggedRepo(t)
	writeFile(t, dir, "main.py", "print('fixed')\n")
	git(t, dir, "add", ".")
	git(t, dir, "commit", "-q", "-m", "agent fix")

	line := `{"commit_sha": "abc", "annotation": {"summary": "s", "wisdom": [{"category": "gotcha", "content": "c"}]}}`
	bin := filepath.Join(t.TempDir(), "chronicle")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho '"+line+"'\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	run, err := extract.ExtractAll(dir, bin)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(run.CommitMessages) != 1 || run.CommitMessages[0] != "agent fix" {
		t.Errorf("commit messages: %v", run.CommitMessages)
	}
	if len(run.FilesChanged) != 1 || run.FilesChanged[0] != "main.py" {
		t.Errorf("files changed: %v", run.FilesChanged)
	}
	if run.DiffText == "" {
		t.Error("diff text empty")
	}
	if len(run.Annotations) != 1 {
		t.Errorf("annotations: %v", run.Annotations)
	}
}
