package judge_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotwalt/chronicle/internal/judge"
)

const taskToml = `
[task]
id = "cache-bug"
name = "Cache bug"

[instructions]
prompt = "fix the cache bug"

[setup]
init_script = "setup.sh"

[[ground_truth]]
category = "gotcha"
content = "eviction is racy"
tier = "standard"

[[ground_truth]]
category = "insight"
content = "cache is LRU"
tier = "standard"

[[ground_truth]]
category = "dead_end"
content = "locking everything deadlocks"
tier = "deep"
`

func writeTasksDir(t *testing.T) string {
	t.Helper()
	tasksDir := t.TempDir()
	dir := filepath.Join(tasksDir, "cache-bug")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task.toml"), []byte(taskToml), 0o644))
	return tasksDir
}

func writeRunLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(t, err)
	}
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestJudgeLog(t *testing.T) {
	tasksDir := writeTasksDir(t)
	runLine := `{"run": {"task_id": "cache-bug", "prompt_variant": "baseline", "annotations": [{"commit_sha": "abc", "summary": "s", "wisdom": [{"category": "gotcha", "content": "eviction races"}]}], "success": true}, "scores": {"task_id": "cache-bug", "prompt_variant": "baseline", "wisdom_count": 1, "custom_field": 42}}`
	logPath := writeRunLog(t, runLine)

	j := newTestJudge(&scriptedCompleter{
		quality:  []string{qualityReply},
		coverage: coverageReply,
	})
	outPath, err := judge.JudgeLog(context.Background(), j, logPath, tasksDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(logPath), judge.RejudgedLogName), outPath)

	lines := readLines(t, outPath)
	require.Len(t, lines, 1)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &out))
	var scores map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out["scores"], &scores))

	// judge is populated, unmodeled fields survive.
	assert.Contains(t, scores, "judge")
	assert.JSONEq(t, "42", string(scores["custom_field"]))

	var judgeScores map[string]any
	require.NoError(t, json.Unmarshal(scores["judge"], &judgeScores))
	assert.Equal(t, "test-model", judgeScores["judge_model"])
	assert.Len(t, judgeScores["coverage_results"], 3)
}

func TestJudgeLogUnknownTaskCopiedThrough(t *testing.T) {
	tasksDir := writeTasksDir(t)
	runLine := `{"run": {"task_id": "no-such-task", "success": false}, "scores": {"task_id": "no-such-task"}}`
	logPath := writeRunLog(t, runLine)

	j := newTestJudge(&scriptedCompleter{})
	outPath, err := judge.JudgeLog(context.Background(), j, logPath, tasksDir)
	require.NoError(t, err)

	lines := readLines(t, outPath)
	require.Len(t, lines, 1)
	assert.JSONEq(t, runLine, lines[0])
}

func TestJudgeLogPreservesLineOrder(t *testing.T) {
	tasksDir := writeTasksDir(t)
	good := `{"run": {"task_id": "cache-bug", "success": true}, "scores": {"task_id": "cache-bug"}}`
	unknown := `{"run": {"task_id": "no-such-task"}, "scores": {"task_id": "no-such-task"}}`
	logPath := writeRunLog(t, good, "", unknown)

	j := newTestJudge(&scriptedCompleter{coverage: coverageReply})
	outPath, err := judge.JudgeLog(context.Background(), j, logPath, tasksDir)
	require.NoError(t, err)

	lines := readLines(t, outPath)
	require.Len(t, lines, 2)

	var first, second map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Contains(t, string(first["run"]), "cache-bug")
	assert.Contains(t, string(second["run"]), "no-such-task")
}

func TestJudgeLogMalformedLine(t *testing.T) {
	tasksDir := writeTasksDir(t)
	logPath := writeRunLog(t, "not json at all")

	j := newTestJudge(&scriptedCompleter{})
	_, err := judge.JudgeLog(context.Background(), j, logPath, tasksDir)
	require.Error(t, err)
}
