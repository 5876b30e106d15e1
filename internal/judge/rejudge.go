package judge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// RejudgedLogName is the sibling file re-judged results are written to.
const RejudgedLogName = "judged-runs.jsonl"

// JudgeLog re-judges previously persisted runs without re-executing the
// agent. Each non-blank input line produces exactly one output line in the
// same order, with scores.judge populated on success and the rest of the
// stored entry untouched. Lines whose task config cannot be loaded are
// copied through unchanged.
func JudgeLog(ctx context.Context, j *Judge, logPath, tasksDir string) (string, error) {
	in, err := os.Open(logPath)
	if err != nil {
		return "", fmt.Errorf("opening run log: %w", err)
	}
	defer in.Close()

	outPath := filepath.Join(filepath.Dir(logPath), RejudgedLogName)
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lineNum++

		judged, err := rejudgeLine(ctx, j, line, tasksDir, lineNum)
		if err != nil {
			return "", err
		}
		if _, err := out.Write(append(judged, '\n')); err != nil {
			return "", fmt.Errorf("writing %s: %w", outPath, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading run log: %w", err)
	}
	return outPath, nil
}

// rejudgeLine re-runs both judging passes for one stored entry. The line is
// manipulated as raw JSON so fields this tool does not model survive the
// round trip.
func rejudgeLine(ctx context.Context, j *Judge, line []byte, tasksDir string, lineNum int) ([]byte, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("parsing run log line %d: %w", lineNum, err)
	}
	var entry result.LogEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, fmt.Errorf("parsing run log line %d: %w", lineNum, err)
	}

	log.Printf("judging run %d: %s", lineNum, entry.Run.TaskID)

	t, err := task.Load(tasksDir, entry.Run.TaskID)
	if err != nil {
		log.Printf("warning: could not load task config for %s: %v", entry.Run.TaskID, err)
		return line, nil
	}

	judgeScores := j.JudgeRun(ctx, &entry.Run, t)

	scores := map[string]json.RawMessage{}
	if rawScores, ok := raw["scores"]; ok {
		if err := json.Unmarshal(rawScores, &scores); err != nil {
			return nil, fmt.Errorf("parsing scores on line %d: %w", lineNum, err)
		}
	}
	judgeJSON, err := json.Marshal(judgeScores)
	if err != nil {
		return nil, fmt.Errorf("marshaling judge scores: %w", err)
	}
	scores["judge"] = judgeJSON
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("marshaling scores: %w", err)
	}
	raw["scores"] = scoresJSON

	return json.Marshal(raw)
}
