package result

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogName is the file each batch appends its run entries to.
const LogName = "runs.jsonl"

// CreateRunDir creates a timestamped output directory under baseDir and
// points a "latest" symlink at it.
func CreateRunDir(baseDir string) (string, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	runDir := filepath.Join(baseDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

// AppendLog appends one entry to the run log, creating the file if needed.
// The entry is durable before AppendLog returns so a later task failure
// cannot lose it.
func AppendLog(path string, entry *LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending run log: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing run log: %w", err)
	}
	return nil
}

// LoadLog parses a run log into entries. Blank lines are skipped so a
// partially written file from a crashed batch still loads.
func LoadLog(path string) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, lineNum, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}
	return entries, nil
}
