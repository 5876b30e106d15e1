package extract

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gotwalt/chronicle/internal/result"
)

// ExportStatus distinguishes "found nothing" from "call failed".
type ExportStatus int

const (
	// StatusOK means export succeeded and produced annotations.
	StatusOK ExportStatus = iota
	// StatusEmpty means the tool reported no annotations. An agent that
	// never annotates is a valid, scorable outcome.
	StatusEmpty
)

// Export is the tri-state outcome of the chronicle export subcommand.
type Export struct {
	Status      ExportStatus
	Annotations []result.Annotation
}

// ExportAnnotations runs `chronicle export` in the sandbox and parses its
// line-delimited JSON output. A non-zero exit is StatusEmpty, not an error.
// A JSON syntax error on any line is fatal for the whole parse: line
// boundaries are structural. Missing sub-fields within a valid line default
// to empty values.
func ExportAnnotations(repoDir, chronicleBinary string) (*Export, error) {
	cmd := exec.Command(chronicleBinary, "export")
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return &Export{Status: StatusEmpty}, nil
	}

	annotations, err := ParseExportLines(string(out))
	if err != nil {
		return nil, err
	}
	if len(annotations) == 0 {
		return &Export{Status: StatusEmpty}, nil
	}
	return &Export{Status: StatusOK, Annotations: annotations}, nil
}

// exportLine mirrors one line of chronicle export output. Pointer fields
// separate "absent" from "empty" so defaults are explicit.
type exportLine struct {
	CommitSHA  string `json:"commit_sha"`
	Timestamp  string `json:"timestamp"`
	Annotation struct {
		Summary string `json:"summary"`
		Wisdom  []struct {
			Category string  `json:"category"`
			Content  string  `json:"content"`
			File     *string `json:"file"`
		} `json:"wisdom"`
	} `json:"annotation"`
}

// ParseExportLines parses line-delimited export JSON into annotations.
func ParseExportLines(output string) ([]result.Annotation, error) {
	var annotations []result.Annotation
	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var el exportLine
		if err := json.Unmarshal([]byte(line), &el); err != nil {
			return nil, fmt.Errorf("parsing export line %d: %w", i+1, err)
		}
		ann := result.Annotation{
			CommitSHA: el.CommitSHA,
			Timestamp: el.Timestamp,
			Summary:   el.Annotation.Summary,
		}
		for _, w := range el.Annotation.Wisdom {
			entry := result.WisdomEntry{
				Category: w.Category,
				Content:  w.Content,
			}
			if w.File != nil {
				entry.File = *w.File
			}
			ann.Wisdom = append(ann.Wisdom, entry)
		}
		annotations = append(annotations, ann)
	}
	return annotations, nil
}
