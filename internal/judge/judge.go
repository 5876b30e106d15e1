// Package judge obtains LLM quality ratings for wisdom entries and coverage
// verdicts for planted ground truth, tolerating unreliable model output.
package judge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gotwalt/chronicle/internal/config"
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// ErrNoCredential means no API key is configured. Judging is skipped for
// the run; the batch continues with heuristic scores only.
var ErrNoCredential = errors.New("ANTHROPIC_API_KEY not set; set it or disable judging")

// Completer sends one system+user request to the judge model and returns
// the raw text reply. Retries for transient failures belong to the
// implementation.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Judge runs the two rating passes against a configured Completer.
type Judge struct {
	completer    Completer
	model        string
	diffMaxChars int
	pause        time.Duration
}

// New builds a judge backed by the Anthropic API, resolving the credential
// from the environment. Returns ErrNoCredential when no key is available.
func New(cfg *config.Config) (*Judge, error) {
	completer, err := newAnthropicCompleter(cfg.Judge.Model, cfg.Judge.MaxRetries)
	if err != nil {
		return nil, err
	}
	return NewWithCompleter(completer, cfg.Judge.Model, cfg.Judge.DiffMaxChars,
		time.Duration(cfg.Judge.PauseMS)*time.Millisecond), nil
}

// NewWithCompleter builds a judge around an explicit Completer. Tests use
// this to substitute deterministic responses.
func NewWithCompleter(c Completer, model string, diffMaxChars int, pause time.Duration) *Judge {
	return &Judge{completer: c, model: model, diffMaxChars: diffMaxChars, pause: pause}
}

// JudgeRun runs the per-entry quality pass and the per-run coverage pass
// for one run and aggregates the results. Per-entry failures drop the entry;
// a coverage failure yields an all-missed verdict with the reason recorded.
func (j *Judge) JudgeRun(ctx context.Context, run *result.RunResult, t *task.Task) *result.JudgeScores {
	var quality []result.WisdomQualityScore
	entryIdx := 0
	for _, ann := range run.Annotations {
		for _, w := range ann.Wisdom {
			score, err := j.judgeEntry(ctx, run, t, entryIdx, w)
			if err != nil {
				log.Printf("warning: quality judge failed for entry %d: %v", entryIdx, err)
			} else {
				quality = append(quality, *score)
			}
			entryIdx++
			// Sequential calls with a fixed pause; external rate limits.
			if j.pause > 0 {
				time.Sleep(j.pause)
			}
		}
	}

	coverage := j.judgeCoverage(ctx, run, t)

	return aggregate(quality, coverage, j.model)
}

// judgeEntry rates a single wisdom entry. Absent or mistyped response
// fields take documented defaults: ratings 3, classification
// moderate_value, reasoning empty.
func (j *Judge) judgeEntry(ctx context.Context, run *result.RunResult, t *task.Task, entryIdx int, entry result.WisdomEntry) (*result.WisdomQualityScore, error) {
	user := qualityUser(t.Prompt, run.CommitMessages, run.DiffText, j.diffMaxChars, entry)
	reply, err := j.completer.Complete(ctx, qualitySystem, user)
	if err != nil {
		return nil, err
	}
	obj, err := parseResponse(reply)
	if err != nil {
		return nil, err
	}
	return &result.WisdomQualityScore{
		EntryIndex:     entryIdx,
		Category:       entry.Category,
		Redundancy:     intField(obj, "redundancy", 3),
		Specificity:    intField(obj, "specificity", 3),
		Actionability:  intField(obj, "actionability", 3),
		Depth:          intField(obj, "depth", 3),
		Accuracy:       intField(obj, "accuracy", 3),
		Classification: strField(obj, "classification", "moderate_value"),
		Reasoning:      strField(obj, "reasoning", ""),
	}, nil
}

// judgeCoverage issues the single per-run coverage call. Every ground-truth
// item gets exactly one verdict: items the model omits are filled as missed,
// and a failed call marks everything missed with the failure as explanation.
func (j *Judge) judgeCoverage(ctx context.Context, run *result.RunResult, t *task.Task) []result.CoverageResult {
	if len(t.GroundTruth) == 0 {
		return nil
	}

	user := coverageUser(t.Prompt, t.GroundTruth, run.Annotations)
	reply, err := j.completer.Complete(ctx, coverageSystem, user)
	if err != nil {
		return allMissed(t.GroundTruth, fmt.Sprintf("Judge call failed: %v", err))
	}
	obj, err := parseResponse(reply)
	if err != nil {
		return allMissed(t.GroundTruth, fmt.Sprintf("Judge call failed: %v", err))
	}

	items, _ := obj["items"].([]any)
	var results []result.CoverageResult
	covered := make(map[int]bool)
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		gtIdx := intField(item, "ground_truth_index", 0)
		tier := "unknown"
		if gtIdx >= 0 && gtIdx < len(t.GroundTruth) {
			tier = t.GroundTruth[gtIdx].Tier
		}
		results = append(results, result.CoverageResult{
			GroundTruthIndex: gtIdx,
			Tier:             tier,
			Coverage:         strField(item, "coverage", "missed"),
			MatchedEntry:     optIntField(item, "matched_entry"),
			Explanation:      strField(item, "explanation", ""),
		})
		covered[gtIdx] = true
	}
	for i, gt := range t.GroundTruth {
		if !covered[i] {
			results = append(results, result.CoverageResult{
				GroundTruthIndex: i,
				Tier:             gt.Tier,
				Coverage:         "missed",
				Explanation:      "Not returned by judge; assumed missed.",
			})
		}
	}
	return results
}

func allMissed(groundTruth []task.GroundTruth, reason string) []result.CoverageResult {
	results := make([]result.CoverageResult, 0, len(groundTruth))
	for i, gt := range groundTruth {
		results = append(results, result.CoverageResult{
			GroundTruthIndex: i,
			Tier:             gt.Tier,
			Coverage:         "missed",
			Explanation:      reason,
		})
	}
	return results
}
