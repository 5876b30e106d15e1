package judge_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotwalt/chronicle/internal/judge"
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// scriptedCompleter routes requests to canned responses: quality calls get
// popped from the quality queue, the coverage call returns coverage (or an
// error when coverageErr is set).
type scriptedCompleter struct {
	quality     []string
	qualityErrs []error
	coverage    string
	coverageErr error
	calls       int
}

func (s *scriptedCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.Contains(system, "ground truth") {
		if s.coverageErr != nil {
			return "", s.coverageErr
		}
		return s.coverage, nil
	}
	i := s.calls
	s.calls++
	if i < len(s.qualityErrs) && s.qualityErrs[i] != nil {
		return "", s.qualityErrs[i]
	}
	if i < len(s.quality) {
		return s.quality[i], nil
	}
	return "", errors.New("no scripted response")
}

func testTask() *task.Task {
	return &task.Task{
		ID:     "cache-bug",
		Prompt: "fix the cache bug",
		GroundTruth: []task.GroundTruth{
			{Category: "gotcha", Content: "eviction is racy", Tier: task.TierStandard},
			{Category: "insight", Content: "cache is LRU", Tier: task.TierStandard},
			{Category: "dead_end", Content: "locking everything deadlocks", Tier: task.TierDeep},
		},
	}
}

func testRun() *result.RunResult {
	return &result.RunResult{
		TaskID:         "cache-bug",
		PromptVariant:  "baseline",
		CommitMessages: []string{"fix eviction race"},
		Annotations: []result.Annotation{{
			CommitSHA: "abc123",
			Summary:   "chose locking over channels",
			Wisdom: []result.WisdomEntry{
				{Category: "gotcha", Content: "eviction races with reads", File: "cache.go"},
				{Category: "insight", Content: "the cache is LRU"},
			},
		}},
		Success: true,
	}
}

const qualityReply = `{"redundancy": 4, "specificity": 5, "actionability": 3, "depth": 4, "accuracy": 5, "classification": "high_value", "reasoning": "useful"}`

const coverageReply = `{"items": [
  {"ground_truth_index": 0, "coverage": "full", "matched_entry": 0, "explanation": "matches"},
  {"ground_truth_index": 1, "coverage": "partial", "matched_entry": 1, "explanation": "touches on it"}
]}`

func newTestJudge(c judge.Completer) *judge.Judge {
	return judge.NewWithCompleter(c, "test-model", 4000, 0)
}

func TestJudgeRunAggregates(t *testing.T) {
	completer := &scriptedCompleter{
		quality:  []string{qualityReply, qualityReply},
		coverage: coverageReply,
	}
	scores := newTestJudge(completer).JudgeRun(context.Background(), testRun(), testTask())
	require.NotNil(t, scores)

	assert.Equal(t, 4.0, scores.MeanRedundancy)
	assert.Equal(t, 5.0, scores.MeanSpecificity)
	assert.Equal(t, 2, scores.HighValueCount)
	assert.Equal(t, 0, scores.NoiseCount)
	assert.Equal(t, "test-model", scores.JudgeModel)

	// 2 of 2 standard items covered (full+partial), 1 of 2 full.
	assert.Equal(t, 1.0, scores.StandardCoverage)
	assert.Equal(t, 0.5, scores.StandardFull)
	// Deep item was omitted by the model: filled as missed.
	assert.Equal(t, 0.0, scores.DeepCoverage)
	// Surface tier has no items in this task.
	assert.Equal(t, 0.0, scores.SurfaceCoverage)
}

func TestJudgeRunCoverageInvariant(t *testing.T) {
	completer := &scriptedCompleter{
		quality:  []string{qualityReply, qualityReply},
		coverage: coverageReply,
	}
	scores := newTestJudge(completer).JudgeRun(context.Background(), testRun(), testTask())
	require.NotNil(t, scores)

	// Exactly one verdict per ground-truth item, omitted ones missed.
	require.Len(t, scores.CoverageResults, 3)
	seen := make(map[int]string)
	for _, cr := range scores.CoverageResults {
		seen[cr.GroundTruthIndex] = cr.Coverage
	}
	assert.Equal(t, "full", seen[0])
	assert.Equal(t, "partial", seen[1])
	assert.Equal(t, "missed", seen[2])
}

func TestJudgeRunCoverageCallFailure(t *testing.T) {
	completer := &scriptedCompleter{
		quality:     []string{qualityReply, qualityReply},
		coverageErr: errors.New("api unavailable"),
	}
	scores := newTestJudge(completer).JudgeRun(context.Background(), testRun(), testTask())
	require.NotNil(t, scores)

	require.Len(t, scores.CoverageResults, 3)
	for _, cr := range scores.CoverageResults {
		assert.Equal(t, "missed", cr.Coverage)
		assert.Contains(t, cr.Explanation, "api unavailable")
		assert.Nil(t, cr.MatchedEntry)
	}
	assert.Equal(t, 0.0, scores.StandardCoverage)
	assert.Equal(t, 0.0, scores.DeepCoverage)
}

func TestJudgeRunDropsFailedQualityEntries(t *testing.T) {
	completer := &scriptedCompleter{
		quality:     []string{"", qualityReply},
		qualityErrs: []error{errors.New("rate limited"), nil},
		coverage:    coverageReply,
	}
	scores := newTestJudge(completer).JudgeRun(context.Background(), testRun(), testTask())
	require.NotNil(t, scores)

	// The failed entry is dropped, not placeholdered; the survivor keeps
	// its original global index.
	require.Len(t, scores.QualityScores, 1)
	assert.Equal(t, 1, scores.QualityScores[0].EntryIndex)
	assert.Equal(t, 4.0, scores.MeanRedundancy)
	assert.Equal(t, 1, scores.HighValueCount)
}

func TestJudgeRunUnparseableQualityReply(t *testing.T) {
	completer := &scriptedCompleter{
		quality:  []string{"no JSON here at all", qualityReply},
		coverage: coverageReply,
	}
	scores := newTestJudge(completer).JudgeRun(context.Background(), testRun(), testTask())
	require.NotNil(t, scores)
	require.Len(t, scores.QualityScores, 1)
}

func TestJudgeRunNoWisdomEntries(t *testing.T) {
	run := &result.RunResult{TaskID: "cache-bug", PromptVariant: "baseline", Success: true}
	completer := &scriptedCompleter{coverage: `{"items": []}`}
	scores := newTestJudge(completer).JudgeRun(context.Background(), run, testTask())
	require.NotNil(t, scores)

	assert.Empty(t, scores.QualityScores)
	assert.Equal(t, 0.0, scores.MeanRedundancy)
	require.Len(t, scores.CoverageResults, 3)
	for _, cr := range scores.CoverageResults {
		assert.Equal(t, "missed", cr.Coverage)
	}
}

func TestJudgeRunIdempotent(t *testing.T) {
	build := func() *judge.Judge {
		return newTestJudge(&scriptedCompleter{
			quality:  []string{qualityReply, qualityReply},
			coverage: coverageReply,
		})
	}
	first := build().JudgeRun(context.Background(), testRun(), testTask())
	second := build().JudgeRun(context.Background(), testRun(), testTask())
	assert.Equal(t, first, second)
}
