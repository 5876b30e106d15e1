package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gotwalt/chronicle/internal/analysis"
	"github.com/gotwalt/chronicle/internal/report"
	"github.com/gotwalt/chronicle/internal/result"
)

func judgedReport(taskID string) *result.ScoreReport {
	return &result.ScoreReport{
		TaskID:          taskID,
		PromptVariant:   "baseline",
		AnnotationCount: 1,
		WisdomCount:     2,
		Heuristic:       result.HeuristicScores{MsgOverlap: 0.25, GroundingRatio: 0.5},
		Judge: &result.JudgeScores{
			MeanRedundancy:     4.0,
			MeanAccuracy:       4.5,
			HighValueCount:     1,
			ModerateValueCount: 1,
			CoverageResults: []result.CoverageResult{
				{GroundTruthIndex: 0, Tier: "standard", Coverage: "full"},
				{GroundTruthIndex: 1, Tier: "standard", Coverage: "partial"},
				{GroundTruthIndex: 2, Tier: "deep", Coverage: "missed"},
			},
			JudgeModel: "test-model",
		},
	}
}

func TestWriteHeuristicSummary(t *testing.T) {
	var buf bytes.Buffer
	reports := []*result.ScoreReport{judgedReport("cache-bug")}
	if err := report.WriteHeuristicSummary(&buf, reports); err != nil {
		t.Fatalf("WriteHeuristicSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"cache-bug", "0.25", "0.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJudgeSummary(t *testing.T) {
	var buf bytes.Buffer
	reports := []*result.ScoreReport{judgedReport("cache-bug")}
	if err := report.WriteJudgeSummary(&buf, reports); err != nil {
		t.Fatalf("WriteJudgeSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"LLM JUDGE -- Quality",
		"LLM JUDGE -- Coverage",
		"1H/1M/0L/0N",
		// standard tier: 1 full + 1 partial of 2 = 100% any-coverage.
		"1+1p/2 (100%)",
		// deep tier: 0 covered of 1.
		"0+0p/1 (0%)",
		"model: test-model",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJudgeSummarySkipsUnjudged(t *testing.T) {
	var buf bytes.Buffer
	reports := []*result.ScoreReport{{TaskID: "cache-bug"}}
	if err := report.WriteJudgeSummary(&buf, reports); err != nil {
		t.Fatalf("WriteJudgeSummary: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for unjudged reports:\n%s", buf.String())
	}
}

func TestWriteComparison(t *testing.T) {
	cmp := &analysis.ComparisonReport{
		Baseline: analysis.VariantSummary{
			Variant:              "baseline",
			MeanWisdomCount:      2.0,
			MeanQuality:          map[string]float64{"redundancy": 3.0, "specificity": 3.0, "actionability": 3.0, "depth": 3.0, "accuracy": 3.0},
			ClassificationCounts: map[string]int{"high_value": 1},
			CoverageByTier: map[string]map[string]int{
				"surface":  {},
				"standard": {"full": 2, "partial": 0, "missed": 2},
				"deep":     {},
			},
		},
		Experiment: analysis.VariantSummary{
			Variant:              "concise",
			MeanWisdomCount:      3.0,
			MeanQuality:          map[string]float64{"redundancy": 4.0, "specificity": 4.0, "actionability": 4.0, "depth": 4.0, "accuracy": 4.0},
			ClassificationCounts: map[string]int{"high_value": 2},
			CoverageByTier: map[string]map[string]int{
				"surface":  {},
				"standard": {"full": 3, "partial": 0, "missed": 1},
				"deep":     {},
			},
		},
		CoverageDelta: map[string]float64{"surface": 0, "standard": 0.25, "deep": 0},
	}

	var buf bytes.Buffer
	if err := report.WriteComparison(&buf, cmp); err != nil {
		t.Fatalf("WriteComparison: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"VARIANT COMPARISON: baseline vs concise",
		"Quality: depth",
		"2/4",
		"3/4",
		"+25%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWritePerTaskCoverage(t *testing.T) {
	rows := []analysis.TaskCoverage{
		{
			TaskID:   "cache-bug",
			Baseline: map[string]int{"standard": 2},
			Experim:  map[string]int{"standard": 4},
		},
	}
	var buf bytes.Buffer
	if err := report.WritePerTaskCoverage(&buf, rows); err != nil {
		t.Fatalf("WritePerTaskCoverage: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "cache-bug") || !strings.Contains(out, "2->4") {
		t.Errorf("output:\n%s", out)
	}
}
