// Package analysis rolls persisted run logs up into per-variant summaries
// and cross-variant comparisons. It is a read-only pass over the JSONL log;
// summaries are always recomputed, never persisted.
package analysis

import (
	"sort"

	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// QualityDimensions names the five judge rating dimensions in display order.
var QualityDimensions = []string{"redundancy", "specificity", "actionability", "depth", "accuracy"}

// VariantSummary aggregates all runs of one prompt variant.
type VariantSummary struct {
	Variant              string
	TasksRun             int
	MeanWisdomCount      float64
	MeanQuality          map[string]float64
	ClassificationCounts map[string]int
	CoverageByTier       map[string]map[string]int
}

// ComparisonReport holds two variant summaries and the per-tier coverage
// delta between them.
type ComparisonReport struct {
	Baseline      VariantSummary
	Experiment    VariantSummary
	CoverageDelta map[string]float64
}

// DetectVariant returns the stored prompt variant when it is homogeneous
// across entries, otherwise the fallback label. It never fails.
func DetectVariant(entries []result.LogEntry, fallback string) string {
	variants := make(map[string]bool)
	for _, e := range entries {
		v := e.Scores.PromptVariant
		if v == "" {
			v = e.Run.PromptVariant
		}
		if v != "" {
			variants[v] = true
		}
	}
	if len(variants) == 1 {
		for v := range variants {
			return v
		}
	}
	return fallback
}

// SummarizeVariant aggregates scores across all runs of one variant.
// Wisdom counts average over every run; quality means average over judged
// runs only; classification and per-tier coverage counts are summed over
// judged runs.
func SummarizeVariant(variant string, entries []result.LogEntry) VariantSummary {
	summary := VariantSummary{
		Variant:              variant,
		TasksRun:             len(entries),
		MeanQuality:          make(map[string]float64),
		ClassificationCounts: map[string]int{"high_value": 0, "moderate_value": 0, "low_value": 0, "noise": 0},
		CoverageByTier:       make(map[string]map[string]int),
	}
	for _, tier := range task.Tiers {
		summary.CoverageByTier[tier] = map[string]int{"full": 0, "partial": 0, "missed": 0}
	}

	wisdomTotal := 0
	for _, e := range entries {
		wisdomTotal += e.Scores.WisdomCount
	}
	if len(entries) > 0 {
		summary.MeanWisdomCount = float64(wisdomTotal) / float64(len(entries))
	}

	var judged []*result.JudgeScores
	for _, e := range entries {
		if e.Scores.Judge != nil {
			judged = append(judged, e.Scores.Judge)
		}
	}

	dims := map[string]func(*result.JudgeScores) float64{
		"redundancy":    func(j *result.JudgeScores) float64 { return j.MeanRedundancy },
		"specificity":   func(j *result.JudgeScores) float64 { return j.MeanSpecificity },
		"actionability": func(j *result.JudgeScores) float64 { return j.MeanActionability },
		"depth":         func(j *result.JudgeScores) float64 { return j.MeanDepth },
		"accuracy":      func(j *result.JudgeScores) float64 { return j.MeanAccuracy },
	}
	for name, pick := range dims {
		if len(judged) == 0 {
			summary.MeanQuality[name] = 0.0
			continue
		}
		sum := 0.0
		for _, j := range judged {
			sum += pick(j)
		}
		summary.MeanQuality[name] = sum / float64(len(judged))
	}

	for _, j := range judged {
		summary.ClassificationCounts["high_value"] += j.HighValueCount
		summary.ClassificationCounts["moderate_value"] += j.ModerateValueCount
		summary.ClassificationCounts["low_value"] += j.LowValueCount
		summary.ClassificationCounts["noise"] += j.NoiseCount
		for _, cr := range j.CoverageResults {
			if tier, ok := summary.CoverageByTier[cr.Tier]; ok {
				if _, ok := tier[cr.Coverage]; ok {
					tier[cr.Coverage]++
				}
			}
		}
	}

	return summary
}

// Compare loads two persisted batches and produces a comparison keyed on
// the detected (or fallback) variant labels. The per-tier delta is the
// experiment's covered fraction (full+partial over total) minus the
// baseline's; a side with no items in a tier contributes 0.
func Compare(baselinePath, experimentPath string) (*ComparisonReport, error) {
	baselineEntries, err := result.LoadLog(baselinePath)
	if err != nil {
		return nil, err
	}
	experimentEntries, err := result.LoadLog(experimentPath)
	if err != nil {
		return nil, err
	}

	baseline := SummarizeVariant(DetectVariant(baselineEntries, "baseline"), baselineEntries)
	experiment := SummarizeVariant(DetectVariant(experimentEntries, "experiment"), experimentEntries)

	delta := make(map[string]float64)
	for _, tier := range task.Tiers {
		delta[tier] = coveredFraction(experiment.CoverageByTier[tier]) - coveredFraction(baseline.CoverageByTier[tier])
	}

	return &ComparisonReport{
		Baseline:      baseline,
		Experiment:    experiment,
		CoverageDelta: delta,
	}, nil
}

func coveredFraction(counts map[string]int) float64 {
	total := counts["full"] + counts["partial"] + counts["missed"]
	if total == 0 {
		return 0.0
	}
	return float64(counts["full"]+counts["partial"]) / float64(total)
}

// TaskCoverage is the per-task covered count (full+partial) per tier for
// one side of a comparison.
type TaskCoverage struct {
	TaskID   string
	Baseline map[string]int
	Experim  map[string]int
}

// PerTaskCoverage pairs up runs from two batches by task id and counts
// covered (full or partial) ground-truth items per tier on each side.
func PerTaskCoverage(baselinePath, experimentPath string) ([]TaskCoverage, error) {
	baselineEntries, err := result.LoadLog(baselinePath)
	if err != nil {
		return nil, err
	}
	experimentEntries, err := result.LoadLog(experimentPath)
	if err != nil {
		return nil, err
	}

	byTask := func(entries []result.LogEntry) map[string]result.LogEntry {
		m := make(map[string]result.LogEntry)
		for _, e := range entries {
			m[e.Scores.TaskID] = e
		}
		return m
	}
	baseByTask := byTask(baselineEntries)
	expByTask := byTask(experimentEntries)

	ids := make(map[string]bool)
	for id := range baseByTask {
		ids[id] = true
	}
	for id := range expByTask {
		ids[id] = true
	}
	var sorted []string
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var rows []TaskCoverage
	for _, id := range sorted {
		row := TaskCoverage{
			TaskID:   id,
			Baseline: countCovered(baseByTask[id]),
			Experim:  countCovered(expByTask[id]),
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func countCovered(entry result.LogEntry) map[string]int {
	counts := make(map[string]int)
	if entry.Scores.Judge == nil {
		return counts
	}
	for _, cr := range entry.Scores.Judge.CoverageResults {
		if cr.Coverage == "full" || cr.Coverage == "partial" {
			counts[cr.Tier]++
		}
	}
	return counts
}
