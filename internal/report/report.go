// Package report renders run and comparison summaries as tables. Pure
// formatting over already-computed scores.
package report

import (
	"fmt"
	"io"

	"github.com/gotwalt/chronicle/internal/analysis"
	"github.com/gotwalt/chronicle/internal/judge"
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// WriteHeuristicSummary renders the floor metrics for each scored run.
func WriteHeuristicSummary(w io.Writer, reports []*result.ScoreReport) error {
	table := newTable(w, []string{"Task", "Ann", "Wis", "Ovlp", "Spec", "Dens", "CCov", "Grnd", "WLen"})
	for _, r := range reports {
		h := r.Heuristic
		if err := table.Append([]string{
			r.TaskID,
			fmt.Sprintf("%d", r.AnnotationCount),
			fmt.Sprintf("%d", r.WisdomCount),
			fmt.Sprintf("%.2f", h.MsgOverlap),
			fmt.Sprintf("%.1f", h.Specificity),
			fmt.Sprintf("%.2f", h.WisdomDensity),
			fmt.Sprintf("%.2f", h.CategoryCoverage),
			fmt.Sprintf("%.2f", h.GroundingRatio),
			fmt.Sprintf("%.1f", h.ContentLength),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteJudgeSummary renders the quality and coverage tables for runs that
// carry judge scores. Runs without judge scores are skipped.
func WriteJudgeSummary(w io.Writer, reports []*result.ScoreReport) error {
	var judged []*result.ScoreReport
	for _, r := range reports {
		if r.Judge != nil {
			judged = append(judged, r)
		}
	}
	if len(judged) == 0 {
		return nil
	}

	fmt.Fprintln(w, "\nLLM JUDGE -- Quality")
	quality := newTable(w, []string{"Task", "Rdnd", "Spec", "Actn", "Dpth", "Accy", "Class"})
	for _, r := range judged {
		j := r.Judge
		if err := quality.Append([]string{
			r.TaskID,
			fmt.Sprintf("%.1f", j.MeanRedundancy),
			fmt.Sprintf("%.1f", j.MeanSpecificity),
			fmt.Sprintf("%.1f", j.MeanActionability),
			fmt.Sprintf("%.1f", j.MeanDepth),
			fmt.Sprintf("%.1f", j.MeanAccuracy),
			formatClassCounts(j.HighValueCount, j.ModerateValueCount, j.LowValueCount, j.NoiseCount),
		}); err != nil {
			return err
		}
	}
	if err := quality.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nLLM JUDGE -- Coverage")
	coverage := newTable(w, []string{"Task", "Surf", "Stnd", "Deep"})
	for _, r := range judged {
		if err := coverage.Append([]string{
			r.TaskID,
			formatTier(r.Judge.CoverageResults, task.TierSurface),
			formatTier(r.Judge.CoverageResults, task.TierStandard),
			formatTier(r.Judge.CoverageResults, task.TierDeep),
		}); err != nil {
			return err
		}
	}
	if err := coverage.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n(Coverage: full+partial/total, model: %s)\n", judged[0].Judge.JudgeModel)
	return nil
}

// WriteComparison renders a two-variant comparison with per-tier deltas.
func WriteComparison(w io.Writer, report *analysis.ComparisonReport) error {
	b, e := report.Baseline, report.Experiment
	fmt.Fprintf(w, "VARIANT COMPARISON: %s vs %s\n\n", b.Variant, e.Variant)

	table := newTable(w, []string{"Metric", b.Variant, e.Variant, "Delta"})
	if err := table.Append([]string{
		"Wisdom entries (mean)",
		fmt.Sprintf("%.1f", b.MeanWisdomCount),
		fmt.Sprintf("%.1f", e.MeanWisdomCount),
		fmt.Sprintf("%+.1f", e.MeanWisdomCount-b.MeanWisdomCount),
	}); err != nil {
		return err
	}
	for _, dim := range analysis.QualityDimensions {
		bv, ev := b.MeanQuality[dim], e.MeanQuality[dim]
		if err := table.Append([]string{
			"Quality: " + dim,
			fmt.Sprintf("%.1f", bv),
			fmt.Sprintf("%.1f", ev),
			fmt.Sprintf("%+.1f", ev-bv),
		}); err != nil {
			return err
		}
	}
	if err := table.Append([]string{
		"Classification",
		formatClassMap(b.ClassificationCounts),
		formatClassMap(e.ClassificationCounts),
		"",
	}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nCoverage by tier:")
	tiers := newTable(w, []string{"Tier", b.Variant, e.Variant, "Delta"})
	for _, tier := range task.Tiers {
		bc, ec := b.CoverageByTier[tier], e.CoverageByTier[tier]
		bTotal := bc["full"] + bc["partial"] + bc["missed"]
		eTotal := ec["full"] + ec["partial"] + ec["missed"]
		bStr, eStr, dStr := "-", "-", "-"
		if bTotal > 0 {
			bStr = fmt.Sprintf("%d/%d", bc["full"]+bc["partial"], bTotal)
		}
		if eTotal > 0 {
			eStr = fmt.Sprintf("%d/%d", ec["full"]+ec["partial"], eTotal)
		}
		if bTotal > 0 || eTotal > 0 {
			dStr = fmt.Sprintf("%+.0f%%", report.CoverageDelta[tier]*100)
		}
		if err := tiers.Append([]string{tier, bStr, eStr, dStr}); err != nil {
			return err
		}
	}
	return tiers.Render()
}

// WritePerTaskCoverage renders covered-counts per tier, per task, for two
// batches side by side.
func WritePerTaskCoverage(w io.Writer, rows []analysis.TaskCoverage) error {
	table := newTable(w, []string{"Task", "Surface", "Standard", "Deep"})
	for _, row := range rows {
		cells := []string{row.TaskID}
		for _, tier := range task.Tiers {
			cells = append(cells, fmt.Sprintf("%d->%d", row.Baseline[tier], row.Experim[tier]))
		}
		if err := table.Append(cells); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatTier(results []result.CoverageResult, tier string) string {
	total, full, partial := 0, 0, 0
	for _, r := range results {
		if r.Tier != tier {
			continue
		}
		total++
		switch r.Coverage {
		case "full":
			full++
		case "partial":
			partial++
		}
	}
	if total == 0 {
		return "-"
	}
	anyCov, _ := judge.TierFractions(results, tier)
	return fmt.Sprintf("%d+%dp/%d (%.0f%%)", full, partial, total, anyCov*100)
}

func formatClassCounts(high, moderate, low, noise int) string {
	return fmt.Sprintf("%dH/%dM/%dL/%dN", high, moderate, low, noise)
}

func formatClassMap(counts map[string]int) string {
	return formatClassCounts(counts["high_value"], counts["moderate_value"], counts["low_value"], counts["noise"])
}
