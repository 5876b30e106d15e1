package judge

import (
	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

// aggregate folds per-entry quality scores and per-item coverage verdicts
// into the run-level summary. Means are 0 when no entries were judged;
// tier fractions are 0 for tiers absent from this run's ground truth.
func aggregate(quality []result.WisdomQualityScore, coverage []result.CoverageResult, model string) *result.JudgeScores {
	mean := func(pick func(result.WisdomQualityScore) int) float64 {
		if len(quality) == 0 {
			return 0.0
		}
		sum := 0
		for _, q := range quality {
			sum += pick(q)
		}
		return float64(sum) / float64(len(quality))
	}

	scores := &result.JudgeScores{
		MeanRedundancy:    mean(func(q result.WisdomQualityScore) int { return q.Redundancy }),
		MeanSpecificity:   mean(func(q result.WisdomQualityScore) int { return q.Specificity }),
		MeanActionability: mean(func(q result.WisdomQualityScore) int { return q.Actionability }),
		MeanDepth:         mean(func(q result.WisdomQualityScore) int { return q.Depth }),
		MeanAccuracy:      mean(func(q result.WisdomQualityScore) int { return q.Accuracy }),
		QualityScores:     quality,
		CoverageResults:   coverage,
		JudgeModel:        model,
	}

	for _, q := range quality {
		switch q.Classification {
		case "high_value":
			scores.HighValueCount++
		case "moderate_value":
			scores.ModerateValueCount++
		case "low_value":
			scores.LowValueCount++
		case "noise":
			scores.NoiseCount++
		}
	}

	scores.SurfaceCoverage, scores.SurfaceFull = TierFractions(coverage, task.TierSurface)
	scores.StandardCoverage, scores.StandardFull = TierFractions(coverage, task.TierStandard)
	scores.DeepCoverage, scores.DeepFull = TierFractions(coverage, task.TierDeep)

	return scores
}

// TierFractions returns the any-coverage (full or partial) and full-only
// fractions for one tier, each as satisfied / items-in-tier. Empty tiers
// yield (0, 0).
func TierFractions(results []result.CoverageResult, tier string) (anyCov, fullCov float64) {
	total, anyN, fullN := 0, 0, 0
	for _, r := range results {
		if r.Tier != tier {
			continue
		}
		total++
		switch r.Coverage {
		case "full":
			anyN++
			fullN++
		case "partial":
			anyN++
		}
	}
	if total == 0 {
		return 0.0, 0.0
	}
	return float64(anyN) / float64(total), float64(fullN) / float64(total)
}
