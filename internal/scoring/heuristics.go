// Package scoring computes six deterministic floor metrics from one run's
// extracted data. They detect degenerate output cheaply; the LLM judge
// measures actual quality.
package scoring

import (
	"regexp"
	"strings"

	"github.com/gotwalt/chronicle/internal/result"
)

// ExpectedCategories are the four categories the annotate skill asks for.
var ExpectedCategories = map[string]bool{
	"dead_end":          true,
	"gotcha":            true,
	"insight":           true,
	"unfinished_thread": true,
}

var (
	filePathRe = regexp.MustCompile(`[\w/]+\.\w{1,5}`)
	funcRefRe  = regexp.MustCompile(`\w+\(\)`)
	lineRefRe  = regexp.MustCompile(`(?i)line\s*\d+`)
)

// trigrams extracts lowercase character trigrams from text.
func trigrams(text string) map[string]bool {
	text = strings.TrimSpace(strings.ToLower(text))
	set := make(map[string]bool)
	if text == "" {
		return set
	}
	if len(text) < 3 {
		set[text] = true
		return set
	}
	for i := 0; i+3 <= len(text); i++ {
		set[text[i:i+3]] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for g := range a {
		if b[g] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// MsgOverlap is the trigram Jaccard similarity between the combined
// annotation summaries and the combined commit messages. Near 1.0 means the
// summary merely restates the commit message.
func MsgOverlap(summary string, commitMessages []string) float64 {
	if summary == "" || len(commitMessages) == 0 {
		return 0.0
	}
	return jaccard(trigrams(summary), trigrams(strings.Join(commitMessages, " ")))
}

// Specificity counts concrete code references across wisdom entries:
// file-path-like tokens, function-call-like tokens, "line N" references,
// plus one per entry with a file field set. Unbounded and intentionally
// crude.
func Specificity(entries []result.WisdomEntry) float64 {
	score := 0.0
	for _, e := range entries {
		score += float64(len(filePathRe.FindAllString(e.Content, -1)))
		score += float64(len(funcRefRe.FindAllString(e.Content, -1)))
		score += float64(len(lineRefRe.FindAllString(e.Content, -1)))
		if e.File != "" {
			score++
		}
	}
	return score
}

// WisdomDensity is wisdom entries per changed file; 0 if nothing changed.
func WisdomDensity(wisdomCount int, filesChanged []string) float64 {
	if len(filesChanged) == 0 {
		return 0.0
	}
	return float64(wisdomCount) / float64(len(filesChanged))
}

// CategoryCoverage is the fraction of the four expected categories that
// appear at least once.
func CategoryCoverage(categories map[string]bool) float64 {
	hit := 0
	for c := range categories {
		if ExpectedCategories[c] {
			hit++
		}
	}
	return float64(hit) / float64(len(ExpectedCategories))
}

// GroundingRatio is the fraction of wisdom entries carrying a file
// reference; 0 if there are none.
func GroundingRatio(entries []result.WisdomEntry) float64 {
	if len(entries) == 0 {
		return 0.0
	}
	grounded := 0
	for _, e := range entries {
		if e.File != "" {
			grounded++
		}
	}
	return float64(grounded) / float64(len(entries))
}

// ContentLength is the mean word count across entry contents; 0 if none.
func ContentLength(entries []result.WisdomEntry) float64 {
	if len(entries) == 0 {
		return 0.0
	}
	words := 0
	for _, e := range entries {
		words += len(strings.Fields(e.Content))
	}
	return float64(words) / float64(len(entries))
}

// Score computes all heuristic metrics for a run. Pure function of the
// extracted data; no I/O, safe to recompute.
func Score(run *result.RunResult) *result.ScoreReport {
	var summaries []string
	categories := make(map[string]bool)
	entries := run.WisdomEntries()
	for _, ann := range run.Annotations {
		summaries = append(summaries, ann.Summary)
	}
	for _, e := range entries {
		categories[e.Category] = true
	}

	scores := result.HeuristicScores{
		MsgOverlap:       MsgOverlap(strings.Join(summaries, " "), run.CommitMessages),
		Specificity:      Specificity(entries),
		WisdomDensity:    WisdomDensity(len(entries), run.FilesChanged),
		CategoryCoverage: CategoryCoverage(categories),
		GroundingRatio:   GroundingRatio(entries),
		ContentLength:    ContentLength(entries),
	}

	return &result.ScoreReport{
		TaskID:          run.TaskID,
		PromptVariant:   run.PromptVariant,
		Heuristic:       scores,
		AnnotationCount: len(run.Annotations),
		WisdomCount:     len(entries),
	}
}
