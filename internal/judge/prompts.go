package judge

import (
	"fmt"
	"strings"

	"github.com/gotwalt/chronicle/internal/result"
	"github.com/gotwalt/chronicle/internal/task"
)

const qualitySystem = `You are an expert evaluator of software engineering annotations. You assess whether a "wisdom entry" (a structured note about a code change) adds genuine value for future developers or agents working on the same codebase.

Rate the entry on five dimensions (1 = worst, 5 = best):

- **redundancy** (1 = restates the diff/commit message, 5 = entirely new information)
- **specificity** (1 = vague platitude, 5 = precise reference to code/behavior)
- **actionability** (1 = no clear takeaway, 5 = reader knows exactly what to do/avoid)
- **depth** (1 = surface observation, 5 = non-obvious insight requiring real reasoning)
- **accuracy** (1 = factually wrong, 5 = verifiably correct from the diff)

Then classify the entry:
- **high_value**: Saves the next developer real time or prevents a real bug
- **moderate_value**: Useful context but somewhat obvious from reading the code
- **low_value**: Technically correct but adds little beyond the diff
- **noise**: Wrong, misleading, or pure restatement of the commit message

Respond with ONLY a JSON object (no markdown fences, no commentary):
{
  "redundancy": <int 1-5>,
  "specificity": <int 1-5>,
  "actionability": <int 1-5>,
  "depth": <int 1-5>,
  "accuracy": <int 1-5>,
  "classification": "<high_value|moderate_value|low_value|noise>",
  "reasoning": "<1-2 sentences explaining your rating>"
}`

const coverageSystem = `You are evaluating whether an agent's annotations cover the key insights ("ground truth") that an ideal agent would capture for a given task.

For each ground truth item, determine coverage:
- **full**: The annotations capture the same insight (possibly worded differently)
- **partial**: The annotations touch on the topic but miss the key point or lack precision
- **missed**: The annotations do not address this insight at all

Respond with ONLY a JSON object (no markdown fences, no commentary):
{
  "items": [
    {
      "ground_truth_index": <int>,
      "coverage": "<full|partial|missed>",
      "matched_entry": <int index of best matching annotation entry, or null>,
      "explanation": "<1 sentence>"
    }
  ]
}`

// qualityUser builds the user message for one wisdom entry.
func qualityUser(taskPrompt string, commitMessages []string, diff string, diffMaxChars int, entry result.WisdomEntry) string {
	var msgs strings.Builder
	for _, m := range commitMessages {
		fmt.Fprintf(&msgs, "- %s\n", m)
	}
	file := entry.File
	if file == "" {
		file = "(none)"
	}
	return fmt.Sprintf(`## Task
The agent was given this task:
%s

## Commit Messages
%s
## Diff (truncated)
%s

## Wisdom Entry to Evaluate
Category: %s
File: %s
Content: %s`,
		strings.TrimSpace(taskPrompt), msgs.String(),
		truncateDiff(diff, diffMaxChars),
		entry.Category, file, entry.Content)
}

// coverageUser builds the single per-run coverage message covering all
// ground-truth items at once.
func coverageUser(taskPrompt string, groundTruth []task.GroundTruth, annotations []result.Annotation) string {
	return fmt.Sprintf(`## Task
The agent was given this task:
%s

## Ground Truth Items
%s

## Agent's Annotations
%s`,
		strings.TrimSpace(taskPrompt),
		formatGroundTruth(groundTruth),
		formatAnnotations(annotations))
}

// truncateDiff strips hunks touching .claude/ instruction files, then
// applies a hard character cap with a truncation marker.
func truncateDiff(diff string, maxChars int) string {
	var filtered []string
	skip := false
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "diff --git") {
			skip = strings.Contains(line, "/.claude/")
		}
		if !skip {
			filtered = append(filtered, line)
		}
	}
	out := strings.Join(filtered, "\n")
	if len(out) > maxChars {
		return out[:maxChars] + "\n... [truncated]"
	}
	return out
}

// formatGroundTruth renders items as the numbered list the coverage prompt
// refers back to by index.
func formatGroundTruth(items []task.GroundTruth) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [%s] (%s) %s\n", i, item.Tier, item.Category, item.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatAnnotations renders all annotations with entries numbered
// sequentially across annotations, matching the quality pass's entry
// indices.
func formatAnnotations(annotations []result.Annotation) string {
	var sb strings.Builder
	entryIdx := 0
	for _, ann := range annotations {
		sha := ann.CommitSHA
		if sha == "" {
			sha = "unknown"
		}
		if len(sha) > 8 {
			sha = sha[:8]
		}
		fmt.Fprintf(&sb, "### Annotation (commit %s)\n", sha)
		summary := ann.Summary
		if summary == "" {
			summary = "(none)"
		}
		fmt.Fprintf(&sb, "Summary: %s\n", summary)
		for _, w := range ann.Wisdom {
			file := w.File
			if file == "" {
				file = "none"
			}
			cat := w.Category
			if cat == "" {
				cat = "?"
			}
			fmt.Fprintf(&sb, "  Entry %d: [%s] (file: %s) %s\n", entryIdx, cat, file, w.Content)
			entryIdx++
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
