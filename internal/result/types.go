package result

// WisdomEntry is one unit of insight the agent recorded via chronicle.
// Category is expected to be one of dead_end, gotcha, insight, or
// unfinished_thread but is not enforced at parse time.
type WisdomEntry struct {
	Category string `json:"category"`
	Content  string `json:"content"`
	File     string `json:"file,omitempty"`
}

// Annotation is the summary plus wisdom entries attached to one commit.
type Annotation struct {
	CommitSHA string        `json:"commit_sha"`
	Timestamp string        `json:"timestamp"`
	Summary   string        `json:"summary"`
	Wisdom    []WisdomEntry `json:"wisdom"`
}

// RunResult is the full outcome of one task execution. Constructed exactly
// once per attempt. When Success is false all list and text fields are empty
// and Error is set.
type RunResult struct {
	TaskID         string       `json:"task_id"`
	PromptVariant  string       `json:"prompt_variant"`
	Annotations    []Annotation `json:"annotations"`
	CommitMessages []string     `json:"commit_messages"`
	FilesChanged   []string     `json:"files_changed"`
	DiffText       string       `json:"diff_text"`
	AgentOutput    string       `json:"agent_output"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
}

// WisdomEntries flattens all wisdom entries across annotations in order.
func (r *RunResult) WisdomEntries() []WisdomEntry {
	var entries []WisdomEntry
	for _, ann := range r.Annotations {
		entries = append(entries, ann.Wisdom...)
	}
	return entries
}

// HeuristicScores holds the six deterministic floor metrics. They catch
// degenerate output cheaply; they do not measure quality.
type HeuristicScores struct {
	MsgOverlap       float64 `json:"msg_overlap"`
	Specificity      float64 `json:"specificity"`
	WisdomDensity    float64 `json:"wisdom_density"`
	CategoryCoverage float64 `json:"category_coverage"`
	GroundingRatio   float64 `json:"grounding_ratio"`
	ContentLength    float64 `json:"content_length"`
}

// WisdomQualityScore is the LLM judge's rating of a single wisdom entry.
type WisdomQualityScore struct {
	EntryIndex     int    `json:"entry_index"`
	Category       string `json:"category"`
	Redundancy     int    `json:"redundancy"`
	Specificity    int    `json:"specificity"`
	Actionability  int    `json:"actionability"`
	Depth          int    `json:"depth"`
	Accuracy       int    `json:"accuracy"`
	Classification string `json:"classification"`
	Reasoning      string `json:"reasoning"`
}

// CoverageResult is the judge's verdict for one ground-truth item. Exactly
// one exists per item after judging, even when the call fails.
type CoverageResult struct {
	GroundTruthIndex int    `json:"ground_truth_index"`
	Tier             string `json:"tier"`
	Coverage         string `json:"coverage"` // full | partial | missed
	MatchedEntry     *int   `json:"matched_entry"`
	Explanation      string `json:"explanation"`
}

// JudgeScores aggregates all quality and coverage results for one run.
type JudgeScores struct {
	MeanRedundancy    float64 `json:"mean_redundancy"`
	MeanSpecificity   float64 `json:"mean_specificity"`
	MeanActionability float64 `json:"mean_actionability"`
	MeanDepth         float64 `json:"mean_depth"`
	MeanAccuracy      float64 `json:"mean_accuracy"`

	HighValueCount     int `json:"high_value_count"`
	ModerateValueCount int `json:"moderate_value_count"`
	LowValueCount      int `json:"low_value_count"`
	NoiseCount         int `json:"noise_count"`

	SurfaceCoverage  float64 `json:"surface_coverage"`
	StandardCoverage float64 `json:"standard_coverage"`
	DeepCoverage     float64 `json:"deep_coverage"`
	SurfaceFull      float64 `json:"surface_full"`
	StandardFull     float64 `json:"standard_full"`
	DeepFull         float64 `json:"deep_full"`

	QualityScores   []WisdomQualityScore `json:"quality_scores"`
	CoverageResults []CoverageResult     `json:"coverage_results"`
	JudgeModel      string               `json:"judge_model"`
}

// ScoreReport is the per-run aggregate of heuristic and judge scores.
// Judge is nil when judging was disabled, skipped, or failed entirely.
type ScoreReport struct {
	TaskID          string          `json:"task_id"`
	PromptVariant   string          `json:"prompt_variant"`
	Heuristic       HeuristicScores `json:"heuristic"`
	AnnotationCount int             `json:"annotation_count"`
	WisdomCount     int             `json:"wisdom_count"`
	Judge           *JudgeScores    `json:"judge,omitempty"`
}

// LogEntry is one line of the append-only run log.
type LogEntry struct {
	Run    RunResult   `json:"run"`
	Scores ScoreReport `json:"scores"`
}
