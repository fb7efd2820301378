package models

// Segment is an aligned region between two samples. Line ranges are
// 1-indexed and inclusive.
type Segment struct {
	SourceStart int     `json:"source_start"`
	SourceEnd   int     `json:"source_end"`
	TargetStart int     `json:"target_start"`
	TargetEnd   int     `json:"target_end"`
	Lines       int     `json:"lines"`
	Content     string  `json:"content,omitempty"`    // literal text, identical segments only
	Similarity  float64 `json:"similarity,omitempty"` // near-identical segments only
}

// Coverage is the fraction of each side's lines inside reported segments.
type Coverage struct {
	Source float64 `json:"source"`
	Target float64 `json:"target"`
}

// Metrics are size and complexity measurements for one sample.
type Metrics struct {
	LOC        int     `json:"loc"`
	LLOC       int     `json:"lloc"`
	SLOC       int     `json:"sloc"`
	Comments   int     `json:"comments"`
	Multi      int     `json:"multi"`
	Blank      int     `json:"blank"`
	Complexity float64 `json:"complexity"`
}

// MetricsComparison holds both sides' metrics and their absolute differences.
type MetricsComparison struct {
	Source         Metrics `json:"source"`
	Target         Metrics `json:"target"`
	ComplexityDiff float64 `json:"complexity_diff"`
	LOCDiff        int     `json:"loc_diff"`
}

// FeatureVector maps a structural feature name to its count.
type FeatureVector map[string]int

// Diagnostic explains why part of a report is degraded.
type Diagnostic struct {
	Scorer  string `json:"scorer"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Report is the result of comparing two samples.
type Report struct {
	Language          string `json:"language"`
	RequestedLanguage string `json:"requested_language,omitempty"`
	ASTStrategy       string `json:"ast_strategy"`

	OverallSimilarity    float64  `json:"overall_similarity"`
	TokenSimilarity      float64  `json:"token_similarity"`
	StructuralSimilarity float64  `json:"structural_similarity"`
	ASTSimilarity        float64  `json:"ast_similarity"`
	MLSimilarity         *float64 `json:"ml_similarity,omitempty"`

	IdenticalSegments     []Segment         `json:"identical_segments"`
	NearIdenticalSegments []Segment         `json:"near_identical_segments"`
	Coverage              Coverage          `json:"coverage"`
	CodeMetrics           MetricsComparison `json:"code_metrics"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// NewReport returns a zero-valued report with non-nil segment lists.
func NewReport(language string) *Report {
	return &Report{
		Language:              language,
		IdenticalSegments:     []Segment{},
		NearIdenticalSegments: []Segment{},
	}
}

// Inconclusive reports whether every required score is zero. Such a report
// means the comparison could not be made, not that the samples differ.
func (r *Report) Inconclusive() bool {
	return r.TokenSimilarity == 0 && r.StructuralSimilarity == 0 && r.ASTSimilarity == 0
}

// Degraded reports whether any diagnostic names scorer.
func (r *Report) Degraded(scorer string) bool {
	for _, d := range r.Diagnostics {
		if d.Scorer == scorer {
			return true
		}
	}
	return false
}
