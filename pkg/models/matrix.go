package models

// MatrixPair is one compared pair in a batch run.
type MatrixPair struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Language string  `json:"language"`
	Overall  float64 `json:"overall_similarity"`
	Coverage float64 `json:"coverage"`
	Report   *Report `json:"report,omitempty"`
}

// MatrixSummary provides aggregate statistics over all compared pairs.
type MatrixSummary struct {
	TotalFiles    int     `json:"total_files"`
	TotalPairs    int     `json:"total_pairs"`
	ReportedPairs int     `json:"reported_pairs"`
	FailedPairs   int     `json:"failed_pairs"`
	AvgSimilarity float64 `json:"avg_similarity"`
	P50Similarity float64 `json:"p50_similarity"`
	P95Similarity float64 `json:"p95_similarity"`
	MaxSimilarity float64 `json:"max_similarity"`
}

// MatrixResult is the outcome of an all-pairs comparison.
type MatrixResult struct {
	Pairs         []MatrixPair  `json:"pairs"`
	Summary       MatrixSummary `json:"summary"`
	MinSimilarity float64       `json:"min_similarity"`
}
