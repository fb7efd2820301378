package complexity

// Metrics represents code complexity measurements for a function.
type Metrics struct {
	Cyclomatic uint32 `json:"cyclomatic"`
	Cognitive  uint32 `json:"cognitive"`
	MaxNesting int    `json:"max_nesting"`
	Lines      int    `json:"lines"`
}

// FunctionResult represents complexity metrics for a single function.
type FunctionResult struct {
	Name      string  `json:"name"`
	StartLine uint32  `json:"start_line"`
	EndLine   uint32  `json:"end_line"`
	Metrics   Metrics `json:"metrics"`
}

// FileResult represents aggregated complexity for one sample.
type FileResult struct {
	Language        string           `json:"language"`
	Functions       []FunctionResult `json:"functions"`
	NLOC            int              `json:"nloc"`
	TotalCyclomatic uint32           `json:"total_cyclomatic"`
	AvgCyclomatic   float64          `json:"avg_cyclomatic"`
	MaxCyclomatic   uint32           `json:"max_cyclomatic"`
	AvgCognitive    float64          `json:"avg_cognitive"`
}

// Summary maps function names to cyclomatic complexity. When a name occurs
// more than once the last definition wins.
func (f *FileResult) Summary() map[string]uint32 {
	out := make(map[string]uint32, len(f.Functions))
	for _, fn := range f.Functions {
		if fn.Name == "" {
			continue
		}
		out[fn.Name] = fn.Metrics.Cyclomatic
	}
	return out
}
