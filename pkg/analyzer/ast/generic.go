package ast

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/analyzer/complexity"
)

const (
	nameWeight       = 0.6
	complexityWeight = 0.4
)

type genericStrategy struct{}

func (genericStrategy) name() string { return StrategyGeneric }

func (genericStrategy) score(ctx context.Context, in analyzer.Input) analyzer.Result {
	a, err := complexity.AnalyzeSource(ctx, []byte(in.Source), in.Language())
	if err != nil {
		return analyzer.Fail(0, failure(ctx, fmt.Errorf("source: %w", err)))
	}
	b, err := complexity.AnalyzeSource(ctx, []byte(in.Target), in.Language())
	if err != nil {
		return analyzer.Fail(0, failure(ctx, fmt.Errorf("target: %w", err)))
	}
	return analyzer.OK(CompareSummaries(a.Summary(), b.Summary()))
}

// CompareSummaries combines name overlap (Jaccard) and the mean complexity
// agreement of shared functions. It is 0 when neither side has functions.
func CompareSummaries(a, b map[string]uint32) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	common := make([]string, 0, len(a))
	for name := range a {
		union[name] = struct{}{}
		if _, ok := b[name]; ok {
			common = append(common, name)
		}
	}
	for name := range b {
		union[name] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}

	// fixed order keeps the floating point sum reproducible
	sort.Strings(common)
	agreement := make([]float64, len(common))
	for i, name := range common {
		agreement[i] = analyzer.Ratio(float64(a[name]), float64(b[name]))
	}

	overlap := float64(len(common)) / float64(len(union))
	var meanAgreement float64
	if len(agreement) > 0 {
		meanAgreement = stat.Mean(agreement, nil)
	}
	return nameWeight*overlap + complexityWeight*meanAgreement
}
