// Package structural compares counts of syntactic constructs matched on the
// raw source text.
package structural

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/models"
	"github.com/panbanda/codesim/pkg/profile"
)

// Name identifies the scorer in reports and diagnostics.
const Name = "structural"

// Features maps a feature name to its non-negative match count.
type Features = models.FeatureVector

// Extract counts every category and language extra of p in code. Counts for
// a category sum the matches of all its patterns.
func Extract(code string, p *profile.Profile) Features {
	f := make(Features, len(profile.Categories())+len(p.Extras))
	for _, c := range profile.Categories() {
		n := 0
		for _, re := range p.Patterns(c) {
			n += len(re.FindAllStringIndex(code, -1))
		}
		f[string(c)] = n
	}
	for _, extra := range p.Extras {
		f[extra.Name] = len(extra.Pattern.FindAllStringIndex(code, -1))
	}
	return f
}

// Compare returns the mean of min/max ratios over features present on both
// sides, with agreement on absence counting as 1. It is 0 when no feature
// is comparable.
func Compare(a, b Features) float64 {
	names := make([]string, 0, len(a))
	for name := range a {
		if _, ok := b[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	ratios := make([]float64, len(names))
	for i, name := range names {
		ratios[i] = analyzer.Ratio(float64(a[name]), float64(b[name]))
	}
	if len(ratios) == 0 {
		return 0
	}
	return stat.Mean(ratios, nil)
}

// Scorer implements analyzer.Scorer over structural feature vectors.
type Scorer struct{}

// New creates a structural scorer.
func New() *Scorer { return &Scorer{} }

func (s *Scorer) Name() string { return Name }

// Score implements analyzer.Scorer.
func (s *Scorer) Score(ctx context.Context, in analyzer.Input) analyzer.Result {
	a := Extract(in.Source, in.Profile)
	if err := ctx.Err(); err != nil {
		return analyzer.Fail(0, analyzer.NewFailure(Name, analyzer.KindTimeout, err))
	}
	b := Extract(in.Target, in.Profile)
	return analyzer.OK(Compare(a, b))
}
