// Package token scores lexical similarity over identifier-level tokens.
package token

import (
	"context"

	"github.com/panbanda/codesim/pkg/analyzer"
)

// Name identifies the scorer in reports and diagnostics.
const Name = "token"

// Scorer compares TF-IDF vectors of the tokenized samples and falls back to
// the character-level edit ratio when vectorization fails.
type Scorer struct {
	vectorizer Vectorizer
}

// New creates a token scorer with the given vocabulary cap. A cap below one
// selects DefaultMaxFeatures.
func New(maxFeatures int) *Scorer {
	if maxFeatures < 1 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Scorer{vectorizer: Vectorizer{MaxFeatures: maxFeatures}}
}

func (s *Scorer) Name() string { return Name }

// Score implements analyzer.Scorer.
func (s *Scorer) Score(ctx context.Context, in analyzer.Input) analyzer.Result {
	a := Tokenize(in.Source, in.Profile)
	b := Tokenize(in.Target, in.Profile)
	if a == "" || b == "" {
		return analyzer.OK(0)
	}
	if err := ctx.Err(); err != nil {
		return analyzer.Fail(0, analyzer.NewFailure(Name, analyzer.KindTimeout, err))
	}

	vectors, _, err := s.vectorizer.FitTransform([]string{a, b})
	if err != nil {
		fallback := analyzer.EditRatio(in.Source, in.Target)
		return analyzer.Fail(fallback, analyzer.NewFailure(Name, analyzer.KindVectorization, err))
	}
	return analyzer.OK(Cosine(vectors[0], vectors[1]))
}
