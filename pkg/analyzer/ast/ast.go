// Package ast scores structural similarity over parsed syntax trees.
//
// Languages listed as native are compared by aligning the sequences of node
// kinds of both trees. All other languages are compared through a function
// summary of names and cyclomatic complexity.
package ast

import (
	"context"
	"strings"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/parser"
)

// Name identifies the scorer in reports and diagnostics.
const Name = "ast"

// Strategy names reported by StrategyFor.
const (
	StrategyNative  = "native"
	StrategyGeneric = "generic"
)

// DefaultNativeLanguages are compared node-by-node unless configured otherwise.
var DefaultNativeLanguages = []string{string(parser.LangPython)}

type strategy interface {
	name() string
	score(ctx context.Context, in analyzer.Input) analyzer.Result
}

// Scorer dispatches to a per-language strategy chosen at construction.
type Scorer struct {
	strategies map[parser.Language]strategy
	generic    strategy
}

// New creates an AST scorer. A language uses the native strategy when it
// has a linked grammar and appears in native; every other language uses
// the generic strategy.
func New(native []string) *Scorer {
	s := &Scorer{
		strategies: make(map[parser.Language]strategy),
		generic:    genericStrategy{},
	}
	want := make(map[parser.Language]bool, len(native))
	for _, tag := range native {
		want[parser.Language(strings.ToLower(strings.TrimSpace(tag)))] = true
	}
	for _, lang := range parser.Supported() {
		if _, err := parser.GetTreeSitterLanguage(lang); err == nil && want[lang] {
			s.strategies[lang] = nativeStrategy{}
			continue
		}
		s.strategies[lang] = s.generic
	}
	return s
}

func (s *Scorer) Name() string { return Name }

// StrategyFor returns the strategy name used for lang.
func (s *Scorer) StrategyFor(lang parser.Language) string {
	return s.strategy(lang).name()
}

func (s *Scorer) strategy(lang parser.Language) strategy {
	if st, ok := s.strategies[lang]; ok {
		return st
	}
	return s.generic
}

// Score implements analyzer.Scorer.
func (s *Scorer) Score(ctx context.Context, in analyzer.Input) analyzer.Result {
	return s.strategy(in.Language()).score(ctx, in)
}

// failure maps a parse error to the matching failure kind.
func failure(ctx context.Context, err error) *analyzer.Failure {
	if ctx.Err() != nil {
		return analyzer.NewFailure(Name, analyzer.KindTimeout, err)
	}
	return analyzer.NewFailure(Name, analyzer.KindParse, err)
}
