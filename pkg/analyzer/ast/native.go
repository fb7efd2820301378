package ast

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/parser"
)

type nativeStrategy struct{}

func (nativeStrategy) name() string { return StrategyNative }

func (nativeStrategy) score(ctx context.Context, in analyzer.Input) analyzer.Result {
	a, err := NodeKinds(ctx, []byte(in.Source), in.Language())
	if err != nil {
		return analyzer.Fail(0, failure(ctx, fmt.Errorf("source: %w", err)))
	}
	b, err := NodeKinds(ctx, []byte(in.Target), in.Language())
	if err != nil {
		return analyzer.Fail(0, failure(ctx, fmt.Errorf("target: %w", err)))
	}
	return analyzer.OK(difflib.NewMatcher(a, b).Ratio())
}

// NodeKinds parses src strictly and returns the kinds of its named nodes in
// document order, comments excluded. Syntax errors yield parser.ErrSyntax.
func NodeKinds(ctx context.Context, src []byte, lang parser.Language) ([]string, error) {
	psr := parser.New()
	defer psr.Close()

	result, err := psr.ParseStrict(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var kinds []string
	parser.WalkTyped(result.Tree.RootNode(), result.Source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if parser.IsComment(nodeType) {
			return false
		}
		if n.IsNamed() {
			kinds = append(kinds, nodeType)
		}
		return true
	})
	return kinds, nil
}
