// Package metrics measures size and complexity of a single sample and
// compares two samples.
package metrics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/analyzer/complexity"
	"github.com/panbanda/codesim/pkg/models"
	"github.com/panbanda/codesim/pkg/parser"
)

// Name identifies the calculator in diagnostics.
const Name = "metrics"

// Calculator computes raw metrics. Python gets a dedicated line classifier;
// every other language is measured by the generic complexity analyzer.
type Calculator struct{}

// New creates a metrics calculator.
func New() *Calculator { return &Calculator{} }

// Measure returns the metrics of code. On failure it returns the fallback
// metrics (raw line count only) together with the failure.
func (c *Calculator) Measure(ctx context.Context, code string, lang parser.Language) (models.Metrics, *analyzer.Failure) {
	var (
		m   models.Metrics
		err error
	)
	if lang == parser.LangPython {
		m, err = measurePython(ctx, code)
	} else {
		m, err = measureGeneric(ctx, code, lang)
	}
	if err != nil {
		kind := analyzer.KindMetrics
		if ctx.Err() != nil {
			kind = analyzer.KindTimeout
		}
		return Fallback(code), analyzer.NewFailure(Name, kind, err)
	}
	return m, nil
}

// Compare measures both sides independently. Failures are returned in
// source, target order.
func (c *Calculator) Compare(ctx context.Context, source, target string, lang parser.Language) (models.MetricsComparison, []*analyzer.Failure) {
	var failures []*analyzer.Failure
	src, f := c.Measure(ctx, source, lang)
	if f != nil {
		f.Err = fmt.Errorf("source: %w", f.Err)
		failures = append(failures, f)
	}
	dst, f := c.Measure(ctx, target, lang)
	if f != nil {
		f.Err = fmt.Errorf("target: %w", f.Err)
		failures = append(failures, f)
	}
	return Diff(src, dst), failures
}

// Diff builds a comparison from two measurements.
func Diff(source, target models.Metrics) models.MetricsComparison {
	loc := source.LOC - target.LOC
	if loc < 0 {
		loc = -loc
	}
	return models.MetricsComparison{
		Source:         source,
		Target:         target,
		ComplexityDiff: math.Abs(source.Complexity - target.Complexity),
		LOCDiff:        loc,
	}
}

// Fallback reports only the physical line count.
func Fallback(code string) models.Metrics {
	return models.Metrics{LOC: len(analyzer.SplitLines(code))}
}

func measureGeneric(ctx context.Context, code string, lang parser.Language) (models.Metrics, error) {
	fr, err := complexity.AnalyzeSource(ctx, []byte(code), lang)
	if err != nil {
		return models.Metrics{}, err
	}
	return models.Metrics{
		LOC:        fr.NLOC,
		LLOC:       fr.NLOC,
		SLOC:       fr.NLOC,
		Complexity: fr.AvgCyclomatic,
	}, nil
}

// pythonLogical are the node kinds that each count as one logical line.
var pythonLogical = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
	"elif_clause":         true,
	"else_clause":         true,
	"except_clause":       true,
	"finally_clause":      true,
}

func measurePython(ctx context.Context, code string) (models.Metrics, error) {
	psr := parser.New()
	defer psr.Close()

	result, err := psr.ParseStrict(ctx, []byte(code), parser.LangPython)
	if err != nil {
		return models.Metrics{}, err
	}
	defer result.Close()

	lines := analyzer.SplitLines(code)
	m := models.Metrics{LOC: len(lines)}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			m.Blank++
		}
	}

	root := result.Tree.RootNode()
	codeRows, commentRows := complexity.LineProfile(root)
	docRows, multiRows := roaring.New(), roaring.New()

	parser.WalkTyped(root, result.Source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if strings.HasSuffix(nodeType, "_statement") || pythonLogical[nodeType] {
			m.LLOC++
		}
		if nodeType == "expression_statement" && n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "string" {
			start, end := n.StartPoint().Row, n.EndPoint().Row
			docRows.AddRange(uint64(start), uint64(end)+1)
			if end > start {
				multiRows.AddRange(uint64(start), uint64(end)+1)
			}
		}
		return true
	})

	// one-line docstrings count as comments, longer ones as multi
	commentRows.Or(roaring.AndNot(docRows, multiRows))
	m.Comments = int(commentRows.GetCardinality())
	m.Multi = int(multiRows.GetCardinality())
	m.SLOC = int(roaring.AndNot(codeRows, docRows).GetCardinality())
	m.Complexity = complexity.Analyze(result).AvgCyclomatic
	return m, nil
}
