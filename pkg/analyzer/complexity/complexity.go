// Package complexity computes per-function cyclomatic and cognitive
// complexity for every supported language using tree-sitter.
package complexity

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/codesim/pkg/parser"
)

// AnalyzeSource parses src and computes its function-level complexity.
// Syntax errors are tolerated; functions inside well-formed regions are
// still reported.
func AnalyzeSource(ctx context.Context, src []byte, lang parser.Language) (*FileResult, error) {
	psr := parser.New()
	defer psr.Close()

	result, err := psr.Parse(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	return Analyze(result), nil
}

// Analyze computes complexity for an already parsed sample.
func Analyze(result *parser.ParseResult) *FileResult {
	fc := &FileResult{
		Language:  string(result.Language),
		Functions: make([]FunctionResult, 0),
	}

	code, _ := LineProfile(result.Tree.RootNode())
	fc.NLOC = int(code.GetCardinality())

	var totalCog uint32
	for _, fn := range parser.GetFunctions(result) {
		fnComplexity := analyzeFunctionComplexity(fn, result)
		fc.Functions = append(fc.Functions, fnComplexity)
		fc.TotalCyclomatic += fnComplexity.Metrics.Cyclomatic
		totalCog += fnComplexity.Metrics.Cognitive
		if fnComplexity.Metrics.Cyclomatic > fc.MaxCyclomatic {
			fc.MaxCyclomatic = fnComplexity.Metrics.Cyclomatic
		}
	}

	if len(fc.Functions) > 0 {
		fc.AvgCyclomatic = float64(fc.TotalCyclomatic) / float64(len(fc.Functions))
		fc.AvgCognitive = float64(totalCog) / float64(len(fc.Functions))
	}

	return fc
}

// LineProfile returns the 0-indexed rows that hold at least one non-comment
// token and the rows that hold a comment.
func LineProfile(root *sitter.Node) (code, comments *roaring.Bitmap) {
	code, comments = roaring.New(), roaring.New()
	parser.WalkTyped(root, nil, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if parser.IsComment(nodeType) {
			comments.AddRange(uint64(n.StartPoint().Row), uint64(n.EndPoint().Row)+1)
			return false
		}
		if n.ChildCount() == 0 && n.EndByte() > n.StartByte() {
			code.AddRange(uint64(n.StartPoint().Row), uint64(n.EndPoint().Row)+1)
		}
		return true
	})
	return code, comments
}

// CountDecisionPoints counts branching constructs for cyclomatic complexity.
func CountDecisionPoints(node *sitter.Node, source []byte, lang parser.Language) uint32 {
	var count uint32

	decisionTypes := makeSet(getDecisionNodeTypes(lang))

	parser.WalkTyped(node, source, func(n *sitter.Node, nodeType string, src []byte) bool {
		if decisionTypes[nodeType] && !isDefaultLabel(n, nodeType) {
			count++
		}
		// && and || (and/or in Python) each add a path
		switch nodeType {
		case "binary_expression", "logical_expression", "boolean_operator":
			op := getOperator(n, src)
			if op == "&&" || op == "||" || op == "and" || op == "or" {
				count++
			}
		}
		return true
	})

	return count
}

// CalculateCognitiveComplexity computes cognitive complexity with nesting penalties.
func CalculateCognitiveComplexity(node *sitter.Node, source []byte, depth int) uint32 {
	return calcCognitiveRecursive(node, source, cognitiveTypes, depth)
}

// FunctionCyclomatic returns 1 plus the decision points in a function body.
func FunctionCyclomatic(fn parser.FunctionNode, result *parser.ParseResult) uint32 {
	if fn.Body == nil {
		return 1
	}
	return 1 + CountDecisionPoints(fn.Body, result.Source, result.Language)
}

func analyzeFunctionComplexity(fn parser.FunctionNode, result *parser.ParseResult) FunctionResult {
	fc := FunctionResult{
		Name:      fn.Name,
		StartLine: fn.StartLine,
		EndLine:   fn.EndLine,
		Metrics: Metrics{
			Cyclomatic: FunctionCyclomatic(fn, result),
			Lines:      int(fn.EndLine - fn.StartLine + 1),
		},
	}

	if fn.Body != nil {
		fc.Metrics.Cognitive = CalculateCognitiveComplexity(fn.Body, result.Source, 0)
		fc.Metrics.MaxNesting = calculateMaxNesting(fn.Body, 0)
	}

	return fc
}

func makeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// getDecisionNodeTypes returns AST node types that represent decision points.
func getDecisionNodeTypes(lang parser.Language) []string {
	common := []string{
		"if_statement",
		"while_statement",
		"for_statement",
		"case_statement",
		"catch_clause",
		"ternary_expression",
		"conditional_expression",
	}

	switch lang {
	case parser.LangPython:
		return append(common, "elif_clause", "except_clause", "with_statement", "for_in_clause", "if_clause")
	case parser.LangJavaScript:
		return append(common, "for_in_statement", "do_statement", "switch_case")
	case parser.LangJava:
		return append(common, "do_statement", "enhanced_for_statement", "switch_label")
	case parser.LangC, parser.LangCPP:
		return append(common, "do_statement", "for_range_loop")
	default:
		return common
	}
}

// isDefaultLabel reports whether a switch label is the default branch,
// which does not add a path.
func isDefaultLabel(n *sitter.Node, nodeType string) bool {
	switch nodeType {
	case "case_statement":
		return n.ChildByFieldName("value") == nil
	case "switch_label":
		return n.NamedChildCount() == 0
	}
	return false
}

// getOperator extracts the short-circuit operator from a binary expression.
func getOperator(node *sitter.Node, source []byte) string {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch t := child.Type(); t {
		case "&&", "||", "and", "or":
			return t
		}
		if child.IsNamed() && child.Type() == "operator" {
			return parser.GetNodeText(child, source)
		}
	}
	return ""
}

// cognitiveTypeInfo holds lookup maps for cognitive complexity calculation.
type cognitiveTypeInfo struct {
	nesting map[string]bool // increments nesting depth
	flat    map[string]bool // adds complexity without nesting
}

var cognitiveTypes = cognitiveTypeInfo{
	nesting: makeSet([]string{
		"if_statement",
		"while_statement",
		"for_statement", "for_in_statement", "enhanced_for_statement", "for_range_loop",
		"do_statement",
		"switch_statement", "switch_expression",
		"try_statement",
		"conditional_expression", "ternary_expression",
	}),
	flat: makeSet([]string{
		"else_clause", "elif_clause",
		"break_statement", "continue_statement",
		"goto_statement",
	}),
}

func calcCognitiveRecursive(node *sitter.Node, source []byte, info cognitiveTypeInfo, depth int) uint32 {
	var complexity uint32

	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		childType := child.Type()

		switch {
		case info.nesting[childType]:
			complexity += 1 + uint32(depth)
			complexity += calcCognitiveRecursive(child, source, info, depth+1)
		case info.flat[childType]:
			complexity += 1 + uint32(depth)
			complexity += calcCognitiveRecursive(child, source, info, depth)
		default:
			complexity += calcCognitiveRecursive(child, source, info, depth)
		}
	}

	return complexity
}

var nestingTypesSet = makeSet([]string{
	"if_statement",
	"while_statement", "do_statement",
	"for_statement", "for_in_statement", "enhanced_for_statement", "for_range_loop",
	"switch_statement",
	"try_statement",
	"function_definition", "function_declaration", "method_declaration",
	"lambda", "lambda_expression", "arrow_function",
})

// calculateMaxNesting finds the maximum nesting depth below node.
func calculateMaxNesting(node *sitter.Node, currentDepth int) int {
	maxDepth := currentDepth

	for i := range int(node.ChildCount()) {
		child := node.Child(i)

		depth := currentDepth
		if nestingTypesSet[child.Type()] {
			depth++
		}
		if childMax := calculateMaxNesting(child, depth); childMax > maxDepth {
			maxDepth = childMax
		}
	}

	return maxDepth
}
