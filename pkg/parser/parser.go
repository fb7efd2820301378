package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// Language represents a supported programming language.
type Language string

const (
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangJavaScript Language = "javascript"
	LangCPP        Language = "cpp"
	LangC          Language = "c"
	LangUnknown    Language = "unknown"
)

// ErrSyntax is returned when the parsed tree contains error or missing nodes.
var ErrSyntax = errors.New("source contains syntax errors")

// Supported returns every language with a linked grammar, in registration order.
func Supported() []Language {
	return []Language{LangPython, LangJava, LangJavaScript, LangCPP, LangC}
}

// Parser wraps tree-sitter for multi-language parsing.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// Parse parses source code with a specified language. Parsing stops early
// when ctx is cancelled or its deadline passes.
func (p *Parser) Parse(ctx context.Context, source []byte, lang Language) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("parse cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("failed to parse: no tree produced")
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
	}, nil
}

// ParseStrict parses like Parse but fails with ErrSyntax when the tree
// contains ERROR or MISSING nodes.
func (p *Parser) ParseStrict(ctx context.Context, source []byte, lang Language) (*ParseResult, error) {
	result, err := p.Parse(ctx, source, lang)
	if err != nil {
		return nil, err
	}
	if result.HasSyntaxErrors() {
		result.Close()
		return nil, ErrSyntax
	}
	return result, nil
}

// HasSyntaxErrors reports whether the tree contains ERROR or MISSING nodes.
func (r *ParseResult) HasSyntaxErrors() bool {
	return r.Tree.RootNode().HasError()
}

// Close releases the tree.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// GetTreeSitterLanguage returns the tree-sitter language for a Language enum.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	switch lang {
	case LangPython:
		return python.GetLanguage(), nil
	case LangJava:
		return java.GetLanguage(), nil
	case LangJavaScript:
		return javascript.GetLanguage(), nil
	case LangCPP:
		return cpp.GetLanguage(), nil
	case LangC:
		return c.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return LangPython
	case ".java":
		return LangJava
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".cpp", ".cc", ".cxx", ".hpp", ".hxx":
		return LangCPP
	case ".c", ".h":
		return LangC
	default:
		return LangUnknown
	}
}

// Extensions returns the file extensions mapped to lang by DetectLanguage.
func Extensions(lang Language) []string {
	switch lang {
	case LangPython:
		return []string{".py", ".pyw", ".pyi"}
	case LangJava:
		return []string{".java"}
	case LangJavaScript:
		return []string{".js", ".jsx", ".mjs", ".cjs"}
	case LangCPP:
		return []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx"}
	case LangC:
		return []string{".c", ".h"}
	default:
		return nil
	}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// Walk traverses the AST in document order calling visitor for each node.
// Returning false from visitor skips the node's children.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// WalkTyped traverses the AST with cached node types to reduce CGO overhead.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// FunctionNode represents a parsed function.
type FunctionNode struct {
	Name      string
	StartLine uint32
	EndLine   uint32
	Body      *sitter.Node
}

// GetFunctions extracts all function definitions, nested ones included, in
// document order.
func GetFunctions(result *ParseResult) []FunctionNode {
	var functions []FunctionNode
	funcTypes := functionNodeTypes(result.Language)

	WalkTyped(result.Tree.RootNode(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if funcTypes[nodeType] {
			functions = append(functions, extractFunction(node, source, result.Language))
		}
		return true
	})

	return functions
}

// functionNodeTypes returns the AST node types for functions in each language.
func functionNodeTypes(lang Language) map[string]bool {
	var types []string
	switch lang {
	case LangPython:
		types = []string{"function_definition"}
	case LangJavaScript:
		types = []string{"function_declaration", "function", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"}
	case LangJava:
		types = []string{"method_declaration", "constructor_declaration"}
	case LangC, LangCPP:
		types = []string{"function_definition"}
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// extractFunction extracts function details from an AST node.
func extractFunction(node *sitter.Node, source []byte, lang Language) FunctionNode {
	fn := FunctionNode{
		StartLine: node.StartPoint().Row + 1,
		EndLine:   node.EndPoint().Row + 1,
		Body:      node.ChildByFieldName("body"),
	}

	switch lang {
	case LangC, LangCPP:
		fn.Name = cFunctionName(node, source)
	case LangJavaScript:
		fn.Name = GetNodeText(node.ChildByFieldName("name"), source)
		if fn.Name == "" {
			fn.Name = jsBindingName(node, source)
		}
	default:
		fn.Name = GetNodeText(node.ChildByFieldName("name"), source)
	}

	return fn
}

// cFunctionName descends through pointer/reference declarators to the
// function_declarator and returns its declarator text.
func cFunctionName(node *sitter.Node, source []byte) string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Type() == "function_declarator" {
			return GetNodeText(decl.ChildByFieldName("declarator"), source)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil && decl.NamedChildCount() > 0 {
			next = decl.NamedChild(int(decl.NamedChildCount()) - 1)
		}
		decl = next
	}
	return ""
}

// jsBindingName names an anonymous function after the variable, property
// or assignment target it is bound to.
func jsBindingName(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator":
		return GetNodeText(parent.ChildByFieldName("name"), source)
	case "pair":
		return GetNodeText(parent.ChildByFieldName("key"), source)
	case "assignment_expression":
		return GetNodeText(parent.ChildByFieldName("left"), source)
	}
	return ""
}

// IsComment reports whether nodeType is a comment in any supported grammar.
func IsComment(nodeType string) bool {
	switch nodeType {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}
