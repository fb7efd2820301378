// Package profile holds the per-language pattern tables used by the token
// and structural scorers.
package profile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/codesim/pkg/parser"
)

// DefaultLanguage is the profile served for tags that are not registered.
const DefaultLanguage = parser.LangPython

// Category is a structural construct counted by the feature extractor.
type Category string

const (
	CategoryFunctions    Category = "functions"
	CategoryClasses      Category = "classes"
	CategoryLoops        Category = "loops"
	CategoryConditionals Category = "conditionals"
	CategoryImports      Category = "imports"
)

// Categories returns the common categories in extraction order.
func Categories() []Category {
	return []Category{CategoryFunctions, CategoryClasses, CategoryLoops, CategoryConditionals, CategoryImports}
}

// Feature is a language-specific extra counted alongside the common categories.
type Feature struct {
	Name    string
	Pattern *regexp.Regexp
}

// Profile is the immutable pattern set for one language.
type Profile struct {
	Language parser.Language

	// CommentPatterns and StringPatterns are applied in order by the tokenizer.
	CommentPatterns []*regexp.Regexp
	StringPatterns  []*regexp.Regexp

	Structure map[Category][]*regexp.Regexp
	Extras    []Feature
}

// Patterns returns the patterns registered for a category.
func (p *Profile) Patterns(c Category) []*regexp.Regexp {
	return p.Structure[c]
}

// Resolution describes how a requested tag was resolved.
type Resolution struct {
	Requested string
	Language  parser.Language
	Fallback  bool
}

// Registry maps language tags to profiles. It is read-only after construction
// and safe for concurrent use.
type Registry struct {
	profiles map[parser.Language]*Profile
	aliases  map[string]parser.Language
}

// NewRegistry compiles a profile for every supported language.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: make(map[parser.Language]*Profile),
		aliases: map[string]parser.Language{
			"py":      parser.LangPython,
			"python3": parser.LangPython,
			"js":      parser.LangJavaScript,
			"jsx":     parser.LangJavaScript,
			"node":    parser.LangJavaScript,
			"c++":     parser.LangCPP,
			"cc":      parser.LangCPP,
			"cxx":     parser.LangCPP,
			"hpp":     parser.LangCPP,
			"h":       parser.LangC,
		},
	}
	for _, lang := range parser.Supported() {
		r.profiles[lang] = build(lang)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// For returns the profile for tag. Unknown tags resolve to the default
// profile with Resolution.Fallback set.
func (r *Registry) For(tag string) (*Profile, Resolution) {
	res := Resolution{Requested: tag}
	norm := strings.ToLower(strings.TrimSpace(tag))
	lang := parser.Language(norm)
	if alias, ok := r.aliases[norm]; ok {
		lang = alias
	}
	if p, ok := r.profiles[lang]; ok {
		res.Language = lang
		return p, res
	}
	res.Language = DefaultLanguage
	res.Fallback = true
	return r.profiles[DefaultLanguage], res
}

// Languages returns the registered languages in registration order.
func (r *Registry) Languages() []parser.Language {
	langs := make([]parser.Language, 0, len(r.profiles))
	for _, lang := range parser.Supported() {
		if _, ok := r.profiles[lang]; ok {
			langs = append(langs, lang)
		}
	}
	return langs
}

const (
	lineSlashComment  = `//.*`
	blockSlashComment = `(?s)/\*.*?\*/`
	doubleQuoted      = `".*?"`
	singleQuoted      = `'.*?'`
	returns           = `\breturn\b`
	cLoops            = `\b(for|while|do)\b`
	cConditionals     = `\b(if|else|switch)\b`
)

// build constructs the profile for a language. Every language returned by
// parser.Supported must have a case here.
func build(lang parser.Language) *Profile {
	switch lang {
	case parser.LangPython:
		return compile(lang, patternSet{
			comments:     []string{`#.*`, `(?s)""".*?"""`, `(?s)'''.*?'''`},
			strings:      []string{doubleQuoted, singleQuoted},
			functions:    []string{`\bdef\s+\w+`},
			classes:      []string{`\bclass\s+\w+`},
			loops:        []string{`\b(for|while)\b`},
			conditionals: []string{`\b(if|elif|else)\b`},
			imports:      []string{`\b(import|from)\b`},
			extras: [][2]string{
				{"try_except", `\btry\b`},
				{"returns", returns},
			},
		})
	case parser.LangJava:
		return compile(lang, patternSet{
			comments:     []string{lineSlashComment, blockSlashComment},
			strings:      []string{doubleQuoted},
			functions:    []string{`(public|private|protected)?\s*(static)?\s*\w+\s+\w+\s*\(`},
			classes:      []string{`\bclass\s+\w+`, `\binterface\s+\w+`},
			loops:        []string{cLoops},
			conditionals: []string{cConditionals},
			imports:      []string{`\bimport\b`},
			extras: [][2]string{
				{"try_catch", `\btry\b`},
				{"returns", returns},
				{"interfaces", `\binterface\s+\w+`},
			},
		})
	case parser.LangJavaScript:
		return compile(lang, patternSet{
			comments:     []string{lineSlashComment, blockSlashComment},
			strings:      []string{doubleQuoted, singleQuoted, "(?s)`.*?`"},
			functions:    []string{`\bfunction\s+\w+`, `\w+\s*=\s*\(.*?\)\s*=>`, `\w+\s*:\s*function`},
			classes:      []string{`\bclass\s+\w+`},
			loops:        []string{cLoops},
			conditionals: []string{cConditionals},
			imports:      []string{`\b(import|require)\b`},
			extras: [][2]string{
				{"arrow_functions", `=>`},
				{"returns", returns},
			},
		})
	case parser.LangCPP:
		return compile(lang, patternSet{
			comments:     []string{lineSlashComment, blockSlashComment},
			strings:      []string{doubleQuoted},
			functions:    []string{`\w+\s+\w+\s*\(`},
			classes:      []string{`\bclass\s+\w+`, `\bstruct\s+\w+`},
			loops:        []string{cLoops},
			conditionals: []string{cConditionals},
			imports:      []string{`#include`},
			extras: [][2]string{
				{"pointers", `\*\w+`},
				{"returns", returns},
			},
		})
	case parser.LangC:
		return compile(lang, patternSet{
			comments:     []string{lineSlashComment, blockSlashComment},
			strings:      []string{doubleQuoted},
			functions:    []string{`\w+\s+\w+\s*\(`},
			classes:      []string{`\bstruct\s+\w+`},
			loops:        []string{cLoops},
			conditionals: []string{cConditionals},
			imports:      []string{`#include`},
			extras: [][2]string{
				{"pointers", `\*\w+`},
				{"returns", returns},
			},
		})
	default:
		panic(fmt.Sprintf("profile: no profile for language %q", lang))
	}
}

type patternSet struct {
	comments     []string
	strings      []string
	functions    []string
	classes      []string
	loops        []string
	conditionals []string
	imports      []string
	extras       [][2]string
}

func compile(lang parser.Language, s patternSet) *Profile {
	p := &Profile{
		Language:        lang,
		CommentPatterns: mustCompileAll(s.comments),
		StringPatterns:  mustCompileAll(s.strings),
		Structure: map[Category][]*regexp.Regexp{
			CategoryFunctions:    mustCompileAll(s.functions),
			CategoryClasses:      mustCompileAll(s.classes),
			CategoryLoops:        mustCompileAll(s.loops),
			CategoryConditionals: mustCompileAll(s.conditionals),
			CategoryImports:      mustCompileAll(s.imports),
		},
	}
	for _, e := range s.extras {
		p.Extras = append(p.Extras, Feature{Name: e[0], Pattern: regexp.MustCompile(e[1])})
	}
	return p
}

func mustCompileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
