package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"script.py", LangPython},
		{"module.pyw", LangPython},
		{"types.pyi", LangPython},
		{"script.js", LangJavaScript},
		{"module.mjs", LangJavaScript},
		{"common.cjs", LangJavaScript},
		{"component.jsx", LangJavaScript},
		{"Main.java", LangJava},
		{"main.c", LangC},
		{"header.h", LangC},
		{"main.cpp", LangCPP},
		{"main.cc", LangCPP},
		{"main.cxx", LangCPP},
		{"header.hpp", LangCPP},
		{"header.hxx", LangCPP},
		{"main.go", LangUnknown},
		{"file.txt", LangUnknown},
		{"file", LangUnknown},
		{"SCRIPT.PY", LangPython},
		{"Main.JAVA", LangJava},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := DetectLanguage(tt.path)
			if got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtensionsRoundTrip(t *testing.T) {
	for _, lang := range Supported() {
		exts := Extensions(lang)
		if len(exts) == 0 {
			t.Errorf("Extensions(%s) is empty", lang)
		}
		for _, ext := range exts {
			if got := DetectLanguage("file" + ext); got != lang {
				t.Errorf("DetectLanguage(file%s) = %s, want %s", ext, got, lang)
			}
		}
	}
}

func TestGetTreeSitterLanguage(t *testing.T) {
	for _, lang := range Supported() {
		t.Run(string(lang), func(t *testing.T) {
			tsLang, err := GetTreeSitterLanguage(lang)
			if err != nil {
				t.Errorf("GetTreeSitterLanguage(%v) returned error: %v", lang, err)
			}
			if tsLang == nil {
				t.Errorf("GetTreeSitterLanguage(%v) returned nil", lang)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := GetTreeSitterLanguage(LangUnknown)
		if err == nil {
			t.Error("GetTreeSitterLanguage(LangUnknown) should return error")
		}
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		source string
		lang   Language
	}{
		{"python function", "def hello():\n    print('hello')\n", LangPython},
		{"java class", "class A { int f() { return 1; } }\n", LangJava},
		{"javascript function", "function hello() { return 1; }\n", LangJavaScript},
		{"c function", "int main(void) { return 0; }\n", LangC},
		{"cpp function", "int main() { return 0; }\n", LangCPP},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Parse(context.Background(), []byte(tt.source), tt.lang)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			defer result.Close()
			if result.Tree == nil {
				t.Fatal("Parse() returned nil tree")
			}
			if result.Language != tt.lang {
				t.Errorf("Language = %v, want %v", result.Language, tt.lang)
			}
			if result.HasSyntaxErrors() {
				t.Error("HasSyntaxErrors() = true for valid source")
			}
		})
	}
}

func TestParseStrictSyntaxError(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseStrict(context.Background(), []byte("def broken(:\n    return\n"), LangPython)
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("ParseStrict() error = %v, want ErrSyntax", err)
	}
}

func TestParseUnsupported(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.Parse(context.Background(), []byte("x"), LangUnknown); err == nil {
		t.Error("Parse() with unknown language should fail")
	}
}

func TestParseCancelled(t *testing.T) {
	p := New()
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	result, err := p.Parse(ctx, []byte("def f():\n    return 1\n"), LangPython)
	if err == nil {
		// Small inputs can finish before the cancellation flag is observed.
		result.Close()
		return
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Parse() error = %v, want deadline exceeded", err)
	}
}

func TestWalk(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte("def a():\n    pass\n\ndef b():\n    pass\n"), LangPython)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	defer result.Close()

	count := 0
	Walk(result.Tree.RootNode(), result.Source, func(node *sitter.Node, source []byte) bool {
		if node.Type() == "function_definition" {
			count++
		}
		return true
	})
	if count != 2 {
		t.Errorf("found %d function_definition nodes, want 2", count)
	}
}

func TestWalkNil(t *testing.T) {
	called := false
	Walk(nil, nil, func(node *sitter.Node, source []byte) bool {
		called = true
		return true
	})
	if called {
		t.Error("visitor called for nil node")
	}
}

func TestGetNodeText(t *testing.T) {
	if got := GetNodeText(nil, []byte("abc")); got != "" {
		t.Errorf("GetNodeText(nil) = %q, want empty", got)
	}
}

func TestGetFunctions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		lang   Language
		want   []string
	}{
		{
			name:   "python",
			source: "def fibonacci(n):\n    return n\n\nclass A:\n    def method(self):\n        pass\n",
			lang:   LangPython,
			want:   []string{"fibonacci", "method"},
		},
		{
			name:   "java",
			source: "public class Fib {\n  public Fib() {}\n  public static int fib(int n) { return n; }\n}\n",
			lang:   LangJava,
			want:   []string{"Fib", "fib"},
		},
		{
			name:   "javascript arrow bound to const",
			source: "function fibonacci(n) { return n; }\nconst fib = (num) => { return num; };\n",
			lang:   LangJavaScript,
			want:   []string{"fibonacci", "fib"},
		},
		{
			name:   "c pointer return",
			source: "int add(int a, int b) { return a + b; }\nchar *name(void) { return 0; }\n",
			lang:   LangC,
			want:   []string{"add", "name"},
		},
		{
			name:   "cpp",
			source: "int fibonacci(int n) {\n    return n;\n}\n",
			lang:   LangCPP,
			want:   []string{"fibonacci"},
		},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Parse(context.Background(), []byte(tt.source), tt.lang)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			defer result.Close()

			fns := GetFunctions(result)
			if len(fns) != len(tt.want) {
				t.Fatalf("GetFunctions() returned %d functions, want %d", len(fns), len(tt.want))
			}
			for i, fn := range fns {
				if fn.Name != tt.want[i] {
					t.Errorf("function[%d].Name = %q, want %q", i, fn.Name, tt.want[i])
				}
				if fn.StartLine == 0 || fn.EndLine < fn.StartLine {
					t.Errorf("function[%d] has invalid lines %d-%d", i, fn.StartLine, fn.EndLine)
				}
			}
		})
	}
}
