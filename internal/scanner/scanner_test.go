package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/parser"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func relSet(root string, files []string) map[string]bool {
	out := make(map[string]bool, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(root, f)
		out[filepath.ToSlash(rel)] = true
	}
	return out
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":              "x = 1\n",
		"b/Main.java":       "class Main {}\n",
		"b/app.js":          "let x = 1;\n",
		"c/lib.c":           "int x;\n",
		"c/lib.hpp":         "int y;\n",
		"README.md":         "# readme\n",
		"main.go":           "package main\n",
		"dist/out.js":       "let y = 2;\n",
		"node_modules/m.js": "let z;\n",
		"web/app.min.js":    "let q;\n",
	})

	files, err := New(nil).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	got := relSet(root, files)
	for _, want := range []string{"a.py", "b/Main.java", "b/app.js", "c/lib.c", "c/lib.hpp"} {
		if !got[want] {
			t.Errorf("ScanDir() missing %s", want)
		}
	}
	for _, skip := range []string{"README.md", "main.go", "dist/out.js", "node_modules/m.js", "web/app.min.js"} {
		if got[skip] {
			t.Errorf("ScanDir() should skip %s", skip)
		}
	}
	if len(files) != 5 {
		t.Errorf("ScanDir() found %d files, want 5", len(files))
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("results not sorted: %s > %s", files[i-1], files[i])
		}
	}
}

func TestScanDirGitignore(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/HEAD":            "ref: refs/heads/main\n",
		".gitignore":           "generated/\n*_pb.py\n",
		"src/keep.py":          "x = 1\n",
		"src/msg_pb.py":        "x = 2\n",
		"src/generated/gen.py": "x = 3\n",
	})

	files, err := New(nil).ScanDir(filepath.Join(root, "src"))
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := relSet(filepath.Join(root, "src"), files)
	if !got["keep.py"] || len(got) != 1 {
		t.Errorf("ScanDir() = %v, want only keep.py", got)
	}

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	files, _ = New(cfg).ScanDir(filepath.Join(root, "src"))
	if len(files) != 3 {
		t.Errorf("with gitignore disabled found %d files, want 3", len(files))
	}
}

func TestScanDirMaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   strings.Repeat("x = 1\n", 100),
	})

	cfg := config.DefaultConfig()
	cfg.Batch.MaxFileSize = 64
	files, err := New(cfg).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	got := relSet(root, files)
	if !got["small.py"] || got["big.py"] {
		t.Errorf("ScanDir() = %v, want only small.py", got)
	}
}

func TestScanPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"x/a.py":    "a = 1\n",
		"y/b.py":    "b = 1\n",
		"notes.txt": "text\n",
	})

	single := filepath.Join(root, "y", "b.py")
	files, err := New(nil).ScanPaths([]string{filepath.Join(root, "x"), single, single, filepath.Join(root, "notes.txt")})
	if err != nil {
		t.Fatalf("ScanPaths() error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ScanPaths() = %v, want 2 files", files)
	}

	if _, err := New(nil).ScanPaths([]string{filepath.Join(root, "missing")}); err == nil {
		t.Error("ScanPaths() with missing path should fail")
	}
}

func TestGroupByLanguage(t *testing.T) {
	groups := GroupByLanguage([]string{"a.py", "b.py", "C.java", "d.cpp", "e.txt"})
	if len(groups[parser.LangPython]) != 2 {
		t.Errorf("python group = %v", groups[parser.LangPython])
	}
	if len(groups[parser.LangJava]) != 1 || len(groups[parser.LangCPP]) != 1 {
		t.Errorf("groups = %v", groups)
	}
	if _, ok := groups[parser.LangUnknown]; ok {
		t.Error("unknown files should not be grouped")
	}
}

func TestIsWithinRoot(t *testing.T) {
	tests := []struct {
		path, root string
		want       bool
	}{
		{"/root/a/b", "/root", true},
		{"/root", "/root", true},
		{"/root2/a", "/root", false},
		{"/other", "/root", false},
	}
	for _, tt := range tests {
		if got := isWithinRoot(tt.path, tt.root); got != tt.want {
			t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tt.root, got, tt.want)
		}
	}
}
