// Package scanner finds comparable source files for batch comparison.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/parser"
)

// Scanner finds source files in a directory. It is not safe for concurrent
// use; create one per scan.
type Scanner struct {
	exclude  config.ExcludeConfig
	maxSize  int64
	matchers []gitignore.Matcher
}

// New creates a scanner from the exclude and batch settings of cfg.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{exclude: cfg.Exclude, maxSize: cfg.Batch.MaxFileSize}
}

// findGitRoot returns the nearest ancestor holding a .git directory, or "".
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns combines configured patterns and directories with
// every .gitignore in the enclosing repository.
func (s *Scanner) loadExcludePatterns(root string) {
	s.matchers = nil
	var patterns []gitignore.Pattern

	for _, p := range s.exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	for _, d := range s.exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(strings.TrimSuffix(d, "/")+"/", nil))
	}
	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}

	if !s.exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(gitPatterns) == 0 {
		return
	}
	// .gitignore patterns are relative to the repository root
	prefix := relParts(gitRoot, root)
	s.matchers = append(s.matchers, prefixed{prefix: prefix, m: gitignore.NewMatcher(gitPatterns)})
}

// prefixed matches paths given relative to the scan root against patterns
// relative to the repository root.
type prefixed struct {
	prefix []string
	m      gitignore.Matcher
}

func (p prefixed) Match(path []string, isDir bool) bool {
	full := make([]string, 0, len(p.prefix)+len(path))
	full = append(full, p.prefix...)
	return p.m.Match(append(full, path...), isDir)
}

func relParts(base, target string) []string {
	absBase, err1 := filepath.Abs(base)
	absTarget, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return nil
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == "." {
		return nil
	}
	return strings.Split(rel, string(filepath.Separator))
}

func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively finds files of a supported language below root,
// sorted by path. Symlinks leaving root and files above batch.max_file_size
// are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		if relPath == "." {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.isExcluded(relPath, false) || parser.DetectLanguage(path) == parser.LangUnknown {
			return nil
		}
		if s.maxSize > 0 {
			if info, err := d.Info(); err != nil || info.Size() > s.maxSize {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// ScanPaths scans every directory in paths and keeps plain files as given.
// Duplicates are removed.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if parser.DetectLanguage(p) != parser.LangUnknown {
				add(p)
			}
			continue
		}
		files, err := s.ScanDir(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	sort.Strings(out)
	return out, nil
}

// isWithinRoot checks if path is contained within root.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	// the separator keeps "/root2" from matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// GroupByLanguage groups files by their detected language.
func GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		if lang := parser.DetectLanguage(f); lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}
