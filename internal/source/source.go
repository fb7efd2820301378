// Package source loads code samples from the filesystem or a git revision.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrTooLarge is returned by Load for samples above the size limit.
var ErrTooLarge = errors.New("sample exceeds size limit")

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// GitSource reads files as they were at one revision. Paths are resolved
// against the working tree root, so both absolute paths and paths relative
// to the current directory work. It is safe for concurrent use.
type GitSource struct {
	root     string
	revision string
	tree     *object.Tree
	mu       sync.Mutex
}

// OpenRevision opens the repository containing dir and resolves rev, which
// may be a branch, tag, hash or any expression go-git understands.
func OpenRevision(dir, rev string) (*GitSource, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree %s: %w", hash, err)
	}

	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	return &GitSource{root: root, revision: rev, tree: tree}, nil
}

// Revision returns the revision expression the source was opened with.
func (g *GitSource) Revision() string { return g.revision }

// Read implements ContentSource.
func (g *GitSource) Read(path string) ([]byte, error) {
	rel, err := g.relative(path)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := g.tree.File(rel)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", rel, g.revision, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", rel, g.revision, err)
	}
	return []byte(content), nil
}

func (g *GitSource) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	// the file may not exist in the working tree, so resolve its directory
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, g.root)
	}
	return filepath.ToSlash(rel), nil
}

// Load reads path from src as a string. maxSize bounds the sample; zero
// disables the bound.
func Load(src ContentSource, path string, maxSize int64) (string, error) {
	if src == nil {
		src = NewFilesystem()
	}
	data, err := src.Read(path)
	if err != nil {
		return "", err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrTooLarge, len(data), maxSize)
	}
	return string(data), nil
}
