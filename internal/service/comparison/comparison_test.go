package comparison

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/codesim/internal/cache"
	"github.com/panbanda/codesim/pkg/config"
)

const (
	fibonacciPy = "def fibonacci(n):\n    if n <= 1:\n        return n\n    return fibonacci(n-1) + fibonacci(n-2)\n"
	fibPy       = "def fib(num):\n    if num <= 1:\n        return num\n    return fib(num-1) + fib(num-2)\n"
	otherPy     = "import os\n\nclass Walker:\n    pass\n"
)

type countingObserver struct{ hits, misses int }

func (o *countingObserver) ObserveCache(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompareCodeUsesCache(t *testing.T) {
	obs := &countingObserver{}
	svc, err := New(WithConfig(testConfig(t)), WithCacheObserver(obs))
	require.NoError(t, err)

	first, cached := svc.CompareCode(context.Background(), fibonacciPy, fibPy, "python")
	assert.False(t, cached)
	second, cached := svc.CompareCode(context.Background(), fibonacciPy, fibPy, "python")
	assert.True(t, cached)
	assert.Equal(t, first.OverallSimilarity, second.OverallSimilarity)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)

	// a different language is a different comparison
	_, cached = svc.CompareCode(context.Background(), fibonacciPy, fibPy, "java")
	assert.False(t, cached)
}

func TestFingerprintTracksScoringSettings(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	b.Weights.Token = 0.9
	c := config.DefaultConfig()
	c.Output.Format = "json"

	fa, err := fingerprint(a, "")
	require.NoError(t, err)
	fb, _ := fingerprint(b, "")
	fc, _ := fingerprint(c, "")
	fm, _ := fingerprint(a, "model.json")

	assert.NotEqual(t, fa, fb)
	assert.Equal(t, fa, fc)
	assert.NotEqual(t, fa, fm)
}

func TestCompareCodeWithoutCache(t *testing.T) {
	svc, err := New(WithConfig(testConfig(t)), WithCache(nil))
	require.NoError(t, err)
	_, cached := svc.CompareCode(context.Background(), fibonacciPy, fibPy, "python")
	assert.False(t, cached)
	_, cached = svc.CompareCode(context.Background(), fibonacciPy, fibPy, "python")
	assert.False(t, cached)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a := write(t, dir, "a.py", fibonacciPy)
	b := write(t, dir, "b.txt", fibPy)

	svc, err := New(WithConfig(testConfig(t)), WithCache(nil))
	require.NoError(t, err)

	res, err := svc.CompareFiles(context.Background(), FileRequest{Source: a, Target: b})
	require.NoError(t, err)
	assert.Equal(t, "python", res.Report.Language)
	assert.Empty(t, res.Report.RequestedLanguage)
	assert.Greater(t, res.Report.OverallSimilarity, 0.7)

	_, err = svc.CompareFiles(context.Background(), FileRequest{Source: a, Target: filepath.Join(dir, "missing.py")})
	assert.Error(t, err)
}

func TestCompareFilesAtRevision(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	path := write(t, dir, "fib.py", fibonacciPy)
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("fib.py")
	require.NoError(t, err)
	_, err = w.Commit("add fib", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	// the working tree copy diverges from HEAD
	write(t, dir, "fib.py", otherPy)

	svc, err := New(WithConfig(testConfig(t)), WithCache(nil))
	require.NoError(t, err)
	res, err := svc.CompareFiles(context.Background(), FileRequest{Source: path, Target: path, SourceRev: "HEAD"})
	require.NoError(t, err)
	assert.Equal(t, "HEAD:"+path, res.Source)
	assert.Less(t, res.Report.OverallSimilarity, 1.0)

	res, err = svc.CompareFiles(context.Background(), FileRequest{Source: path, Target: path, SourceRev: "HEAD", TargetRev: "HEAD"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Report.OverallSimilarity, 1e-9)
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "java", DetectLanguage("A.java", "b.py"))
	assert.Equal(t, "python", DetectLanguage("notes.txt", "b.py"))
	assert.Equal(t, "", DetectLanguage("a.txt", "b.md"))
}

func TestMatrix(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a/fibonacci.py", fibonacciPy)
	write(t, dir, "b/fib.py", fibPy)
	write(t, dir, "c/other.py", otherPy)
	write(t, dir, "Fib.java", "class Fib {}\n")

	c, err := cache.New(filepath.Join(t.TempDir(), "c"), time.Hour, 16, true)
	require.NoError(t, err)
	svc, err := New(WithConfig(testConfig(t)), WithCache(c))
	require.NoError(t, err)

	var total int
	var ticks atomic.Int32
	res, err := svc.Matrix(context.Background(), []string{dir}, MatrixOptions{
		MinSimilarity: 0.7,
		Workers:       2,
		OnStart:       func(n int) { total = n },
		OnProgress:    func() { ticks.Add(1) },
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Summary.TotalFiles)
	// three python files give three pairs; the lone java file pairs with nothing
	assert.Equal(t, 3, res.Summary.TotalPairs)
	assert.Equal(t, 3, total)
	assert.Equal(t, int32(3), ticks.Load())
	assert.Equal(t, 0, res.Summary.FailedPairs)
	require.Len(t, res.Pairs, 1)
	assert.Equal(t, 1, res.Summary.ReportedPairs)
	p := res.Pairs[0]
	assert.Contains(t, []string{p.Source, p.Target}, filepath.Join(dir, "a", "fibonacci.py"))
	assert.Contains(t, []string{p.Source, p.Target}, filepath.Join(dir, "b", "fib.py"))
	assert.Nil(t, p.Report)
	assert.GreaterOrEqual(t, res.Summary.MaxSimilarity, p.Overall)
	assert.LessOrEqual(t, res.Summary.P50Similarity, res.Summary.MaxSimilarity)

	res, err = svc.Matrix(context.Background(), []string{dir}, MatrixOptions{MinSimilarity: 0, IncludeReports: true})
	require.NoError(t, err)
	require.Len(t, res.Pairs, 3)
	assert.NotNil(t, res.Pairs[0].Report)
	for i := 1; i < len(res.Pairs); i++ {
		assert.GreaterOrEqual(t, res.Pairs[i-1].Overall, res.Pairs[i].Overall)
	}
}

func TestMatrixUsesConfiguredFloor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Batch.MinSimilarity = 1.01
	svc, err := New(WithConfig(cfg), WithCache(nil))
	require.NoError(t, err)

	dir := t.TempDir()
	write(t, dir, "a.py", fibonacciPy)
	write(t, dir, "b.py", fibonacciPy)

	res, err := svc.Matrix(context.Background(), []string{dir}, MatrixOptions{MinSimilarity: -1})
	require.NoError(t, err)
	assert.Equal(t, 1.01, res.MinSimilarity)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 1, res.Summary.TotalPairs)
}
