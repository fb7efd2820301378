package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/engine"
)

const (
	fibonacciPy = "def fibonacci(n):\n    if n <= 1:\n        return n\n    return fibonacci(n-1) + fibonacci(n-2)\n"
	fibPy       = "def fib(num):\n    if num <= 1:\n        return num\n    return fib(num-1) + fib(num-2)\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.Writer = &discard{}
	app.ErrWriter = &discard{}
	return app.Run(append([]string{"codesim"}, args...))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"/foo/bar"}, []string{"/foo/bar"}},
		{"multiple paths", []string{"/foo", "/bar"}, []string{"/foo", "/bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					got = getPaths(c)
					return nil
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSelftestSamples(t *testing.T) {
	results, failed := runSelftest(context.Background(), engine.New())
	require.Len(t, results, len(selftestSamples))
	assert.Empty(t, failed)
	for _, r := range results {
		assert.Equal(t, r.Language, r.Report.Language)
		assert.Greater(t, r.Report.OverallSimilarity, 0.0, r.Language)
		assert.Less(t, r.Report.TokenSimilarity, 1.0, r.Language)
		if r.Language == "python" {
			// renamed identifiers leave the node sequence intact
			assert.Equal(t, 1.0, r.Report.ASTSimilarity)
			assert.Greater(t, r.Report.OverallSimilarity, 0.7)
		}
	}
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", fibonacciPy)
	b := writeFile(t, dir, "b.py", fibPy)
	out := filepath.Join(dir, "report.json")

	require.NoError(t, run(t, "--no-cache", "-f", "json", "-o", out, "compare", a, b))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc struct {
		Source string `json:"source"`
		Report struct {
			Language             string  `json:"language"`
			StructuralSimilarity float64 `json:"structural_similarity"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, a, doc.Source)
	assert.Equal(t, "python", doc.Report.Language)
	assert.InDelta(t, 1.0, doc.Report.StructuralSimilarity, 1e-9)
}

func TestCompareCommandArgs(t *testing.T) {
	err := run(t, "--no-cache", "compare", "only-one.py")
	require.Error(t, err)

	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", fibonacciPy)
	err = run(t, "--no-cache", "compare", "--threshold", "2", a, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "near_identical")
}

func TestMatrixCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", fibonacciPy)
	writeFile(t, dir, "b.py", fibPy)
	out := filepath.Join(t.TempDir(), "matrix.json")

	require.NoError(t, run(t, "--no-cache", "-f", "json", "-o", out, "matrix", "--min-similarity", "0", dir))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var res struct {
		Pairs   []json.RawMessage `json:"pairs"`
		Summary struct {
			TotalFiles int `json:"total_files"`
			TotalPairs int `json:"total_pairs"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, 2, res.Summary.TotalFiles)
	assert.Equal(t, 1, res.Summary.TotalPairs)
	assert.Len(t, res.Pairs, 1)
}

func TestLanguagesCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "languages.json")
	require.NoError(t, run(t, "-f", "json", "-o", out, "languages"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var b engine.Breakdown
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Len(t, b.Languages, 5)
	assert.Equal(t, 0.4, b.Weights.AST)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codesim.toml")
	require.NoError(t, run(t, "config", "init", "--path", path))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	assert.Error(t, run(t, "config", "init", "--path", path), "existing file needs --force")
	require.NoError(t, run(t, "config", "init", "--path", path, "--force"))
	require.NoError(t, run(t, "config", "validate", path))

	bad := writeFile(t, t.TempDir(), "codesim.toml", "[weights]\ntoken = -1\n")
	assert.Error(t, run(t, "config", "validate", bad))
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		verbose bool
		debug   bool
	}{
		{"info", false, false},
		{"debug", false, true},
		{"error", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			setupLogger(tt.level, tt.verbose)
			assert.Equal(t, tt.debug, slog.Default().Enabled(context.Background(), slog.LevelDebug))
		})
	}
}
