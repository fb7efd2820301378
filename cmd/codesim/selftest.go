package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/internal/output"
	"github.com/panbanda/codesim/pkg/engine"
	"github.com/panbanda/codesim/pkg/models"
)

// selftestSample is a recursive fibonacci and a renamed copy of it.
type selftestSample struct {
	language string
	source   string
	target   string
}

var selftestSamples = []selftestSample{
	{
		language: "python",
		source: `
def fibonacci(n):
    if n <= 1:
        return n
    return fibonacci(n-1) + fibonacci(n-2)
`,
		target: `
def fib(num):
    if num <= 1:
        return num
    return fib(num-1) + fib(num-2)
`,
	},
	{
		language: "java",
		source: `
public class Fibonacci {
    public static int fibonacci(int n) {
        if (n <= 1) return n;
        return fibonacci(n-1) + fibonacci(n-2);
    }
}
`,
		target: `
public class Fib {
    public static int fib(int num) {
        if (num <= 1) return num;
        return fib(num-1) + fib(num-2);
    }
}
`,
	},
	{
		language: "javascript",
		source: `
function fibonacci(n) {
    if (n <= 1) return n;
    return fibonacci(n-1) + fibonacci(n-2);
}
`,
		target: `
const fib = (num) => {
    if (num <= 1) return num;
    return fib(num-1) + fib(num-2);
};
`,
	},
	{
		language: "cpp",
		source: `
int fibonacci(int n) {
    if (n <= 1) return n;
    return fibonacci(n-1) + fibonacci(n-2);
}
`,
		target: `
int fib(int num) {
    if (num <= 1) return num;
    return fib(num-1) + fib(num-2);
}
`,
	},
	{
		language: "c",
		source: `
unsigned fibonacci(unsigned n) {
    if (n <= 1) return n;
    return fibonacci(n - 1) + fibonacci(n - 2);
}
`,
		target: `
unsigned fib(unsigned num) {
    if (num <= 1) return num;
    return fib(num - 1) + fib(num - 2);
}
`,
	},
}

type selftestResult struct {
	Language string         `json:"language"`
	Report   *models.Report `json:"report"`
}

func selftestCmd() *cli.Command {
	return &cli.Command{
		Name:   "selftest",
		Usage:  "Compare built-in fibonacci samples in every supported language",
		Action: runSelftestCmd,
	}
}

func runSelftestCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	results, failed := runSelftest(context.Background(), engine.New(engine.WithConfig(cfg)))

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Language,
			fmt.Sprintf("%.1f%%", r.Report.OverallSimilarity*100),
			fmt.Sprintf("%.1f%%", r.Report.TokenSimilarity*100),
			fmt.Sprintf("%.1f%%", r.Report.StructuralSimilarity*100),
			fmt.Sprintf("%.1f%%", r.Report.ASTSimilarity*100),
			fmt.Sprint(len(r.Report.Diagnostics)),
		}
	}
	table := output.NewTable(
		"Multi-language self test",
		[]string{"Language", "Overall", "Token", "Structural", "AST", "Diagnostics"},
		rows, nil, results,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if len(failed) > 0 {
		return fmt.Errorf("self test produced diagnostics for %v", failed)
	}
	if formatter.Format() == output.FormatText {
		color.Green("Multi-language self test passed")
	}
	return nil
}

// runSelftest compares every sample and returns the languages whose report
// carries diagnostics.
func runSelftest(ctx context.Context, e *engine.Engine) ([]selftestResult, []string) {
	results := make([]selftestResult, 0, len(selftestSamples))
	var failed []string
	for _, s := range selftestSamples {
		report := e.Analyze(ctx, s.source, s.target, s.language)
		results = append(results, selftestResult{Language: s.language, Report: report})
		if len(report.Diagnostics) > 0 {
			failed = append(failed, s.language)
		}
	}
	return results, failed
}
