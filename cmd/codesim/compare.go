package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/internal/output"
	"github.com/panbanda/codesim/internal/service/comparison"
)

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Aliases:   []string{"cmp"},
		Usage:     "Compare two source files",
		ArgsUsage: "<source> <target>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language tag (detected from the source extension if omitted)",
			},
			&cli.StringFlag{
				Name:  "rev-a",
				Usage: "Read the source file at this git revision",
			},
			&cli.StringFlag{
				Name:  "rev-b",
				Usage: "Read the target file at this git revision",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Path to an ML model document",
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Near-identical segment threshold (0.0-1.0)",
			},
			&cli.IntFlag{
				Name:  "min-lines",
				Usage: "Minimum lines per reported segment",
			},
		},
		Action: runCompareCmd,
	}
}

func runCompareCmd(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("compare requires exactly two paths: <source> <target>")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("model") {
		cfg.ML.ModelPath = c.String("model")
	}
	if c.IsSet("threshold") {
		cfg.Thresholds.NearIdentical = c.Float64("threshold")
	}
	if c.IsSet("min-lines") {
		cfg.Thresholds.MinSegmentLines = c.Int("min-lines")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	res, err := svc.CompareFiles(context.Background(), comparison.FileRequest{
		Source:    c.Args().Get(0),
		Target:    c.Args().Get(1),
		Language:  c.String("language"),
		SourceRev: c.String("rev-a"),
		TargetRev: c.String("rev-b"),
	})
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if r := res.Report; r.RequestedLanguage != "" && formatter.Format() == output.FormatText {
		formatter.Warning("language %q is not supported, compared as %s", r.RequestedLanguage, r.Language)
	}
	if err := formatter.Output(output.ComparisonDocument(output.Comparison{
		Source: res.Source,
		Target: res.Target,
		Report: res.Report,
	})); err != nil {
		return err
	}

	if formatter.Format() == output.FormatText && formatter.Colored() {
		verdict := fmt.Sprintf("Overall similarity: %.1f%%", res.Report.OverallSimilarity*100)
		fmt.Fprintln(formatter.Writer(), output.ScoreColor(res.Report.OverallSimilarity, verdict))
	}
	return nil
}
