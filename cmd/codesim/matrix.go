package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/codesim/internal/output"
	"github.com/panbanda/codesim/internal/progress"
	"github.com/panbanda/codesim/internal/service/comparison"
)

func matrixCmd() *cli.Command {
	return &cli.Command{
		Name:      "matrix",
		Aliases:   []string{"mx"},
		Usage:     "Compare every pair of same-language files",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "min-similarity",
				Value: -1,
				Usage: "Report pairs at or above this overall score (default from config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent comparisons (default 2x CPU count)",
			},
			&cli.BoolFlag{
				Name:  "include-reports",
				Usage: "Include the full report for every reported pair",
			},
		},
		Action: runMatrixCmd,
	}
}

func runMatrixCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tracker *progress.Tracker
	res, err := svc.Matrix(ctx, getPaths(c), comparison.MatrixOptions{
		MinSimilarity:  c.Float64("min-similarity"),
		Workers:        c.Int("workers"),
		IncludeReports: c.Bool("include-reports"),
		OnStart: func(pairs int) {
			tracker = progress.NewTracker("Comparing pairs...", pairs)
		},
		OnProgress: func() { tracker.Tick() },
	})
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return err
	}

	if res.Summary.TotalFiles == 0 {
		color.Yellow("No source files found")
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if res.Summary.FailedPairs > 0 && formatter.Format() == output.FormatText {
		formatter.Warning("%d pairs could not be compared", res.Summary.FailedPairs)
	}
	return formatter.Output(output.MatrixDocument(res))
}
