package comparison

import (
	"context"
	"sort"

	"github.com/panbanda/codesim/internal/fileproc"
	"github.com/panbanda/codesim/internal/scanner"
	"github.com/panbanda/codesim/internal/source"
	"github.com/panbanda/codesim/pkg/models"
	"github.com/panbanda/codesim/pkg/parser"
	"github.com/panbanda/codesim/pkg/stats"
)

// MatrixOptions configures an all-pairs comparison.
type MatrixOptions struct {
	// MinSimilarity filters reported pairs; negative uses batch.min_similarity.
	MinSimilarity float64
	// Workers bounds concurrency; zero uses batch.workers.
	Workers int
	// IncludeReports keeps the full report on every reported pair.
	IncludeReports bool
	// OnStart receives the number of pairs before any is compared.
	OnStart func(pairs int)
	// OnProgress is called after each pair.
	OnProgress func()
}

type sample struct {
	path string
	lang parser.Language
	code string
}

type pairJob struct {
	a, b *sample
}

// Matrix compares every pair of same-language files found under paths and
// reports those at or above the similarity floor, most similar first.
func (s *Service) Matrix(ctx context.Context, paths []string, opts MatrixOptions) (*models.MatrixResult, error) {
	files, err := scanner.New(s.config).ScanPaths(paths)
	if err != nil {
		return nil, err
	}

	minSim := opts.MinSimilarity
	if minSim < 0 {
		minSim = s.config.Batch.MinSimilarity
	}
	workers := opts.Workers
	if workers == 0 {
		workers = s.config.Batch.Workers
	}

	var samples []*sample
	fs := source.NewFilesystem()
	for _, f := range files {
		code, err := source.Load(fs, f, s.config.Batch.MaxFileSize)
		if err != nil {
			s.logger.Warn("skipping sample", "path", f, "error", err)
			continue
		}
		samples = append(samples, &sample{path: f, lang: parser.DetectLanguage(f), code: code})
	}

	var jobs []pairJob
	for i := range samples {
		for j := i + 1; j < len(samples); j++ {
			if samples[i].lang == samples[j].lang {
				jobs = append(jobs, pairJob{samples[i], samples[j]})
			}
		}
	}
	if opts.OnStart != nil {
		opts.OnStart(len(jobs))
	}

	key := func(j pairJob) string { return j.a.path + " <> " + j.b.path }
	pairs, errs := fileproc.Map(ctx, jobs, workers, key, func(ctx context.Context, j pairJob) (models.MatrixPair, error) {
		if err := ctx.Err(); err != nil {
			return models.MatrixPair{}, err
		}
		r, _ := s.CompareCode(ctx, j.a.code, j.b.code, string(j.a.lang))
		return models.MatrixPair{
			Source:   j.a.path,
			Target:   j.b.path,
			Language: r.Language,
			Overall:  r.OverallSimilarity,
			Coverage: (r.Coverage.Source + r.Coverage.Target) / 2,
			Report:   r,
		}, nil
	}, opts.OnProgress)
	if errs.HasErrors() {
		s.logger.Warn("matrix pairs failed", "count", errs.Len(), "first", errs.Errors[0].Error())
	}

	scores := make([]float64, len(pairs))
	reported := make([]models.MatrixPair, 0)
	for i, p := range pairs {
		scores[i] = p.Overall
		if p.Overall < minSim {
			continue
		}
		if !opts.IncludeReports {
			p.Report = nil
		}
		reported = append(reported, p)
	}
	sort.SliceStable(reported, func(i, j int) bool {
		if reported[i].Overall != reported[j].Overall {
			return reported[i].Overall > reported[j].Overall
		}
		if reported[i].Source != reported[j].Source {
			return reported[i].Source < reported[j].Source
		}
		return reported[i].Target < reported[j].Target
	})

	sum := stats.Summarize(scores)
	return &models.MatrixResult{
		Pairs:         reported,
		MinSimilarity: minSim,
		Summary: models.MatrixSummary{
			TotalFiles:    len(samples),
			TotalPairs:    len(jobs),
			ReportedPairs: len(reported),
			FailedPairs:   errs.Len(),
			AvgSimilarity: sum.Mean,
			P50Similarity: sum.P50,
			P95Similarity: sum.P95,
			MaxSimilarity: sum.Max,
		},
	}, nil
}
