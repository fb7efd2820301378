// Package engine combines the similarity scorers into a single report.
//
// Every sub-analysis runs concurrently inside its own failure boundary and
// time budget. A failing or slow scorer contributes its default value and a
// diagnostic; Analyze always returns a well-formed report.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/analyzer/ast"
	"github.com/panbanda/codesim/pkg/analyzer/metrics"
	"github.com/panbanda/codesim/pkg/analyzer/ml"
	"github.com/panbanda/codesim/pkg/analyzer/segments"
	"github.com/panbanda/codesim/pkg/analyzer/structural"
	"github.com/panbanda/codesim/pkg/analyzer/token"
	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/models"
	"github.com/panbanda/codesim/pkg/parser"
	"github.com/panbanda/codesim/pkg/profile"
)

// ProfileScorer names diagnostics raised while resolving the language.
const ProfileScorer = "profile"

// Engine is safe for concurrent use; all state is read-only after New.
type Engine struct {
	cfg       *config.Config
	registry  *profile.Registry
	logger    *slog.Logger
	observer  Observer
	predictor *ml.Predictor
	overrides map[string]analyzer.Scorer

	token      analyzer.Scorer
	structural analyzer.Scorer
	ast        analyzer.Scorer
	strategies *ast.Scorer
	segments   *segments.Matcher
	metrics    *metrics.Calculator
	timeout    time.Duration
}

// New creates an engine. Without WithConfig the defaults are used; without
// WithPredictor the model at ml.model_path is loaded, if any.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:       config.DefaultConfig(),
		registry:  profile.Default(),
		logger:    slog.Default(),
		observer:  nopObserver{},
		overrides: make(map[string]analyzer.Scorer),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.strategies = ast.New(e.cfg.AST.NativeLanguages)
	e.token = e.scorer(token.New(e.cfg.Token.MaxFeatures))
	e.structural = e.scorer(structural.New())
	e.ast = e.scorer(e.strategies)
	e.segments = segments.New(e.cfg.Thresholds.MinSegmentLines, e.cfg.Thresholds.NearIdentical)
	e.metrics = metrics.New()
	e.timeout = e.cfg.ScorerTimeout()
	if e.predictor == nil {
		e.predictor = ml.NewPredictor(e.cfg.ML.ModelPath)
	}
	if e.predictor.State() == ml.LoadFailed {
		e.logger.Warn("ml model failed to load", "path", e.predictor.Path(), "error", e.predictor.Err())
	}
	return e
}

func (e *Engine) scorer(builtin analyzer.Scorer) analyzer.Scorer {
	if s, ok := e.overrides[builtin.Name()]; ok {
		return s
	}
	return builtin
}

// Config returns the configuration in effect.
func (e *Engine) Config() *config.Config { return e.cfg }

// Registry returns the language profile registry.
func (e *Engine) Registry() *profile.Registry { return e.registry }

// Predictor returns the ML predictor.
func (e *Engine) Predictor() *ml.Predictor { return e.predictor }

type metricsOutcome struct {
	cmp      models.MetricsComparison
	failures []*analyzer.Failure
}

// Analyze compares source and target as samples of language. It never
// returns nil and never panics.
func (e *Engine) Analyze(ctx context.Context, source, target, language string) (report *models.Report) {
	start := time.Now()
	prof, res := e.registry.For(language)
	lang := string(res.Language)

	defer func() {
		if r := recover(); r != nil {
			report = models.NewReport(lang)
			report.Diagnostics = []models.Diagnostic{{
				Scorer:  "engine",
				Kind:    string(analyzer.KindInternal),
				Message: fmt.Sprint(r),
			}}
			e.logger.Error("analysis failed", "language", lang, "panic", r)
		}
		e.observer.ObserveAnalysis(lang, time.Since(start), report)
	}()

	report = models.NewReport(lang)
	report.ASTStrategy = e.strategies.StrategyFor(res.Language)
	if !strings.EqualFold(strings.TrimSpace(language), lang) {
		report.RequestedLanguage = language
	}

	var failures []*analyzer.Failure
	if res.Fallback {
		failures = append(failures, analyzer.NewFailure(ProfileScorer, analyzer.KindUnsupportedLanguage,
			fmt.Errorf("unknown language %q, using %s", language, lang)))
	}

	in := analyzer.Input{Source: source, Target: target, Profile: prof}
	var (
		tokenRes, structRes, astRes analyzer.Result
		segRes                      segments.Result
		metricRes                   metricsOutcome
		segFailure, metricFailure   *analyzer.Failure
	)

	wg := conc.NewWaitGroup()
	wg.Go(func() { tokenRes = e.runScorer(ctx, e.token, in) })
	wg.Go(func() { structRes = e.runScorer(ctx, e.structural, in) })
	wg.Go(func() { astRes = e.runScorer(ctx, e.ast, in) })
	wg.Go(func() {
		t := time.Now()
		fallback := segments.Result{Identical: []models.Segment{}, NearIdentical: []models.Segment{}}
		segRes, segFailure = bounded(ctx, e.timeout, segments.Name, fallback, func(context.Context) segments.Result {
			return e.segments.Find(source, target)
		})
		e.observer.ObserveScorer(segments.Name, lang, time.Since(t), segFailure)
	})
	wg.Go(func() {
		t := time.Now()
		fallback := metricsOutcome{cmp: metrics.Diff(metrics.Fallback(source), metrics.Fallback(target))}
		metricRes, metricFailure = bounded(ctx, e.timeout, metrics.Name, fallback, func(ctx context.Context) metricsOutcome {
			cmp, fs := e.metrics.Compare(ctx, source, target, res.Language)
			return metricsOutcome{cmp: cmp, failures: fs}
		})
		var first *analyzer.Failure
		if metricFailure != nil {
			first = metricFailure
		} else if len(metricRes.failures) > 0 {
			first = metricRes.failures[0]
		}
		e.observer.ObserveScorer(metrics.Name, lang, time.Since(t), first)
	})
	wg.Wait()

	report.TokenSimilarity = tokenRes.Score
	report.StructuralSimilarity = structRes.Score
	report.ASTSimilarity = astRes.Score
	report.OverallSimilarity = e.Overall(tokenRes.Score, structRes.Score, astRes.Score)
	report.IdenticalSegments = segRes.Identical
	report.NearIdenticalSegments = segRes.NearIdentical
	report.Coverage = segRes.Coverage
	report.CodeMetrics = metricRes.cmp

	for _, r := range []analyzer.Result{tokenRes, structRes, astRes} {
		if r.Failure != nil {
			failures = append(failures, r.Failure)
		}
	}
	if segFailure != nil {
		failures = append(failures, segFailure)
	}
	if metricFailure != nil {
		failures = append(failures, metricFailure)
	}
	failures = append(failures, metricRes.failures...)

	if f := e.predict(report); f != nil {
		failures = append(failures, f)
	}

	for _, f := range failures {
		e.logger.Debug("scorer degraded", "scorer", f.Scorer, "kind", f.Kind, "language", lang, "error", f.Err)
		d := models.Diagnostic{Scorer: f.Scorer, Kind: string(f.Kind)}
		if f.Err != nil {
			d.Message = f.Err.Error()
		}
		report.Diagnostics = append(report.Diagnostics, d)
	}
	return report
}

func (e *Engine) runScorer(ctx context.Context, s analyzer.Scorer, in analyzer.Input) analyzer.Result {
	t := time.Now()
	r, f := bounded(ctx, e.timeout, s.Name(), analyzer.Result{}, func(ctx context.Context) analyzer.Result {
		return s.Score(ctx, in)
	})
	if f != nil {
		r = analyzer.Fail(0, f)
	} else {
		r.Score = analyzer.Clamp(r.Score)
	}
	e.observer.ObserveScorer(s.Name(), string(in.Language()), time.Since(t), r.Failure)
	return r
}

// predict sets the ML score on success. It returns a failure only when a
// model was configured but could not produce a prediction.
func (e *Engine) predict(report *models.Report) *analyzer.Failure {
	if e.predictor == nil || !e.predictor.Configured() {
		return nil
	}
	score, err := e.predictor.Predict(ml.ExtractFeatures(report))
	if err != nil {
		return analyzer.NewFailure(ml.Name, analyzer.KindModelUnavailable, err)
	}
	report.MLSimilarity = &score
	return nil
}

// Overall is the weighted mean of the three required scores, clamped to
// [0,1]. It is 0 when the weights sum to zero.
func (e *Engine) Overall(tokenScore, structuralScore, astScore float64) float64 {
	w := e.cfg.Weights
	sum := w.Token + w.Structural + w.AST
	if sum <= 0 {
		return 0
	}
	return analyzer.Clamp((w.Token*tokenScore + w.Structural*structuralScore + w.AST*astScore) / sum)
}

// LanguageInfo describes how one language is analyzed.
type LanguageInfo struct {
	Language    string   `json:"language"`
	ASTStrategy string   `json:"ast_strategy"`
	Extensions  []string `json:"extensions"`
}

// Breakdown describes the engine configuration in effect.
type Breakdown struct {
	Weights   config.WeightsConfig `json:"weights"`
	Languages []LanguageInfo       `json:"languages"`
	MLState   string               `json:"ml_state"`
}

// Breakdown reports weights, per-language strategies and the model state.
func (e *Engine) Breakdown() Breakdown {
	b := Breakdown{Weights: e.cfg.Weights, MLState: e.predictor.State().String()}
	for _, lang := range e.registry.Languages() {
		b.Languages = append(b.Languages, LanguageInfo{
			Language:    string(lang),
			ASTStrategy: e.strategies.StrategyFor(lang),
			Extensions:  parser.Extensions(lang),
		})
	}
	return b
}
