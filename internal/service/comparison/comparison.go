// Package comparison loads samples, consults the report cache and runs the
// engine. It backs both the CLI and the MCP server.
package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/panbanda/codesim/internal/cache"
	"github.com/panbanda/codesim/internal/source"
	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/engine"
	"github.com/panbanda/codesim/pkg/models"
	"github.com/panbanda/codesim/pkg/parser"
)

// CacheObserver is told about every cache lookup.
type CacheObserver interface {
	ObserveCache(hit bool)
}

// Service orchestrates comparisons.
type Service struct {
	config      *config.Config
	engine      *engine.Engine
	cache       *cache.Cache
	observer    CacheObserver
	logger      *slog.Logger
	fingerprint string
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithEngine sets the engine instead of building one from the config.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithCache sets the report cache. A nil cache disables caching.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		if c == nil {
			c, _ = cache.New("", 0, 0, false)
		}
		s.cache = c
	}
}

// WithCacheObserver reports cache hits and misses.
func WithCacheObserver(o CacheObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a comparison service. Without WithCache the cache described
// by the config is opened.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		config: config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.engine == nil {
		s.engine = engine.New(engine.WithConfig(s.config), engine.WithLogger(s.logger))
	}
	if s.cache == nil {
		c, err := cache.New(s.config.Cache.Dir, s.config.CacheTTL(), s.config.Cache.MemoryEntries, s.config.Cache.Enabled)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}

	fp, err := fingerprint(s.engine.Config(), s.engine.Predictor().Path())
	if err != nil {
		return nil, err
	}
	s.fingerprint = fp
	return s, nil
}

// fingerprint hashes every setting that changes a report.
func fingerprint(cfg *config.Config, modelPath string) (string, error) {
	data, err := json.Marshal(struct {
		Weights    config.WeightsConfig
		Thresholds config.ThresholdConfig
		Token      config.TokenConfig
		AST        config.ASTConfig
		Model      string
	}{cfg.Weights, cfg.Thresholds, cfg.Token, cfg.AST, modelPath})
	if err != nil {
		return "", fmt.Errorf("fingerprint config: %w", err)
	}
	return cache.HashBytes(data), nil
}

// Engine returns the underlying engine.
func (s *Service) Engine() *engine.Engine { return s.engine }

// Config returns the configuration in effect.
func (s *Service) Config() *config.Config { return s.config }

// CompareCode compares two in-memory samples. The second result reports a
// cache hit.
func (s *Service) CompareCode(ctx context.Context, src, tgt, language string) (*models.Report, bool) {
	key := cache.Key(s.fingerprint, language, src, tgt)
	if r, ok := s.cache.Get(key); ok {
		s.observeCache(true)
		s.logger.Debug("cache hit", "language", language)
		return r, true
	}
	if s.cache.Enabled() {
		s.observeCache(false)
		s.logger.Debug("cache miss", "language", language)
	}

	r := s.engine.Analyze(ctx, src, tgt, language)
	if cacheable(r) {
		if err := s.cache.Set(key, r); err != nil {
			s.logger.Warn("cache write failed", "error", err)
		}
	}
	return r, false
}

// cacheable rejects reports degraded by conditions that may not recur.
func cacheable(r *models.Report) bool {
	for _, d := range r.Diagnostics {
		switch analyzer.FailureKind(d.Kind) {
		case analyzer.KindTimeout, analyzer.KindInternal:
			return false
		}
	}
	return true
}

func (s *Service) observeCache(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(hit)
	}
}

// FileRequest names two files to compare. A revision reads that side from
// git instead of the working tree.
type FileRequest struct {
	Source    string
	Target    string
	Language  string
	SourceRev string
	TargetRev string
}

// FileComparison is the result of CompareFiles.
type FileComparison struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Report *models.Report `json:"report"`
	Cached bool           `json:"cached"`
}

// CompareFiles loads and compares two files. Without an explicit language
// the source extension decides, then the target's.
func (s *Service) CompareFiles(ctx context.Context, req FileRequest) (*FileComparison, error) {
	src, err := s.load(req.Source, req.SourceRev)
	if err != nil {
		return nil, err
	}
	tgt, err := s.load(req.Target, req.TargetRev)
	if err != nil {
		return nil, err
	}

	lang := req.Language
	if lang == "" {
		lang = DetectLanguage(req.Source, req.Target)
	}

	r, cached := s.CompareCode(ctx, src, tgt, lang)
	return &FileComparison{
		Source: label(req.Source, req.SourceRev),
		Target: label(req.Target, req.TargetRev),
		Report: r,
		Cached: cached,
	}, nil
}

// DetectLanguage returns the language of the first path with a known
// extension, or "" to let the engine fall back.
func DetectLanguage(paths ...string) string {
	for _, p := range paths {
		if lang := parser.DetectLanguage(p); lang != parser.LangUnknown {
			return string(lang)
		}
	}
	return ""
}

func (s *Service) load(path, rev string) (string, error) {
	var src source.ContentSource = source.NewFilesystem()
	if rev != "" {
		g, err := source.OpenRevision(filepath.Dir(path), rev)
		if err != nil {
			return "", err
		}
		src = g
	}
	return source.Load(src, path, s.config.Batch.MaxFileSize)
}

func label(path, rev string) string {
	if rev == "" {
		return path
	}
	return rev + ":" + path
}
