package engine

import (
	"log/slog"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/analyzer/ml"
	"github.com/panbanda/codesim/pkg/config"
	"github.com/panbanda/codesim/pkg/profile"
)

// Option configures the Engine.
type Option func(*Engine)

// WithConfig sets weights, thresholds, timeouts and the model path.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithLogger sets the logger used for degraded scorers.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver receives timings for every analysis.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithPredictor sets the ML predictor instead of loading ml.model_path.
func WithPredictor(p *ml.Predictor) Option {
	return func(e *Engine) {
		e.predictor = p
	}
}

// WithRegistry sets the language profile registry.
func WithRegistry(r *profile.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithScorer replaces the built-in scorer with the same name (token,
// structural or ast).
func WithScorer(s analyzer.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.overrides[s.Name()] = s
		}
	}
}
