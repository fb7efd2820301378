// Package ml augments a similarity report with a prediction from an
// optional pre-trained model.
package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/models"
)

// Name identifies the predictor in diagnostics.
const Name = "ml"

// FeatureNames is the fixed order of ExtractFeatures.
var FeatureNames = []string{
	"token_similarity",
	"structural_similarity",
	"ast_similarity",
	"identical_segments",
	"near_identical_segments",
	"complexity_diff",
	"loc_diff",
}

// ErrModelUnavailable is returned by Predict unless a model is loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// State is the predictor lifecycle state.
type State int

const (
	Unloaded State = iota
	Loaded
	LoadFailed
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case LoadFailed:
		return "load_failed"
	default:
		return "unloaded"
	}
}

// Predictor holds a model for the life of the process. It is read-only
// after construction and safe for concurrent use.
type Predictor struct {
	path    string
	state   State
	model   *Model
	loadErr error
}

// NewPredictor loads the model at path. An empty path leaves the predictor
// Unloaded; a load error leaves it LoadFailed.
func NewPredictor(path string) *Predictor {
	p := &Predictor{path: path}
	if path == "" {
		return p
	}
	m, err := LoadModel(path)
	if err != nil {
		p.state = LoadFailed
		p.loadErr = err
		return p
	}
	p.state = Loaded
	p.model = m
	return p
}

// NewPredictorFromModel wraps an already decoded model.
func NewPredictorFromModel(m *Model) *Predictor {
	if m == nil {
		return &Predictor{}
	}
	return &Predictor{state: Loaded, model: m}
}

// State returns the lifecycle state.
func (p *Predictor) State() State { return p.state }

// Path returns the configured model path.
func (p *Predictor) Path() string { return p.path }

// Err returns the load error of a LoadFailed predictor.
func (p *Predictor) Err() error { return p.loadErr }

// Configured reports whether a model path was given.
func (p *Predictor) Configured() bool { return p.path != "" || p.model != nil }

// ExtractFeatures builds the model input from a report.
func ExtractFeatures(r *models.Report) []float64 {
	return []float64{
		r.TokenSimilarity,
		r.StructuralSimilarity,
		r.ASTSimilarity,
		float64(len(r.IdenticalSegments)),
		float64(len(r.NearIdenticalSegments)),
		r.CodeMetrics.ComplexityDiff,
		float64(r.CodeMetrics.LOCDiff),
	}
}

// Predict scores features with the loaded model. The result is clamped to
// [0,1]. Any inference failure is returned as an error.
func (p *Predictor) Predict(features []float64) (score float64, err error) {
	if p.state != Loaded {
		if p.loadErr != nil {
			return 0, fmt.Errorf("%w: %v", ErrModelUnavailable, p.loadErr)
		}
		return 0, ErrModelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			score, err = 0, fmt.Errorf("inference panic: %v", r)
		}
	}()

	if len(features) != len(p.model.Coefficients) {
		return 0, fmt.Errorf("got %d features, model expects %d", len(features), len(p.model.Coefficients))
	}
	z := p.model.Intercept + floats.Dot(p.model.Coefficients, features)
	if p.model.Kind == KindLogistic {
		z = 1 / (1 + math.Exp(-z))
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("non-finite prediction")
	}
	return analyzer.Clamp(z), nil
}
