package analyzer

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a scorer degraded.
type FailureKind string

const (
	KindParse               FailureKind = "parse_failure"
	KindVectorization       FailureKind = "vectorization_failure"
	KindMetrics             FailureKind = "metrics_failure"
	KindModelUnavailable    FailureKind = "model_unavailable"
	KindUnsupportedLanguage FailureKind = "unsupported_language"
	KindTimeout             FailureKind = "timeout"
	KindInternal            FailureKind = "internal"
)

// Failure records a degraded scorer.
type Failure struct {
	Kind   FailureKind
	Scorer string
	Err    error
}

// NewFailure builds a Failure for scorer.
func NewFailure(scorer string, kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Scorer: scorer, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Scorer, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Scorer, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsKind reports whether err wraps a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
