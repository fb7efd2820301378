package engine

import (
	"time"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/models"
)

// Observer is notified after each scorer and each analysis.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveScorer(scorer, language string, elapsed time.Duration, failure *analyzer.Failure)
	ObserveAnalysis(language string, elapsed time.Duration, report *models.Report)
}

type nopObserver struct{}

func (nopObserver) ObserveScorer(string, string, time.Duration, *analyzer.Failure) {}
func (nopObserver) ObserveAnalysis(string, time.Duration, *models.Report) {}
