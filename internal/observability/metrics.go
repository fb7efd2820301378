// Package observability exports engine timings as prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/models"
)

// Metrics implements engine.Observer on a prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	scorerDuration   *prometheus.HistogramVec
	scorerFailures   *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	overall          *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// NewMetrics registers the codesim collectors on a fresh registry, plus the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scorerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codesim_scorer_seconds",
			Help:    "Time spent in one scorer for one comparison.",
			Buckets: prometheus.DefBuckets,
		}, []string{"scorer", "language"}),
		scorerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codesim_scorer_failures_total",
			Help: "Scorer runs that fell back to their default value.",
		}, []string{"scorer", "kind"}),
		analysisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codesim_analysis_seconds",
			Help:    "Time spent on a full comparison.",
			Buckets: prometheus.DefBuckets,
		}, []string{"language"}),
		overall: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codesim_overall_similarity",
			Help:    "Distribution of overall similarity scores.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"language"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codesim_cache_lookups_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"}),
	}
}

// Registry returns the registry holding every codesim collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveScorer records one scorer run.
func (m *Metrics) ObserveScorer(scorer, language string, elapsed time.Duration, failure *analyzer.Failure) {
	m.scorerDuration.WithLabelValues(scorer, language).Observe(elapsed.Seconds())
	if failure != nil {
		m.scorerFailures.WithLabelValues(scorer, string(failure.Kind)).Inc()
	}
}

// ObserveAnalysis records one full comparison.
func (m *Metrics) ObserveAnalysis(language string, elapsed time.Duration, report *models.Report) {
	m.analysisDuration.WithLabelValues(language).Observe(elapsed.Seconds())
	if report != nil {
		m.overall.WithLabelValues(language).Observe(report.OverallSimilarity)
	}
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
