package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/codesim/pkg/analyzer"
	"github.com/panbanda/codesim/pkg/engine"
	"github.com/panbanda/codesim/pkg/models"
)

var _ engine.Observer = (*Metrics)(nil)

func TestMetricsRecordFailures(t *testing.T) {
	m := NewMetrics()
	m.ObserveScorer("token", "python", time.Millisecond, nil)
	m.ObserveScorer("ast", "python", time.Millisecond, analyzer.NewFailure("ast", analyzer.KindParse, errors.New("bad")))
	m.ObserveScorer("ast", "java", time.Millisecond, analyzer.NewFailure("ast", analyzer.KindParse, errors.New("bad")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scorerFailures.WithLabelValues("ast", "parse_failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.scorerFailures.WithLabelValues("token", "parse_failure")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.scorerDuration))
}

func TestMetricsFromEngine(t *testing.T) {
	m := NewMetrics()
	e := engine.New(engine.WithObserver(m))
	e.Analyze(context.Background(), "x = 1\n", "x = 2\n", "python")

	assert.Equal(t, 1, testutil.CollectAndCount(m.analysisDuration))
	assert.Equal(t, 5, testutil.CollectAndCount(m.scorerDuration))
}

func TestObserveCache(t *testing.T) {
	m := NewMetrics()
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHandlerServesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveAnalysis("python", time.Second, models.NewReport("python"))

	srv := httptest.NewServer(NewServer("", m).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "codesim_analysis_seconds"), "metrics body lacks codesim_analysis_seconds")

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"status":"up"}`, string(body))
}

func TestServerStartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewMetrics())
	require.NoError(t, s.Start())
	assert.NotEqual(t, "127.0.0.1:0", s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
