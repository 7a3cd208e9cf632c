package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRun("daily", nil)
	m.ObserveRun("daily", errors.New("boom"))
	m.ObserveRun("daily", nil)
	m.AddNewCodes("category", 3)
	m.AddNewCodes("category", 0)
	m.ObserveMerge("merged")
	m.ObserveStage("S5_TIMESERIES", 20*time.Millisecond, 120)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("daily", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("daily", "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.newCodes.WithLabelValues("category")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.merges.WithLabelValues("merged")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.stageRows.WithLabelValues("S5_TIMESERIES")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("weekly", nil)
		m.ObserveStage("S1_CLEAN", time.Second, 1)
		m.AddNewCodes("product_id", 1)
		m.ObserveMerge("no_history")
		m.ObserveRequest("/health", 200)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/health", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `demandprep_http_requests_total{code="200",route="/health"} 1`)
}
