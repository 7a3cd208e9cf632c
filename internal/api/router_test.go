package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/api/handlers"
	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/metrics"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/internal/s0_ingest"
	"github.com/wonny/demandprep/pkg/config"
	"github.com/wonny/demandprep/pkg/logger"
)

type stubRunner struct{}

func (stubRunner) LoadPath(context.Context, string, pipeline.Request) (*pipeline.Result, error) {
	return &pipeline.Result{}, nil
}

func (stubRunner) Predict(context.Context, *s0_ingest.PredictionRequest, string) (*pipeline.Result, error) {
	return nil, contracts.ErrRunInProgress
}

func newTestRouter(t *testing.T, apiCfg config.APIConfig) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	h := handlers.NewPreprocessHandler(stubRunner{}, t.TempDir(), 1<<20, logger.Nop())
	return NewRouter(h, apiCfg, m, logger.Nop()), m
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, config.APIConfig{RateLimit: 10, RateBurst: 10})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "service": "demandprep-api"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `demandprep_http_requests_total{code="200",route="/health"} 1`)
}

func TestRoutesAndMethods(t *testing.T) {
	router, _ := newTestRouter(t, config.APIConfig{RateLimit: 10, RateBurst: 10})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/export-sales-data"},
		{http.MethodGet, "/api/prepare-prediction"},
		{http.MethodPost, "/health"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	router, _ := newTestRouter(t, config.APIConfig{RateLimit: 0.001, RateBurst: 1})

	payload := `{"prediction_dates": ["2024-02-01"], "products": [{"details": {"product_name": "Dog Food"}}]}`
	send := func() int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/prepare-prediction", strings.NewReader(payload)))
		return rec.Code
	}

	// a wrong method never reaches the limiter
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prepare-prediction", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, http.StatusConflict, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// health is never throttled
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, rec.Body.String())
}
