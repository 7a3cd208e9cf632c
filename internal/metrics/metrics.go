package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "demandprep"

// Metrics holds the pipeline collectors on a private registry
// ⭐ SSOT: 모든 prometheus 지표는 여기서만 정의
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.GaugeVec
	newCodes      *prometheus.CounterVec
	merges        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
		stageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_output_rows",
			Help:      "Rows produced by the last run of each stage.",
		}, []string{"stage"}),
		newCodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_new_codes_total",
			Help:      "Categorical codes assigned, by feature.",
		}, []string{"feature"}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_merges_total",
			Help:      "History merge decisions by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.runs, m.stageDuration, m.stageRows, m.newCodes, m.merges, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records one stage execution
func (m *Metrics) ObserveStage(stage string, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	m.stageRows.WithLabelValues(stage).Set(float64(rows))
}

// ObserveRun counts a finished run
func (m *Metrics) ObserveRun(mode string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.runs.WithLabelValues(mode, outcome).Inc()
}

// AddNewCodes counts codes appended to a mapping
func (m *Metrics) AddNewCodes(feature string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.newCodes.WithLabelValues(feature).Add(float64(n))
}

// ObserveMerge counts a history merge decision
func (m *Metrics) ObserveMerge(reason string) {
	if m == nil {
		return
	}
	m.merges.WithLabelValues(reason).Inc()
}

// ObserveRequest counts an API response
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
