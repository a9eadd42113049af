package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the service. All methods are
// safe to call on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec   // labels: signal
	FailuresTotal    *prometheus.CounterVec   // labels: reason
	HistoryFailures  *prometheus.CounterVec   // labels: reason
	FetchDuration    *prometheus.HistogramVec // labels: provider
	SignalConfidence prometheus.Gauge
	HTTPDuration     *prometheus.HistogramVec // labels: path, code
	WSClients        prometheus.Gauge
}

// New creates and registers all collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxsentinel_analyses_total",
			Help: "Completed analyses by resulting signal",
		}, []string{"signal"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxsentinel_analysis_failures_total",
			Help: "Failed analyses by reason",
		}, []string{"reason"}),
		HistoryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fxsentinel_history_failures_total",
			Help: "Failed chart history requests by reason",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fxsentinel_upstream_fetch_seconds",
			Help:    "Upstream market data fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		SignalConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxsentinel_signal_confidence",
			Help: "Confidence of the most recent recommendation",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fxsentinel_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "code"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fxsentinel_ws_clients",
			Help: "Connected websocket clients",
		}),
	}

	m.Registry.MustRegister(
		m.AnalysesTotal,
		m.FailuresTotal,
		m.HistoryFailures,
		m.FetchDuration,
		m.SignalConfidence,
		m.HTTPDuration,
		m.WSClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis counts a completed analysis.
func (m *Metrics) ObserveAnalysis(signal string, confidence float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(signal).Inc()
	m.SignalConfidence.Set(confidence)
}

func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveHistoryFailure(reason string) {
	if m == nil {
		return
	}
	m.HistoryFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveFetch(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(path string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(path, strconv.Itoa(code)).Observe(d.Seconds())
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
