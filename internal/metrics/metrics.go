package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters.
type Metrics struct {
	requests       prometheus.Counter
	fetchErrors    prometheus.Counter
	analysisErrors prometheus.Counter
	assessments    *prometheus.CounterVec
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			requests: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tx_sentinel_requests_total",
				Help: "Total number of analysis requests received",
			}),
			fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tx_sentinel_fetch_errors_total",
				Help: "Total number of failed transaction fetches",
			}),
			analysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tx_sentinel_analysis_errors_total",
				Help: "Total number of risk engine failures",
			}),
			assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tx_sentinel_assessments_total",
				Help: "Total number of issued assessments by classification",
			}, []string{"tx_type"}),
		}
		prometheus.MustRegister(
			metrics.requests,
			metrics.fetchErrors,
			metrics.analysisErrors,
			metrics.assessments,
		)
	})
	return metrics
}

// RequestReceived increments the request counter.
func (m *Metrics) RequestReceived() {
	if m != nil {
		m.requests.Inc()
	}
}

// FetchError increments the fetch error counter.
func (m *Metrics) FetchError() {
	if m != nil {
		m.fetchErrors.Inc()
	}
}

// AnalysisError increments the risk engine error counter.
func (m *Metrics) AnalysisError() {
	if m != nil {
		m.analysisErrors.Inc()
	}
}

// AssessmentIssued increments the per-classification assessment counter.
func (m *Metrics) AssessmentIssued(txType string) {
	if m != nil {
		m.assessments.WithLabelValues(txType).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
