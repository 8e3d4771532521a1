package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds process-level HTTP metrics for the BFF.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// New registers the HTTP metrics on reg. Handler serves the same registry, so
// main and tests each pass their own.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aplite_http_request_duration_seconds",
			Help:    "Latency of BFF HTTP requests by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aplite_http_requests_total",
			Help: "BFF HTTP requests by route and status code",
		}, []string{"route", "method", "status"}),
		gatherer: reg,
	}
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	m.RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
