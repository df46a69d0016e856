package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// NewServerMetrics registers the HTTP metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

type PaymentMetrics struct {
	Outcomes  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payment",
		Name:      "outcomes_total",
		Help:      "Payment and refund attempts by method and result code.",
	}, []string{"operation", "method", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "payment",
		Name:      "duration_ms",
		Help:      "Simulated gateway latency in milliseconds.",
		Buckets:   []float64{10, 100, 500, 1000, 1500, 2000, 3000, 4000, 6000},
	}, []string{"operation", "method"})

	reg.MustRegister(outcomes, latency)
	return &PaymentMetrics{Outcomes: outcomes, LatencyMS: latency}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves the metrics gathered by g, for registries other than the default.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
