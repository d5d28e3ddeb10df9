package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the gateway's Prometheus instruments. One instance is
// created per process and shared by the middleware and the handlers.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	renewalsTotal   *prometheus.CounterVec
	sessionsSwept   prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests handled, by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "HTTP request latency, by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		loginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_logins_total",
			Help: "Login attempts, by outcome.",
		}, []string{"outcome"}),
		renewalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_token_renewals_total",
			Help: "Access-token renewals, by outcome.",
		}, []string{"outcome"}),
		sessionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_expired_sessions_swept_total",
			Help: "Refresh-token records removed by the background sweep.",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSweep records the result of one expired-session sweep pass.
func (m *Metrics) ObserveSweep(removed int64) {
	m.sessionsSwept.Add(float64(removed))
}

func (m *Metrics) observeRequest(route, method string, code int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
