// Package metrics owns the server's Prometheus collectors. Each Metrics value
// has its own registry so tests can build as many as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophcoach"

// Chat send outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeUpstream   = "upstream_error"
	OutcomeStore      = "store_error"
)

type Metrics struct {
	registry           *prometheus.Registry
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	chatSends          *prometheus.CounterVec
	completionDuration prometheus.Histogram
	persistFailures    *prometheus.CounterVec
	rateLimited        prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		chatSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_sends_total",
			Help:      "Chat send operations by outcome.",
		}, []string{"outcome"}),
		completionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of completion provider calls.",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}),
		persistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Messages that could not be written, by role.",
		}, []string{"role"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the auth rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.chatSends,
		m.completionDuration, m.persistFailures, m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The observation methods below accept a nil receiver so components can run
// without metrics.

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ChatSend(outcome string) {
	if m == nil {
		return
	}
	m.chatSends.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCompletion(d time.Duration) {
	if m == nil {
		return
	}
	m.completionDuration.Observe(d.Seconds())
}

func (m *Metrics) PersistFailure(role string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(role).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
