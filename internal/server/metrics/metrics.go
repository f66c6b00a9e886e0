// Package metrics holds the Prometheus collectors of the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Push item outcomes.
const (
	ResultCommitted = "committed"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	// PushItems counts pushed changes by outcome
	PushItems *prometheus.CounterVec
	// PulledChanges counts changes returned by pulls
	PulledChanges prometheus.Counter
	// AuthAttempts counts authToken calls by result
	AuthAttempts *prometheus.CounterVec
	// Exports counts export requests by result
	Exports *prometheus.CounterVec
	// HTTPRequests counts handled requests by route and status
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration tracks request latency by route
	HTTPDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Passing a fresh prometheus.Registry
// keeps tests independent of the global default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		PushItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidsbank_push_items_total",
			Help: "Pushed changes by outcome",
		}, []string{"result"}),
		PulledChanges: f.NewCounter(prometheus.CounterOpts{
			Name: "kidsbank_pulled_changes_total",
			Help: "Changes returned by pull requests",
		}),
		AuthAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidsbank_auth_attempts_total",
			Help: "Credential requests by result",
		}, []string{"result"}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidsbank_exports_total",
			Help: "Change log exports by result",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kidsbank_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kidsbank_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"method", "route"}),
	}
}

// NewNop returns collectors bound to a private registry that nobody scrapes.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
