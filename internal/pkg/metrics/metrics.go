package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	Decisions        *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec
	PrincipalCache   *prometheus.CounterVec
	RoleMirror       *prometheus.CounterVec
}

// New creates collectors and registers them on registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		Registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinvest_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinvest_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinvest_monetary_decisions_total",
				Help: "Admin decisions on deposit/withdrawal requests by outcome.",
			},
			[]string{"kind", "outcome"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinvest_monetary_decision_duration_seconds",
				Help:    "Approval transaction duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		PrincipalCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinvest_principal_cache_total",
				Help: "Principal cache lookups by result.",
			},
			[]string{"result"},
		),
		RoleMirror: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinvest_role_mirror_total",
				Help: "Identity provider role mirror attempts by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Decisions,
		m.DecisionDuration,
		m.PrincipalCache,
		m.RoleMirror,
	)
	return m
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveDecision records one approval workflow outcome
func (m *Metrics) ObserveDecision(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(kind, outcome).Inc()
	m.DecisionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// CacheResult records a principal cache hit or miss
func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PrincipalCache.WithLabelValues(result).Inc()
}

// MirrorResult records an identity provider role mirror attempt
func (m *Metrics) MirrorResult(ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.RoleMirror.WithLabelValues(result).Inc()
}
