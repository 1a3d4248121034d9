package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	SignInsTotal        *prometheus.CounterVec
	TokenValidations    *prometheus.CounterVec
	SessionsIssuedTotal prometheus.Counter
	SessionsSweptTotal  prometheus.Counter

	// Organization metrics
	OrgSwitchesTotal  *prometheus.CounterVec
	OrgsCreatedTotal  prometheus.Counter
	MembershipChanges *prometheus.CounterVec

	// Snapshot cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Snapshot stream metrics
	StreamSubscribers   prometheus.Gauge
	SnapshotsBroadcast  prometheus.Counter
	SnapshotsDropped    prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "entityauth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_sign_ins_total",
				Help: "Total number of SSO sign-in attempts",
			},
			[]string{"provider", "status"},
		),
		TokenValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_token_validations_total",
				Help: "Total number of access token validations",
			},
			[]string{"status"},
		),
		SessionsIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "entityauth_sessions_issued_total",
				Help: "Total number of sessions issued",
			},
		),
		SessionsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "entityauth_sessions_swept_total",
				Help: "Total number of expired sessions deleted by the sweeper",
			},
		),

		OrgSwitchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_org_switches_total",
				Help: "Total number of active-organization switches",
			},
			[]string{"status"},
		),
		OrgsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "entityauth_orgs_created_total",
				Help: "Total number of organizations created",
			},
		),
		MembershipChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_membership_changes_total",
				Help: "Total number of membership additions and removals",
			},
			[]string{"action"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entityauth_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		StreamSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "entityauth_stream_subscribers",
				Help: "Number of connected snapshot stream subscribers",
			},
		),
		SnapshotsBroadcast: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "entityauth_snapshots_broadcast_total",
				Help: "Total number of snapshots broadcast to subscribers",
			},
		),
		SnapshotsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "entityauth_snapshots_dropped_total",
				Help: "Total number of snapshots dropped on full subscriber buffers",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "entityauth_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "entityauth_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SignInsTotal,
		m.TokenValidations,
		m.SessionsIssuedTotal,
		m.SessionsSweptTotal,
		m.OrgSwitchesTotal,
		m.OrgsCreatedTotal,
		m.MembershipChanges,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.StreamSubscribers,
		m.SnapshotsBroadcast,
		m.SnapshotsDropped,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so event streams keep working behind
// the middleware chain.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the handler serving the /metrics endpoint.
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
