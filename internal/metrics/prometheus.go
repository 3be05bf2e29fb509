package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the dictation service
type Metrics struct {
	// Identity metrics
	IdentitiesIssued     prometheus.Counter
	RegisteredIdentities prometheus.Gauge

	// Connection metrics
	ActiveConnections     prometheus.Gauge
	ConnectionsRegistered prometheus.Counter
	Handovers             prometheus.Counter

	// Cleanup metrics
	CleanupsStarted           prometheus.Counter
	CleanupsCompleted         prometheus.Counter
	CleanupDuration           prometheus.Histogram
	TransportDisconnectErrors prometheus.Counter

	// Provider switching metrics
	ProviderSwitches *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		IdentitiesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_identities_issued_total",
			Help: "Total number of client identities issued",
		}),
		RegisteredIdentities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dictation_registered_identities",
			Help: "Current number of registered client identities",
		}),

		ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dictation_active_connections",
			Help: "Current number of active client connections",
		}),
		ConnectionsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_connections_registered_total",
			Help: "Total number of connections registered",
		}),
		Handovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_handovers_total",
			Help: "Total number of reconnects that superseded an existing connection",
		}),

		CleanupsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_cleanups_started_total",
			Help: "Total number of background session cleanups started",
		}),
		CleanupsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_cleanups_completed_total",
			Help: "Total number of background session cleanups completed",
		}),
		CleanupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictation_cleanup_duration_seconds",
			Help:    "Duration of background session cleanups",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		TransportDisconnectErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dictation_transport_disconnect_errors_total",
			Help: "Total number of transport disconnect failures during cleanup",
		}),

		ProviderSwitches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dictation_provider_switches_total",
			Help: "Total number of provider switches",
		}, []string{"kind", "provider"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dictation_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dictation_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dictation_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordIdentityIssued increments the identities issued counter and gauge
func (m *Metrics) RecordIdentityIssued(registered int) {
	m.IdentitiesIssued.Inc()
	m.RegisteredIdentities.Set(float64(registered))
}

// RecordConnectionRegistered records a new connection and updates the gauge
func (m *Metrics) RecordConnectionRegistered(active int) {
	m.ConnectionsRegistered.Inc()
	m.ActiveConnections.Set(float64(active))
}

// RecordHandover increments the handover counter
func (m *Metrics) RecordHandover() {
	m.Handovers.Inc()
}

// RecordCleanupStarted increments the cleanups started counter
func (m *Metrics) RecordCleanupStarted() {
	m.CleanupsStarted.Inc()
}

// RecordCleanupCompleted records a finished cleanup and its duration
func (m *Metrics) RecordCleanupCompleted(durationSeconds float64) {
	m.CleanupsCompleted.Inc()
	m.CleanupDuration.Observe(durationSeconds)
}

// RecordTransportDisconnectError increments the disconnect error counter
func (m *Metrics) RecordTransportDisconnectError() {
	m.TransportDisconnectErrors.Inc()
}

// RecordProviderSwitch records a provider switch by kind and target provider
func (m *Metrics) RecordProviderSwitch(kind, provider string) {
	m.ProviderSwitches.WithLabelValues(kind, provider).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
