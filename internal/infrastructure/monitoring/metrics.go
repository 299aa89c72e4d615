package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Session metrics
	SessionActive  prometheus.Gauge
	SessionStarts  prometheus.Counter
	SessionStops   prometheus.Counter
	GameCount      prometheus.Gauge
	GamePerSecond  prometheus.Gauge

	// Snapshot metrics
	SnapshotsTotal   *prometheus.CounterVec
	SnapshotFailures *prometheus.CounterVec
	StoreSize        prometheus.Gauge

	// Driver metrics
	DriverCalls    *prometheus.CounterVec
	DriverDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64
	TotalErrors       int64
	TotalCommands     int64
	TotalSnapshots    int64
	SessionActive     bool
	ActiveConnections int64
	TotalDuration     float64 // sum of all request durations
	RequestCount      int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Command metrics
		CommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_commands_total",
				Help: "Total number of dispatched commands",
			},
			[]string{"verb", "status"},
		),
		CommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_command_duration_seconds",
				Help:    "Command dispatch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"verb"},
		),

		// Session metrics
		SessionActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_session_active",
				Help: "Whether a game session is currently active (0 or 1)",
			},
		),
		SessionStarts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_session_starts_total",
				Help: "Total number of session starts",
			},
		),
		SessionStops: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "warden_session_stops_total",
				Help: "Total number of session stops",
			},
		),
		GameCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_game_count",
				Help: "Last sampled game progress count",
			},
		),
		GamePerSecond: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_game_per_second",
				Help: "Last sampled game production rate per second",
			},
		),

		// Snapshot metrics
		SnapshotsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_snapshots_total",
				Help: "Total number of save-code snapshots taken",
			},
			[]string{"trigger"},
		),
		SnapshotFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_snapshot_failures_total",
				Help: "Total number of failed snapshot attempts",
			},
			[]string{"trigger"},
		),
		StoreSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_store_snapshots",
				Help: "Number of snapshots in the backup store",
			},
		),

		// Driver metrics
		DriverCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_driver_calls_total",
				Help: "Total number of game driver calls",
			},
			[]string{"op", "status"},
		),
		DriverDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "warden_driver_duration_seconds",
				Help:    "Game driver call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "warden_uptime_seconds",
				Help: "Warden uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommand records a dispatched command outcome
func (m *Metrics) RecordCommand(verb, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(verb, status).Inc()
	m.CommandDuration.WithLabelValues(verb).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalCommands++
	m.mu.Unlock()
}

// RecordSnapshot records a successful snapshot by trigger ("scheduled" or "manual")
func (m *Metrics) RecordSnapshot(trigger string) {
	m.SnapshotsTotal.WithLabelValues(trigger).Inc()

	m.mu.Lock()
	m.snapshot.TotalSnapshots++
	m.mu.Unlock()
}

// RecordSnapshotFailure records a failed snapshot attempt
func (m *Metrics) RecordSnapshotFailure(trigger string) {
	m.SnapshotFailures.WithLabelValues(trigger).Inc()
}

// RecordDriverCall records a game driver call
func (m *Metrics) RecordDriverCall(op, status string, duration time.Duration) {
	m.DriverCalls.WithLabelValues(op, status).Inc()
	m.DriverDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetSessionActive sets the session-active gauge
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionActive.Set(1)
	} else {
		m.SessionActive.Set(0)
	}

	m.mu.Lock()
	m.snapshot.SessionActive = active
	m.mu.Unlock()
}

// IncSessionStarts increments the session start counter
func (m *Metrics) IncSessionStarts() {
	m.SessionStarts.Inc()
}

// IncSessionStops increments the session stop counter
func (m *Metrics) IncSessionStops() {
	m.SessionStops.Inc()
}

// SetStoreSize sets the backup store size gauge
func (m *Metrics) SetStoreSize(count int) {
	m.StoreSize.Set(float64(count))
}

// SetGameProgress sets the sampled progress gauges
func (m *Metrics) SetGameProgress(count, perSecond float64) {
	m.GameCount.Set(count)
	m.GamePerSecond.Set(perSecond)
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()

	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()

	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
