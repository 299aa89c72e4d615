package monitoring

import "time"

// Snapshot returns current counter values for the JSON metrics endpoint.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Summary provides high-level derived metrics.
type Summary struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalCommands     int64   `json:"total_commands"`
	TotalSnapshots    int64   `json:"total_snapshots"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	ErrorRate         float64 `json:"error_rate"`
	SessionActive     bool    `json:"session_active"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Summarize computes the derived summary from the current snapshot.
func (m *Metrics) Summarize() Summary {
	snap := m.Snapshot()

	s := Summary{
		TotalRequests:     snap.TotalRequests,
		TotalCommands:     snap.TotalCommands,
		TotalSnapshots:    snap.TotalSnapshots,
		SessionActive:     snap.SessionActive,
		ActiveConnections: snap.ActiveConnections,
		UptimeSeconds:     time.Since(m.startTime).Seconds(),
	}
	if snap.RequestCount > 0 {
		s.AverageLatencyMs = snap.TotalDuration / float64(snap.RequestCount) * 1000
	}
	if snap.TotalRequests > 0 {
		s.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	return s
}
