package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/GameWarden/internal/domain/backup"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
)

// Coordinator serializes all access to one Session and owns the backup
// store it snapshots into. Callers are admitted one at a time; Go's
// mutex keeps waiters starvation-free without promising strict FIFO
// order. The lock is deliberately held across driver I/O so observers
// never see a half-finished operation; a hung driver therefore stalls
// every later caller until its context expires.
type Coordinator struct {
	mu         sync.Mutex
	session    *Session
	store      *backup.Store
	samples    *sampleRing
	metrics    *monitoring.Metrics
	lastActive bool
}

// NewCoordinator wires a session to its backup store.
func NewCoordinator(session *Session, store *backup.Store) *Coordinator {
	return &Coordinator{
		session: session,
		store:   store,
		samples: newSampleRing(trendWindow),
	}
}

// WithMetrics adds metrics tracking to the coordinator.
func (c *Coordinator) WithMetrics(metrics *monitoring.Metrics) *Coordinator {
	c.metrics = metrics
	return c
}

// WithSession runs fn with exclusive access to the session. The session
// may only be touched inside fn; fn's error passes through unchanged.
func (c *Coordinator) WithSession(fn func(*Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := fn(c.session)
	c.observeLocked()
	return err
}

// BackupNow reads the current save code and pushes it to the store under
// one exclusive acquisition. An inactive session surfaces ErrNotActive;
// callers decide whether that is an error (on-demand) or a skip
// (scheduled).
func (c *Coordinator) BackupNow(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, err := c.session.SaveCode(ctx)
	if err != nil {
		return err
	}

	if err := c.store.Push(backup.NewSnapshot(code)); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	c.observeLocked()
	return nil
}

// LatestBackup peeks at the most recent snapshot without touching the
// session.
func (c *Coordinator) LatestBackup() (backup.Snapshot, bool) {
	return c.store.Latest()
}

// Store exposes the backup store for composed command flows and the ops
// surface. The store carries its own lock and is safe to call both
// inside and outside WithSession.
func (c *Coordinator) Store() *backup.Store {
	return c.store
}

// RecordSample feeds one progress reading into the trend window.
func (c *Coordinator) RecordSample(at time.Time, count float64) {
	c.samples.add(sample{at: at, count: count})
}

// ResetSamples clears the trend window. Called when a session starts so
// readings from different game runs never mix.
func (c *Coordinator) ResetSamples() {
	c.samples.reset()
}

// Trend returns the fitted hourly production rate over the sample
// window and the number of samples behind it.
func (c *Coordinator) Trend() (float64, int) {
	return c.samples.slopePerHour()
}

// observeLocked refreshes gauges and start/stop counters after any
// operation that may have changed session or store state. Caller holds
// c.mu.
func (c *Coordinator) observeLocked() {
	if c.metrics == nil {
		return
	}

	active := c.session.Active()
	if active != c.lastActive {
		if active {
			c.metrics.IncSessionStarts()
		} else {
			c.metrics.IncSessionStops()
		}
		c.lastActive = active
	}
	c.metrics.SetSessionActive(active)
	c.metrics.SetStoreSize(c.store.Len())
}
