package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
)

// minInterval guards the ticker against nonsense configuration.
const minInterval = time.Second

// Coordinator is the slice of the session coordinator the scheduler drives.
type Coordinator interface {
	BackupNow(ctx context.Context) error
	WithSession(fn func(*session.Session) error) error
	RecordSample(at time.Time, count float64)
}

// Scheduler takes periodic save-code snapshots for as long as its
// context lives. An idle session is routine and a failed snapshot is
// survivable; neither stops the loop.
type Scheduler struct {
	coord    Coordinator
	interval time.Duration
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// New creates a scheduler ticking at the given interval.
func New(coord Coordinator, interval time.Duration, log *logging.Logger) *Scheduler {
	if interval < minInterval {
		interval = minInterval
	}
	return &Scheduler{
		coord:    coord,
		interval: interval,
		log:      log,
	}
}

// WithMetrics adds metrics tracking to the scheduler.
func (s *Scheduler) WithMetrics(metrics *monitoring.Metrics) *Scheduler {
	s.metrics = metrics
	return s
}

// Run blocks until ctx is canceled, snapshotting once per interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Snapshot scheduler running", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Snapshot scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	err := s.coord.BackupNow(ctx)
	switch {
	case errors.Is(err, session.ErrNotActive):
		// Nothing to snapshot; the session simply is not running.
		s.log.Info("Session not active, skipping snapshot")
		return
	case err != nil:
		s.log.Error("Scheduled snapshot failed", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSnapshotFailure("scheduled")
		}
		return
	}

	s.log.Info("Snapshot taken")
	if s.metrics != nil {
		s.metrics.RecordSnapshot("scheduled")
	}

	s.sample(ctx)
}

// sample feeds one progress reading into the trend window. Sampling is
// best effort; a failure only logs.
func (s *Scheduler) sample(ctx context.Context) {
	var m session.Metrics
	err := s.coord.WithSession(func(sess *session.Session) error {
		var err error
		m, err = sess.Metrics(ctx)
		return err
	})
	if err != nil {
		s.log.Warn("Progress sample failed", zap.Error(err))
		return
	}

	s.coord.RecordSample(time.Now(), m.Count)
	if s.metrics != nil {
		s.metrics.SetGameProgress(m.Count, m.PerSecond)
	}
}
