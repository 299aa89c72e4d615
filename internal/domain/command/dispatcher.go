package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameWarden/internal/domain/backup"
	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/tracing"
)

// Reply is one message streamed back to the user.
type Reply struct {
	Text       string
	Pre        bool
	Attachment *Attachment
}

// Attachment is a binary payload delivered with a reply.
type Attachment struct {
	Name string
	Data []byte
}

const (
	msgStarting    = "Starting a new browser session..."
	msgStarted     = "Browser started! Use /screenshot to get a screenshot of the current session or /details to get details"
	msgScreenshot  = "Taking screenshot..."
	msgBackupStart = "Starting backup..."
	msgBackupDone  = "Backup complete"
	msgStopped     = "Browser successfully stopped. Here is your code:"
)

// Dispatcher turns parsed commands into session operations and streams
// replies through a caller-provided send callback. Progress messages go
// out before slow driver work so the user sees something happening.
type Dispatcher struct {
	coord   *session.Coordinator
	log     *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewDispatcher creates a dispatcher over the coordinator.
func NewDispatcher(coord *session.Coordinator, log *logging.Logger) *Dispatcher {
	return &Dispatcher{coord: coord, log: log}
}

// WithMetrics adds metrics tracking to the dispatcher.
func (d *Dispatcher) WithMetrics(metrics *monitoring.Metrics) *Dispatcher {
	d.metrics = metrics
	return d
}

// WithTracer adds span reporting to the dispatcher. Each command runs
// inside a span named after its verb, a child of whatever request span
// the context carries.
func (d *Dispatcher) WithTracer(tracer *tracing.Tracer) *Dispatcher {
	d.tracer = tracer
	return d
}

// Dispatch parses and runs one command. Replies stream through send
// while the command executes; the returned error is the command's
// outcome and still needs rendering to the user by the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, send func(Reply) error) error {
	cmd, err := Parse(text)
	if err != nil {
		if d.metrics != nil {
			d.metrics.RecordCommand("invalid", "error", 0)
		}
		return err
	}

	d.log.Info("Command received", zap.String("verb", string(cmd.Verb)))

	var span *tracing.Span
	if d.tracer != nil {
		span, ctx = d.tracer.StartSpan(ctx, "command."+string(cmd.Verb))
	}

	start := time.Now()
	err = d.run(ctx, cmd, send)
	if span != nil {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
		d.tracer.Submit(span)
	}
	if d.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		d.metrics.RecordCommand(string(cmd.Verb), status, time.Since(start))
	}
	if err != nil {
		d.log.Warn("Command failed", zap.String("verb", string(cmd.Verb)), zap.Error(err))
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, send func(Reply) error) error {
	switch cmd.Verb {
	case VerbStart:
		return d.start(ctx, cmd.Arg, send)
	case VerbResume:
		return d.resume(ctx, send)
	case VerbScreenshot:
		return d.screenshot(ctx, send)
	case VerbDetails:
		return d.details(ctx, send)
	case VerbBackup:
		return d.backup(ctx, send)
	case VerbStop:
		return d.stop(ctx, send)
	}
	return ErrInvalidCommand
}

func (d *Dispatcher) start(ctx context.Context, code string, send func(Reply) error) error {
	if code == "" {
		return fmt.Errorf("%w: start needs a save code", ErrInvalidCommand)
	}

	return d.coord.WithSession(func(s *session.Session) error {
		if s.Active() {
			return ErrInstanceAlreadyStarted
		}
		if err := send(Reply{Text: msgStarting}); err != nil {
			return err
		}
		if err := s.Start(ctx, code); err != nil {
			return err
		}
		d.coord.ResetSamples()
		return send(Reply{Text: msgStarted})
	})
}

func (d *Dispatcher) resume(ctx context.Context, send func(Reply) error) error {
	return d.coord.WithSession(func(s *session.Session) error {
		if s.Active() {
			return ErrInstanceAlreadyStarted
		}

		snap, ok := d.coord.LatestBackup()
		if !ok {
			return ErrNoBackupsFound
		}

		msg := fmt.Sprintf("Starting a new browser session with backup taken at %s",
			snap.SavedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
		if err := send(Reply{Text: msg}); err != nil {
			return err
		}
		if err := s.Start(ctx, snap.SaveCode); err != nil {
			return err
		}
		d.coord.ResetSamples()
		return send(Reply{Text: msgStarted})
	})
}

func (d *Dispatcher) screenshot(ctx context.Context, send func(Reply) error) error {
	return d.coord.WithSession(func(s *session.Session) error {
		if !s.Active() {
			return ErrInstanceNotStarted
		}
		if err := send(Reply{Text: msgScreenshot}); err != nil {
			return err
		}

		png, err := s.Screenshot(ctx)
		if err != nil {
			return err
		}
		return send(Reply{Attachment: &Attachment{Name: "screenshot.png", Data: png}})
	})
}

func (d *Dispatcher) details(ctx context.Context, send func(Reply) error) error {
	var m session.Metrics
	err := d.coord.WithSession(func(s *session.Session) error {
		if !s.Active() {
			return ErrInstanceNotStarted
		}
		var err error
		m, err = s.Metrics(ctx)
		return err
	})
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("You have %s cookies and currently producing %s cookies per hour",
		Beautify(m.Count), Beautify(m.PerHour()))
	if err := send(Reply{Text: msg}); err != nil {
		return err
	}

	if perHour, n := d.coord.Trend(); n >= 2 {
		trend := fmt.Sprintf("Trending at %s cookies per hour over the last %d snapshots",
			Beautify(perHour), n)
		return send(Reply{Text: trend})
	}
	return nil
}

func (d *Dispatcher) backup(ctx context.Context, send func(Reply) error) error {
	return d.coord.WithSession(func(s *session.Session) error {
		if !s.Active() {
			return ErrInstanceNotStarted
		}
		if err := send(Reply{Text: msgBackupStart}); err != nil {
			return err
		}

		code, err := s.SaveCode(ctx)
		if err != nil {
			d.noteSnapshotFailure()
			return err
		}
		if err := d.coord.Store().Push(backup.NewSnapshot(code)); err != nil {
			d.noteSnapshotFailure()
			return fmt.Errorf("failed to store snapshot: %w", err)
		}

		if d.metrics != nil {
			d.metrics.RecordSnapshot("manual")
		}
		return send(Reply{Text: msgBackupDone})
	})
}

func (d *Dispatcher) stop(ctx context.Context, send func(Reply) error) error {
	return d.coord.WithSession(func(s *session.Session) error {
		if !s.Active() {
			return ErrInstanceNotStarted
		}

		code, err := s.Stop(ctx)
		if code == "" && err != nil {
			// The save code could not be read; the session stays up.
			return err
		}

		if sendErr := send(Reply{Text: msgStopped}); sendErr != nil {
			return sendErr
		}
		if sendErr := send(Reply{Text: code, Pre: true}); sendErr != nil {
			return sendErr
		}

		// The code is delivered; a release failure is still reported.
		return err
	})
}

func (d *Dispatcher) noteSnapshotFailure() {
	if d.metrics != nil {
		d.metrics.RecordSnapshotFailure("manual")
	}
}
