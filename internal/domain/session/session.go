package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAlreadyActive is returned when starting a session that has a driver.
	ErrAlreadyActive = errors.New("session already active")
	// ErrNotActive is returned by operations that need a running driver.
	ErrNotActive = errors.New("session not active")
)

// Session is the two-state lifecycle around one game driver: inactive
// (no driver) or active (exactly one). It is not safe for concurrent
// use; the Coordinator is the sole synchronizer.
type Session struct {
	connector Connector
	driver    Driver
}

// New creates an inactive session on the given connector.
func New(connector Connector) *Session {
	return &Session{connector: connector}
}

// Active reports whether a driver is attached.
func (s *Session) Active() bool {
	return s.driver != nil
}

// Start acquires a driver loaded with saveCode. An empty saveCode starts
// a fresh game. The session stays inactive when the connect fails.
func (s *Session) Start(ctx context.Context, saveCode string) error {
	if s.driver != nil {
		return ErrAlreadyActive
	}

	driver, err := s.connector.Connect(ctx, saveCode)
	if err != nil {
		return fmt.Errorf("failed to connect driver: %w", err)
	}

	s.driver = driver
	return nil
}

// Stop reads the final save code, then releases the driver. The read
// comes first on purpose: if it fails the driver is kept attached so the
// code can still be recovered later. Once the code is read the session
// deactivates even when the release fails; in that case Stop returns
// both the code and the error.
func (s *Session) Stop(ctx context.Context) (string, error) {
	if s.driver == nil {
		return "", ErrNotActive
	}

	code, err := s.driver.SaveCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read save code: %w", err)
	}

	driver := s.driver
	s.driver = nil

	if err := driver.Close(ctx); err != nil {
		return code, fmt.Errorf("failed to release driver: %w", err)
	}

	return code, nil
}

// SaveCode reads the current save code from the running game.
func (s *Session) SaveCode(ctx context.Context) (string, error) {
	if s.driver == nil {
		return "", ErrNotActive
	}

	code, err := s.driver.SaveCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read save code: %w", err)
	}
	return code, nil
}

// Metrics reads the current progress counters from the running game.
func (s *Session) Metrics(ctx context.Context) (Metrics, error) {
	if s.driver == nil {
		return Metrics{}, ErrNotActive
	}

	m, err := s.driver.Metrics(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to read metrics: %w", err)
	}
	return m, nil
}

// Screenshot captures the rendered game as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.driver == nil {
		return nil, ErrNotActive
	}

	png, err := s.driver.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return png, nil
}
