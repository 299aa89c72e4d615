package session

import (
	"context"
	"errors"
	"testing"
)

type fakeDriver struct {
	code       string
	metrics    Metrics
	png        []byte
	saveErr    error
	metricsErr error
	shotErr    error
	closeErr   error
	closed     bool
	saveCalls  int
}

func (d *fakeDriver) SaveCode(ctx context.Context) (string, error) {
	d.saveCalls++
	if d.saveErr != nil {
		return "", d.saveErr
	}
	return d.code, nil
}

func (d *fakeDriver) Metrics(ctx context.Context) (Metrics, error) {
	if d.metricsErr != nil {
		return Metrics{}, d.metricsErr
	}
	return d.metrics, nil
}

func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if d.shotErr != nil {
		return nil, d.shotErr
	}
	return d.png, nil
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.closed = true
	return d.closeErr
}

type fakeConnector struct {
	err      error
	connects int
	lastCode string
	driver   *fakeDriver
}

func (c *fakeConnector) Connect(ctx context.Context, saveCode string) (Driver, error) {
	c.connects++
	c.lastCode = saveCode
	if c.err != nil {
		return nil, c.err
	}
	if c.driver == nil {
		c.driver = &fakeDriver{code: saveCode}
	}
	return c.driver, nil
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	s := New(conn)

	if s.Active() {
		t.Fatal("new session should be inactive")
	}

	if err := s.Start(ctx, "ABC"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Active() {
		t.Fatal("session should be active after Start")
	}
	if conn.lastCode != "ABC" {
		t.Errorf("connector got code %q, want %q", conn.lastCode, "ABC")
	}

	code, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if code != "ABC" {
		t.Errorf("Stop returned code %q, want %q", code, "ABC")
	}
	if s.Active() {
		t.Error("session should be inactive after Stop")
	}
	if !conn.driver.closed {
		t.Error("driver should be closed after Stop")
	}
}

func TestDoubleStart(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	s := New(conn)

	if err := s.Start(ctx, "one"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(ctx, "two"); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second Start = %v, want ErrAlreadyActive", err)
	}
	if conn.connects != 1 {
		t.Errorf("connector called %d times, want 1", conn.connects)
	}
}

func TestStopInactive(t *testing.T) {
	s := New(&fakeConnector{})

	if _, err := s.Stop(context.Background()); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Stop on inactive = %v, want ErrNotActive", err)
	}
}

func TestStartConnectFailure(t *testing.T) {
	connErr := errors.New("endpoint unreachable")
	s := New(&fakeConnector{err: connErr})

	err := s.Start(context.Background(), "")
	if !errors.Is(err, connErr) {
		t.Fatalf("Start = %v, want wrapped connect error", err)
	}
	if s.Active() {
		t.Error("session should stay inactive after failed connect")
	}
}

func TestStopKeepsDriverOnReadFailure(t *testing.T) {
	ctx := context.Background()
	driver := &fakeDriver{code: "keep", saveErr: errors.New("read timed out")}
	conn := &fakeConnector{driver: driver}
	s := New(conn)

	if err := s.Start(ctx, "keep"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := s.Stop(ctx); err == nil {
		t.Fatal("Stop should fail when the save code read fails")
	}
	if !s.Active() {
		t.Error("session should stay active so the code can be recovered")
	}
	if driver.closed {
		t.Error("driver must not be closed before the code is read")
	}

	// Once the read recovers, Stop completes.
	driver.saveErr = nil
	code, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop after recovery failed: %v", err)
	}
	if code != "keep" {
		t.Errorf("Stop returned %q, want %q", code, "keep")
	}
}

func TestStopDeactivatesOnCloseFailure(t *testing.T) {
	ctx := context.Background()
	driver := &fakeDriver{code: "safe", closeErr: errors.New("quit failed")}
	s := New(&fakeConnector{driver: driver})

	if err := s.Start(ctx, "safe"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	code, err := s.Stop(ctx)
	if err == nil {
		t.Fatal("Stop should report the close failure")
	}
	if code != "safe" {
		t.Errorf("Stop returned %q, the code was already read", code)
	}
	if s.Active() {
		t.Error("session should deactivate once the code is safe")
	}
}

func TestInactiveGuards(t *testing.T) {
	ctx := context.Background()
	s := New(&fakeConnector{})

	if _, err := s.SaveCode(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("SaveCode = %v, want ErrNotActive", err)
	}
	if _, err := s.Metrics(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("Metrics = %v, want ErrNotActive", err)
	}
	if _, err := s.Screenshot(ctx); !errors.Is(err, ErrNotActive) {
		t.Errorf("Screenshot = %v, want ErrNotActive", err)
	}
}

func TestMetricsPerHour(t *testing.T) {
	m := Metrics{Count: 100, PerSecond: 2.5}
	if got := m.PerHour(); got != 9000 {
		t.Errorf("PerHour = %v, want 9000", got)
	}
}

func TestRestartAfterStop(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	s := New(conn)

	if err := s.Start(ctx, "first"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	conn.driver = nil
	if err := s.Start(ctx, "second"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if conn.lastCode != "second" {
		t.Errorf("connector got %q, want %q", conn.lastCode, "second")
	}
}
