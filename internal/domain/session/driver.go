package session

import "context"

// Metrics is one progress reading from the running game.
type Metrics struct {
	Count     float64
	PerSecond float64
}

// PerHour converts the production rate to an hourly figure.
func (m Metrics) PerHour() float64 {
	return m.PerSecond * 60 * 60
}

// Driver is an opaque handle on a running game instance.
//
// Implementations live in internal/game; the session layer never sees
// transport details. All calls are blocking and honor ctx cancellation.
type Driver interface {
	// SaveCode reads the current resumable save code.
	SaveCode(ctx context.Context) (string, error)

	// Metrics reads the current progress counters.
	Metrics(ctx context.Context) (Metrics, error)

	// Screenshot captures the rendered game as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the underlying instance. The handle is unusable
	// afterwards regardless of the returned error.
	Close(ctx context.Context) error
}

// Connector acquires a Driver and loads a save code into it. An empty
// save code starts a fresh game.
type Connector interface {
	Connect(ctx context.Context, saveCode string) (Driver, error)
}
