package sim

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSim(t *testing.T, saveCode string) *Driver {
	t.Helper()
	conn := NewConnector(game.Default(), logging.NewNop()).WithRate(10)
	driver, err := conn.Connect(context.Background(), saveCode)
	require.NoError(t, err)
	return driver.(*Driver)
}

// advance moves the simulation clock without waiting.
func advance(d *Driver, step time.Duration) {
	base := d.last
	offset := step
	d.now = func() time.Time { return base.Add(offset) }
}

func TestFreshSessionAccruesProgress(t *testing.T) {
	d := startSim(t, "")
	advance(d, 10*time.Second)

	metrics, err := d.Metrics(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 100, metrics.Count, 0.001)
	assert.InDelta(t, 10, metrics.PerSecond, 0.001)
}

func TestNativeSaveCodeRoundTrip(t *testing.T) {
	d := startSim(t, "")
	advance(d, 5*time.Second)

	code, err := d.SaveCode(context.Background())
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(code)
	require.NoError(t, err)
	var state struct {
		Count     float64 `json:"count"`
		PerSecond float64 `json:"perSecond"`
	}
	require.NoError(t, json.Unmarshal(decoded, &state))
	assert.InDelta(t, 50, state.Count, 0.001)
	assert.InDelta(t, 10, state.PerSecond, 0.001)

	resumed := startSim(t, code)
	metrics, err := resumed.Metrics(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, metrics.Count, 50.0)
}

func TestForeignCodePassesThroughVerbatim(t *testing.T) {
	d := startSim(t, "ABC")
	advance(d, 3*time.Second)

	code, err := d.SaveCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABC", code)
}

func TestLoadRestoresRate(t *testing.T) {
	state, err := json.Marshal(map[string]float64{"count": 500, "perSecond": 3})
	require.NoError(t, err)
	code := base64.StdEncoding.EncodeToString(state)

	d := startSim(t, code)
	advance(d, 0)
	metrics, err := d.Metrics(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 500, metrics.Count, 0.001)
	assert.InDelta(t, 3, metrics.PerSecond, 0.001)
}

func TestScreenshotIsPNG(t *testing.T) {
	d := startSim(t, "")

	data, err := d.Screenshot(context.Background())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, frameWidth, img.Bounds().Dx())
	assert.Equal(t, frameHeight, img.Bounds().Dy())
}

func TestClosedDriverRejectsCalls(t *testing.T) {
	d := startSim(t, "")
	require.NoError(t, d.Close(context.Background()))

	_, err := d.SaveCode(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = d.Metrics(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))

	assert.True(t, errors.Is(d.Close(context.Background()), ErrClosed))
}

func TestRunawayScriptInterrupted(t *testing.T) {
	profile := game.Default()
	profile.Scripts.Load = "while (true);"

	conn := NewConnector(profile, logging.NewNop()).WithTimeout(50 * time.Millisecond)
	_, err := conn.Connect(context.Background(), "spin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestCancelledContextInterrupts(t *testing.T) {
	profile := game.Default()
	profile.Scripts.Load = "while (true);"

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	conn := NewConnector(profile, logging.NewNop()).WithTimeout(10 * time.Second)
	_, err := conn.Connect(ctx, "spin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}
