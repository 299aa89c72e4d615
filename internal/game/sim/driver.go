package sim

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ErrClosed indicates the simulated session was already closed.
var ErrClosed = errors.New("simulated session closed")

const (
	defaultRate    = 10.0
	defaultTimeout = 2 * time.Second
)

// bootstrap defines the page surface the default profile's scripts
// expect: a Game object with storage hooks and progress counters. Save
// codes the simulation minted itself decode to {count, perSecond};
// anything else is kept verbatim and handed back untouched.
const bootstrap = `
var __storage = {};
var Game = {
	SaveTo: "CookieClickerGame",
	cookies: 0,
	cookiesPs: __baseRate,
	cpsSucked: 0,
	__foreign: null,
	tick: function (seconds) {
		Game.cookies += seconds * Game.cookiesPs * (1 - Game.cpsSucked);
	},
	localStorageSet: function (key, value) {
		__storage[key] = String(value);
		if (key === Game.SaveTo) {
			Game.__foreign = null;
			var state = null;
			try {
				state = JSON.parse(atob(String(value)));
			} catch (e) {
				state = null;
			}
			if (state && typeof state.count === "number") {
				Game.cookies = state.count;
				if (typeof state.perSecond === "number") {
					Game.cookiesPs = state.perSecond;
				}
			} else {
				Game.__foreign = String(value);
			}
		}
		return true;
	},
	localStorageGet: function (key) {
		if (key === Game.SaveTo) {
			if (Game.__foreign !== null) {
				return Game.__foreign;
			}
			return btoa(JSON.stringify({ count: Game.cookies, perSecond: Game.cookiesPs }));
		}
		return (key in __storage) ? __storage[key] : null;
	}
};
`

// Connector creates in-process simulated game sessions. It stands in
// for a real browser during development and in tests.
type Connector struct {
	profile game.Profile
	log     *logging.Logger
	rate    float64
	timeout time.Duration
}

// NewConnector creates a connector for the given profile. The profile's
// load, save, count and rate scripts run unchanged against the
// simulated page.
func NewConnector(profile game.Profile, log *logging.Logger) *Connector {
	return &Connector{
		profile: profile,
		log:     log,
		rate:    defaultRate,
		timeout: defaultTimeout,
	}
}

// WithRate sets the simulated production rate for fresh sessions.
func (c *Connector) WithRate(perSecond float64) *Connector {
	if perSecond > 0 {
		c.rate = perSecond
	}
	return c
}

// WithTimeout bounds a single script evaluation.
func (c *Connector) WithTimeout(timeout time.Duration) *Connector {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// Connect boots a simulated session and loads the save code through the
// profile's own load script.
func (c *Connector) Connect(ctx context.Context, saveCode string) (session.Driver, error) {
	vm := goja.New()

	if err := vm.Set("__baseRate", c.rate); err != nil {
		return nil, fmt.Errorf("failed to seed simulation: %w", err)
	}
	installCodec(vm)
	if _, err := vm.RunString(bootstrap); err != nil {
		return nil, fmt.Errorf("failed to boot simulation: %w", err)
	}

	d := &Driver{
		vm:      vm,
		profile: c.profile,
		timeout: c.timeout,
		now:     time.Now,
	}
	d.last = d.now()

	if saveCode != "" {
		if _, err := d.eval(ctx, c.profile.Scripts.Load, []any{saveCode}); err != nil {
			return nil, fmt.Errorf("failed to load save code: %w", err)
		}
	}

	c.log.Debug("Simulated session started", zap.String("profile", c.profile.Name))
	return d, nil
}

// installCodec provides atob/btoa, which the simulated page needs but
// goja does not ship.
func installCodec(vm *goja.Runtime) {
	_ = vm.Set("atob", func(call goja.FunctionCall) goja.Value {
		decoded, err := base64.StdEncoding.DecodeString(call.Argument(0).String())
		if err != nil {
			panic(vm.NewTypeError("invalid base64"))
		}
		return vm.ToValue(string(decoded))
	})
	_ = vm.Set("btoa", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(base64.StdEncoding.EncodeToString([]byte(call.Argument(0).String())))
	})
}

// Driver operates one simulated session. Progress accrues with wall
// time between script evaluations.
type Driver struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	profile game.Profile
	timeout time.Duration
	now     func() time.Time
	last    time.Time
	closed  bool
}

// SaveCode reads the current save code through the profile's script.
func (d *Driver) SaveCode(ctx context.Context) (string, error) {
	val, err := d.eval(ctx, d.profile.Scripts.Save, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read save code: %w", err)
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return "", fmt.Errorf("save script returned no code")
	}
	return val.String(), nil
}

// Metrics samples the simulated game's counters.
func (d *Driver) Metrics(ctx context.Context) (session.Metrics, error) {
	count, err := d.evalFloat(ctx, d.profile.Scripts.Count)
	if err != nil {
		return session.Metrics{}, fmt.Errorf("failed to read game count: %w", err)
	}
	perSecond, err := d.evalFloat(ctx, d.profile.Scripts.Rate)
	if err != nil {
		return session.Metrics{}, fmt.Errorf("failed to read game rate: %w", err)
	}
	return session.Metrics{Count: count, PerSecond: perSecond}, nil
}

// Screenshot renders the simulated game state as a small PNG.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	metrics, err := d.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	return renderFrame(metrics)
}

// Close shuts the simulation down. The driver rejects further calls.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return nil
}

// eval advances the simulation clock, then runs the script as a
// function body with args bound, matching how a browser executes
// synchronous scripts.
func (d *Driver) eval(ctx context.Context, script string, args []any) (goja.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	done := make(chan struct{})
	go func() {
		select {
		case <-timer.C:
			d.vm.Interrupt("evaluation timeout exceeded")
		case <-ctx.Done():
			d.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := d.run(script, args)

	close(done)
	// A late interrupt must not poison the next evaluation.
	d.vm.ClearInterrupt()

	return val, err
}

func (d *Driver) run(script string, args []any) (goja.Value, error) {
	if err := d.tickLocked(); err != nil {
		return nil, err
	}

	arr := d.vm.NewArray(args...)
	if err := d.vm.Set("__args", arr); err != nil {
		return nil, err
	}
	return d.vm.RunString("(function () {\n" + script + "\n}).apply(null, __args);")
}

// tickLocked accrues progress for the wall time since the last script.
func (d *Driver) tickLocked() error {
	now := d.now()
	elapsed := now.Sub(d.last).Seconds()
	d.last = now
	if elapsed <= 0 {
		return nil
	}

	if err := d.vm.Set("__dt", elapsed); err != nil {
		return err
	}
	if _, err := d.vm.RunString("Game.tick(__dt);"); err != nil {
		return fmt.Errorf("simulation tick failed: %w", err)
	}
	return nil
}

func (d *Driver) evalFloat(ctx context.Context, script string) (float64, error) {
	val, err := d.eval(ctx, script, nil)
	if err != nil {
		return 0, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return 0, fmt.Errorf("script returned no number")
	}
	return val.ToFloat(), nil
}

// Frame geometry for rendered screenshots.
const (
	frameWidth  = 480
	frameHeight = 270
	barHeight   = 40
)

// renderFrame draws a progress bar whose fill tracks the count within
// its current thousand, enough to eyeball motion between screenshots.
func renderFrame(metrics session.Metrics) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, frameWidth, frameHeight))

	background := color.NRGBA{R: 18, G: 32, B: 47, A: 255}
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			img.SetNRGBA(x, y, background)
		}
	}

	fill := int(math.Mod(metrics.Count, 1000) / 1000 * frameWidth)
	bar := color.NRGBA{R: 255, G: 196, B: 0, A: 255}
	top := (frameHeight - barHeight) / 2
	for y := top; y < top+barHeight; y++ {
		for x := 0; x < fill; x++ {
			img.SetNRGBA(x, y, bar)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
