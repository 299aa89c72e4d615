package webdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/GameWarden/internal/domain/session"
	"github.com/GriffinCanCode/GameWarden/internal/game"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// ErrSaveCodeNotFound indicates the save script returned no string,
// usually because the game has not initialized its storage yet.
var ErrSaveCodeNotFound = errors.New("save code not found")

// Connector boots browser sessions against a WebDriver endpoint.
type Connector struct {
	client  *Client
	profile game.Profile
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewConnector creates a connector driving the given game profile.
func NewConnector(client *Client, profile game.Profile, log *logging.Logger) *Connector {
	return &Connector{
		client:  client,
		profile: profile,
		log:     log,
	}
}

// WithMetrics attaches metrics collection.
func (c *Connector) WithMetrics(metrics *monitoring.Metrics) *Connector {
	if metrics != nil {
		c.metrics = metrics
	}
	return c
}

// Connect creates a browser session, loads the game page, injects the
// save code when one is given, and reloads so the game picks it up.
func (c *Connector) Connect(ctx context.Context, saveCode string) (session.Driver, error) {
	timer := monitoring.NewTimer(c.metrics, "connect")

	id, err := c.client.NewSession(ctx, []string{c.profile.Window.Arg()})
	if err != nil {
		timer.Stop("error")
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}
	c.log.Info("Browser session created",
		zap.String("session_id", id),
		zap.String("profile", c.profile.Name),
	)

	d := &driver{
		client:  c.client,
		profile: c.profile,
		session: id,
		log:     c.log,
		metrics: c.metrics,
	}
	if err := d.boot(ctx, saveCode); err != nil {
		if closeErr := d.Close(ctx); closeErr != nil {
			c.log.Warn("Failed to discard broken browser session", zap.Error(closeErr))
		}
		timer.Stop("error")
		return nil, err
	}

	timer.Stop("ok")
	return d, nil
}

// driver operates one live browser session.
type driver struct {
	client  *Client
	profile game.Profile
	session string
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// boot brings the page to a playable state. The game only reads its
// storage on page load, so injecting a save code requires a reload.
func (d *driver) boot(ctx context.Context, saveCode string) error {
	if err := d.loadPage(ctx); err != nil {
		return err
	}
	if saveCode == "" {
		return nil
	}
	if err := d.client.ExecuteSync(ctx, d.session, d.profile.Scripts.Load, []any{saveCode}, nil); err != nil {
		return fmt.Errorf("failed to load save code: %w", err)
	}
	d.log.Debug("Save code loaded", zap.String("profile", d.profile.Name))
	return d.loadPage(ctx)
}

// loadPage navigates to the game, waits for readiness and runs the
// profile's prepare script.
func (d *driver) loadPage(ctx context.Context) error {
	if err := d.client.Navigate(ctx, d.session, d.profile.URL); err != nil {
		return fmt.Errorf("failed to navigate to game: %w", err)
	}
	if err := d.awaitReady(ctx); err != nil {
		return err
	}
	if d.profile.Scripts.Prepare == "" {
		return nil
	}
	if err := d.client.ExecuteSync(ctx, d.session, d.profile.Scripts.Prepare, nil, nil); err != nil {
		return fmt.Errorf("failed to prepare page: %w", err)
	}
	return nil
}

// SaveCode reads the current save code out of the game's storage.
func (d *driver) SaveCode(ctx context.Context) (string, error) {
	timer := monitoring.NewTimer(d.metrics, "save_code")

	code, err := d.evalString(ctx, d.profile.Scripts.Save)
	if err != nil {
		timer.Stop("error")
		return "", fmt.Errorf("failed to read save code: %w", err)
	}
	timer.Stop("ok")
	return code, nil
}

// Metrics samples the game's progress counters.
func (d *driver) Metrics(ctx context.Context) (session.Metrics, error) {
	timer := monitoring.NewTimer(d.metrics, "metrics")

	count, err := d.evalFloat(ctx, d.profile.Scripts.Count)
	if err != nil {
		timer.Stop("error")
		return session.Metrics{}, fmt.Errorf("failed to read game count: %w", err)
	}
	perSecond, err := d.evalFloat(ctx, d.profile.Scripts.Rate)
	if err != nil {
		timer.Stop("error")
		return session.Metrics{}, fmt.Errorf("failed to read game rate: %w", err)
	}

	timer.Stop("ok")
	return session.Metrics{Count: count, PerSecond: perSecond}, nil
}

// Screenshot captures the current viewport as PNG bytes.
func (d *driver) Screenshot(ctx context.Context) ([]byte, error) {
	timer := monitoring.NewTimer(d.metrics, "screenshot")

	data, err := d.client.Screenshot(ctx, d.session)
	if err != nil {
		timer.Stop("error")
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	timer.Stop("ok")
	return data, nil
}

// Close ends the browser session. The driver is unusable afterwards
// regardless of the returned error.
func (d *driver) Close(ctx context.Context) error {
	timer := monitoring.NewTimer(d.metrics, "close")

	if err := d.client.DeleteSession(ctx, d.session); err != nil {
		timer.Stop("error")
		return fmt.Errorf("failed to close browser session: %w", err)
	}
	timer.Stop("ok")
	return nil
}

// evalString runs a script and requires a string result. A null result
// maps to ErrSaveCodeNotFound so callers can tell "no save yet" from
// wire failures.
func (d *driver) evalString(ctx context.Context, script string) (string, error) {
	var value *string
	if err := d.client.ExecuteSync(ctx, d.session, script, nil, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", ErrSaveCodeNotFound
	}
	return *value, nil
}

// evalFloat runs a script and requires a numeric result.
func (d *driver) evalFloat(ctx context.Context, script string) (float64, error) {
	var value *float64
	if err := d.client.ExecuteSync(ctx, d.session, script, nil, &value); err != nil {
		return 0, err
	}
	if value == nil {
		return 0, fmt.Errorf("script returned no number")
	}
	return *value, nil
}
