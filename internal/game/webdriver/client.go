package webdriver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Config tunes the wire client.
type Config struct {
	// URL is the WebDriver endpoint, e.g. http://localhost:9515.
	URL string
	// Timeout bounds a single wire call.
	Timeout time.Duration
	// RetryMax retries transport failures; wire-level errors are never retried.
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// CallsPerSecond throttles wire calls. Zero or negative means unlimited.
	CallsPerSecond float64
}

// Client speaks the W3C WebDriver wire protocol over resty with rate
// limiting and circuit breaker protection.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
}

// Error is a WebDriver wire-level error payload.
type Error struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("webdriver: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("webdriver: %s", e.Code)
}

// NewClient creates a wire client for the given endpoint.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 500 * time.Millisecond
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 5 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	httpClient := resty.New()
	httpClient.
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryMax).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "GameWarden/1.0")
	httpClient.SetTransport(retryClient.HTTPClient.Transport)
	httpClient.JSONMarshal = sonic.Marshal
	httpClient.JSONUnmarshal = sonic.Unmarshal

	// Forward trace identifiers so a proxy in front of a remote grid can
	// correlate driver traffic with the command that caused it.
	httpClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		headers := make(map[string]string)
		tracing.InjectTraceContext(r.Context(), headers)
		for k, v := range headers {
			r.SetHeader(k, v)
		}
		return nil
	})

	breaker := resilience.New("webdriver", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.CallsPerSecond > 0 {
		burst := int(cfg.CallsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), burst)
	}

	return &Client{
		http:    httpClient,
		limiter: limiter,
		breaker: breaker,
	}
}

// BreakerState reports the circuit breaker state for health surfaces.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// NewSession creates a browser session with the given Chrome arguments
// and returns its id.
func (c *Client) NewSession(ctx context.Context, chromeArgs []string) (string, error) {
	if chromeArgs == nil {
		chromeArgs = []string{}
	}
	body := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{
				"browserName": "chrome",
				"goog:chromeOptions": map[string]any{
					"args": chromeArgs,
				},
			},
		},
	}

	var value struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/session", body, &value); err != nil {
		return "", err
	}
	if value.SessionID == "" {
		return "", fmt.Errorf("webdriver: session created without an id")
	}
	return value.SessionID, nil
}

// Navigate points the session at the given URL.
func (c *Client) Navigate(ctx context.Context, sessionID, url string) error {
	path := fmt.Sprintf("/session/%s/url", sessionID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"url": url}, nil)
}

// ExecuteSync runs a script synchronously in the page. Script arguments
// are passed through the wire payload, never spliced into the source.
// When out is non-nil the script's return value is decoded into it.
func (c *Client) ExecuteSync(ctx context.Context, sessionID, script string, args []any, out any) error {
	if args == nil {
		args = []any{}
	}
	path := fmt.Sprintf("/session/%s/execute/sync", sessionID)
	body := map[string]any{"script": script, "args": args}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// PageSource returns the session's current page source.
func (c *Client) PageSource(ctx context.Context, sessionID string) (string, error) {
	var source string
	path := fmt.Sprintf("/session/%s/source", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &source); err != nil {
		return "", err
	}
	return source, nil
}

// Screenshot captures the viewport and returns decoded PNG bytes.
func (c *Client) Screenshot(ctx context.Context, sessionID string) ([]byte, error) {
	var encoded string
	path := fmt.Sprintf("/session/%s/screenshot", sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &encoded); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return data, nil
}

// DeleteSession ends the browser session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	path := fmt.Sprintf("/session/%s", sessionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one wire call: breaker gate, rate limit, request, then
// envelope decode into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.breaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := c.send(req, method, path)
	if err != nil {
		return fmt.Errorf("webdriver call failed: %w", err)
	}

	if resp.IsError() {
		return c.wireError(resp)
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := sonic.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("failed to decode webdriver response: %w", err)
	}
	if len(envelope.Value) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Value, out); err != nil {
		return fmt.Errorf("failed to decode webdriver value: %w", err)
	}
	return nil
}

// send executes the request under circuit breaker accounting. Only
// transport failures count against the breaker.
func (c *Client) send(req *resty.Request, method, path string) (*resty.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return req.Execute(method, path)
	})
	if err == resilience.ErrCircuitOpen || err == resilience.ErrTooManyRequests {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return result.(*resty.Response), nil
}

func (c *Client) wireError(resp *resty.Response) error {
	var envelope struct {
		Value Error `json:"value"`
	}
	if err := sonic.Unmarshal(resp.Body(), &envelope); err != nil || envelope.Value.Code == "" {
		return &Error{Code: "unknown error", Message: resp.Status(), Status: resp.StatusCode()}
	}
	envelope.Value.Status = resp.StatusCode()
	return &envelope.Value
}
