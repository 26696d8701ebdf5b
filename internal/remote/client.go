package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/iksnae/genie/internal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Client exchanges JSON with the storefront service. Every method blocks
// until the exchange settles or ctx is done; nothing is retried.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates a client for the configured storefront
func New(cfg internal.RemoteConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cfg.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: cfg.CookieName, Value: cfg.SessionCookie, Path: "/"}})
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Jar: jar, Timeout: cfg.Timeout},
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker)
	}
	return c, nil
}

func newBreaker(cfg internal.BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "storefront",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			internal.LogWarn("Circuit breaker %q changed from %v to %v", name, from, to)
		},
	})
}

// BaseURL returns the storefront root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// exchange is one completed HTTP round trip
type exchange struct {
	status int
	body   []byte
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*exchange, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &internal.NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, &internal.NetworkError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	roundTrip := func() (interface{}, error) {
		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		internal.Logger().Debug("exchange",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)))
		return &exchange{status: resp.StatusCode, body: data}, nil
	}

	var out interface{}
	if c.breaker != nil {
		out, err = c.breaker.Execute(roundTrip)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &internal.NetworkError{Op: op, Err: fmt.Errorf("%w: %v", internal.ErrBreakerOpen, err)}
		}
	} else {
		out, err = roundTrip()
	}
	if err != nil {
		return nil, &internal.NetworkError{Op: op, Err: err}
	}
	return out.(*exchange), nil
}

func decode(op string, ex *exchange, v any) error {
	if err := json.Unmarshal(ex.body, v); err != nil {
		return &internal.NetworkError{Op: op, Err: fmt.Errorf("malformed response (status %d): %w", ex.status, err)}
	}
	return nil
}
