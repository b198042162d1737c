// Package transport provides the built-in HTTP and websocket clients feeds use to
// talk to exchanges, plus the factory that delegates to a host framework's
// transport when one is supplied.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/marianogappa/candle-feeds/candles/common"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultWSDialTimeout   = 10 * time.Second
	defaultMaxConnsPerHost = 10
	maxErrorBodyBytes      = 512
)

// Options configures the built-in transport. Zero values select the defaults
// documented on each field.
type Options struct {
	// Timeout is the total per-request budget. Default 10s. The subordinate connect
	// timeout is half of it, capped at 5s.
	Timeout time.Duration

	// WSDialTimeout bounds websocket connection establishment. Default 10s. There is
	// no read timeout: reads rely on venue heartbeats to surface dead connections.
	WSDialTimeout time.Duration

	// MaxConnsPerHost caps pooled connections per venue so no single venue starves
	// the others. Default 10.
	MaxConnsPerHost int

	// DisableBreaker turns off the per-host circuit breaker.
	DisableBreaker bool
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = defaultTimeout
	}
	if o.WSDialTimeout == 0 {
		o.WSDialTimeout = defaultWSDialTimeout
	}
	if o.MaxConnsPerHost == 0 {
		o.MaxConnsPerHost = defaultMaxConnsPerHost
	}
	return o
}

func (o Options) connectTimeout() time.Duration {
	ct := o.Timeout / 2
	if ct > 5*time.Second {
		ct = 5 * time.Second
	}
	return ct
}

// Client is the built-in transport: a pooled HTTP client with per-host connection
// caps and circuit breakers, and a websocket dialer. Safe for concurrent use by
// multiple feeds; Close releases pooled sockets.
type Client struct {
	hc     *http.Client
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient constructs the built-in transport.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	opts = opts.withDefaults()
	dialer := &net.Dialer{Timeout: opts.connectTimeout()}
	return &Client{
		hc: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxConnsPerHost:     opts.MaxConnsPerHost,
				MaxIdleConnsPerHost: opts.MaxConnsPerHost,
			},
		},
		opts:     opts,
		logger:   logger,
		breakers: map[string]*gobreaker.CircuitBreaker{},
	}
}

// Get executes a GET and returns the body. Status >= 400 surfaces as a
// common.TransportError carrying the status code and a truncated body; 5xx and 429
// are flagged retryable, with Retry-After honored.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, params)
}

// Post executes a POST with an empty body. A few venues use it for pre-connection
// token endpoints.
func (c *Client) Post(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodPost, rawURL, params)
}

func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, common.TransportError{Err: err}
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}

	result, err := c.breakerFor(req.URL.Host).Execute(func() (interface{}, error) {
		return c.roundTrip(req)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, common.TransportError{Retryable: true, Err: fmt.Errorf("circuit open for %v: %w", req.URL.Host, err)}
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, common.TransportError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		te := common.TransportError{
			Status:    resp.StatusCode,
			Body:      string(body),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			Err:       fmt.Errorf("%v %v returned %v", req.Method, req.URL.Host, resp.Status),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				te.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, te
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.TransportError{Retryable: true, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return body, nil
}

// breakerFor returns the per-host circuit breaker, creating it on first use. The
// breaker trips after 5 consecutive failures and probes again after 30s.
func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Only infrastructure-level failures should trip the breaker; a venue
			// rejecting a symbol is a healthy venue.
			return err == nil || !common.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("host", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
		},
	})
	if c.opts.DisableBreaker {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			ReadyToTrip: func(gobreaker.Counts) bool { return false },
		})
	}
	c.breakers[host] = cb
	return cb
}

// Close releases pooled sockets. The client remains usable afterwards; new
// requests open fresh connections.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
