package transport

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/marianogappa/candle-feeds/candles/common"
)

// RateLimiter is the named-bucket abstraction a host framework supplies: Execute
// acquires the bucket identified by limitID, runs fn, and releases.
type RateLimiter interface {
	Execute(ctx context.Context, limitID string, fn func() error) error
}

// SessionFactory is the host framework's websocket opener.
type SessionFactory interface {
	Dial(ctx context.Context, rawURL string) (common.Session, error)
	Close() error
}

// HostBundle is the transport pair an embedding framework may provide at feed
// construction: its rate limiter wraps every HTTP call and every websocket
// connect, and its session factory replaces the built-in dialer.
type HostBundle struct {
	Limiter  RateLimiter
	Sessions SessionFactory
}

// New returns the transport a feed should use: the host bundle when one is
// provided, the built-in client otherwise. The core code path is identical in both
// modes; only construction differs.
func New(opts Options, bundle *HostBundle, logger zerolog.Logger) common.Transport {
	builtin := NewClient(opts, logger)
	if bundle == nil {
		return builtin
	}
	return &hostTransport{builtin: builtin, bundle: bundle}
}

// hostTransport routes HTTP through the built-in pooled client guarded by the
// host's limiter, and websocket connects through the host's session factory.
type hostTransport struct {
	builtin *Client
	bundle  *HostBundle
}

func (t *hostTransport) Get(ctx context.Context, rawURL string, params url.Values) (bs []byte, err error) {
	lerr := t.bundle.Limiter.Execute(ctx, "http:"+hostOf(rawURL), func() error {
		bs, err = t.builtin.Get(ctx, rawURL, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bs, lerr
}

func (t *hostTransport) Post(ctx context.Context, rawURL string, params url.Values) (bs []byte, err error) {
	lerr := t.bundle.Limiter.Execute(ctx, "http:"+hostOf(rawURL), func() error {
		bs, err = t.builtin.Post(ctx, rawURL, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bs, lerr
}

func (t *hostTransport) Dial(ctx context.Context, rawURL string) (sess common.Session, err error) {
	lerr := t.bundle.Limiter.Execute(ctx, "ws:"+hostOf(rawURL), func() error {
		sess, err = t.bundle.Sessions.Dial(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	if lerr != nil {
		return nil, lerr
	}
	return sess, nil
}

func (t *hostTransport) Close() error {
	err := t.bundle.Sessions.Close()
	if berr := t.builtin.Close(); err == nil {
		err = berr
	}
	return err
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
