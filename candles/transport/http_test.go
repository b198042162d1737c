package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marianogappa/candle-feeds/candles/common"
)

func TestGetReturnsBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewClient(Options{}, zerolog.Nop())
	defer c.Close()
	bs, err := c.Get(context.Background(), ts.URL, url.Values{"symbol": []string{"BTCUSDT"}})
	require.NoError(t, err)
	require.Equal(t, `[]`, string(bs))
}

func TestPostUsesPostMethod(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"code":"200000"}`))
	}))
	defer ts.Close()

	c := NewClient(Options{}, zerolog.Nop())
	defer c.Close()
	_, err := c.Post(context.Background(), ts.URL, nil)
	require.NoError(t, err)
}

func TestGetMapsStatusErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryable  bool
		retryAfter time.Duration
	}{
		{name: "404 is not retryable", status: http.StatusNotFound},
		{name: "400 is not retryable", status: http.StatusBadRequest},
		{name: "500 is retryable", status: http.StatusInternalServerError, retryable: true},
		{name: "503 is retryable", status: http.StatusServiceUnavailable, retryable: true},
		{name: "429 is retryable with Retry-After", status: http.StatusTooManyRequests, retryable: true, retryAfter: 7 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter > 0 {
					w.Header().Set("Retry-After", "7")
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"msg":"nope"}`))
			}))
			defer ts.Close()

			c := NewClient(Options{DisableBreaker: true}, zerolog.Nop())
			defer c.Close()
			_, err := c.Get(context.Background(), ts.URL, nil)
			require.Error(t, err)

			var te common.TransportError
			require.ErrorAs(t, err, &te)
			require.Equal(t, tt.status, te.Status)
			require.Equal(t, tt.retryable, te.Retryable)
			require.Equal(t, tt.retryAfter, te.RetryAfter)
			require.Contains(t, te.Body, "nope")
		})
	}
}

func TestConnectionErrorIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // nothing listens anymore

	c := NewClient(Options{DisableBreaker: true}, zerolog.Nop())
	defer c.Close()
	_, err := c.Get(context.Background(), ts.URL, nil)
	require.Error(t, err)
	require.True(t, common.IsRetryable(err))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(Options{}, zerolog.Nop())
	defer c.Close()
	for i := 0; i < 5; i++ {
		_, err := c.Get(context.Background(), ts.URL, nil)
		require.Error(t, err)
	}
	require.Equal(t, 5, requests)

	// Sixth call fails fast without reaching the server.
	_, err := c.Get(context.Background(), ts.URL, nil)
	require.Error(t, err)
	require.True(t, common.IsRetryable(err))
	require.Equal(t, 5, requests)
}

func TestBreakerIgnoresUserErrors(t *testing.T) {
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(Options{}, zerolog.Nop())
	defer c.Close()
	for i := 0; i < 10; i++ {
		_, err := c.Get(context.Background(), ts.URL, nil)
		require.Error(t, err)
	}
	// 404s never trip the breaker; every request reached the server.
	require.Equal(t, 10, requests)
}

type recordingLimiter struct {
	ids []string
}

func (l *recordingLimiter) Execute(ctx context.Context, limitID string, fn func() error) error {
	l.ids = append(l.ids, limitID)
	return fn()
}

type failingSessions struct{}

func (failingSessions) Dial(ctx context.Context, rawURL string) (common.Session, error) {
	return nil, errors.New("no sessions in this test")
}
func (failingSessions) Close() error { return nil }

func TestHostTransportRoutesThroughLimiter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`ok`))
	}))
	defer ts.Close()

	limiter := &recordingLimiter{}
	tr := New(Options{}, &HostBundle{Limiter: limiter, Sessions: failingSessions{}}, zerolog.Nop())
	defer tr.Close()

	_, err := tr.Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	u, _ := url.Parse(ts.URL)
	require.Equal(t, []string{"http:" + u.Host}, limiter.ids)

	_, err = tr.Dial(context.Background(), "ws://example.invalid/ws")
	require.Error(t, err)
	require.Equal(t, "ws:example.invalid", limiter.ids[1])
}

func TestTokenBucketLimiterAllowsBurst(t *testing.T) {
	l := NewTokenBucketLimiter(1000, 5)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Execute(ctx, "bucket", func() error { return nil }))
	}
}

func TestTokenBucketLimiterHonorsContext(t *testing.T) {
	l := NewTokenBucketLimiter(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Execute(ctx, "bucket", func() error { return nil }))
	err := l.Execute(ctx, "bucket", func() error { return nil })
	require.Error(t, err)
}
