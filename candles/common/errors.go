package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownExchange means: exchange name is not registered
	ErrUnknownExchange = errors.New("unknown exchange")

	// ErrUnsupportedInterval means: unsupported candle interval
	ErrUnsupportedInterval = errors.New("unsupported candle interval")

	// ErrInvalidPair means: market pair does not exist on exchange
	ErrInvalidPair = errors.New("market pair does not exist on exchange")

	// ErrMalformedPair means: trading pair is not in canonical BASE-QUOTE form
	ErrMalformedPair = errors.New("trading pair is not in canonical BASE-QUOTE form")

	// ErrNotSupported means: the venue lacks the requested capability (e.g. streaming, testnet)
	ErrNotSupported = errors.New("capability not supported by this exchange")

	// ErrRateLimited means: exchange asked us to enhance our calm
	ErrRateLimited = errors.New("exchange asked us to enhance our calm")

	// ErrNoCandles means: exchange returned no candles
	ErrNoCandles = errors.New("exchange returned no candles")
)

// TransportError wraps any I/O or HTTP-status failure coming out of a transport
// call. Strategies consult Retryable to decide whether to retry; user errors are
// never wrapped in a TransportError.
type TransportError struct {
	// Status is the HTTP status code, or 0 for connection-level failures.
	Status int

	// Body carries a truncated copy of the response body for >= 400 responses.
	Body string

	// Retryable is set by the transport for failures worth retrying (5xx, 429,
	// connection resets, timeouts).
	Retryable bool

	// RetryAfter is non-zero when the venue told us how long to back off.
	RetryAfter time.Duration

	Err error
}

func (e TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error (status %v): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }

// ParseError means the venue's response or stream frame didn't match the expected
// shape. One record is dropped; the feed keeps running. Frequent parse errors
// indicate a venue API change.
type ParseError struct {
	Exchange string
	Err      error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%v returned an unparseable response: %v", e.Exchange, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transport failure that a strategy may retry.
func IsRetryable(err error) bool {
	var te TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// RetryAfterOf extracts the venue-suggested backoff from err, or 0.
func RetryAfterOf(err error) time.Duration {
	var te TransportError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}
