package common

import (
	"fmt"
	"time"
)

// Interval is the canonical name for a candle duration, e.g. "1m", "1h", "1d".
// Adapters translate it into whatever code the venue uses on the wire.
type Interval string

// The fixed catalog of canonical intervals. Venues support subsets of these.
const (
	Interval1m  Interval = "1m"
	Interval3m  Interval = "3m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval2h  Interval = "2h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval3d  Interval = "3d"
	Interval1w  Interval = "1w"
	Interval1M  Interval = "1M"
)

// intervalSeconds maps every canonical interval to its duration in seconds. The
// monthly interval uses 30 days; months have 28-31 days so gap arithmetic on 1M is
// best-effort (same caveat the venues themselves carry).
var intervalSeconds = map[Interval]int{
	Interval1m:  60,
	Interval3m:  3 * 60,
	Interval5m:  5 * 60,
	Interval15m: 15 * 60,
	Interval30m: 30 * 60,
	Interval1h:  60 * 60,
	Interval2h:  2 * 60 * 60,
	Interval4h:  4 * 60 * 60,
	Interval6h:  6 * 60 * 60,
	Interval8h:  8 * 60 * 60,
	Interval12h: 12 * 60 * 60,
	Interval1d:  24 * 60 * 60,
	Interval3d:  3 * 24 * 60 * 60,
	Interval1w:  7 * 24 * 60 * 60,
	Interval1M:  30 * 24 * 60 * 60,
}

// ParseInterval validates an interval string against the canonical catalog.
//
// * Fails with ErrUnsupportedInterval for anything not in the catalog.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if _, ok := intervalSeconds[i]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
	}
	return i, nil
}

// Seconds returns the interval duration in seconds, or 0 for an unknown interval.
func (i Interval) Seconds() int {
	return intervalSeconds[i]
}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() time.Duration {
	return time.Duration(intervalSeconds[i]) * time.Second
}

// Valid returns true iff the interval is in the canonical catalog.
func (i Interval) Valid() bool {
	_, ok := intervalSeconds[i]
	return ok
}

// AlignDown rounds ts down to the immediately previous multiple of the interval.
// Used by both collection strategies to compute interval-aligned boundaries.
func (i Interval) AlignDown(ts int) int {
	secs := i.Seconds()
	if secs == 0 {
		return ts
	}
	return ts - ts%secs
}

// AlignTimeDown is AlignDown over a time.Time, returning UNIX seconds.
func (i Interval) AlignTimeDown(tm time.Time) int {
	return i.AlignDown(int(tm.UTC().Unix()))
}
