// Package cache implements an in-memory LRU layer for one-shot candle fetches.
//
// It solves this problem: ad-hoc Fetch calls for overlapping ranges of the same
// (exchange, pair, interval) would otherwise each hit the venue, burning through
// rate limits for data that was already retrieved. Feeds configured with a cache
// consult it before going to the wire.
//
// Internally there is one LRU per candle interval; each entry spans a window of up
// to 500 subsequent candles aligned to a window boundary.
package cache

import (
	"errors"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/marianogappa/candle-feeds/candles/common"
	"github.com/marianogappa/candle-feeds/candles/processor"
)

// windowCandles is the number of subsequent candles each cache entry spans.
const windowCandles = 500

var (
	// ErrCacheNotConfiguredForInterval is returned when an operation involves a
	// candle interval not configured in the cache constructor.
	ErrCacheNotConfiguredForInterval = errors.New("cache not configured for candle interval")

	// ErrNonContiguousCandles is returned by Put when the supplied candles are not
	// sorted, unique and exactly one interval apart. Callers put sanitized sequences.
	ErrNonContiguousCandles = errors.New("candles are not sorted and equidistant")

	// ErrCacheMiss is returned by Get when no entry covers the requested start. It
	// is completely normal and callers must handle it by going to the venue.
	ErrCacheMiss = errors.New("cache miss")
)

// Key namespaces cached sequences: one exchange + pair per key, with the interval
// supplied per call.
type Key struct {
	Exchange string
	Pair     common.Pair
}

func (k Key) String() string {
	return k.Exchange + ":" + k.Pair.String()
}

// MemoryCache is the in-memory LRU layer. Safe for concurrent use.
type MemoryCache struct {
	mu     sync.Mutex
	caches map[common.Interval]*lru.Cache

	CacheMisses   int
	CacheRequests int
}

// New instantiates the cache. The sizes parameter configures which intervals are
// supported and how many window entries each interval's LRU holds.
func New(sizes map[common.Interval]int) *MemoryCache {
	caches := map[common.Interval]*lru.Cache{}
	for interval, size := range sizes {
		if size <= 0 {
			size = 1
		}
		c, _ := lru.New(size)
		caches[interval] = c
	}
	return &MemoryCache{caches: caches}
}

type entryKey struct {
	feed        string
	windowStart int
}

// Put stores a sanitized candle sequence, splitting it across window entries and
// merging with whatever the windows already hold.
//
// * Fails with ErrNonContiguousCandles if the sequence has gaps or duplicates.
// * Fails with ErrCacheNotConfiguredForInterval for unconfigured intervals.
func (c *MemoryCache) Put(key Key, interval common.Interval, candles []common.Candle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, ok := c.caches[interval]
	if !ok {
		return ErrCacheNotConfiguredForInterval
	}
	if len(candles) == 0 {
		return nil
	}
	if !processor.IsSortedEquidistant(candles, interval.Seconds()) {
		return ErrNonContiguousCandles
	}

	windowSpan := windowCandles * interval.Seconds()
	for _, candle := range candles {
		ek := entryKey{feed: key.String(), windowStart: candle.OpenTime - candle.OpenTime%windowSpan}
		var window []common.Candle
		if existing, ok := cache.Get(ek); ok {
			window = existing.([]common.Candle)
		}
		window = mergeIntoWindow(window, candle)
		cache.Add(ek, window)
	}
	return nil
}

// Get retrieves the contiguous run of cached candles starting exactly at startTs,
// up to the end of that window. Subsequent windows may hold more; callers that
// need them issue another Get.
//
// * Fails with ErrCacheMiss when no candle at exactly startTs is cached.
// * Fails with ErrCacheNotConfiguredForInterval for unconfigured intervals.
func (c *MemoryCache) Get(key Key, interval common.Interval, startTs int) ([]common.Candle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, ok := c.caches[interval]
	if !ok {
		return nil, ErrCacheNotConfiguredForInterval
	}
	c.CacheRequests++

	startTs = interval.AlignDown(startTs)
	windowSpan := windowCandles * interval.Seconds()
	ek := entryKey{feed: key.String(), windowStart: startTs - startTs%windowSpan}
	existing, ok := cache.Get(ek)
	if !ok {
		c.CacheMisses++
		return nil, ErrCacheMiss
	}
	window := existing.([]common.Candle)

	i := sort.Search(len(window), func(i int) bool { return window[i].OpenTime >= startTs })
	if i == len(window) || window[i].OpenTime != startTs {
		c.CacheMisses++
		return nil, ErrCacheMiss
	}

	// Stop at the first gap rather than returning gaps.
	run := []common.Candle{window[i]}
	for j := i + 1; j < len(window) && window[j].OpenTime-window[j-1].OpenTime == interval.Seconds(); j++ {
		run = append(run, window[j])
	}
	return run, nil
}

// HitRatio returns the percentage of Gets served from memory. Used to see whether
// the cache is earning its keep.
func (c *MemoryCache) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CacheRequests == 0 {
		return 0
	}
	return float64(c.CacheRequests-c.CacheMisses) / float64(c.CacheRequests) * 100
}

func mergeIntoWindow(window []common.Candle, c common.Candle) []common.Candle {
	i := sort.Search(len(window), func(i int) bool { return window[i].OpenTime >= c.OpenTime })
	if i < len(window) && window[i].OpenTime == c.OpenTime {
		window[i] = c
		return window
	}
	window = append(window, common.Candle{})
	copy(window[i+1:], window[i:])
	window[i] = c
	return window
}
