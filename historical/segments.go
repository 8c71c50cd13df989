// Package historical orchestrates provider calls behind retry/backoff and
// rate-limit pacing, and caches the results so a backtest's replay window
// is fetched from the network at most once.
package historical

import (
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// segment is one contiguous [Start, End] span of cached bars for a ticker.
type segment struct {
	Start time.Time
	End   time.Time
	Data  *market.HistoricalData
}

func (s segment) contains(start, end time.Time) bool {
	return !s.Start.After(start) && !s.End.Before(end)
}

func (s segment) overlaps(start, end time.Time) bool {
	return !s.End.Before(start) && !s.Start.After(end)
}

// SegmentCache indexes cached segments per ticker, sorted by start time,
// merging overlapping/abutting segments on read.
type SegmentCache struct {
	mu       sync.RWMutex
	segments map[string][]segment // sorted by Start ascending
}

// NewSegmentCache returns an empty cache.
func NewSegmentCache() *SegmentCache {
	return &SegmentCache{segments: make(map[string][]segment)}
}

// Put records a newly-fetched segment for ticker.
func (c *SegmentCache) Put(ticker string, start, end time.Time, data *market.HistoricalData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	segs := append(c.segments[ticker], segment{Start: start, End: end, Data: data})
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start.Before(segs[j].Start) })
	c.segments[ticker] = segs
}

// Get returns cached data covering [start, end] for ticker, either from a
// single segment that contains the whole range, or by merging a
// contiguous run of overlapping segments. It reports false if the range
// cannot be satisfied from cache (a gap exists, or no segment overlaps).
func (c *SegmentCache) Get(ticker string, start, end time.Time) (*market.HistoricalData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	segs := c.segments[ticker]
	if len(segs) == 0 {
		return nil, false
	}

	for _, s := range segs {
		if s.contains(start, end) {
			return s.Data, true
		}
	}

	var overlapping []segment
	for _, s := range segs {
		if s.overlaps(start, end) {
			overlapping = append(overlapping, s)
		}
	}
	if len(overlapping) == 0 {
		return nil, false
	}

	currentEnd := start
	for _, s := range overlapping {
		if s.Start.After(currentEnd) {
			return nil, false // gap in coverage
		}
		if s.End.After(currentEnd) {
			currentEnd = s.End
		}
	}
	if currentEnd.Before(end) {
		return nil, false
	}

	merged := market.NewHistoricalData(ticker)
	for _, s := range overlapping {
		for _, b := range s.Data.Range(start, end) {
			_ = merged.Insert(b) // already-validated bars; duplicates across segments overwrite in place
		}
	}
	return merged, true
}
