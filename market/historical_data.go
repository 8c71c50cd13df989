package market

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// HistoricalData owns a time-indexed series of bars for exactly one ticker.
// Bars are kept sorted by timestamp; inserts go through Insert, which
// enforces the ticker match and keeps the slice ordered. Reads are safe for
// concurrent use with writes via the embedded mutex: the historical
// service reads the hot cache while init (re)populates it.
//
// Serialization is delegated to the historical package's Parquet-backed
// cache (one columnar row per bar); HistoricalData itself is an in-memory
// index.
type HistoricalData struct {
	mu     sync.RWMutex
	Ticker string
	bars   []Bar // sorted ascending by Time
}

// NewHistoricalData returns an empty series for ticker.
func NewHistoricalData(ticker string) *HistoricalData {
	return &HistoricalData{Ticker: ticker}
}

// Insert adds a bar, keeping the series sorted by time. It fails if the
// bar's ticker does not match the series or the bar is not well-formed.
func (h *HistoricalData) Insert(b Bar) error {
	if b.Ticker != h.Ticker {
		return fmt.Errorf("insert %s into %s series: %w", b.Ticker, h.Ticker, ErrTickerMismatch)
	}
	if err := b.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	i := sort.Search(len(h.bars), func(i int) bool { return !h.bars[i].Time.Before(b.Time) })
	if i < len(h.bars) && h.bars[i].Time.Equal(b.Time) {
		h.bars[i] = b // replace: a later bar with the identical timestamp overwrites
		return nil
	}
	h.bars = append(h.bars, Bar{})
	copy(h.bars[i+1:], h.bars[i:])
	h.bars[i] = b
	return nil
}

// Len reports the number of bars currently held.
func (h *HistoricalData) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bars)
}

// Range returns bars with timestamps in [start, end], inclusive on both
// ends, in ascending time order.
func (h *HistoricalData) Range(start, end time.Time) []Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()

	lo := sort.Search(len(h.bars), func(i int) bool { return !h.bars[i].Time.Before(start) })
	hi := sort.Search(len(h.bars), func(i int) bool { return h.bars[i].Time.After(end) })
	if lo >= hi {
		return nil
	}
	out := make([]Bar, hi-lo)
	copy(out, h.bars[lo:hi])
	return out
}

// Floor returns the latest bar with a timestamp <= at, if any.
func (h *HistoricalData) Floor(at time.Time) (Bar, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	i := sort.Search(len(h.bars), func(i int) bool { return h.bars[i].Time.After(at) })
	if i == 0 {
		return Bar{}, false
	}
	return h.bars[i-1], true
}

// PercentChange computes the close-to-close percentage change between the
// bars floor-indexed at from and to (the latest bar at or before each
// timestamp). Returns ErrNoData if either side has no floor bar.
func (h *HistoricalData) PercentChange(from, to time.Time) (float64, error) {
	a, ok := h.Floor(from)
	if !ok {
		return 0, fmt.Errorf("%s floor(%s): %w", h.Ticker, from, ErrNoData)
	}
	b, ok := h.Floor(to)
	if !ok {
		return 0, fmt.Errorf("%s floor(%s): %w", h.Ticker, to, ErrNoData)
	}
	if a.Close == 0 {
		return 0, fmt.Errorf("%s floor(%s): zero base close: %w", h.Ticker, from, ErrNoData)
	}
	return (b.Close - a.Close) / a.Close * 100, nil
}

// Bars returns a defensive copy of all bars in ascending time order.
func (h *HistoricalData) Bars() []Bar {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Bar, len(h.bars))
	copy(out, h.bars)
	return out
}
