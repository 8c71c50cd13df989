package market

import "errors"

var (
	// ErrInvalidBar is returned when a bar fails OHLCV sanity checks.
	ErrInvalidBar = errors.New("invalid bar")

	// ErrTickerMismatch is returned when a bar is inserted into a
	// HistoricalData series for a different ticker.
	ErrTickerMismatch = errors.New("ticker mismatch")

	// ErrNoData is returned when a range or floor query finds nothing.
	ErrNoData = errors.New("no data in range")

	// ErrEmptyTimeline is returned by BuildTimeline when no bars were
	// supplied for any ticker.
	ErrEmptyTimeline = errors.New("empty timeline")
)
