// Package market holds the immutable bar type, per-ticker time-indexed
// series, and the multi-ticker timeline that the backtest engine replays.
package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one minute of OHLCV activity for a single ticker. Bars are
// immutable and value-equal: two bars with the same fields compare equal.
type Bar struct {
	Ticker string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
}

// Validate checks the OHLC sanity invariants every bar must satisfy before
// it is admitted into a HistoricalData series: low <= open,close <= high,
// volume >= 0, and no NaN/Inf values.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %s: non-finite value: %w", b.Ticker, b.Time, ErrInvalidBar)
		}
	}
	if b.Volume < 0 {
		return fmt.Errorf("%s %s: negative volume %g: %w", b.Ticker, b.Time, b.Volume, ErrInvalidBar)
	}
	if b.Low > b.Open || b.Low > b.Close || b.Open > b.High || b.Close > b.High {
		return fmt.Errorf("%s %s: low=%g open=%g close=%g high=%g violates low<=open,close<=high: %w",
			b.Ticker, b.Time, b.Low, b.Open, b.Close, b.High, ErrInvalidBar)
	}
	return nil
}

// MinuteTime truncates the bar's timestamp to minute precision.
func (b Bar) MinuteTime() time.Time {
	return b.Time.Truncate(time.Minute)
}
