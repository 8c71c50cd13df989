package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// StaticProvider serves pre-loaded bars without any network I/O. It backs
// deterministic backtests (synthetic fixtures, CSV-replayed history) and
// the test suite's end-to-end scenarios.
type StaticProvider struct {
	bars map[string][]market.Bar
}

// NewStaticProvider returns a provider that serves bars exactly as given;
// callers are responsible for sorting/validity (FetchHistoricalData
// re-validates through HistoricalData.Insert).
func NewStaticProvider(bars map[string][]market.Bar) *StaticProvider {
	return &StaticProvider{bars: bars}
}

func (p *StaticProvider) FetchHistoricalData(ctx context.Context, ticker string, start, end time.Time, marketConfig market.Config) (*market.HistoricalData, error) {
	bars, ok := p.bars[ticker]
	if !ok {
		return nil, NewError(fmt.Sprintf("no fixture bars for %s", ticker), nil, false, "STATIC_NOT_FOUND")
	}
	hd := market.NewHistoricalData(ticker)
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		if err := hd.Insert(b); err != nil {
			return nil, NewError("insert fixture bar", err, false, "")
		}
	}
	return hd, nil
}

func (p *StaticProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *StaticProvider) RateLimit() int { return 1_000_000 }

func (p *StaticProvider) Capabilities() Capabilities {
	return Capabilities{SupportsHistorical: true, Granularity: time.Minute}
}
