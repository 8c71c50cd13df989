package backtest

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTradesBuyThenSell(t *testing.T) {
	t.Parallel()

	at := time.Now()
	bars := map[string]market.Bar{"AAPL": {Ticker: "AAPL", Close: 110}}

	before := portfolio.Snapshot{Longs: map[string]portfolio.LongSnapshot{}}
	after := portfolio.Snapshot{Longs: map[string]portfolio.LongSnapshot{"AAPL": {Quantity: 10, AverageCost: 100}}}

	events := detectTrades(before, after, bars, 1000, at)
	require.Len(t, events, 1)
	assert.Equal(t, stats.Buy, events[0].Side)
	assert.Equal(t, 10.0, events[0].Quantity)
	assert.Equal(t, 100.0, events[0].Price)

	before, after = after, portfolio.Snapshot{Longs: map[string]portfolio.LongSnapshot{}}
	events = detectTrades(before, after, bars, 1000, at)
	require.Len(t, events, 1)
	assert.Equal(t, stats.Sell, events[0].Side)
	assert.Equal(t, 10.0, events[0].Quantity)
	assert.Equal(t, 110.0, events[0].Price)
}

func TestDetectTradesShortThenCover(t *testing.T) {
	t.Parallel()

	at := time.Now()
	bars := map[string]market.Bar{"TSLA": {Ticker: "TSLA", Close: 180}}

	before := portfolio.Snapshot{Shorts: map[string]portfolio.ShortSnapshot{}}
	after := portfolio.Snapshot{Shorts: map[string]portfolio.ShortSnapshot{"TSLA": {Quantity: 5, EntryPrice: 200}}}

	events := detectTrades(before, after, bars, 1000, at)
	require.Len(t, events, 1)
	assert.Equal(t, stats.Short, events[0].Side)
	assert.Equal(t, 200.0, events[0].Price)

	before, after = after, portfolio.Snapshot{Shorts: map[string]portfolio.ShortSnapshot{}}
	events = detectTrades(before, after, bars, 1000, at)
	require.Len(t, events, 1)
	assert.Equal(t, stats.Cover, events[0].Side)
	assert.Equal(t, 180.0, events[0].Price)
}

func TestDetectTradesNoChangeYieldsNoEvents(t *testing.T) {
	t.Parallel()

	snap := portfolio.Snapshot{Longs: map[string]portfolio.LongSnapshot{"AAPL": {Quantity: 10, AverageCost: 100}}}
	events := detectTrades(snap, snap, map[string]market.Bar{}, 1000, time.Now())
	assert.Empty(t, events)
}
