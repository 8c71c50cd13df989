package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buyAndHoldAlgo buys once at the first tick and never sells.
type buyAndHoldAlgo struct {
	id      string
	ticker  string
	qty     float64
	bought  bool
	opens   int
	closes  int
}

func (a *buyAndHoldAlgo) OnMarketOpen(initial map[string]market.Bar) { a.opens++ }
func (a *buyAndHoldAlgo) OnMarketClose(final map[string]market.Bar)  { a.closes++ }
func (a *buyAndHoldAlgo) AlgorithmID() string                        { return a.id }
func (a *buyAndHoldAlgo) OnUpdate(current map[string]market.Bar, at time.Time, p *portfolio.Portfolio) {
	if a.bought {
		return
	}
	bar, ok := current[a.ticker]
	if !ok {
		return
	}
	if err := p.BuyStock(a.ticker, a.qty, bar.Close, at); err == nil {
		a.bought = true
	}
}

func fixtureBarsAt(ticker string, base time.Time, n int, start float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := 0; i < n; i++ {
		price := start + float64(i)
		bars[i] = market.Bar{Ticker: ticker, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100, Time: base.Add(time.Duration(i) * time.Minute)}
	}
	return bars
}

func TestEngineRunBuyAndHold(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-30 * time.Minute)
	bars := fixtureBarsAt("AAPL", base, 10, 100)
	p := provider.NewStaticProvider(map[string][]market.Bar{"AAPL": bars})

	algo := &buyAndHoldAlgo{id: "buy-and-hold", ticker: "AAPL", qty: 10}

	b := Builder{
		Tickers:           []string{"AAPL"},
		PreviousDays:      1,
		MarketConfig:      market.NYSE,
		Interval:          time.Minute,
		RunOnMarketClosed: true,
		Provider:          p,
		Strategies:        []StrategySpec{{Algorithm: algo, InitialCapital: 10000}},
	}

	engine, err := b.Build()
	require.NoError(t, err)

	results, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, algo.opens)
	assert.Equal(t, 1, algo.closes)
	assert.True(t, algo.bought)

	port := results.Portfolios["buy-and-hold"]
	assert.Equal(t, 10.0, port.LongQuantity("AAPL"))

	st := results.Statistics["buy-and-hold"]
	assert.Equal(t, 1, st.TotalTrades())
}

func TestEngineAutoLiquidateFlattensPortfolio(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-30 * time.Minute)
	bars := fixtureBarsAt("AAPL", base, 10, 100)
	p := provider.NewStaticProvider(map[string][]market.Bar{"AAPL": bars})

	algo := &buyAndHoldAlgo{id: "liquidate-me", ticker: "AAPL", qty: 10}

	b := Builder{
		Tickers:               []string{"AAPL"},
		PreviousDays:          1,
		MarketConfig:          market.NYSE,
		Interval:              time.Minute,
		RunOnMarketClosed:     true,
		AutoLiquidateOnFinish: true,
		Provider:              p,
		Strategies:            []StrategySpec{{Algorithm: algo, InitialCapital: 10000}},
	}

	engine, err := b.Build()
	require.NoError(t, err)

	results, err := engine.Run(context.Background())
	require.NoError(t, err)

	port := results.Portfolios["liquidate-me"]
	assert.Equal(t, 0.0, port.LongQuantity("AAPL"))
}

func TestBuilderValidation(t *testing.T) {
	t.Parallel()

	_, err := Builder{}.Build()
	assert.ErrorIs(t, err, ErrNoTickers)

	_, err = Builder{Tickers: []string{"AAPL"}}.Build()
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = Builder{Tickers: []string{"AAPL"}, Provider: provider.NewStaticProvider(nil)}.Build()
	assert.ErrorIs(t, err, ErrNoAlgorithms)
}
