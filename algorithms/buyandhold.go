// Package algorithms provides ready-to-use backtest.Algorithm
// implementations, registered by name with the backtest package's
// registry so the CLI can select them without importing this package
// directly into backtest itself.
package algorithms

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

func init() {
	backtest.RegisterAlgorithm("buy-and-hold", func(p backtest.AlgorithmParams) (backtest.Algorithm, error) {
		return NewBuyAndHold(p.Ticker, p.ID), nil
	})
}

// BuyAndHold buys as much of one ticker as it can afford on the first
// admitted tick and then does nothing for the rest of the run.
type BuyAndHold struct {
	Ticker string
	id     string
	bought bool
}

// NewBuyAndHold returns a BuyAndHold trading ticker, identified as id
// (AlgorithmID defaults to "buy-and-hold:<ticker>" if id is empty).
func NewBuyAndHold(ticker, id string) *BuyAndHold {
	if id == "" {
		id = "buy-and-hold:" + ticker
	}
	return &BuyAndHold{Ticker: ticker, id: id}
}

func (b *BuyAndHold) AlgorithmID() string { return b.id }

func (b *BuyAndHold) OnMarketOpen(initial map[string]market.Bar) {}

func (b *BuyAndHold) OnUpdate(current map[string]market.Bar, at time.Time, p *portfolio.Portfolio) {
	if b.bought {
		return
	}
	bar, ok := current[b.Ticker]
	if !ok || bar.Close <= 0 {
		return
	}
	qty := p.Cash / bar.Close
	if qty <= 0 {
		return
	}
	if err := p.BuyStock(b.Ticker, qty, bar.Close, at); err == nil {
		b.bought = true
	}
}

func (b *BuyAndHold) OnMarketClose(final map[string]market.Bar) {}
