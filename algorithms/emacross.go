package algorithms

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/pricing"
)

func init() {
	backtest.RegisterAlgorithm("ema-cross", func(p backtest.AlgorithmParams) (backtest.Algorithm, error) {
		fast, slow := p.Fast, p.Slow
		if fast == 0 {
			fast = 20
		}
		if slow == 0 {
			slow = 50
		}
		return NewEMACross(p.Ticker, p.ID, fast, slow), nil
	})
}

// EMACross goes long one ticker when its fast EMA crosses above its slow
// EMA, and liquidates when the fast EMA crosses back below it. It never
// shorts: a bearish cross only closes an existing long.
type EMACross struct {
	Ticker string
	id     string

	fast, slow *indicators.ExponentialMA
	wasBullish bool
	haveCross  bool
	holding    bool
}

// NewEMACross returns an EMACross trading ticker using fast/slow EMA
// periods, identified as id (defaults to "ema-cross:<ticker>" if empty).
func NewEMACross(ticker, id string, fastPeriod, slowPeriod int) *EMACross {
	if id == "" {
		id = "ema-cross:" + ticker
	}
	return &EMACross{
		Ticker: ticker,
		id:     id,
		fast:   indicators.NewEMA(fastPeriod),
		slow:   indicators.NewEMA(slowPeriod),
	}
}

func (e *EMACross) AlgorithmID() string { return e.id }

func (e *EMACross) OnMarketOpen(initial map[string]market.Bar) {}

func (e *EMACross) OnUpdate(current map[string]market.Bar, at time.Time, p *portfolio.Portfolio) {
	bar, ok := current[e.Ticker]
	if !ok {
		return
	}

	e.fast.Update(pricing.Candle{Close: bar.Close})
	e.slow.Update(pricing.Candle{Close: bar.Close})
	if !e.fast.Ready() || !e.slow.Ready() {
		return
	}

	bullish := e.fast.Value() > e.slow.Value()
	if !e.haveCross {
		e.wasBullish = bullish
		e.haveCross = true
		return
	}

	crossedUp := bullish && !e.wasBullish
	crossedDown := !bullish && e.wasBullish
	e.wasBullish = bullish

	switch {
	case crossedUp && !e.holding:
		qty := p.Cash / bar.Close
		if qty > 0 && p.BuyStock(e.Ticker, qty, bar.Close, at) == nil {
			e.holding = true
		}
	case crossedDown && e.holding:
		qty := p.LongQuantity(e.Ticker)
		if qty > 0 && p.SellStock(e.Ticker, qty, bar.Close, at) == nil {
			e.holding = false
		}
	}
}

func (e *EMACross) OnMarketClose(final map[string]market.Bar) {}
