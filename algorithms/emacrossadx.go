package algorithms

import (
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/pricing"
)

const defaultADXThreshold = 25.0

func init() {
	backtest.RegisterAlgorithm("ema-cross-adx", func(p backtest.AlgorithmParams) (backtest.Algorithm, error) {
		fast, slow := p.Fast, p.Slow
		if fast == 0 {
			fast = 20
		}
		if slow == 0 {
			slow = 50
		}
		return NewEMACrossADX(p.Ticker, p.ID, fast, slow), nil
	})
}

// EMACrossADX is EMACross with an ADX regime filter: a fast/slow EMA cross
// only opens or closes a position when ADX is at or above
// defaultADXThreshold, avoiding trades on crosses inside a directionless
// chop. On entry it also registers an ATR-scaled stop-loss (data-only,
// like every Portfolio.SetStopLoss call; nothing auto-triggers it).
type EMACrossADX struct {
	Ticker string
	id     string

	fast, slow *indicators.ExponentialMA
	adx        *indicators.ADX
	atr        *indicators.ATR
	wasBullish bool
	haveCross  bool
	holding    bool
}

// NewEMACrossADX returns an EMACrossADX trading ticker using fast/slow EMA
// periods, identified as id (defaults to "ema-cross-adx:<ticker>" if empty).
func NewEMACrossADX(ticker, id string, fastPeriod, slowPeriod int) *EMACrossADX {
	if id == "" {
		id = "ema-cross-adx:" + ticker
	}
	return &EMACrossADX{
		Ticker: ticker,
		id:     id,
		fast:   indicators.NewEMA(fastPeriod),
		slow:   indicators.NewEMA(slowPeriod),
		adx:    indicators.NewADX(14),
		atr:    indicators.NewATR(14),
	}
}

func (e *EMACrossADX) AlgorithmID() string { return e.id }

func (e *EMACrossADX) OnMarketOpen(initial map[string]market.Bar) {}

func (e *EMACrossADX) OnUpdate(current map[string]market.Bar, at time.Time, p *portfolio.Portfolio) {
	bar, ok := current[e.Ticker]
	if !ok {
		return
	}

	candle := pricing.Candle{High: bar.High, Low: bar.Low, Close: bar.Close}
	e.fast.Update(candle)
	e.slow.Update(candle)
	e.adx.Update(candle)
	e.atr.Update(candle)
	if !e.fast.Ready() || !e.slow.Ready() || !e.adx.Ready() {
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

	if e.adx.Value() < defaultADXThreshold {
		return
	}

	switch {
	case crossedUp && !e.holding:
		qty := p.Cash / bar.Close
		if qty > 0 && p.BuyStock(e.Ticker, qty, bar.Close, at) == nil {
			e.holding = true
			if e.atr.Ready() {
				p.SetStopLoss(e.Ticker, bar.Close-2*e.atr.Value(), qty)
			}
		}
	case crossedDown && e.holding:
		qty := p.LongQuantity(e.Ticker)
		if qty > 0 && p.SellStock(e.Ticker, qty, bar.Close, at) == nil {
			e.holding = false
		}
	}
}

func (e *EMACrossADX) OnMarketClose(final map[string]market.Bar) {}
