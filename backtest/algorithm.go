package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

// Algorithm is a trading strategy driven by the replay loop. A given
// Algorithm instance trades exactly one Portfolio for the life of one
// backtest run.
type Algorithm interface {
	// OnMarketOpen fires once, with the bars at the timeline's first
	// timestamp, whether or not the session filter admits it.
	OnMarketOpen(initial map[string]market.Bar)

	// OnUpdate fires on every admitted tick. p is the strategy's own
	// portfolio; mutating it through Buy/Sell/Short/Cover is how a
	// strategy trades.
	OnUpdate(current map[string]market.Bar, at time.Time, p *portfolio.Portfolio)

	// OnMarketClose fires once, with the bars at the timeline's last
	// timestamp, whether or not the session filter admits it.
	OnMarketClose(final map[string]market.Bar)

	// AlgorithmID names the strategy; must be unique within one Engine run.
	AlgorithmID() string
}
