package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/stats"
)

// detectTrades diffs a portfolio's long/short snapshots taken immediately
// before and after a strategy's OnUpdate call, turning quantity deltas
// into the trade events AlgorithmStatistics attributes P&L against. It
// never inspects the strategy's code path directly; it only looks at the
// portfolio state it left behind.
//
// Opening trades (BUY, SHORT) are priced at the position's new
// average-cost / entry price, since that's what the portfolio actually
// paid; closing trades (SELL, COVER) are priced at the tick's bar close,
// since the position itself no longer carries that information once
// reduced or removed.
func detectTrades(before, after portfolio.Snapshot, bars map[string]market.Bar, valueBefore float64, at time.Time) []stats.TradeEvent {
	var events []stats.TradeEvent

	for ticker, afterLong := range after.Longs {
		beforeQty := before.Longs[ticker].Quantity
		if afterLong.Quantity > beforeQty {
			events = append(events, tradeEvent(ticker, stats.Buy, afterLong.Quantity-beforeQty, afterLong.AverageCost, valueBefore, at))
		}
	}
	for ticker, beforeLong := range before.Longs {
		afterQty := after.Longs[ticker].Quantity
		if afterQty < beforeLong.Quantity {
			events = append(events, tradeEvent(ticker, stats.Sell, beforeLong.Quantity-afterQty, bars[ticker].Close, valueBefore, at))
		}
	}

	for ticker, afterShort := range after.Shorts {
		beforeQty := before.Shorts[ticker].Quantity
		if afterShort.Quantity > beforeQty {
			events = append(events, tradeEvent(ticker, stats.Short, afterShort.Quantity-beforeQty, afterShort.EntryPrice, valueBefore, at))
		}
	}
	for ticker, beforeShort := range before.Shorts {
		afterQty := after.Shorts[ticker].Quantity
		if afterQty < beforeShort.Quantity {
			events = append(events, tradeEvent(ticker, stats.Cover, beforeShort.Quantity-afterQty, bars[ticker].Close, valueBefore, at))
		}
	}

	return events
}

func tradeEvent(ticker string, side stats.Side, qty, price, valueBefore float64, at time.Time) stats.TradeEvent {
	return stats.TradeEvent{
		Ticker:               ticker,
		Side:                 side,
		Quantity:             qty,
		Price:                price,
		PortfolioValueBefore: valueBefore,
		Time:                 at,
	}
}
