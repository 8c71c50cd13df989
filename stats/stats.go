// Package stats tracks running performance metrics for one strategy
// across a backtest: profit/loss, drawdown, Sharpe ratio, and per-ticker
// and per-week breakdowns, plus a human-readable report.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Side identifies the kind of portfolio mutation a trade event
// represents, as emitted by the backtest engine's trade detector.
type Side int

const (
	Buy Side = iota
	Sell
	Short
	Cover
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Short:
		return "SHORT"
	case Cover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// TradeEvent is one detected portfolio mutation, as produced by the
// backtest engine's pre/post snapshot diff.
type TradeEvent struct {
	Ticker               string
	Side                 Side
	Quantity             float64
	Price                float64
	PortfolioValueBefore float64
	Time                 time.Time
}

type tickerStats struct {
	totalSells      int
	profitableSells int
	totalPnL        float64
	largestGain     float64
	largestLoss     float64
	lastBuyPrice    *float64
}

func (t *tickerStats) update(ev TradeEvent) {
	switch ev.Side {
	case Buy, Short:
		price := ev.Price
		t.lastBuyPrice = &price
	case Sell:
		if t.lastBuyPrice != nil {
			t.closeAgainstLastBuy(ev, ev.Price-*t.lastBuyPrice)
		}
	case Cover:
		if t.lastBuyPrice != nil {
			t.closeAgainstLastBuy(ev, *t.lastBuyPrice-ev.Price)
		}
	}
}

func (t *tickerStats) closeAgainstLastBuy(ev TradeEvent, perShare float64) {
	if t.lastBuyPrice == nil {
		return
	}
	t.totalSells++
	profit := perShare * ev.Quantity
	t.totalPnL += profit
	if profit > 0 {
		t.profitableSells++
		t.largestGain = math.Max(t.largestGain, profit)
	} else {
		t.largestLoss = math.Min(t.largestLoss, profit)
	}
	t.lastBuyPrice = nil
}

type weeklyPerformance struct {
	totalSells     int
	totalPnL       float64
	profitPerShare float64
}

func (w *weeklyPerformance) recordCompletedTrade(open, close TradeEvent) {
	w.totalSells++
	var profit float64
	if close.Side == Sell {
		profit = (close.Price - open.Price) * close.Quantity
	} else {
		profit = (open.Price - close.Price) * close.Quantity
	}
	w.profitPerShare = profit / close.Quantity
	w.totalPnL += profit
}

func (w *weeklyPerformance) hasActivity() bool {
	return w.totalSells > 0 || w.totalPnL != 0
}

// AlgorithmStatistics accumulates running performance figures for one
// strategy across an entire backtest. All methods are safe for
// concurrent use; the engine invokes RecordTrade from the detector and
// UpdateStatistics once per admitted tick.
type AlgorithmStatistics struct {
	mu sync.Mutex

	algorithmID  string
	startTime    time.Time
	initialValue float64

	totalProfit float64
	peakValue   float64
	maxDrawdown float64
	sharpeRatio float64
	totalValue  float64
	returns     []float64

	tickerStats map[string]*tickerStats
	weekly      map[time.Time]*weeklyPerformance
	openTrades  map[string]TradeEvent
	tradeHistory []TradeEvent
	totalTrades int
}

// New returns a statistics tracker seeded with the strategy's starting
// capital.
func New(algorithmID string, initialValue float64, startTime time.Time) *AlgorithmStatistics {
	return &AlgorithmStatistics{
		algorithmID:  algorithmID,
		startTime:    startTime,
		initialValue: initialValue,
		peakValue:    initialValue,
		totalValue:   initialValue,
		tickerStats:  make(map[string]*tickerStats),
		weekly:       make(map[time.Time]*weeklyPerformance),
		openTrades:   make(map[string]TradeEvent),
	}
}

// RecordTrade attributes a detected trade to its ticker and, for closing
// trades (SELL/COVER), to the ISO week in which it occurred.
func (a *AlgorithmStatistics) RecordTrade(ev TradeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.tradeHistory = append(a.tradeHistory, ev)
	a.totalTrades++

	ts, ok := a.tickerStats[ev.Ticker]
	if !ok {
		ts = &tickerStats{}
		a.tickerStats[ev.Ticker] = ts
	}
	ts.update(ev)

	switch ev.Side {
	case Buy, Short:
		a.openTrades[ev.Ticker] = ev
	case Sell, Cover:
		open, ok := a.openTrades[ev.Ticker]
		if !ok {
			return
		}
		delete(a.openTrades, ev.Ticker)
		weekStart := mondayOf(ev.Time)
		wp, ok := a.weekly[weekStart]
		if !ok {
			wp = &weeklyPerformance{}
			a.weekly[weekStart] = wp
		}
		wp.recordCompletedTrade(open, ev)
	}
}

// mondayOf returns the start of the ISO week (Monday, 00:00) containing
// t, in t's own location.
func mondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return t.AddDate(0, 0, -offset)
}

// UpdateStatistics recomputes profit, drawdown, and Sharpe ratio against
// the strategy's current total portfolio value. riskFreeRate is the daily
// rate the engine passes (its annual rate divided by 252); the Sharpe
// formula subtracts riskFreeRate/252 from the mean per-tick return.
func (a *AlgorithmStatistics) UpdateStatistics(currentValue, riskFreeRate float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalProfit = currentValue - a.initialValue
	a.totalValue = currentValue

	if currentValue > a.peakValue {
		a.peakValue = currentValue
	}
	drawdown := (a.peakValue - currentValue) / a.peakValue * 100
	if drawdown > a.maxDrawdown {
		a.maxDrawdown = drawdown
	}

	a.returns = append(a.returns, (currentValue-a.initialValue)/a.initialValue)

	if len(a.returns) > 1 {
		avg := mean(a.returns)
		sd := stddev(a.returns, avg)
		if sd != 0 {
			a.sharpeRatio = math.Sqrt(252) * (avg - riskFreeRate/252) / sd
		} else {
			a.sharpeRatio = 0
		}
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mean float64) float64 {
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// TotalTrades returns the number of trade events recorded so far.
func (a *AlgorithmStatistics) TotalTrades() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalTrades
}

// MaxDrawdown returns the largest peak-to-trough decline observed so
// far, as a percentage.
func (a *AlgorithmStatistics) MaxDrawdown() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxDrawdown
}

// SharpeRatio returns the most recently computed annualized Sharpe ratio.
func (a *AlgorithmStatistics) SharpeRatio() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sharpeRatio
}

// TotalValue returns the portfolio value as of the last UpdateStatistics call.
func (a *AlgorithmStatistics) TotalValue() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalValue
}

// InitialValue returns the starting capital this tracker was seeded with.
func (a *AlgorithmStatistics) InitialValue() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initialValue
}

// String renders a multi-section human-readable report: overall
// performance, per-ticker performance, and per-week performance.
func (a *AlgorithmStatistics) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var b strings.Builder

	daysRun := int(time.Since(a.startTime).Hours() / 24)
	var annualizedReturn float64
	if len(a.returns) > 0 {
		annualizedReturn = math.Pow(1+a.returns[len(a.returns)-1], 252) - 1
	}
	tradesPerDay := 0.0
	if daysRun > 0 {
		tradesPerDay = float64(a.totalTrades) / float64(daysRun)
	}

	fmt.Fprintf(&b, "Algorithm Statistics for %s:\n", a.algorithmID)
	fmt.Fprintf(&b, "Backtest Period: %d days\n", daysRun)
	fmt.Fprintf(&b, "Total Trades: %d\n", a.totalTrades)
	fmt.Fprintf(&b, "Total Profit/Loss: $%.2f\n", a.totalProfit)
	fmt.Fprintf(&b, "Annualized Return: %.2f%%\n", annualizedReturn*100)
	fmt.Fprintf(&b, "Maximum Drawdown: %.2f%%\n", a.maxDrawdown)
	fmt.Fprintf(&b, "Sharpe Ratio: %.2f\n", a.sharpeRatio)
	fmt.Fprintf(&b, "Average Trades Per Day: %.2f\n", tradesPerDay)
	fmt.Fprintf(&b, "Total Value: $%.2f\n\n", a.totalValue)

	b.WriteString("Per-Ticker Performance:\n=====================\n")
	tickers := make([]string, 0, len(a.tickerStats))
	for t := range a.tickerStats {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	for _, ticker := range tickers {
		ts := a.tickerStats[ticker]
		winRate := 0.0
		if ts.totalSells > 0 {
			winRate = float64(ts.profitableSells) / float64(ts.totalSells) * 100
		}
		avgPnL := 0.0
		if ts.totalSells > 0 {
			avgPnL = ts.totalPnL / float64(ts.totalSells)
		}
		fmt.Fprintf(&b, "%s:\n", ticker)
		fmt.Fprintf(&b, "  Total Sells: %d\n", ts.totalSells)
		fmt.Fprintf(&b, "  Profitable Sells: %d (%.1f%%)\n", ts.profitableSells, winRate)
		fmt.Fprintf(&b, "  Total P/L: $%.2f\n", ts.totalPnL)
		fmt.Fprintf(&b, "  Average P/L per Sale: $%.2f\n", avgPnL)
		fmt.Fprintf(&b, "  Largest Gain: $%.2f\n", ts.largestGain)
		fmt.Fprintf(&b, "  Largest Loss: $%.2f\n", ts.largestLoss)
		fmt.Fprintf(&b, "  Win Rate: %.1f%%\n\n", winRate)
	}

	b.WriteString("Weekly Performance:\n===================\n")
	if len(a.weekly) == 0 {
		b.WriteString("No completed trades yet\n")
	} else {
		weeks := make([]time.Time, 0, len(a.weekly))
		for w := range a.weekly {
			weeks = append(weeks, w)
		}
		sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
		for _, weekStart := range weeks {
			perf := a.weekly[weekStart]
			if !perf.hasActivity() {
				continue
			}
			weekEnd := weekStart.AddDate(0, 0, 6)
			fmt.Fprintf(&b, "Week %s - %s:\n", weekStart.Format("01/02/2006"), weekEnd.Format("01/02/2006"))
			fmt.Fprintf(&b, "  P/L: $%.2f\n", perf.totalPnL)
			fmt.Fprintf(&b, "  Completed Trades: %d\n", perf.totalSells)
			if perf.totalSells > 0 {
				fmt.Fprintf(&b, "  Average P/L per Share: $%.2f\n", perf.profitPerShare)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
