package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/stats"

	"github.com/rustyeddy/backtester/historical"
)

// defaultRiskFreeRate is a 2% annual rate. The engine divides it by 252
// and passes the resulting daily rate to AlgorithmStatistics.
const defaultRiskFreeRate = 0.02

// Engine replays a historical timeline against one or more strategies,
// each trading its own Portfolio, and accumulates per-strategy
// AlgorithmStatistics along the way.
type Engine struct {
	builder Builder
	svc     *historical.Service
}

type strategyState struct {
	runID      string
	spec       StrategySpec
	portfolio  *portfolio.Portfolio
	statistics *stats.AlgorithmStatistics
}

// Run fetches historical data for the configured tickers and lookback
// window, builds the replay timeline, and drives every registered
// strategy through it tick by tick.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if e.builder.ShouldPrint {
		fmt.Printf("Running %d algorithms\n", len(e.builder.Strategies))
	}

	// end is read before Initialize and start after it, so [start, end]
	// lies inside the window Initialize cached from its own clock reading.
	end := time.Now()
	if err := e.svc.Initialize(ctx, e.builder.Tickers, e.builder.PreviousDays, e.builder.MarketConfig); err != nil {
		return nil, fmt.Errorf("initialize historical data: %w", err)
	}
	start := time.Now().AddDate(0, 0, -e.builder.PreviousDays)

	barsByTicker, err := e.svc.FetchHistoricalData(ctx, e.builder.Tickers, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch historical data: %w", err)
	}

	timeline, err := market.BuildTimeline(barsByTicker)
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}

	// states is keyed by algorithm ID for the Results maps; order is a
	// parallel slice in Builder.Strategies order, since every per-tick
	// pass over the strategies must invoke them in a stable order.
	states := make(map[string]*strategyState, len(e.builder.Strategies))
	order := make([]*strategyState, 0, len(e.builder.Strategies))
	for _, spec := range e.builder.Strategies {
		startTime := time.Now().AddDate(0, 0, -e.builder.PreviousDays)
		st := &strategyState{
			runID:      id.New(),
			spec:       spec,
			portfolio:  portfolio.New(spec.InitialCapital),
			statistics: stats.New(spec.Algorithm.AlgorithmID(), spec.InitialCapital, startTime),
		}
		states[spec.Algorithm.AlgorithmID()] = st
		order = append(order, st)
	}

	times := timeline.Times()
	if len(times) == 0 {
		return nil, market.ErrEmptyTimeline
	}

	initial, _ := timeline.At(times[0])
	for _, st := range order {
		st.spec.Algorithm.OnMarketOpen(initial)
	}

	admitted := make([]time.Time, 0, len(times))
	for _, t := range times {
		if e.builder.RunOnMarketClosed || e.builder.MarketConfig.InSession(t) {
			admitted = append(admitted, t)
		}
	}

	var lastProcessed time.Time
	var haveLastProcessed bool
	processed := 0

	for _, t := range admitted {
		if haveLastProcessed && t.Sub(lastProcessed) < e.builder.Interval {
			continue
		}
		lastProcessed = t
		haveLastProcessed = true
		processed++

		bars, _ := timeline.At(t)
		tickStart := time.Now()
		e.processTimepoint(bars, t, order)
		if e.builder.Metrics != nil {
			e.builder.Metrics.ObserveTick(time.Since(tickStart))
		}

		if e.builder.ProgressFunc != nil {
			e.builder.ProgressFunc(t, processed, len(admitted))
		}
	}

	if e.builder.AutoLiquidateOnFinish && len(admitted) > 0 {
		finalBars, _ := timeline.At(admitted[len(admitted)-1])
		for _, st := range order {
			e.liquidate(st, finalBars, admitted[len(admitted)-1])
		}
	}

	final, _ := timeline.At(times[len(times)-1])
	for _, st := range order {
		st.spec.Algorithm.OnMarketClose(final)
	}

	results := &Results{
		Statistics: make(map[string]*stats.AlgorithmStatistics, len(states)),
		StartTime:  times[0],
		EndTime:    times[len(times)-1],
		Portfolios: make(map[string]*portfolio.Portfolio, len(states)),
		RunIDs:     make(map[string]string, len(states)),
	}
	for _, st := range order {
		algoID := st.spec.Algorithm.AlgorithmID()
		results.Statistics[algoID] = st.statistics
		results.Portfolios[algoID] = st.portfolio
		results.RunIDs[algoID] = st.runID
		e.recordRunSummary(ctx, st, results.StartTime, results.EndTime)
	}
	return results, nil
}

// recordRunSummary persists a completed run's headline figures if the
// configured journal supports it. CSVJournal doesn't; SQLite does.
func (e *Engine) recordRunSummary(ctx context.Context, st *strategyState, start, end time.Time) {
	recorder, ok := e.builder.Journal.(journal.RunRecorder)
	if !ok {
		return
	}
	run := journal.BacktestRun{
		RunID:        st.runID,
		Created:      time.Now(),
		AlgorithmID:  st.spec.Algorithm.AlgorithmID(),
		Tickers:      e.builder.Tickers,
		Start:        start,
		End:          end,
		InitialValue: st.statistics.InitialValue(),
		FinalValue:   st.statistics.TotalValue(),
		TotalTrades:  st.statistics.TotalTrades(),
		MaxDrawdown:  st.statistics.MaxDrawdown() / 100, // stats reports percent; BacktestRun holds a fraction
		SharpeRatio:  st.statistics.SharpeRatio(),
	}
	_ = recorder.RecordBacktest(ctx, run)
}

func (e *Engine) processTimepoint(bars map[string]market.Bar, at time.Time, order []*strategyState) {
	prices := closePrices(bars)

	for _, st := range order {
		before := st.portfolio.Snapshot()
		valueBefore, err := st.portfolio.TotalValue(prices, at)
		if err != nil {
			valueBefore = 0
		}

		st.spec.Algorithm.OnUpdate(bars, at, st.portfolio)

		after := st.portfolio.Snapshot()
		for _, ev := range detectTrades(before, after, bars, valueBefore, at) {
			st.statistics.RecordTrade(ev)
			if e.builder.Metrics != nil {
				e.builder.Metrics.RecordTrade(ev.Side.String())
			}
			e.journalTrade(st, ev)
		}

		value, err := st.portfolio.TotalValue(prices, at)
		if err != nil {
			continue
		}
		st.statistics.UpdateStatistics(value, e.builder.RiskFreeRate/252)
		e.journalEquity(st, value, at)
	}
}

func (e *Engine) journalTrade(st *strategyState, ev stats.TradeEvent) {
	if e.builder.Journal == nil {
		return
	}
	_ = e.builder.Journal.RecordTrade(journal.TradeRecord{
		RunID:       st.runID,
		AlgorithmID: st.spec.Algorithm.AlgorithmID(),
		Ticker:      ev.Ticker,
		Side:        ev.Side.String(),
		Quantity:    ev.Quantity,
		Price:       ev.Price,
		Time:        ev.Time,
	})
}

func (e *Engine) journalEquity(st *strategyState, value float64, at time.Time) {
	if e.builder.Journal == nil {
		return
	}
	_ = e.builder.Journal.RecordEquity(journal.EquitySnapshot{
		RunID:       st.runID,
		AlgorithmID: st.spec.Algorithm.AlgorithmID(),
		Time:        at,
		Value:       value,
	})
}

func (e *Engine) liquidate(st *strategyState, bars map[string]market.Bar, at time.Time) {
	prices := closePrices(bars)
	valueBefore, _ := st.portfolio.TotalValue(prices, at)

	for _, ticker := range st.portfolio.LongTickers() {
		bar, ok := bars[ticker]
		qty := st.portfolio.LongQuantity(ticker)
		if !ok || qty <= 0 {
			continue
		}
		if err := st.portfolio.SellStock(ticker, qty, bar.Close, at); err != nil {
			continue
		}
		ev := stats.TradeEvent{Ticker: ticker, Side: stats.Sell, Quantity: qty, Price: bar.Close, PortfolioValueBefore: valueBefore, Time: at}
		st.statistics.RecordTrade(ev)
		e.journalTrade(st, ev)
	}
	for _, ticker := range st.portfolio.ShortTickers() {
		bar, ok := bars[ticker]
		qty := st.portfolio.ShortQuantity(ticker)
		if !ok || qty <= 0 {
			continue
		}
		if err := st.portfolio.CoverShort(ticker, qty, bar.Close, at); err != nil {
			continue
		}
		ev := stats.TradeEvent{Ticker: ticker, Side: stats.Cover, Quantity: qty, Price: bar.Close, PortfolioValueBefore: valueBefore, Time: at}
		st.statistics.RecordTrade(ev)
		e.journalTrade(st, ev)
	}

	if value, err := st.portfolio.TotalValue(prices, at); err == nil {
		st.statistics.UpdateStatistics(value, e.builder.RiskFreeRate/252)
		e.journalEquity(st, value, at)
	}
}

func closePrices(bars map[string]market.Bar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for ticker, bar := range bars {
		out[ticker] = bar.Close
	}
	return out
}

// Close releases the engine's historical service resources.
func (e *Engine) Close(ctx context.Context) error {
	return e.svc.Close(ctx)
}
