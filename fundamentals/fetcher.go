package fundamentals

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Source fetches fresh fundamentals data from an upstream provider. It is
// the one piece of this package callers must supply; everything else
// (caching, TTL, as-of filtering, persistence) is handled by Fetcher.
type Source interface {
	FetchEarnings(ctx context.Context, symbol string) ([]EarningsEvent, error)
	FetchRatios(ctx context.Context, symbol string) (FinancialRatios, error)
	FetchIncomeStatements(ctx context.Context, symbol string) ([]IncomeStatement, error)
	FetchNewsSentiment(ctx context.Context, symbol string) ([]NewsSentiment, error)
}

// Fetcher is the AuxiliaryFundamentalsFetcher sidecar: four independently
// cached accessors, each filtering results to what was actually knowable
// as of a caller-supplied time.
type Fetcher struct {
	source Source
	log    *slog.Logger

	earnings  *cache[[]EarningsEvent]
	ratios    *cache[FinancialRatios]
	income    *cache[[]IncomeStatement]
	sentiment *cache[[]NewsSentiment]
}

// New returns a Fetcher backed by source, persisting its four caches
// under cacheDir (created if necessary by the caller).
func New(source Source, cacheDir string) *Fetcher {
	log := slog.Default()
	return &Fetcher{
		source:    source,
		log:       log,
		earnings:  newCache[[]EarningsEvent](filepath.Join(cacheDir, "earnings_cache.json"), DefaultTTL, log),
		ratios:    newCache[FinancialRatios](filepath.Join(cacheDir, "metrics_cache.json"), DefaultTTL, log),
		income:    newCache[[]IncomeStatement](filepath.Join(cacheDir, "income_cache.json"), DefaultTTL, log),
		sentiment: newCache[[]NewsSentiment](filepath.Join(cacheDir, "sentiment_cache.json"), DefaultTTL, log),
	}
}

// Earnings returns symbol's earnings events reported strictly before asOf.
func (f *Fetcher) Earnings(ctx context.Context, symbol string, asOf time.Time) ([]EarningsEvent, error) {
	events, ok := f.earnings.get(symbol)
	if !ok {
		fresh, err := f.source.FetchEarnings(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("fetch earnings for %s: %w", symbol, err)
		}
		f.earnings.put(symbol, fresh)
		events = fresh
	}

	out := make([]EarningsEvent, 0, len(events))
	for _, e := range events {
		if e.ReportDate.Before(asOf) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ratios returns symbol's most recent financial ratios as of asOf, or
// ErrNotYetAvailable if the only data on hand postdates asOf.
func (f *Fetcher) Ratios(ctx context.Context, symbol string, asOf time.Time) (FinancialRatios, error) {
	ratios, ok := f.ratios.get(symbol)
	if !ok {
		fresh, err := f.source.FetchRatios(ctx, symbol)
		if err != nil {
			return FinancialRatios{}, fmt.Errorf("fetch ratios for %s: %w", symbol, err)
		}
		f.ratios.put(symbol, fresh)
		ratios = fresh
	}
	if !ratios.AsOf.Before(asOf) {
		return FinancialRatios{}, ErrNotYetAvailable
	}
	return ratios, nil
}

// IncomeStatements returns symbol's quarterly income statements for
// periods ending strictly before asOf.
func (f *Fetcher) IncomeStatements(ctx context.Context, symbol string, asOf time.Time) ([]IncomeStatement, error) {
	statements, ok := f.income.get(symbol)
	if !ok {
		fresh, err := f.source.FetchIncomeStatements(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("fetch income statements for %s: %w", symbol, err)
		}
		f.income.put(symbol, fresh)
		statements = fresh
	}

	out := make([]IncomeStatement, 0, len(statements))
	for _, s := range statements {
		if s.PeriodEnd.Before(asOf) {
			out = append(out, s)
		}
	}
	return out, nil
}

// NewsSentiment returns symbol's scored news items published strictly
// before asOf.
func (f *Fetcher) NewsSentiment(ctx context.Context, symbol string, asOf time.Time) ([]NewsSentiment, error) {
	items, ok := f.sentiment.get(symbol)
	if !ok {
		fresh, err := f.source.FetchNewsSentiment(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("fetch news sentiment for %s: %w", symbol, err)
		}
		f.sentiment.put(symbol, fresh)
		items = fresh
	}

	out := make([]NewsSentiment, 0, len(items))
	for _, n := range items {
		if n.PublishedAt.Before(asOf) {
			out = append(out, n)
		}
	}
	return out, nil
}

// ErrNotYetAvailable is returned when the only fundamentals data on hand
// for a symbol postdates the caller's as-of time.
var ErrNotYetAvailable = fmt.Errorf("fundamentals: no data available as of requested time")
