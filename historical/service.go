package historical

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/provider"
	"github.com/rustyeddy/backtester/ratelimit"
)

var (
	// ErrNotInitialized is returned by FetchHistoricalData before
	// Initialize has completed successfully.
	ErrNotInitialized = errors.New("historical: service not initialized")
	// ErrNoDataForTicker is returned when neither the hot cache nor the
	// disk cache holds data for a requested ticker.
	ErrNoDataForTicker = errors.New("historical: no data available for ticker")
)

// MetricsRecorder is the narrow slice of metrics.Recorder the service
// depends on; any type providing these methods satisfies it, so this
// package does not need to import metrics.
type MetricsRecorder interface {
	ProviderCall(ticker string, success bool)
	CacheHit(ticker string)
	CacheMiss(ticker string)
}

// Service provides deterministic historical bars to the backtest engine
// with bounded external calls: cached segments are preferred, provider
// calls are retried with backoff and rate-limit paced, and a successful
// fetch is persisted so a re-run never re-fetches the same window.
type Service struct {
	provider provider.Provider
	log      *slog.Logger

	maxRetries int
	disk       *DiskCache // nil disables on-disk persistence
	hot        *RedisHotCache // nil disables the shared Redis layer
	metrics    MetricsRecorder // nil disables instrumentation
	limiter    *ratelimit.Limiter // nil if the provider advertises no rate limit

	mu          sync.Mutex
	segments    *SegmentCache
	initialized bool
}

// Option configures optional Service behavior.
type Option func(*Service)

func WithDiskCache(c *DiskCache) Option { return func(s *Service) { s.disk = c } }
func WithHotCache(c *RedisHotCache) Option { return func(s *Service) { s.hot = c } }
func WithMetrics(m MetricsRecorder) Option { return func(s *Service) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

// New returns a Service fetching through p, retrying up to maxRetries
// times per ticker.
func New(p provider.Provider, maxRetries int, opts ...Option) *Service {
	s := &Service{
		provider:   p,
		maxRetries: maxRetries,
		segments:   NewSegmentCache(),
		log:        slog.Default(),
	}
	if rpm := p.RateLimit(); rpm > 0 {
		s.limiter = ratelimit.New(float64(rpm) / 60.0)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize fetches each ticker's bars for [now-lookbackDays, now],
// preferring any cache layer before calling the provider. It is
// idempotent: calling it again after a successful run is a no-op.
func (s *Service) Initialize(ctx context.Context, tickers []string, lookbackDays int, marketConfig market.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	s.log.Info("fetching historical data", "tickers", len(tickers), "lookback_days", lookbackDays)

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.loadOneLocked(ctx, ticker, start, end, marketConfig); err != nil {
			return fmt.Errorf("initialize %s: %w", ticker, err)
		}
	}

	s.initialized = true
	return nil
}

func (s *Service) loadOneLocked(ctx context.Context, ticker string, start, end time.Time, marketConfig market.Config) error {
	if hd, ok := s.segments.Get(ticker, start, end); ok {
		s.log.Debug("segment cache hit", "ticker", ticker)
		s.recordCacheHit(ticker)
		_ = hd
		return nil
	}
	if s.hot != nil {
		if hd, ok := s.hot.Get(ctx, ticker, start, end); ok {
			s.log.Debug("redis hot cache hit", "ticker", ticker)
			s.recordCacheHit(ticker)
			s.segments.Put(ticker, start, end, hd)
			return nil
		}
	}
	if s.disk != nil {
		if hd, ok := s.disk.Load(ticker, start, end); ok {
			s.log.Debug("disk cache hit", "ticker", ticker)
			s.recordCacheHit(ticker)
			s.segments.Put(ticker, start, end, hd)
			return nil
		}
	}
	s.recordCacheMiss(ticker)

	hd, err := s.fetchWithRetry(ctx, ticker, start, end, marketConfig)
	if err != nil {
		return err
	}

	s.segments.Put(ticker, start, end, hd)
	if s.disk != nil {
		if err := s.disk.Save(ticker, start, end, hd); err != nil {
			s.log.Warn("failed to persist segment", "ticker", ticker, "err", err)
		}
	}
	if s.hot != nil {
		s.hot.Put(ctx, ticker, start, end, hd)
	}
	return nil
}

// fetchWithRetry retries a provider call up to maxRetries times, waiting
// 5000ms*attempt between attempts, and failing fast once retries are
// exhausted.
func (s *Service) fetchWithRetry(ctx context.Context, ticker string, start, end time.Time, marketConfig market.Config) (*market.HistoricalData, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if s.limiter != nil {
			s.limiter.Acquire(1)
		}
		if !s.provider.IsAvailable(ctx) {
			lastErr = fmt.Errorf("provider unavailable for %s", ticker)
		} else {
			hd, err := s.provider.FetchHistoricalData(ctx, ticker, start, end, marketConfig)
			if err == nil {
				s.recordProviderCall(ticker, true)
				return hd, nil
			}
			lastErr = err
			var perr *provider.Error
			if errors.As(err, &perr) && !perr.Retryable {
				s.recordProviderCall(ticker, false)
				return nil, err
			}
		}

		s.recordProviderCall(ticker, false)
		if attempt >= s.maxRetries {
			break
		}
		backoff := time.Duration(5000*attempt) * time.Millisecond
		s.log.Warn("retrying provider fetch", "ticker", ticker, "attempt", attempt, "backoff", backoff, "err", lastErr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("fetch %s: exhausted %d attempts: %w", ticker, s.maxRetries, lastErr)
}

// FetchHistoricalData returns per-ticker bars in [start, end] from cache,
// fetching in parallel across tickers (bounded by available CPUs), after
// Initialize has run.
func (s *Service) FetchHistoricalData(ctx context.Context, tickers []string, start, end time.Time) (map[string][]market.Bar, error) {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		return nil, ErrNotInitialized
	}

	limit := runtime.GOMAXPROCS(0)
	if limit > len(tickers) {
		limit = len(tickers)
	}
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	results := make(map[string][]market.Bar, len(tickers))
	errs := make([]error, len(tickers))
	var mu sync.Mutex

	for i, ticker := range tickers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ticker string) {
			defer wg.Done()
			defer func() { <-sem }()

			s.mu.Lock()
			hd, ok := s.segments.Get(ticker, start, end)
			s.mu.Unlock()
			if !ok && s.disk != nil {
				hd, ok = s.disk.Load(ticker, start, end)
			}
			if !ok {
				errs[i] = fmt.Errorf("%s: %w", ticker, ErrNoDataForTicker)
				return
			}
			bars := hd.Range(start, end)
			mu.Lock()
			results[ticker] = bars
			mu.Unlock()
		}(i, ticker)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Close releases resources within a 30-second shutdown bound. The service
// itself holds no long-lived goroutines (every call is request-scoped)
// and closes no clients, so there is nothing to drain.
func (s *Service) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nothing currently owns long-lived background work; this hook
		// exists so callers and future cache layers have a single place
		// to wire graceful shutdown into.
	}()

	select {
	case <-done:
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("historical: shutdown exceeded 30s bound")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) recordProviderCall(ticker string, success bool) {
	if s.metrics != nil {
		s.metrics.ProviderCall(ticker, success)
	}
}

func (s *Service) recordCacheHit(ticker string) {
	if s.metrics != nil {
		s.metrics.CacheHit(ticker)
	}
}

func (s *Service) recordCacheMiss(ticker string) {
	if s.metrics != nil {
		s.metrics.CacheMiss(ticker)
	}
}
