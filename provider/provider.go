// Package provider defines the contract the backtest engine's historical
// service uses to fetch bars for a single ticker, plus a typed error
// carrying the retryability signal the service's retry loop branches on.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Capabilities describes what a provider can do, for runtime feature
// detection by the historical service.
type Capabilities struct {
	SupportsHistorical bool
	Granularity        time.Duration
}

// Provider fetches historical bars for exactly one ticker in [start, end].
// Implementations must reject multi-ticker calls with an *Error (not
// applicable here since FetchHistoricalData already takes a single
// ticker) and must return bars already satisfying Bar.Validate.
type Provider interface {
	// FetchHistoricalData returns bars for ticker in [start, end],
	// already timezone-normalized to marketConfig.ZoneID.
	FetchHistoricalData(ctx context.Context, ticker string, start, end time.Time, marketConfig market.Config) (*market.HistoricalData, error)

	// IsAvailable is a cheap liveness probe.
	IsAvailable(ctx context.Context) bool

	// RateLimit reports the maximum calls per minute this provider
	// tolerates; the historical service paces calls at 60/RateLimit
	// seconds apart.
	RateLimit() int

	Capabilities() Capabilities
}

// Error is returned by a Provider on malformed responses or upstream
// failure. Retryable distinguishes transient failures (rate limits,
// network blips, 5xx) from permanent ones (bad ticker, 4xx); the
// historical service's retry loop only retries when Retryable is true.
type Error struct {
	Message      string
	Cause        error
	Retryable    bool
	ProviderCode string
}

func (e *Error) Error() string {
	if e.ProviderCode != "" {
		return fmt.Sprintf("%s (provider code %s)", e.Message, e.ProviderCode)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs a retryable or permanent provider error.
func NewError(message string, cause error, retryable bool, providerCode string) *Error {
	return &Error{Message: message, Cause: cause, Retryable: retryable, ProviderCode: providerCode}
}
