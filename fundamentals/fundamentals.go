// Package fundamentals provides a read-only sidecar for the kind of data
// a strategy consults but the replay loop never touches: earnings
// events, financial ratios, quarterly income statements, and news
// sentiment. Each accessor is independently TTL-cached to disk and
// filters out anything dated on or after the caller's as-of time, so a
// strategy can never see a number the market itself hadn't published yet.
package fundamentals

import "time"

// DefaultTTL is how long a cached symbol's data is trusted before the
// next access forces a refetch.
const DefaultTTL = 24 * time.Hour

// EarningsEvent is one company's earnings report.
type EarningsEvent struct {
	Symbol      string    `json:"symbol"`
	ReportDate  time.Time `json:"report_date"`
	EPSEstimate float64   `json:"eps_estimate"`
	EPSActual   float64   `json:"eps_actual"`
}

// FinancialRatios is a snapshot of valuation and leverage ratios as of a
// given date.
type FinancialRatios struct {
	Symbol       string    `json:"symbol"`
	AsOf         time.Time `json:"as_of"`
	PE           float64   `json:"pe"`
	PB           float64   `json:"pb"`
	DebtToEquity float64   `json:"debt_to_equity"`
	ROE          float64   `json:"roe"`
}

// IncomeStatement is one quarter's top-line income statement.
type IncomeStatement struct {
	Symbol     string    `json:"symbol"`
	PeriodEnd  time.Time `json:"period_end"`
	Revenue    float64   `json:"revenue"`
	NetIncome  float64   `json:"net_income"`
}

// NewsSentiment is one scored news item, score in [-1, 1].
type NewsSentiment struct {
	Symbol      string    `json:"symbol"`
	PublishedAt time.Time `json:"published_at"`
	Headline    string    `json:"headline"`
	Score       float64   `json:"score"`
}
