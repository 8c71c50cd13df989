package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// HTTPProvider fetches bars from a REST endpoint returning a JSON array of
// {t, o, h, l, c, v} records for one ticker. Its request-building and
// response-decoding shape is adapted from the OANDA candles client: build
// a query string, issue a bearer-authenticated GET, check the status code,
// decode JSON, convert to domain bars.
type HTTPProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// CallsPerMinute is the provider's advertised rate limit, used by the
	// historical service to pace calls.
	CallsPerMinute int
	Granularity    time.Duration
}

// NewHTTPProvider returns a provider pointed at baseURL, defaulting to a
// 30-second client timeout and 1-minute granularity.
func NewHTTPProvider(baseURL, apiKey string, callsPerMinute int) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		CallsPerMinute: callsPerMinute,
		Granularity:    time.Minute,
	}
}

type barRecord struct {
	Time   string  `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// FetchHistoricalData implements Provider.
func (p *HTTPProvider) FetchHistoricalData(ctx context.Context, ticker string, start, end time.Time, marketConfig market.Config) (*market.HistoricalData, error) {
	if ticker == "" {
		return nil, NewError("ticker is required", nil, false, "")
	}

	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("from", start.UTC().Format(time.RFC3339))
	params.Set("to", end.UTC().Format(time.RFC3339))
	params.Set("granularity", "1m")

	apiURL := fmt.Sprintf("%s/v1/bars?%s", p.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, NewError("build request", err, false, "")
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, NewError("execute request", err, true, "")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewError(fmt.Sprintf("upstream error (status %d): %s", resp.StatusCode, body), nil, true, fmt.Sprintf("HTTP_%d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, NewError(fmt.Sprintf("API error (status %d): %s", resp.StatusCode, body), nil, false, fmt.Sprintf("HTTP_%d", resp.StatusCode))
	}

	var records []barRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, NewError("decode response", err, false, "")
	}

	hd := market.NewHistoricalData(ticker)
	for _, r := range records {
		t, err := time.Parse(time.RFC3339, r.Time)
		if err != nil {
			return nil, NewError(fmt.Sprintf("parse bar time %q", r.Time), err, false, "")
		}
		bar := market.Bar{
			Ticker: ticker,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			Time:   t.In(marketConfig.ZoneID),
		}
		if err := hd.Insert(bar); err != nil {
			return nil, NewError(fmt.Sprintf("insert bar at %s", t), err, false, "")
		}
	}
	return hd, nil
}

// IsAvailable probes the provider's health endpoint.
func (p *HTTPProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/v1/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *HTTPProvider) RateLimit() int { return p.CallsPerMinute }

func (p *HTTPProvider) Capabilities() Capabilities {
	return Capabilities{SupportsHistorical: true, Granularity: p.Granularity}
}
