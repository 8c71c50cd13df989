// Package metrics provides Prometheus instrumentation for provider calls,
// cache hit/miss, and replay-tick latency. A Recorder is optional
// everywhere it's threaded through; nil disables instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns its own registry so multiple backtest runs (e.g. in
// tests, or concurrent CLI invocations in-process) never collide over
// Prometheus's default global registry.
type Recorder struct {
	registry *prometheus.Registry

	providerCalls *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	tickLatency   prometheus.Histogram
	tradesTotal   *prometheus.CounterVec
}

// New returns a Recorder registered against a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		providerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtester_provider_calls_total",
			Help: "Historical data provider calls by ticker and outcome",
		}, []string{"ticker", "outcome"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtester_cache_hits_total",
			Help: "Historical data cache hits by ticker",
		}, []string{"ticker"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtester_cache_misses_total",
			Help: "Historical data cache misses by ticker",
		}, []string{"ticker"}),
		tickLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtester_tick_duration_seconds",
			Help:    "Time spent processing one replay tick across all strategies",
			Buckets: prometheus.DefBuckets,
		}),
		tradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backtester_trades_total",
			Help: "Trades detected during replay, by side",
		}, []string{"side"}),
	}
}

// ProviderCall records a provider fetch attempt, success or failure.
// Satisfies historical.MetricsRecorder.
func (r *Recorder) ProviderCall(ticker string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.providerCalls.WithLabelValues(ticker, outcome).Inc()
}

// CacheHit satisfies historical.MetricsRecorder.
func (r *Recorder) CacheHit(ticker string) { r.cacheHits.WithLabelValues(ticker).Inc() }

// CacheMiss satisfies historical.MetricsRecorder.
func (r *Recorder) CacheMiss(ticker string) { r.cacheMisses.WithLabelValues(ticker).Inc() }

// ObserveTick records the wall-clock duration of one replay tick.
func (r *Recorder) ObserveTick(d time.Duration) { r.tickLatency.Observe(d.Seconds()) }

// RecordTrade increments the trade counter for side ("BUY", "SELL",
// "SHORT", "COVER").
func (r *Recorder) RecordTrade(side string) { r.tradesTotal.WithLabelValues(side).Inc() }

// Handler exposes the Recorder's registry over HTTP in the Prometheus
// text exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
