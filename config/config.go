package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for one backtest run: which
// strategy to load, what data to replay it against, and where to persist
// the results.
type Config struct {
	Run      RunConfig      `json:"run" yaml:"run"`
	Market   MarketConfig   `json:"market" yaml:"market"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// RunConfig contains parameters shared by every strategy in the run.
type RunConfig struct {
	Tickers               []string `json:"tickers" yaml:"tickers"`
	PreviousDays          int      `json:"previous_days" yaml:"previous_days"`
	Interval              string   `json:"interval" yaml:"interval"` // e.g. "1m", "5m"
	RunOnMarketClosed     bool     `json:"run_on_market_closed" yaml:"run_on_market_closed"`
	AutoLiquidateOnFinish bool     `json:"auto_liquidate_on_finish" yaml:"auto_liquidate_on_finish"`
	RiskFreeRate          float64  `json:"risk_free_rate" yaml:"risk_free_rate"`
	InitialCapital        float64  `json:"initial_capital" yaml:"initial_capital"`
	CacheDir              string   `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// Interval is parsed on each call to ParseInterval(); callers should
	// use it rather than parsing the string themselves.
}

// ParseInterval parses RunConfig.Interval, defaulting to one minute when empty.
func (r RunConfig) ParseInterval() (time.Duration, error) {
	if r.Interval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(r.Interval)
}

// MarketConfig names the trading session bars are evaluated against. Name
// must match a known session ("NYSE", "LSE", "TSE"); callers resolve it to
// a market.Config via market.SessionByName.
type MarketConfig struct {
	Name string `json:"name" yaml:"name"`
}

// ProviderConfig selects and configures the historical data provider.
type ProviderConfig struct {
	Type           string `json:"type" yaml:"type"` // "http" or "static"
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	CallsPerMinute int    `json:"calls_per_minute,omitempty" yaml:"calls_per_minute,omitempty"`
}

// JournalConfig contains persistence parameters for trade/equity journaling.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Run.Tickers) == 0 {
		return fmt.Errorf("run.tickers must have at least one entry")
	}
	if c.Run.PreviousDays <= 0 {
		return fmt.Errorf("run.previous_days must be positive")
	}
	if c.Run.InitialCapital <= 0 {
		return fmt.Errorf("run.initial_capital must be positive")
	}
	if _, err := c.Run.ParseInterval(); err != nil {
		return fmt.Errorf("run.interval: %w", err)
	}

	switch c.Market.Name {
	case "NYSE", "LSE", "TSE":
	default:
		return fmt.Errorf("unknown market session: %s", c.Market.Name)
	}

	switch c.Provider.Type {
	case "http":
		if c.Provider.BaseURL == "" {
			return fmt.Errorf("provider.base_url is required for type http")
		}
	case "static":
	default:
		return fmt.Errorf("provider.type must be 'http' or 'static'")
	}

	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Tickers:        []string{"AAPL"},
			PreviousDays:   5,
			Interval:       "1m",
			InitialCapital: 100000,
			RiskFreeRate:   0.02,
		},
		Market: MarketConfig{Name: "NYSE"},
		Provider: ProviderConfig{
			Type:           "static",
			CallsPerMinute: 60,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
	}
}
