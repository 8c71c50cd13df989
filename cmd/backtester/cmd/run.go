package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/rustyeddy/backtester/algorithms"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/provider"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest against historical data",
	Long: `Run loads a config file (or the built-in defaults), wires a provider and
journal from it, and replays every configured ticker against the named
strategy, printing a per-strategy results report on completion.

Example:
  backtester run --config config.yaml --algorithm ema-cross --fast 20 --slow 50`,
	RunE: runRun,
}

var (
	runConfigPath string
	runCacheDir   string
	runPrint      bool
	runAlgorithm  string
	runFast       int
	runSlow       int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a YAML or JSON config file (defaults to built-in defaults)")
	runCmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "override the on-disk bar cache directory from the config")
	runCmd.Flags().BoolVar(&runPrint, "print", false, "print the number of algorithms before the replay starts (no per-tick progress is printed)")
	runCmd.Flags().StringVar(&runAlgorithm, "algorithm", "buy-and-hold", fmt.Sprintf("strategy to run, one per ticker (available: %v)", backtest.RegisteredAlgorithms()))
	runCmd.Flags().IntVar(&runFast, "fast", 20, "ema-cross: fast EMA period")
	runCmd.Flags().IntVar(&runSlow, "slow", 50, "ema-cross: slow EMA period")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runCacheDir != "" {
		cfg.Run.CacheDir = runCacheDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	marketCfg, err := market.SessionByName(cfg.Market.Name)
	if err != nil {
		return err
	}

	prov, err := buildProvider(cfg.Provider)
	if err != nil {
		return err
	}

	j, closeJournal, err := buildJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer closeJournal()

	specs := make([]backtest.StrategySpec, 0, len(cfg.Run.Tickers))
	for _, ticker := range cfg.Run.Tickers {
		algo, err := backtest.AlgorithmByName(runAlgorithm, backtest.AlgorithmParams{
			ID:     fmt.Sprintf("%s:%s", runAlgorithm, ticker),
			Ticker: ticker,
			Fast:   runFast,
			Slow:   runSlow,
		})
		if err != nil {
			return err
		}
		specs = append(specs, backtest.StrategySpec{Algorithm: algo, InitialCapital: cfg.Run.InitialCapital})
	}

	interval, err := cfg.Run.ParseInterval()
	if err != nil {
		return err
	}

	builder := backtest.Builder{
		Tickers:               cfg.Run.Tickers,
		PreviousDays:          cfg.Run.PreviousDays,
		MarketConfig:          marketCfg,
		ShouldPrint:           runPrint,
		Interval:              interval,
		RunOnMarketClosed:     cfg.Run.RunOnMarketClosed,
		AutoLiquidateOnFinish: cfg.Run.AutoLiquidateOnFinish,
		RiskFreeRate:          cfg.Run.RiskFreeRate,
		Provider:              prov,
		CacheDir:              cfg.Run.CacheDir,
		Strategies:            specs,
		Metrics:               metrics.New(),
		Journal:               j,
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ctx := context.Background()
	defer engine.Close(ctx)

	results, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	fmt.Println(results.String())
	return nil
}

func loadConfig() (*config.Config, error) {
	if runConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(runConfigPath)
}

func buildProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Type {
	case "http":
		return provider.NewHTTPProvider(cfg.BaseURL, cfg.APIKey, cfg.CallsPerMinute), nil
	case "static":
		return provider.NewStaticProvider(nil), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// buildJournal returns the configured journal plus a close function that
// is always safe to defer, even if building the journal failed partway.
func buildJournal(cfg config.JournalConfig) (journal.Journal, func(), error) {
	switch cfg.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.TradesFile, cfg.EquityFile)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open CSV journal: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open SQLite journal: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}
