package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Run.Tickers, loaded.Run.Tickers)
	assert.Equal(t, cfg.Market.Name, loaded.Market.Name)
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Journal.Type, loaded.Journal.Type)
}

func TestValidateRejectsMissingTickers(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Run.Tickers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownMarket(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Market.Name = "NASDAQ"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsHTTPProviderWithoutBaseURL(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Provider.Type = "http"
	cfg.Provider.BaseURL = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsCSVJournalWithoutFiles(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Journal.TradesFile = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsSQLiteJournalWithoutDBPath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Journal.Type = "sqlite"
	cfg.Journal.DBPath = ""
	assert.Error(t, cfg.Validate())
}

func TestRunConfigParseInterval(t *testing.T) {
	t.Parallel()

	r := RunConfig{Interval: "5m"}
	d, err := r.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", d.String())

	r = RunConfig{}
	d, err = r.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", d.String())
}
