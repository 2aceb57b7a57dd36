package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_ENDPOINT", "https://rpc.example.com")
	t.Setenv("WS_ENDPOINT", "wss://rpc.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "logs", cfg.Monitor.Mode)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.PollInterval)
	assert.Equal(t, float64(1000), cfg.Filter.MinLiquidityUSD)
	assert.Equal(t, uint64(100_000_000), cfg.Snipe.AmountLamports)
	assert.True(t, cfg.Snipe.DryRun)
	assert.Equal(t, "portfolio.json", cfg.Files.PortfolioPath)
}

func TestLoad_MissingRPCEndpoint(t *testing.T) {
	t.Setenv("RPC_ENDPOINT", "")
	t.Setenv("WS_ENDPOINT", "wss://rpc.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC_ENDPOINT")
}

func TestLoad_WalletRequiredForLiveMode(t *testing.T) {
	setRequired(t)
	t.Setenv("DRY_RUN", "false")
	t.Setenv("WALLET_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_LIQUIDITY_USD", "2500")
	t.Setenv("SNIPE_AMOUNT_LAMPORTS", "50000000")
	t.Setenv("MONITOR_MODE", "account")
	t.Setenv("MAX_LAST_TRADE_AGE", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, float64(2500), cfg.Filter.MinLiquidityUSD)
	assert.Equal(t, uint64(50_000_000), cfg.Snipe.AmountLamports)
	assert.Equal(t, "account", cfg.Monitor.Mode)
	assert.Equal(t, 30*time.Minute, cfg.Filter.MaxLastTradeAge)
}

func TestLoad_InvalidBands(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_MARKET_CAP_USD", "1000000")
	t.Setenv("MAX_MARKET_CAP_USD", "1000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market cap band")
}

func TestLoad_InvalidMode(t *testing.T) {
	setRequired(t)
	t.Setenv("MONITOR_MODE", "both")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONITOR_MODE")
}

func TestLoad_MalformedNumberFallsBackToDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("MIN_LIQUIDITY_USD", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, float64(1000), cfg.Filter.MinLiquidityUSD)
}
