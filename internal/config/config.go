// Package config provides configuration for the sniper binaries.
// It loads configuration from environment variables and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, read once at startup.
type Config struct {
	Solana     SolanaConfig
	Wallet     WalletConfig
	Jupiter    JupiterConfig
	MarketData MarketDataConfig
	Telegram   TelegramConfig
	Postgres   PostgresConfig
	Filter     FilterConfig
	Safety     SafetyConfig
	Snipe      SnipeConfig
	Monitor    MonitorConfig
	Status     StatusConfig
	Files      FilesConfig
}

// SolanaConfig holds RPC endpoints.
type SolanaConfig struct {
	RPCEndpoint string
	WSEndpoint  string
}

// WalletConfig holds the controlling wallet key.
type WalletConfig struct {
	// Secret is the base58-encoded 64-byte secret key.
	Secret string
}

// JupiterConfig holds swap aggregator settings.
type JupiterConfig struct {
	BaseURL string
}

// MarketDataConfig holds the token-data API settings.
type MarketDataConfig struct {
	BaseURL string
	APIKey  string
	// RequestsPerSecond caps client-side request rate.
	RequestsPerSecond float64
}

// TelegramConfig holds notification settings. Empty token disables notifications.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// PostgresConfig holds the optional durable snipe store.
// Empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN string
}

// FilterConfig holds the static filter thresholds.
type FilterConfig struct {
	MinLiquidityUSD    float64
	MinMarketCapUSD    float64
	MaxMarketCapUSD    float64
	MinPriceUSD        float64
	MaxPriceUSD        float64
	MaxLastTradeAge    time.Duration
	MinVolume24hUSD    float64
	MinVolumeMcapRatio float64
	MaxPriceChange24h  float64 // percent magnitude
}

// SafetyConfig holds safety checker thresholds.
type SafetyConfig struct {
	MinSupply          float64
	MaxSupply          float64
	MaxRoundTripImpact float64 // percent, honeypot round trip
	MinRecoveryRatio   float64 // recovered/input value floor
	MaxLegImpact       float64 // percent, single quote leg
	MaxTopHolderShare  float64 // fraction of supply held by largest account
}

// SnipeConfig holds execution settings.
type SnipeConfig struct {
	AmountLamports  uint64 // notional spend per snipe
	SlippageBps     int
	MaxPriceImpact  float64 // percent, execution quote gate
	DryRun          bool
	ConfirmAttempts int
	ConfirmInterval time.Duration
}

// MonitorConfig holds pool monitor settings.
type MonitorConfig struct {
	// Mode selects the detection mode: "logs" or "account".
	Mode string
	// PollInterval is the backup polling path interval.
	PollInterval time.Duration
	// SeenCapacity bounds the dedupe set size.
	SeenCapacity int
}

// StatusConfig holds the status HTTP server settings.
type StatusConfig struct {
	ListenAddr string
}

// FilesConfig holds flat-file persistence paths.
type FilesConfig struct {
	PortfolioPath string
	SnipeLogPath  string
}

// Load reads configuration from the environment and an optional .env file.
// Missing required keys are returned as errors; callers treat them as fatal.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := &Config{
		Solana: SolanaConfig{
			RPCEndpoint: os.Getenv("RPC_ENDPOINT"),
			WSEndpoint:  os.Getenv("WS_ENDPOINT"),
		},
		Wallet: WalletConfig{
			Secret: os.Getenv("WALLET_SECRET"),
		},
		Jupiter: JupiterConfig{
			BaseURL: getEnv("JUPITER_BASE_URL", "https://quote-api.jup.ag/v6"),
		},
		MarketData: MarketDataConfig{
			BaseURL:           getEnv("BIRDEYE_BASE_URL", "https://public-api.birdeye.so"),
			APIKey:            os.Getenv("BIRDEYE_API_KEY"),
			RequestsPerSecond: getEnvAsFloat("BIRDEYE_RPS", 1.0),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Filter: FilterConfig{
			MinLiquidityUSD:    getEnvAsFloat("MIN_LIQUIDITY_USD", 1000),
			MinMarketCapUSD:    getEnvAsFloat("MIN_MARKET_CAP_USD", 10000),
			MaxMarketCapUSD:    getEnvAsFloat("MAX_MARKET_CAP_USD", 10000000),
			MinPriceUSD:        getEnvAsFloat("MIN_PRICE_USD", 0.0000001),
			MaxPriceUSD:        getEnvAsFloat("MAX_PRICE_USD", 10),
			MaxLastTradeAge:    getEnvAsDuration("MAX_LAST_TRADE_AGE", time.Hour),
			MinVolume24hUSD:    getEnvAsFloat("MIN_VOLUME_24H_USD", 5000),
			MinVolumeMcapRatio: getEnvAsFloat("MIN_VOLUME_MCAP_RATIO", 0.05),
			MaxPriceChange24h:  getEnvAsFloat("MAX_PRICE_CHANGE_24H", 500),
		},
		Safety: SafetyConfig{
			MinSupply:          getEnvAsFloat("MIN_SUPPLY", 1e6),
			MaxSupply:          getEnvAsFloat("MAX_SUPPLY", 1e12),
			MaxRoundTripImpact: getEnvAsFloat("MAX_ROUND_TRIP_IMPACT", 50),
			MinRecoveryRatio:   getEnvAsFloat("MIN_RECOVERY_RATIO", 0.5),
			MaxLegImpact:       getEnvAsFloat("MAX_LEG_IMPACT", 20),
			MaxTopHolderShare:  getEnvAsFloat("MAX_TOP_HOLDER_SHARE", 0.3),
		},
		Snipe: SnipeConfig{
			AmountLamports:  getEnvAsUint64("SNIPE_AMOUNT_LAMPORTS", 100_000_000), // 0.1 SOL
			SlippageBps:     getEnvAsInt("SNIPE_SLIPPAGE_BPS", 100),
			MaxPriceImpact:  getEnvAsFloat("SNIPE_MAX_PRICE_IMPACT", 20),
			DryRun:          getEnvAsBool("DRY_RUN", true),
			ConfirmAttempts: getEnvAsInt("CONFIRM_ATTEMPTS", 30),
			ConfirmInterval: getEnvAsDuration("CONFIRM_INTERVAL", 2*time.Second),
		},
		Monitor: MonitorConfig{
			Mode:         getEnv("MONITOR_MODE", "logs"),
			PollInterval: getEnvAsDuration("POLL_INTERVAL", 2*time.Minute),
			SeenCapacity: getEnvAsInt("SEEN_CAPACITY", 100000),
		},
		Status: StatusConfig{
			ListenAddr: getEnv("STATUS_ADDR", ":9090"),
		},
		Files: FilesConfig{
			PortfolioPath: getEnv("PORTFOLIO_PATH", "portfolio.json"),
			SnipeLogPath:  getEnv("SNIPE_LOG_PATH", "snipe_log.json"),
		},
	}

	return cfg, cfg.validate()
}

// validate checks required keys and threshold sanity.
func (c *Config) validate() error {
	if c.Solana.RPCEndpoint == "" {
		return fmt.Errorf("RPC_ENDPOINT is required")
	}
	if c.Solana.WSEndpoint == "" {
		return fmt.Errorf("WS_ENDPOINT is required")
	}
	if c.Wallet.Secret == "" && !c.Snipe.DryRun {
		return fmt.Errorf("WALLET_SECRET is required unless DRY_RUN=true")
	}
	if c.Filter.MinMarketCapUSD >= c.Filter.MaxMarketCapUSD {
		return fmt.Errorf("market cap band is empty: min %.0f >= max %.0f",
			c.Filter.MinMarketCapUSD, c.Filter.MaxMarketCapUSD)
	}
	if c.Filter.MinPriceUSD >= c.Filter.MaxPriceUSD {
		return fmt.Errorf("price band is empty: min %g >= max %g",
			c.Filter.MinPriceUSD, c.Filter.MaxPriceUSD)
	}
	if c.Monitor.Mode != "logs" && c.Monitor.Mode != "account" {
		return fmt.Errorf("MONITOR_MODE must be logs or account, got %q", c.Monitor.Mode)
	}
	if c.Snipe.SlippageBps <= 0 || c.Snipe.SlippageBps > 10000 {
		return fmt.Errorf("SNIPE_SLIPPAGE_BPS must be in (0, 10000], got %d", c.Snipe.SlippageBps)
	}
	return nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsUint64 gets an environment variable as a uint64 with a default value.
func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
