package domain

// TokenMetrics is market data enrichment for a pool candidate.
// Transient: recomputed on each filter pass, never cached.
type TokenMetrics struct {
	Address        string  // token mint address
	Symbol         string  // token symbol (may be empty)
	Name           string  // token name (may be empty)
	Price          float64 // price in USD
	MarketCap      float64 // market capitalization in USD
	Liquidity      float64 // pool liquidity in USD
	Volume24h      float64 // 24-hour volume in USD
	PriceChange24h float64 // 24-hour price change in percent
	LastTradeTime  int64   // Unix timestamp in milliseconds of last trade
}
