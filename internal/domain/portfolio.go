package domain

// PortfolioEntry mirrors a SnipeRecord plus mutable valuation fields
// refreshed by the on-demand viewer.
type PortfolioEntry struct {
	SnipeRecord
	CurrentPrice float64 `json:"currentPrice"`
	CurrentValue float64 `json:"currentValue"`
	ProfitLoss   float64 `json:"profitLoss"` // percent relative to entry
}

// Portfolio is the whole-document portfolio state persisted to disk.
type Portfolio struct {
	Tokens        []PortfolioEntry `json:"tokens"`
	TotalInvested float64          `json:"totalInvested"` // SOL
	TotalValue    float64          `json:"totalValue"`    // USD
	LastUpdated   int64            `json:"lastUpdated"`   // Unix milliseconds
}
