package domain

// DryRunSignature is the placeholder signature recorded for simulated buys.
const DryRunSignature = "DRY_RUN_SIMULATION"

// SnipeRecord is the immutable record of one executed (or simulated) buy.
// Append-only: written once, never mutated.
type SnipeRecord struct {
	AttemptID      string          `json:"attemptId"` // deterministic hash, see idhash
	Timestamp      int64           `json:"timestamp"` // Unix milliseconds
	Mint           string          `json:"mint"`
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	PoolID         string          `json:"poolId"`
	Method         DetectionMethod `json:"method"`
	PriceUSD       float64         `json:"priceUsd"`       // entry price snapshot
	SpentLamports  uint64          `json:"spentLamports"`  // notional spent (lamports)
	TokensReceived uint64          `json:"tokensReceived"` // raw token amount out
	TxSignature    string          `json:"txSignature"`    // DryRunSignature when simulated
	DryRun         bool            `json:"dryRun"`
}
