package domain

// DetectionMethod identifies which path discovered a pool candidate.
type DetectionMethod string

const (
	// MethodLogs is the logsSubscribe-based detection path.
	MethodLogs DetectionMethod = "LOGS"
	// MethodAccount is the programSubscribe-based detection path.
	MethodAccount DetectionMethod = "ACCOUNT"
	// MethodPolling is the market-data new-listings backup path.
	MethodPolling DetectionMethod = "POLLING"
)

// PoolCandidate represents a newly detected liquidity pool.
// Immutable once constructed; lives only in process memory.
type PoolCandidate struct {
	Address     string          // token mint address (the non-quote side)
	PoolID      string          // AMM pool account address
	BaseMint    string          // pool base mint
	QuoteMint   string          // pool quote mint (WSOL or stable)
	Method      DetectionMethod // how the pool was discovered
	TxSignature string          // discovery transaction signature (empty for polling)
	Slot        int64           // Solana slot of the discovery event
	DetectedAt  int64           // Unix timestamp in milliseconds
}
