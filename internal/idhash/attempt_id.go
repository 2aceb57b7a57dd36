package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-pool-sniper/internal/domain"
)

// ComputeAttemptID computes a deterministic snipe attempt id using SHA256.
// Formula: SHA256(mint|pool|method|tx_signature|slot)
// Returns hex-encoded hash (64 characters).
func ComputeAttemptID(
	mint string,
	pool string,
	method domain.DetectionMethod,
	txSignature string,
	slot int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		mint,
		pool,
		string(method),
		txSignature,
		slot,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
