package idhash

import (
	"testing"

	"solana-pool-sniper/internal/domain"
)

func TestComputeAttemptID(t *testing.T) {
	tests := []struct {
		name        string
		mint        string
		pool        string
		method      domain.DetectionMethod
		txSignature string
		slot        int64
	}{
		{
			name:        "logs detection",
			mint:        "TokenMint123ABC",
			pool:        "PoolAddr456DEF",
			method:      domain.MethodLogs,
			txSignature: "TxSig789GHI",
			slot:        12345678,
		},
		{
			name:        "polling detection without signature",
			mint:        "TokenMint123ABC",
			pool:        "PoolAddr456DEF",
			method:      domain.MethodPolling,
			txSignature: "",
			slot:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAttemptID(tt.mint, tt.pool, tt.method, tt.txSignature, tt.slot)
			if len(got) != 64 {
				t.Errorf("ComputeAttemptID() length = %d, want 64", len(got))
			}

			// Same input must produce same id
			again := ComputeAttemptID(tt.mint, tt.pool, tt.method, tt.txSignature, tt.slot)
			if got != again {
				t.Error("ComputeAttemptID() is not deterministic")
			}
		})
	}
}

func TestComputeAttemptID_Uniqueness(t *testing.T) {
	base := ComputeAttemptID("MintA", "PoolA", domain.MethodLogs, "SigA", 100)

	variants := []string{
		ComputeAttemptID("MintB", "PoolA", domain.MethodLogs, "SigA", 100),
		ComputeAttemptID("MintA", "PoolB", domain.MethodLogs, "SigA", 100),
		ComputeAttemptID("MintA", "PoolA", domain.MethodAccount, "SigA", 100),
		ComputeAttemptID("MintA", "PoolA", domain.MethodLogs, "SigB", 100),
		ComputeAttemptID("MintA", "PoolA", domain.MethodLogs, "SigA", 101),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}
