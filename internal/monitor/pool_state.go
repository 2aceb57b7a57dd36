package monitor

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Raydium AMM v4 liquidity state account layout constants.
// The account is a fixed 752-byte structure; the fields below are the only
// ones the monitor reads. Offsets are part of the on-chain program ABI.
const (
	ammV4StateLen = 752

	ammV4StatusOffset       = 0   // u64
	ammV4BaseDecimalOffset  = 32  // u64
	ammV4QuoteDecimalOffset = 40  // u64
	ammV4PoolOpenTimeOffset = 224 // u64, unix seconds
	ammV4BaseMintOffset     = 400 // pubkey
	ammV4QuoteMintOffset    = 432 // pubkey
)

// AmmV4QuoteMintOffset is exported for building memcmp subscription filters.
const AmmV4QuoteMintOffset = ammV4QuoteMintOffset

// AmmV4StateLen is exported for building dataSize subscription filters.
const AmmV4StateLen = ammV4StateLen

// PoolState is the subset of the AMM v4 state the monitor inspects.
type PoolState struct {
	Status        uint64
	BaseDecimals  uint64
	QuoteDecimals uint64
	PoolOpenTime  int64 // unix seconds
	BaseMint      string
	QuoteMint     string
}

// ParsePoolState decodes a base64 AMM v4 liquidity state account.
// Undersized data is a decode error, never silently misread.
func ParsePoolState(data string) (*PoolState, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode pool state data: %w", err)
	}
	if len(decoded) != ammV4StateLen {
		return nil, fmt.Errorf("unexpected pool state length %d, want %d", len(decoded), ammV4StateLen)
	}

	return &PoolState{
		Status:        binary.LittleEndian.Uint64(decoded[ammV4StatusOffset:]),
		BaseDecimals:  binary.LittleEndian.Uint64(decoded[ammV4BaseDecimalOffset:]),
		QuoteDecimals: binary.LittleEndian.Uint64(decoded[ammV4QuoteDecimalOffset:]),
		PoolOpenTime:  int64(binary.LittleEndian.Uint64(decoded[ammV4PoolOpenTimeOffset:])),
		BaseMint:      base58.Encode(decoded[ammV4BaseMintOffset : ammV4BaseMintOffset+32]),
		QuoteMint:     base58.Encode(decoded[ammV4QuoteMintOffset : ammV4QuoteMintOffset+32]),
	}, nil
}
