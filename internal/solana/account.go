package solana

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// WSOL is the Wrapped SOL mint address.
const WSOL = "So11111111111111111111111111111111111111112"

// TokenProgram is the SPL Token program ID.
const TokenProgram = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// splMintLen is the serialized size of an SPL mint account.
const splMintLen = 82

// MintAccount is the decoded state of an SPL token mint.
type MintAccount struct {
	MintAuthority   string // empty when renounced
	Supply          uint64
	Decimals        int
	Initialized     bool
	FreezeAuthority string // empty when unset
}

// ParseMintAccount decodes base64 SPL mint account data.
// Mint layout: mint_authority COption<Pubkey>(36) | supply u64(8) |
// decimals u8(1) | is_initialized u8(1) | freeze_authority COption<Pubkey>(36)
func ParseMintAccount(data string) (*MintAccount, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint account data: %w", err)
	}
	if len(decoded) < splMintLen {
		return nil, fmt.Errorf("mint account data too short: %d", len(decoded))
	}

	m := &MintAccount{
		Supply:      binary.LittleEndian.Uint64(decoded[36:44]),
		Decimals:    int(decoded[44]),
		Initialized: decoded[45] == 1,
	}

	if binary.LittleEndian.Uint32(decoded[0:4]) == 1 {
		m.MintAuthority = base58.Encode(decoded[4:36])
	}
	if binary.LittleEndian.Uint32(decoded[46:50]) == 1 {
		m.FreezeAuthority = base58.Encode(decoded[50:82])
	}

	return m, nil
}

// TokenAccount is the decoded prefix of an SPL token account.
type TokenAccount struct {
	Mint   string
	Owner  string
	Amount uint64
}

// ParseTokenAccount decodes base64 SPL token account data.
// Token account layout: mint(32) | owner(32) | amount(8) | ...
func ParseTokenAccount(data string) (*TokenAccount, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode token account data: %w", err)
	}
	if len(decoded) < 72 {
		return nil, fmt.Errorf("token account data too short: %d", len(decoded))
	}

	return &TokenAccount{
		Mint:   base58.Encode(decoded[:32]),
		Owner:  base58.Encode(decoded[32:64]),
		Amount: binary.LittleEndian.Uint64(decoded[64:72]),
	}, nil
}
