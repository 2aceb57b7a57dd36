// Package wallet holds the controlling keypair and signs transactions.
package wallet

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// secretKeyLen is the serialized ed25519 keypair length: seed plus public key.
const secretKeyLen = 64

// Wallet is an ed25519 signing keypair.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// New builds a wallet from a base58-encoded 64-byte secret key.
// The embedded public key must match the seed-derived key and be a
// canonical curve point.
func New(secretBase58 string) (*Wallet, error) {
	secret, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, fmt.Errorf("decode wallet secret: %w", err)
	}
	if len(secret) != secretKeyLen {
		return nil, fmt.Errorf("wallet secret must be %d bytes, got %d", secretKeyLen, len(secret))
	}

	priv := ed25519.NewKeyFromSeed(secret[:32])
	pub := priv.Public().(ed25519.PublicKey)
	if !bytes.Equal(pub, secret[32:]) {
		return nil, fmt.Errorf("wallet secret public key half does not match seed")
	}

	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("wallet public key is not a valid curve point: %w", err)
	}

	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// PublicKey returns the base58-encoded public key.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// Sign signs message with the wallet's private key.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}
