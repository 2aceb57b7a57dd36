package executor

import (
	"encoding/base64"
	"fmt"
)

// Transaction version markers. Legacy messages start with the number of
// required signatures; versioned messages set the high bit of the first byte.
const (
	versionLegacy = -1
	versionV0     = 0

	signatureLen = 64
	versionedBit = 0x80
)

// envelope is a wire-format Solana transaction: a compact array of
// signatures followed by the message bytes. The message is kept opaque;
// signing only needs its raw bytes.
type envelope struct {
	Signatures [][]byte
	Message    []byte
	Version    int
}

// decodeEnvelope parses a base64 serialized transaction, accepting both
// legacy and versioned (v0) message encodings.
func decodeEnvelope(txBase64 string) (*envelope, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return nil, fmt.Errorf("decode transaction base64: %w", err)
	}

	numSigs, offset, err := decodeCompactU16(raw)
	if err != nil {
		return nil, fmt.Errorf("decode signature count: %w", err)
	}
	if numSigs == 0 {
		return nil, fmt.Errorf("transaction has no signature slots")
	}
	if offset+numSigs*signatureLen > len(raw) {
		return nil, fmt.Errorf("transaction truncated: %d signatures in %d bytes", numSigs, len(raw))
	}

	sigs := make([][]byte, numSigs)
	for i := range sigs {
		sigs[i] = raw[offset : offset+signatureLen]
		offset += signatureLen
	}

	message := raw[offset:]
	if len(message) == 0 {
		return nil, fmt.Errorf("transaction has no message")
	}

	version := versionLegacy
	if message[0]&versionedBit != 0 {
		version = int(message[0] &^ versionedBit)
		if version != versionV0 {
			return nil, fmt.Errorf("unsupported transaction version %d", version)
		}
	}

	return &envelope{Signatures: sigs, Message: message, Version: version}, nil
}

// sign places signature in the fee-payer slot.
func (e *envelope) sign(signature []byte) error {
	if len(signature) != signatureLen {
		return fmt.Errorf("signature must be %d bytes, got %d", signatureLen, len(signature))
	}
	e.Signatures[0] = signature
	return nil
}

// serialize re-encodes the transaction to base64 wire format.
func (e *envelope) serialize() string {
	out := encodeCompactU16(len(e.Signatures))
	for _, sig := range e.Signatures {
		out = append(out, sig...)
	}
	out = append(out, e.Message...)
	return base64.StdEncoding.EncodeToString(out)
}

// decodeCompactU16 reads a compact-u16 (shortvec) length prefix.
func decodeCompactU16(data []byte) (int, int, error) {
	value := 0
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, fmt.Errorf("truncated compact-u16")
		}
		b := int(data[i])
		value |= (b & 0x7F) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 too long")
}

// encodeCompactU16 writes a compact-u16 (shortvec) length prefix.
func encodeCompactU16(value int) []byte {
	var out []byte
	for {
		b := byte(value & 0x7F)
		value >>= 7
		if value == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
