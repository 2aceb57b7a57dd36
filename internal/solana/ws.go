package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to program logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// SubscribeProgram subscribes to account changes owned by a program.
	SubscribeProgram(ctx context.Context, filter ProgramFilter) (<-chan ProgramNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogsFilter defines subscription filter for logsSubscribe.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
	// Commitment for the subscription; defaults to finalized.
	Commitment Commitment
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// MemcmpFilter matches account data bytes at a fixed offset.
type MemcmpFilter struct {
	Offset uint64
	Bytes  string // base58 encoded
}

// ProgramFilter defines subscription filter for programSubscribe.
type ProgramFilter struct {
	// Program is the owning program ID.
	Program string
	// DataSize filters accounts by exact data length (0 disables).
	DataSize uint64
	// Memcmp filters account data at fixed offsets.
	Memcmp []MemcmpFilter
	// Commitment for the subscription; defaults to confirmed.
	Commitment Commitment
}

// ProgramNotification represents an account change under a program subscription.
type ProgramNotification struct {
	Pubkey   string
	Slot     int64
	Lamports uint64
	Owner    string
	Data     string // base64 encoded
}
