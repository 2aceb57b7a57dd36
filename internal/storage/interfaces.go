package storage

import (
	"context"

	"solana-pool-sniper/internal/domain"
)

// SnipeStore provides access to snipe_records storage.
type SnipeStore interface {
	// Insert adds a new snipe record. Returns ErrDuplicateKey if attempt_id exists.
	Insert(ctx context.Context, r *domain.SnipeRecord) error

	// GetByAttemptID retrieves a record by its attempt ID. Returns ErrNotFound if not exists.
	GetByAttemptID(ctx context.Context, attemptID string) (*domain.SnipeRecord, error)

	// GetByMint retrieves all records for a given mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.SnipeRecord, error)

	// GetByTimeRange retrieves records within [start, end] milliseconds (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SnipeRecord, error)

	// HasMint reports whether any record exists for mint.
	HasMint(ctx context.Context, mint string) (bool, error)
}
