// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/storage"
)

// SnipeStore is an in-memory implementation of storage.SnipeStore.
type SnipeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SnipeRecord // keyed by attempt_id
}

// NewSnipeStore creates a new in-memory snipe record store.
func NewSnipeStore() *SnipeStore {
	return &SnipeStore{
		data: make(map[string]*domain.SnipeRecord),
	}
}

// Compile-time interface check.
var _ storage.SnipeStore = (*SnipeStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if attempt_id exists.
func (s *SnipeStore) Insert(_ context.Context, r *domain.SnipeRecord) error {
	if r == nil || r.AttemptID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.AttemptID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[r.AttemptID] = &recordCopy
	return nil
}

// GetByAttemptID retrieves a record by attempt ID. Returns ErrNotFound if not exists.
func (s *SnipeStore) GetByAttemptID(_ context.Context, attemptID string) (*domain.SnipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[attemptID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetByMint retrieves all records for a mint, ordered by timestamp ASC.
func (s *SnipeStore) GetByMint(_ context.Context, mint string) ([]*domain.SnipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.SnipeRecord
	for _, r := range s.data {
		if r.Mint == mint {
			recordCopy := *r
			records = append(records, &recordCopy)
		}
	}
	sortRecords(records)
	return records, nil
}

// GetByTimeRange retrieves records within [start, end] inclusive.
func (s *SnipeStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SnipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.SnipeRecord
	for _, r := range s.data {
		if r.Timestamp >= start && r.Timestamp <= end {
			recordCopy := *r
			records = append(records, &recordCopy)
		}
	}
	sortRecords(records)
	return records, nil
}

// HasMint reports whether any record exists for mint.
func (s *SnipeStore) HasMint(_ context.Context, mint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data {
		if r.Mint == mint {
			return true, nil
		}
	}
	return false, nil
}

func sortRecords(records []*domain.SnipeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp < records[j].Timestamp
		}
		return records[i].AttemptID < records[j].AttemptID
	})
}
