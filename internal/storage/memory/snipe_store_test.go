package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/storage"
)

func sampleRecord(attemptID, mint string, timestamp int64) *domain.SnipeRecord {
	return &domain.SnipeRecord{
		AttemptID:      attemptID,
		Timestamp:      timestamp,
		Mint:           mint,
		Symbol:         "NEWT",
		PoolID:         "pool123",
		Method:         domain.MethodLogs,
		PriceUSD:       0.01,
		SpentLamports:  100000000,
		TokensReceived: 5000000,
		TxSignature:    "sig123",
	}
}

func TestSnipeStore_InsertAndGet(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	r := sampleRecord("abc123", "mint123", 1704067200000)

	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByAttemptID(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetByAttemptID failed: %v", err)
	}

	if got.AttemptID != r.AttemptID {
		t.Errorf("AttemptID mismatch: got %s, want %s", got.AttemptID, r.AttemptID)
	}
	if got.Mint != r.Mint {
		t.Errorf("Mint mismatch: got %s, want %s", got.Mint, r.Mint)
	}
	if got.TokensReceived != r.TokensReceived {
		t.Errorf("TokensReceived mismatch: got %d, want %d", got.TokensReceived, r.TokensReceived)
	}
}

func TestSnipeStore_DuplicateKey(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	r := sampleRecord("abc123", "mint123", 1704067200000)

	if err := store.Insert(ctx, r); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	err := store.Insert(ctx, r)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSnipeStore_InvalidInput(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SnipeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty attempt id, got %v", err)
	}
}

func TestSnipeStore_NotFound(t *testing.T) {
	store := NewSnipeStore()

	_, err := store.GetByAttemptID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSnipeStore_GetByMint(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleRecord("a2", "mintA", 2000))
	store.Insert(ctx, sampleRecord("a1", "mintA", 1000))
	store.Insert(ctx, sampleRecord("b1", "mintB", 1500))

	records, err := store.GetByMint(ctx, "mintA")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].AttemptID != "a1" || records[1].AttemptID != "a2" {
		t.Errorf("expected timestamp ordering, got %s, %s", records[0].AttemptID, records[1].AttemptID)
	}
}

func TestSnipeStore_GetByTimeRange(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleRecord("a1", "mintA", 1000))
	store.Insert(ctx, sampleRecord("a2", "mintA", 2000))
	store.Insert(ctx, sampleRecord("a3", "mintA", 3000))

	records, err := store.GetByTimeRange(ctx, 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records in range (inclusive), got %d", len(records))
	}
}

func TestSnipeStore_HasMint(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	store.Insert(ctx, sampleRecord("a1", "mintA", 1000))

	has, err := store.HasMint(ctx, "mintA")
	if err != nil || !has {
		t.Errorf("expected HasMint true, got %v, %v", has, err)
	}
	has, err = store.HasMint(ctx, "mintB")
	if err != nil || has {
		t.Errorf("expected HasMint false, got %v, %v", has, err)
	}
}

func TestSnipeStore_InsertCopies(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	r := sampleRecord("a1", "mintA", 1000)
	store.Insert(ctx, r)
	r.Mint = "mutated"

	got, err := store.GetByAttemptID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByAttemptID failed: %v", err)
	}
	if got.Mint != "mintA" {
		t.Errorf("store leaked caller mutation: %s", got.Mint)
	}
}

func TestSnipeStore_ConcurrentInserts(t *testing.T) {
	store := NewSnipeStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r := sampleRecord(fmt.Sprintf("id-%d", n), "mintA", int64(n))
			if err := store.Insert(ctx, r); err != nil {
				t.Errorf("Insert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	records, err := store.GetByMint(ctx, "mintA")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(records) != 20 {
		t.Errorf("expected 20 records, got %d", len(records))
	}
}
