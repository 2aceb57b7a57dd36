package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/storage"
)

func sampleRecord(attemptID, mint string, timestamp int64) *domain.SnipeRecord {
	return &domain.SnipeRecord{
		AttemptID:      attemptID,
		Timestamp:      timestamp,
		Mint:           mint,
		Symbol:         "NEWT",
		Name:           "New Token",
		PoolID:         "pool123",
		Method:         domain.MethodLogs,
		PriceUSD:       0.01,
		SpentLamports:  100000000,
		TokensReceived: 5000000,
		TxSignature:    "sig123",
		DryRun:         true,
	}
}

func TestSnipeStore_InsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnipeStore(pool)
	ctx := context.Background()

	r := sampleRecord("abc123", "mint123", 1704067200000)
	require.NoError(t, store.Insert(ctx, r))

	got, err := store.GetByAttemptID(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, r.AttemptID, got.AttemptID)
	assert.Equal(t, r.Mint, got.Mint)
	assert.Equal(t, r.Symbol, got.Symbol)
	assert.Equal(t, r.Method, got.Method)
	assert.Equal(t, r.SpentLamports, got.SpentLamports)
	assert.Equal(t, r.TokensReceived, got.TokensReceived)
	assert.Equal(t, r.TxSignature, got.TxSignature)
	assert.True(t, got.DryRun)
}

func TestSnipeStore_Duplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnipeStore(pool)
	ctx := context.Background()

	r := sampleRecord("abc123", "mint123", 1704067200000)
	require.NoError(t, store.Insert(ctx, r))

	err := store.Insert(ctx, r)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnipeStore_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnipeStore(pool)

	_, err := store.GetByAttemptID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnipeStore_QueriesAndHasMint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnipeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleRecord("a1", "mintA", 1000)))
	require.NoError(t, store.Insert(ctx, sampleRecord("a2", "mintA", 2000)))
	require.NoError(t, store.Insert(ctx, sampleRecord("b1", "mintB", 1500)))

	byMint, err := store.GetByMint(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, byMint, 2)
	assert.Equal(t, "a1", byMint[0].AttemptID)
	assert.Equal(t, "a2", byMint[1].AttemptID)

	byRange, err := store.GetByTimeRange(ctx, 1000, 1500)
	require.NoError(t, err)
	require.Len(t, byRange, 2)

	has, err := store.HasMint(ctx, "mintB")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasMint(ctx, "mintC")
	require.NoError(t, err)
	assert.False(t, has)
}
