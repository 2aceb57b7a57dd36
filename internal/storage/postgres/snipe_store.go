package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/storage"
)

// SnipeStore implements storage.SnipeStore using PostgreSQL.
type SnipeStore struct {
	pool *Pool
}

// NewSnipeStore creates a new SnipeStore.
func NewSnipeStore(pool *Pool) *SnipeStore {
	return &SnipeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnipeStore = (*SnipeStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if attempt_id exists.
func (s *SnipeStore) Insert(ctx context.Context, r *domain.SnipeRecord) error {
	if r == nil || r.AttemptID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO snipe_records (
			attempt_id, ts, mint, symbol, name, pool, method,
			price_usd, spent_lamports, tokens_received, tx_signature, dry_run
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		r.AttemptID,
		r.Timestamp,
		r.Mint,
		r.Symbol,
		r.Name,
		r.PoolID,
		string(r.Method),
		r.PriceUSD,
		int64(r.SpentLamports),
		int64(r.TokensReceived),
		r.TxSignature,
		r.DryRun,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snipe record: %w", err)
	}
	return nil
}

const snipeColumns = `
	attempt_id, ts, mint, symbol, name, pool, method,
	price_usd, spent_lamports, tokens_received, tx_signature, dry_run
`

// GetByAttemptID retrieves a record by attempt ID. Returns ErrNotFound if not exists.
func (s *SnipeStore) GetByAttemptID(ctx context.Context, attemptID string) (*domain.SnipeRecord, error) {
	query := `SELECT ` + snipeColumns + ` FROM snipe_records WHERE attempt_id = $1`

	row := s.pool.QueryRow(ctx, query, attemptID)
	r, err := scanSnipeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snipe record by id: %w", err)
	}
	return r, nil
}

// GetByMint retrieves all records for a mint, ordered by timestamp ASC.
func (s *SnipeStore) GetByMint(ctx context.Context, mint string) ([]*domain.SnipeRecord, error) {
	query := `
		SELECT ` + snipeColumns + `
		FROM snipe_records
		WHERE mint = $1
		ORDER BY ts ASC, attempt_id ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get snipe records by mint: %w", err)
	}
	defer rows.Close()

	return scanSnipeRecords(rows)
}

// GetByTimeRange retrieves records within [start, end] inclusive.
func (s *SnipeStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SnipeRecord, error) {
	query := `
		SELECT ` + snipeColumns + `
		FROM snipe_records
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, attempt_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get snipe records by time range: %w", err)
	}
	defer rows.Close()

	return scanSnipeRecords(rows)
}

// HasMint reports whether any record exists for mint.
func (s *SnipeStore) HasMint(ctx context.Context, mint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM snipe_records WHERE mint = $1)`, mint,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check mint existence: %w", err)
	}
	return exists, nil
}

// scanSnipeRecord scans one row into a SnipeRecord.
func scanSnipeRecord(row pgx.Row) (*domain.SnipeRecord, error) {
	var r domain.SnipeRecord
	var method string
	var spent, received int64

	err := row.Scan(
		&r.AttemptID,
		&r.Timestamp,
		&r.Mint,
		&r.Symbol,
		&r.Name,
		&r.PoolID,
		&method,
		&r.PriceUSD,
		&spent,
		&received,
		&r.TxSignature,
		&r.DryRun,
	)
	if err != nil {
		return nil, err
	}

	r.Method = domain.DetectionMethod(method)
	r.SpentLamports = uint64(spent)
	r.TokensReceived = uint64(received)
	return &r, nil
}

func scanSnipeRecords(rows pgx.Rows) ([]*domain.SnipeRecord, error) {
	var records []*domain.SnipeRecord
	for rows.Next() {
		r, err := scanSnipeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snipe record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snipe records: %w", err)
	}
	return records, nil
}
