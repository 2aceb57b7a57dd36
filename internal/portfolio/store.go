// Package portfolio persists snipe records and portfolio state to flat
// JSON files. All writes funnel through one mutex-owned Store, and files
// are replaced atomically via temp-file rename, so concurrent callers
// cannot clobber each other's updates.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"solana-pool-sniper/internal/domain"
)

// lamportsPerSOL converts raw lamport amounts to SOL.
const lamportsPerSOL = 1_000_000_000

// Store owns the portfolio and snipe-log files.
type Store struct {
	mu            sync.Mutex
	portfolioPath string
	snipeLogPath  string
}

// NewStore creates a file-backed portfolio store.
func NewStore(portfolioPath, snipeLogPath string) *Store {
	return &Store{
		portfolioPath: portfolioPath,
		snipeLogPath:  snipeLogPath,
	}
}

// Load reads the portfolio document. A missing file yields an empty
// portfolio rather than an error.
func (s *Store) Load() (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*domain.Portfolio, error) {
	data, err := os.ReadFile(s.portfolioPath)
	if os.IsNotExist(err) {
		return &domain.Portfolio{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}

	var p domain.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal portfolio: %w", err)
	}
	return &p, nil
}

// Record appends record to the snipe log and adds a matching portfolio
// entry. The portfolio file reflects the append before Record returns.
func (s *Store) Record(record domain.SnipeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appendSnipeLocked(record); err != nil {
		return err
	}

	p, err := s.loadLocked()
	if err != nil {
		return err
	}

	p.Tokens = append(p.Tokens, domain.PortfolioEntry{
		SnipeRecord:  record,
		CurrentPrice: record.PriceUSD,
		CurrentValue: record.PriceUSD * float64(record.TokensReceived),
	})
	p.TotalInvested += float64(record.SpentLamports) / lamportsPerSOL
	p.LastUpdated = time.Now().UnixMilli()

	return s.writeJSONLocked(s.portfolioPath, p)
}

// UpdateValuations rewrites mutable valuation fields using current prices.
// Entries without a price stay unchanged.
func (s *Store) UpdateValuations(prices map[string]float64) (*domain.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return nil, err
	}

	total := 0.0
	for i := range p.Tokens {
		entry := &p.Tokens[i]
		if price, ok := prices[entry.Mint]; ok {
			entry.CurrentPrice = price
			entry.CurrentValue = price * float64(entry.TokensReceived)
			if entry.PriceUSD > 0 {
				entry.ProfitLoss = (price - entry.PriceUSD) / entry.PriceUSD * 100
			}
		}
		total += entry.CurrentValue
	}
	p.TotalValue = total
	p.LastUpdated = time.Now().UnixMilli()

	if err := s.writeJSONLocked(s.portfolioPath, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SnipeLog reads the append-only snipe log. Missing file yields empty.
func (s *Store) SnipeLog() ([]domain.SnipeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snipeLogLocked()
}

func (s *Store) snipeLogLocked() ([]domain.SnipeRecord, error) {
	data, err := os.ReadFile(s.snipeLogPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snipe log: %w", err)
	}

	var records []domain.SnipeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal snipe log: %w", err)
	}
	return records, nil
}

func (s *Store) appendSnipeLocked(record domain.SnipeRecord) error {
	records, err := s.snipeLogLocked()
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.writeJSONLocked(s.snipeLogPath, records)
}

// writeJSONLocked writes v to path through a temp file plus rename, so a
// crash mid-write never leaves a truncated document.
func (s *Store) writeJSONLocked(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
