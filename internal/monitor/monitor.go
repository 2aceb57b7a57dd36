// Package monitor watches the Raydium AMM v4 program for newly created
// liquidity pools and emits PoolCandidate values.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/solana"
)

// RaydiumAMMV4 is the Raydium AMM v4 program ID.
const RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// initMarker is the log substring emitted by the AMM v4 pool
// initialization instruction.
const initMarker = "initialize2"

// Raydium AMM v4 initialize2 instruction account layout.
// The instruction carries 21 accounts; the monitor reads three of them.
const (
	initAccountCount   = 21
	initAmmIDIndex     = 4
	initBaseMintIndex  = 8
	initQuoteMintIndex = 9
)

// Mode selects the detection transport.
type Mode string

const (
	// ModeLogs subscribes to program logs and resolves pool accounts
	// through a follow-up transaction lookup.
	ModeLogs Mode = "logs"
	// ModeAccount subscribes to AMM state account changes and decodes the
	// pool state directly.
	ModeAccount Mode = "account"
)

// Options configures a Monitor.
type Options struct {
	WS  solana.WSClient
	RPC solana.RPCClient
	// Mode selects logs or account detection; modes are mutually exclusive.
	Mode Mode
	// QuoteMint filters account-mode pools by quote mint (default WSOL).
	QuoteMint string
	// SeenCapacity bounds the dedupe set (default 100000).
	SeenCapacity int
	// Buffer is the candidate channel buffer size (default 256).
	Buffer int
	Logger *log.Logger
}

// Monitor detects new pools and delivers candidates on a channel.
// At most one candidate is emitted per distinct transaction signature or
// pool account per process lifetime (best effort, bounded by SeenCapacity).
type Monitor struct {
	ws        solana.WSClient
	rpc       solana.RPCClient
	mode      Mode
	quoteMint string
	seen      *SeenSet
	out       chan domain.PoolCandidate
	startedAt time.Time
	logger    *log.Logger
}

// New creates a pool monitor.
func New(opts Options) *Monitor {
	quoteMint := opts.QuoteMint
	if quoteMint == "" {
		quoteMint = solana.WSOL
	}
	seenCapacity := opts.SeenCapacity
	if seenCapacity == 0 {
		seenCapacity = 100000
	}
	buffer := opts.Buffer
	if buffer == 0 {
		buffer = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Monitor{
		ws:        opts.WS,
		rpc:       opts.RPC,
		mode:      opts.Mode,
		quoteMint: quoteMint,
		seen:      NewSeenSet(seenCapacity),
		out:       make(chan domain.PoolCandidate, buffer),
		logger:    logger,
	}
}

// Candidates returns the output channel. Closed when Run returns.
func (m *Monitor) Candidates() <-chan domain.PoolCandidate {
	return m.out
}

// SeenCount reports the current dedupe set size.
func (m *Monitor) SeenCount() int {
	return m.seen.Len()
}

// Run subscribes and processes events until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.out)
	m.startedAt = time.Now()

	switch m.mode {
	case ModeLogs:
		return m.runLogs(ctx)
	case ModeAccount:
		return m.runAccounts(ctx)
	default:
		return fmt.Errorf("unknown monitor mode %q", m.mode)
	}
}

// runLogs consumes the logsSubscribe stream. Subscription uses finalized
// commitment: certainty over latency for pool creation events.
func (m *Monitor) runLogs(ctx context.Context) error {
	ch, err := m.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions:   []string{RaydiumAMMV4},
		Commitment: solana.CommitmentFinalized,
	})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}

	m.logger.Printf("Monitoring %s logs for pool initialization", RaydiumAMMV4)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-ch:
			if !ok {
				return fmt.Errorf("log subscription closed")
			}
			m.handleLogEvent(ctx, notif)
		}
	}
}

// handleLogEvent processes one log notification.
func (m *Monitor) handleLogEvent(ctx context.Context, notif solana.LogNotification) {
	if notif.Err != nil {
		// Failed transactions cannot have created a pool.
		return
	}
	if m.seen.Seen(notif.Signature) {
		return
	}
	if !containsInitMarker(notif.Logs) {
		return
	}

	candidate, err := m.resolveCandidate(ctx, notif.Signature, notif.Slot)
	if err != nil {
		// Dropped, never retried: the next pool is more valuable than this one.
		m.logger.Printf("WARN: drop candidate %s: %v", notif.Signature, err)
		return
	}

	m.emit(ctx, *candidate)
}

// containsInitMarker scans log lines for the pool-initialization marker.
func containsInitMarker(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, initMarker) {
			return true
		}
	}
	return false
}

// resolveCandidate looks up the initialize transaction and extracts pool and
// mint accounts from the initialize2 instruction account list.
func (m *Monitor) resolveCandidate(ctx context.Context, signature string, slot int64) (*domain.PoolCandidate, error) {
	tx, err := m.rpc.GetTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction not found")
	}
	if tx.Message == nil {
		return nil, fmt.Errorf("transaction has no message")
	}

	keys := tx.Message.AccountKeys
	programIdx := indexOf(keys, RaydiumAMMV4)
	if programIdx < 0 {
		return nil, fmt.Errorf("transaction does not reference AMM program")
	}

	for _, ins := range tx.Message.Instructions {
		if ins.ProgramIDIndex != programIdx {
			continue
		}
		// The schema is validated instead of trusting raw positions:
		// a layout change upstream fails loudly here.
		if len(ins.Accounts) < initAccountCount {
			continue
		}

		pool, err := resolveKey(keys, ins.Accounts[initAmmIDIndex])
		if err != nil {
			return nil, err
		}
		baseMint, err := resolveKey(keys, ins.Accounts[initBaseMintIndex])
		if err != nil {
			return nil, err
		}
		quoteMint, err := resolveKey(keys, ins.Accounts[initQuoteMintIndex])
		if err != nil {
			return nil, err
		}

		address := baseMint
		if address == solana.WSOL {
			address = quoteMint
		}

		return &domain.PoolCandidate{
			Address:     address,
			PoolID:      pool,
			BaseMint:    baseMint,
			QuoteMint:   quoteMint,
			Method:      domain.MethodLogs,
			TxSignature: signature,
			Slot:        slot,
			DetectedAt:  time.Now().UnixMilli(),
		}, nil
	}

	return nil, fmt.Errorf("no initialize2 instruction with %d accounts", initAccountCount)
}

// runAccounts consumes the programSubscribe stream, decoding AMM state
// accounts and emitting pools whose open time is after monitor start.
func (m *Monitor) runAccounts(ctx context.Context) error {
	ch, err := m.ws.SubscribeProgram(ctx, solana.ProgramFilter{
		Program:    RaydiumAMMV4,
		DataSize:   AmmV4StateLen,
		Memcmp:     []solana.MemcmpFilter{{Offset: AmmV4QuoteMintOffset, Bytes: m.quoteMint}},
		Commitment: solana.CommitmentConfirmed,
	})
	if err != nil {
		return fmt.Errorf("subscribe program: %w", err)
	}

	m.logger.Printf("Monitoring %s state accounts (quote mint %s)", RaydiumAMMV4, m.quoteMint)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-ch:
			if !ok {
				return fmt.Errorf("program subscription closed")
			}
			m.handleAccountEvent(ctx, notif)
		}
	}
}

// handleAccountEvent processes one account-change notification.
func (m *Monitor) handleAccountEvent(ctx context.Context, notif solana.ProgramNotification) {
	if m.seen.Seen(notif.Pubkey) {
		return
	}

	state, err := ParsePoolState(notif.Data)
	if err != nil {
		m.logger.Printf("WARN: drop account %s: %v", notif.Pubkey, err)
		return
	}

	// Established pools update their state constantly; only pools that
	// opened after the monitor started are new.
	if state.PoolOpenTime <= 0 || state.PoolOpenTime < m.startedAt.Unix() {
		return
	}

	address := state.BaseMint
	if address == solana.WSOL {
		address = state.QuoteMint
	}

	m.emit(ctx, domain.PoolCandidate{
		Address:    address,
		PoolID:     notif.Pubkey,
		BaseMint:   state.BaseMint,
		QuoteMint:  state.QuoteMint,
		Method:     domain.MethodAccount,
		Slot:       notif.Slot,
		DetectedAt: time.Now().UnixMilli(),
	})
}

// emit delivers a candidate, giving up on context cancellation.
func (m *Monitor) emit(ctx context.Context, c domain.PoolCandidate) {
	select {
	case m.out <- c:
	case <-ctx.Done():
	}
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// resolveKey maps an instruction account index into the account key list.
func resolveKey(keys []string, idx int) (string, error) {
	if idx < 0 || idx >= len(keys) {
		return "", fmt.Errorf("account index %d out of range (%d keys)", idx, len(keys))
	}
	return keys[idx], nil
}
