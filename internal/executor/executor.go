// Package executor turns an approved pool candidate into an on-chain swap.
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/idhash"
	"solana-pool-sniper/internal/jupiter"
	"solana-pool-sniper/internal/solana"
	"solana-pool-sniper/internal/wallet"
)

// maxSlippageBps is the hard ceiling on quoted slippage tolerance.
const maxSlippageBps = 500

// Options configures an Executor.
type Options struct {
	Swap   jupiter.Client
	RPC    solana.RPCClient
	Wallet *wallet.Wallet // may be nil in dry-run mode
	Config config.SnipeConfig
	Logger *log.Logger
}

// Executor executes buy attempts. Per candidate the flow is quote, build,
// decode, sign, submit, confirm; any failure abandons the attempt with no
// retry. Nothing on-chain mutates before the submit step, so no rollback
// is ever needed.
type Executor struct {
	swap   jupiter.Client
	rpc    solana.RPCClient
	wallet *wallet.Wallet
	cfg    config.SnipeConfig
	logger *log.Logger
}

// New creates an executor.
func New(opts Options) (*Executor, error) {
	if !opts.Config.DryRun && opts.Wallet == nil {
		return nil, fmt.Errorf("live mode requires a wallet")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		swap:   opts.Swap,
		rpc:    opts.RPC,
		wallet: opts.Wallet,
		cfg:    opts.Config,
		logger: logger,
	}, nil
}

// Execute runs one buy attempt for candidate and returns the resulting
// record. In dry-run mode the quote, build, and decode steps still run
// (when a wallet is configured) but nothing is signed or submitted and the
// record carries the DryRunSignature placeholder.
func (e *Executor) Execute(ctx context.Context, candidate domain.PoolCandidate, metrics domain.TokenMetrics) (*domain.SnipeRecord, error) {
	quote, err := e.swap.Quote(ctx, solana.WSOL, candidate.Address, e.cfg.AmountLamports, e.cfg.SlippageBps)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	if quote.OutAmount == 0 {
		return nil, fmt.Errorf("quote returned zero output")
	}
	if quote.PriceImpactPct > e.cfg.MaxPriceImpact {
		return nil, fmt.Errorf("price impact %.2f%% exceeds %.2f%%", quote.PriceImpactPct, e.cfg.MaxPriceImpact)
	}
	if quote.SlippageBps > maxSlippageBps {
		return nil, fmt.Errorf("quoted slippage %d bps exceeds %d bps", quote.SlippageBps, maxSlippageBps)
	}

	signature := domain.DryRunSignature

	if e.wallet != nil {
		swapTx, err := e.swap.BuildSwap(ctx, quote, e.wallet.PublicKey())
		if err != nil {
			return nil, fmt.Errorf("build swap: %w", err)
		}

		env, err := decodeEnvelope(swapTx.TxBase64)
		if err != nil {
			return nil, fmt.Errorf("decode swap transaction: %w", err)
		}

		if !e.cfg.DryRun {
			if err := env.sign(e.wallet.Sign(env.Message)); err != nil {
				return nil, fmt.Errorf("sign: %w", err)
			}
			signature, err = e.rpc.SendTransaction(ctx, env.serialize())
			if err != nil {
				return nil, fmt.Errorf("submit: %w", err)
			}
			if err := e.awaitConfirmation(ctx, signature); err != nil {
				return nil, err
			}
		}
	} else {
		// Dry run without a wallet: quote gate only.
		e.logger.Printf("Dry run without wallet, skipping swap build for %s", candidate.Address)
	}

	record := &domain.SnipeRecord{
		AttemptID:      idhash.ComputeAttemptID(candidate.Address, candidate.PoolID, candidate.Method, candidate.TxSignature, candidate.Slot),
		Timestamp:      time.Now().UnixMilli(),
		Mint:           candidate.Address,
		Symbol:         metrics.Symbol,
		Name:           metrics.Name,
		PoolID:         candidate.PoolID,
		Method:         candidate.Method,
		PriceUSD:       metrics.Price,
		SpentLamports:  e.cfg.AmountLamports,
		TokensReceived: quote.OutAmount,
		TxSignature:    signature,
		DryRun:         e.cfg.DryRun,
	}

	e.logger.Printf("Snipe %s (%s): spent %d lamports for %d tokens, signature %s",
		candidate.Address, metrics.Symbol, record.SpentLamports, record.TokensReceived, signature)

	return record, nil
}

// awaitConfirmation polls signature status until confirmed, an on-chain
// error, or attempts run out.
func (e *Executor) awaitConfirmation(ctx context.Context, signature string) error {
	for attempt := 0; attempt < e.cfg.ConfirmAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.ConfirmInterval):
			}
		}

		statuses, err := e.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			e.logger.Printf("WARN: status poll for %s: %v", signature, err)
			continue
		}
		if len(statuses) == 0 || statuses[0] == nil {
			continue
		}
		if statuses[0].Err != nil {
			return fmt.Errorf("transaction %s failed on chain: %v", signature, statuses[0].Err)
		}
		if statuses[0].Confirmed() {
			return nil
		}
	}
	return fmt.Errorf("transaction %s not confirmed after %d attempts", signature, e.cfg.ConfirmAttempts)
}
