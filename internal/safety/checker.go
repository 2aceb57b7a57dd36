// Package safety runs on-chain and quote-based safety checks against a
// token mint before any buy attempt.
package safety

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/jupiter"
	"solana-pool-sniper/internal/solana"
)

// allowedDecimals are the SPL mint decimal counts accepted by the supply check.
var allowedDecimals = map[int]bool{6: true, 8: true, 9: true}

// honeypotProbeLamports is the notional WSOL amount for the buy/sell
// round-trip probe.
const honeypotProbeLamports = 10_000_000 // 0.01 SOL

// honeypotSlippageBps is the slippage tolerance for probe quotes.
const honeypotSlippageBps = 500

// Options configures a Checker.
type Options struct {
	RPC    solana.RPCClient
	Swap   jupiter.Client
	Config config.SafetyConfig
	Logger *log.Logger
}

// Checker runs the five safety checks in fixed order.
type Checker struct {
	rpc    solana.RPCClient
	swap   jupiter.Client
	cfg    config.SafetyConfig
	logger *log.Logger
}

// NewChecker creates a safety checker.
func NewChecker(opts Options) *Checker {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{
		rpc:    opts.RPC,
		swap:   opts.Swap,
		cfg:    opts.Config,
		logger: logger,
	}
}

// Check runs the checks in order, stopping at the first failure.
// Transport errors fail the check they occur in (fail-closed).
// Order: mint authority, freeze authority, supply, honeypot, holders.
func (c *Checker) Check(ctx context.Context, mint string) *domain.SafetyReport {
	report := &domain.SafetyReport{Mint: mint}

	checks := []func(context.Context, string) domain.CheckResult{
		c.checkMintAuthority,
		c.checkFreezeAuthority,
		c.checkSupply,
		c.checkHoneypot,
		c.checkHolders,
	}

	for _, check := range checks {
		result := check(ctx, mint)
		report.Checks = append(report.Checks, result)
		if !result.Pass {
			c.logger.Printf("Safety check %s failed for %s: %s", result.Name, mint, result.Reason)
			return report
		}
	}

	report.Pass = true
	return report
}

// loadMint fetches and decodes the SPL mint account.
func (c *Checker) loadMint(ctx context.Context, mint string) (*solana.MintAccount, error) {
	info, err := c.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("mint account not found")
	}
	account, err := solana.ParseMintAccount(info.Data)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// checkMintAuthority requires the mint authority to be renounced.
func (c *Checker) checkMintAuthority(ctx context.Context, mint string) domain.CheckResult {
	account, err := c.loadMint(ctx, mint)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckMintAuthority,
			Reason: fmt.Sprintf("mint lookup failed: %v", err),
		}
	}
	if account.MintAuthority != "" {
		return domain.CheckResult{
			Name:   domain.CheckMintAuthority,
			Reason: fmt.Sprintf("mint authority not renounced (%s)", account.MintAuthority),
		}
	}
	return domain.CheckResult{Name: domain.CheckMintAuthority, Pass: true, Reason: "mint authority renounced"}
}

// checkFreezeAuthority requires no freeze authority.
func (c *Checker) checkFreezeAuthority(ctx context.Context, mint string) domain.CheckResult {
	account, err := c.loadMint(ctx, mint)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckFreezeAuthority,
			Reason: fmt.Sprintf("mint lookup failed: %v", err),
		}
	}
	if account.FreezeAuthority != "" {
		return domain.CheckResult{
			Name:   domain.CheckFreezeAuthority,
			Reason: fmt.Sprintf("freeze authority set (%s)", account.FreezeAuthority),
		}
	}
	return domain.CheckResult{Name: domain.CheckFreezeAuthority, Pass: true, Reason: "no freeze authority"}
}

// checkSupply requires decimals in {6, 8, 9} and scaled supply within the
// configured band.
func (c *Checker) checkSupply(ctx context.Context, mint string) domain.CheckResult {
	supply, err := c.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckSupply,
			Reason: fmt.Sprintf("supply lookup failed: %v", err),
		}
	}

	if !allowedDecimals[supply.Decimals] {
		return domain.CheckResult{
			Name:   domain.CheckSupply,
			Reason: fmt.Sprintf("unusual decimals %d", supply.Decimals),
		}
	}

	raw, err := strconv.ParseFloat(supply.Amount, 64)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckSupply,
			Reason: fmt.Sprintf("unparseable supply %q", supply.Amount),
		}
	}
	scaled := raw / math.Pow10(supply.Decimals)

	if scaled < c.cfg.MinSupply || scaled > c.cfg.MaxSupply {
		return domain.CheckResult{
			Name:   domain.CheckSupply,
			Reason: fmt.Sprintf("supply %.0f outside [%.0f, %.0f]", scaled, c.cfg.MinSupply, c.cfg.MaxSupply),
		}
	}

	return domain.CheckResult{
		Name:   domain.CheckSupply,
		Pass:   true,
		Reason: fmt.Sprintf("supply %.0f, decimals %d", scaled, supply.Decimals),
	}
}

// checkHoneypot probes a buy quote then a sell quote of the buy's output.
// A token that quotes a buy but not a sell, or loses most of its value on
// the round trip, cannot be exited.
func (c *Checker) checkHoneypot(ctx context.Context, mint string) domain.CheckResult {
	buy, err := c.swap.Quote(ctx, solana.WSOL, mint, honeypotProbeLamports, honeypotSlippageBps)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("buy quote failed: %v", err),
		}
	}
	if buy.OutAmount == 0 {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: "buy quote returned zero output",
		}
	}
	if buy.PriceImpactPct > c.cfg.MaxLegImpact {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("buy price impact %.2f%% exceeds %.2f%%", buy.PriceImpactPct, c.cfg.MaxLegImpact),
		}
	}

	sell, err := c.swap.Quote(ctx, mint, solana.WSOL, buy.OutAmount, honeypotSlippageBps)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("sell quote failed, token may not be sellable: %v", err),
		}
	}
	if sell.OutAmount == 0 {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: "sell quote returned zero output, cannot sell token",
		}
	}
	if sell.PriceImpactPct > c.cfg.MaxLegImpact {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("sell price impact %.2f%% exceeds %.2f%%", sell.PriceImpactPct, c.cfg.MaxLegImpact),
		}
	}

	roundTripImpact := buy.PriceImpactPct + sell.PriceImpactPct
	if roundTripImpact > c.cfg.MaxRoundTripImpact {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("round-trip price impact %.2f%% exceeds %.2f%%", roundTripImpact, c.cfg.MaxRoundTripImpact),
		}
	}

	recovery := float64(sell.OutAmount) / float64(honeypotProbeLamports)
	if recovery < c.cfg.MinRecoveryRatio {
		return domain.CheckResult{
			Name:   domain.CheckHoneypot,
			Reason: fmt.Sprintf("round trip recovers only %.0f%% of input", recovery*100),
		}
	}

	return domain.CheckResult{
		Name:   domain.CheckHoneypot,
		Pass:   true,
		Reason: fmt.Sprintf("round trip recovers %.0f%% of input", recovery*100),
	}
}

// checkHolders requires the largest token account to hold no more than the
// configured fraction of total supply.
func (c *Checker) checkHolders(ctx context.Context, mint string) domain.CheckResult {
	supply, err := c.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: fmt.Sprintf("supply lookup failed: %v", err),
		}
	}
	total, err := strconv.ParseFloat(supply.Amount, 64)
	if err != nil || total <= 0 {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: fmt.Sprintf("unusable supply %q", supply.Amount),
		}
	}

	accounts, err := c.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: fmt.Sprintf("holder lookup failed: %v", err),
		}
	}
	if len(accounts) == 0 {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: "no token accounts found",
		}
	}

	// getTokenLargestAccounts returns descending amounts; the first entry
	// is usually the pool vault, still counted against the ceiling.
	top, err := strconv.ParseFloat(accounts[0].Amount, 64)
	if err != nil {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: fmt.Sprintf("unparseable holder amount %q", accounts[0].Amount),
		}
	}

	share := top / total
	if share > c.cfg.MaxTopHolderShare {
		return domain.CheckResult{
			Name:   domain.CheckHolders,
			Reason: fmt.Sprintf("top holder owns %.1f%% of supply (max %.1f%%)", share*100, c.cfg.MaxTopHolderShare*100),
		}
	}

	return domain.CheckResult{
		Name:   domain.CheckHolders,
		Pass:   true,
		Reason: fmt.Sprintf("top holder owns %.1f%% of supply", share*100),
	}
}
