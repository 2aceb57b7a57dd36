// Package filter decides snipe eligibility from token market metrics.
package filter

import (
	"fmt"
	"strings"
	"time"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/domain"
)

// excludedMints are well-known tokens that are never snipe targets.
var excludedMints = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj": "stSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// suspiciousSubstrings flag scammy token names and symbols.
var suspiciousSubstrings = []string{
	"test",
	"scam",
	"rug",
	"fake",
	"honeypot",
	"airdrop",
	"free",
}

// CriterionResult is one filter criterion outcome.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// Result is the full filter verdict for one token.
type Result struct {
	Eligible bool
	Criteria []CriterionResult
}

// FailedCriterion returns the first failing criterion, or nil if eligible.
func (r *Result) FailedCriterion() *CriterionResult {
	for i := range r.Criteria {
		if !r.Criteria[i].Pass {
			return &r.Criteria[i]
		}
	}
	return nil
}

// Evaluator evaluates filter criteria against token metrics.
type Evaluator struct {
	cfg config.FilterConfig
	now func() time.Time
}

// NewEvaluator creates a filter evaluator with the given thresholds.
func NewEvaluator(cfg config.FilterConfig) *Evaluator {
	return &Evaluator{cfg: cfg, now: time.Now}
}

// Evaluate produces a Result from TokenMetrics.
// Eligible only if ALL criteria pass; each criterion is independently
// necessary. Pure: no side effects, deterministic given inputs and config.
func (e *Evaluator) Evaluate(m domain.TokenMetrics) *Result {
	criteria := make([]CriterionResult, 0, 9)

	_, excluded := excludedMints[m.Address]
	criteria = append(criteria, CriterionResult{
		Name:      "Not an excluded token",
		Threshold: "address not on exclusion list",
		Actual:    m.Address,
		Pass:      !excluded,
	})

	criteria = append(criteria, CriterionResult{
		Name:      "Liquidity floor",
		Threshold: fmt.Sprintf(">= $%.0f", e.cfg.MinLiquidityUSD),
		Actual:    fmt.Sprintf("$%.2f", m.Liquidity),
		Pass:      m.Liquidity >= e.cfg.MinLiquidityUSD,
	})

	criteria = append(criteria, CriterionResult{
		Name:      "Market cap band",
		Threshold: fmt.Sprintf("$%.0f .. $%.0f", e.cfg.MinMarketCapUSD, e.cfg.MaxMarketCapUSD),
		Actual:    fmt.Sprintf("$%.2f", m.MarketCap),
		Pass:      m.MarketCap >= e.cfg.MinMarketCapUSD && m.MarketCap <= e.cfg.MaxMarketCapUSD,
	})

	criteria = append(criteria, CriterionResult{
		Name:      "Price sanity band",
		Threshold: fmt.Sprintf("$%g .. $%g", e.cfg.MinPriceUSD, e.cfg.MaxPriceUSD),
		Actual:    fmt.Sprintf("$%g", m.Price),
		Pass:      m.Price >= e.cfg.MinPriceUSD && m.Price <= e.cfg.MaxPriceUSD,
	})

	tradeAge := e.now().Sub(time.UnixMilli(m.LastTradeTime))
	criteria = append(criteria, CriterionResult{
		Name:      "Recent trading activity",
		Threshold: fmt.Sprintf("last trade within %s", e.cfg.MaxLastTradeAge),
		Actual:    fmt.Sprintf("%s ago", tradeAge.Round(time.Second)),
		Pass:      m.LastTradeTime > 0 && tradeAge <= e.cfg.MaxLastTradeAge,
	})

	criteria = append(criteria, CriterionResult{
		Name:      "24h volume floor",
		Threshold: fmt.Sprintf(">= $%.0f", e.cfg.MinVolume24hUSD),
		Actual:    fmt.Sprintf("$%.2f", m.Volume24h),
		Pass:      m.Volume24h >= e.cfg.MinVolume24hUSD,
	})

	ratioPass := false
	ratioActual := "market cap is zero"
	if m.MarketCap > 0 {
		ratio := m.Volume24h / m.MarketCap
		ratioPass = ratio >= e.cfg.MinVolumeMcapRatio
		ratioActual = fmt.Sprintf("%.4f", ratio)
	}
	criteria = append(criteria, CriterionResult{
		Name:      "Volume/mcap ratio floor",
		Threshold: fmt.Sprintf(">= %.2f", e.cfg.MinVolumeMcapRatio),
		Actual:    ratioActual,
		Pass:      ratioPass,
	})

	change := m.PriceChange24h
	if change < 0 {
		change = -change
	}
	criteria = append(criteria, CriterionResult{
		Name:      "24h price change ceiling",
		Threshold: fmt.Sprintf("|change| <= %.0f%%", e.cfg.MaxPriceChange24h),
		Actual:    fmt.Sprintf("%.2f%%", m.PriceChange24h),
		Pass:      change <= e.cfg.MaxPriceChange24h,
	})

	suspicious := suspiciousMatch(m.Name, m.Symbol)
	criteria = append(criteria, CriterionResult{
		Name:      "Name/symbol not suspicious",
		Threshold: "no flagged substrings",
		Actual:    fmt.Sprintf("name=%q symbol=%q", m.Name, m.Symbol),
		Pass:      suspicious == "",
	})

	eligible := true
	for _, c := range criteria {
		if !c.Pass {
			eligible = false
			break
		}
	}

	return &Result{Eligible: eligible, Criteria: criteria}
}

// suspiciousMatch returns the first flagged substring found in name or
// symbol, or empty if clean. Matching is case-insensitive.
func suspiciousMatch(name, symbol string) string {
	lowerName := strings.ToLower(name)
	lowerSymbol := strings.ToLower(symbol)
	for _, s := range suspiciousSubstrings {
		if strings.Contains(lowerName, s) || strings.Contains(lowerSymbol, s) {
			return s
		}
	}
	return ""
}
