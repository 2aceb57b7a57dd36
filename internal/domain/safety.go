package domain

// Safety check names in fixed evaluation order.
const (
	CheckMintAuthority   = "mint_authority"
	CheckFreezeAuthority = "freeze_authority"
	CheckSupply          = "supply"
	CheckHoneypot        = "honeypot"
	CheckHolders         = "holders"
)

// CheckResult is the outcome of a single safety check.
type CheckResult struct {
	Name   string // one of the Check* constants
	Pass   bool
	Reason string // human-readable diagnostic
}

// SafetyReport aggregates safety check results for one token.
// Checks are evaluated in order and stop at the first failure, so
// Checks holds results only up to and including the failing check.
type SafetyReport struct {
	Mint   string
	Checks []CheckResult
	Pass   bool
}

// FailedCheck returns the first failing check, or nil if all passed.
func (r *SafetyReport) FailedCheck() *CheckResult {
	for i := range r.Checks {
		if !r.Checks[i].Pass {
			return &r.Checks[i]
		}
	}
	return nil
}
