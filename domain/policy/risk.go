package policy

// RiskLevel classifies how risky an input or plan is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ValidationResult is the outcome of a guardrail check. Blockers are hard
// failures; a non-empty blocker list always implies Passed=false. Warnings
// never block on their own. Validation failures are returned values, never
// errors.
type ValidationResult struct {
	Passed   bool      `json:"passed"`
	Risk     RiskLevel `json:"risk_level"`
	Warnings []string  `json:"warnings,omitempty"`
	Blockers []string  `json:"blockers,omitempty"`
}

// NewValidationResult derives a ValidationResult from collected warnings
// and blockers: Critical if any blocker, High with two or more warnings,
// Medium with any warning, Low otherwise.
func NewValidationResult(warnings, blockers []string) ValidationResult {
	risk := RiskLow
	switch {
	case len(blockers) > 0:
		risk = RiskCritical
	case len(warnings) >= 2:
		risk = RiskHigh
	case len(warnings) == 1:
		risk = RiskMedium
	}

	return ValidationResult{
		Passed:   len(blockers) == 0,
		Risk:     risk,
		Warnings: warnings,
		Blockers: blockers,
	}
}
