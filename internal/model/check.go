package model

// CheckStatus represents the status of a preflight check.
type CheckStatus string

const (
	// CheckStatusOK indicates the check passed.
	CheckStatusOK CheckStatus = "ok"
	// CheckStatusWarning indicates the check passed with a warning.
	CheckStatusWarning CheckStatus = "warning"
	// CheckStatusError indicates the check failed, deployments can't continue.
	CheckStatusError CheckStatus = "error"
)

// CheckResult represents the result of a single preflight check.
type CheckResult struct {
	ID      string // Unique identifier for the check (e.g., "orchestrator_binary").
	Message string
	Status  CheckStatus
}

// CountByStatus counts check results by status.
func CountByStatus(results []CheckResult) (ok, warnings, errors int) {
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			ok++
		case CheckStatusWarning:
			warnings++
		case CheckStatusError:
			errors++
		}
	}
	return
}

// FirstError returns the first failed check result.
func FirstError(results []CheckResult) (CheckResult, bool) {
	for _, r := range results {
		if r.Status == CheckStatusError {
			return r, true
		}
	}
	return CheckResult{}, false
}
