package domain

// Verdict is the outcome of evaluating one record against the filter.
type Verdict struct {
	Accepted bool
	// Check names the first failing check; empty when accepted.
	Check  string
	Reason string
}

// Accept builds a passing verdict.
func Accept() Verdict {
	return Verdict{Accepted: true}
}

// Reject builds a failing verdict attributed to check.
func Reject(check, reason string) Verdict {
	return Verdict{Check: check, Reason: reason}
}
