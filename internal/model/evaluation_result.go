package model

// VerificationStatus describes how the current system state compares to the
// state a step declares.
type VerificationStatus string

const (
	// StatusSatisfied means the step's desired state already holds.
	StatusSatisfied VerificationStatus = "satisfied"
	// StatusMissing means the desired state is absent and applying would create it.
	StatusMissing VerificationStatus = "missing"
	// StatusDrifted means the state exists but differs from the declaration.
	StatusDrifted VerificationStatus = "drifted"
	// StatusUnknown means the current state could not be determined.
	StatusUnknown VerificationStatus = "unknown"
)

// EvaluationResult is the outcome of a read-only assessment performed by a
// plugin before any mutation. The orchestrator consults RequiresAction to
// decide whether Apply runs at all, which is what makes re-invocation after a
// partial run cheap.
type EvaluationResult struct {
	StepID string

	// CurrentState relative to the step's declared desired state.
	CurrentState VerificationStatus

	// RequiresAction indicates whether Apply should be invoked.
	RequiresAction bool

	// Message is a human-readable description of what was found.
	Message string

	// InternalData carries plugin-specific data from Evaluate to Apply so
	// work is not recomputed.
	InternalData any
}
