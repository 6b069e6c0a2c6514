package model

import (
	"time"
)

const (
	// StatusPending indicates a step has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a step is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a successful step execution.
	StatusSuccess = "success"
	// StatusSkipped indicates the orchestrator skipped the step, either
	// because a prior run already completed it or its state is satisfied.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during step execution.
	StatusFailed = "failed"
	// StatusWouldUpdate indicates dry-run would change system state.
	StatusWouldUpdate = "would_update"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	StepID    string
	Status    string
	Message   string
	Error     error
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}
