package state

import "time"

// Status enumerates the lifecycle of a step's execution record.
type Status string

const (
	// StatusPending means the record was created but execution has not begun.
	StatusPending Status = "pending"
	// StatusRunning means execution began and has not reached a terminal state.
	// A running record found at load time is stale (the process crashed or was
	// interrupted mid-step) and is treated as non-complete.
	StatusRunning Status = "running"
	// StatusSucceeded means the step completed with exit code zero.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the step reached a terminal failure.
	StatusFailed Status = "failed"
)

// Record is the persisted outcome of one step execution attempt.
type Record struct {
	StepID     string    `json:"step_id"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	ExitCode   int       `json:"exit_code"`
	Message    string    `json:"message,omitempty"`
}

// Complete reports whether the record represents finished, successful work.
func (r Record) Complete() bool {
	return r.Status == StatusSucceeded
}

// State is the process-wide persisted mapping from step id to its most recent
// execution record. The file stays human-inspectable JSON for operational
// debugging.
type State struct {
	Version string            `json:"version"`
	Records map[string]Record `json:"records"`
}

func newState() *State {
	return &State{Version: "1", Records: make(map[string]Record)}
}
