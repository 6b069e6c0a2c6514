package errors

import (
	"fmt"
	"strings"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DuplicateStepError reports a step id registered more than once.
type DuplicateStepError struct {
	ID string
}

// NewDuplicateStepError constructs a DuplicateStepError.
func NewDuplicateStepError(id string) error {
	return &DuplicateStepError{ID: id}
}

func (e *DuplicateStepError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("duplicate step id %q", e.ID)
}

// CycleError reports a dependency cycle in the step graph. Cycle holds the
// participating step ids in walk order, with the entry node repeated at the
// end.
type CycleError struct {
	Cycle []string
}

// NewCycleError constructs a CycleError.
func NewCycleError(cycle []string) error {
	return &CycleError{Cycle: cycle}
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Cycle) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// ExecutionError represents a runtime failure while executing a step.
// ExitCode carries the failing command's exit status when one is available so
// the CLI can propagate it to the caller.
type ExecutionError struct {
	StepID   string
	ExitCode int
	Err      error
}

// NewExecutionError constructs an ExecutionError without exit status.
func NewExecutionError(stepID string, err error) error {
	return &ExecutionError{StepID: stepID, Err: err}
}

// NewExitError constructs an ExecutionError carrying the command's exit code.
func NewExitError(stepID string, exitCode int, err error) error {
	return &ExecutionError{StepID: stepID, ExitCode: exitCode, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepID != "" {
		if e.ExitCode != 0 {
			return fmt.Sprintf("execution error on step %s (exit %d): %v", e.StepID, e.ExitCode, e.Err)
		}
		return fmt.Sprintf("execution error on step %s: %v", e.StepID, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConcurrentRunError indicates another orchestrator instance holds the run
// lock. No state has been mutated when this error is returned.
type ConcurrentRunError struct {
	LockPath string
	Holder   string
}

// NewConcurrentRunError constructs a ConcurrentRunError.
func NewConcurrentRunError(lockPath, holder string) error {
	return &ConcurrentRunError{LockPath: lockPath, Holder: holder}
}

func (e *ConcurrentRunError) Error() string {
	if e == nil {
		return ""
	}
	if e.Holder != "" {
		return fmt.Sprintf("another provisioning run is in progress (lock %s held by %s)", e.LockPath, e.Holder)
	}
	return fmt.Sprintf("another provisioning run is in progress (lock %s)", e.LockPath)
}

// StateCorruptionError indicates the persisted provisioning state could not
// be decoded. The tool refuses to guess; the operator must inspect or remove
// the state file.
type StateCorruptionError struct {
	Path string
	Err  error
}

// NewStateCorruptionError constructs a StateCorruptionError.
func NewStateCorruptionError(path string, err error) error {
	return &StateCorruptionError{Path: path, Err: err}
}

func (e *StateCorruptionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("state file %s is unreadable or malformed: %v (inspect or remove it before re-running)", e.Path, e.Err)
}

// Unwrap exposes the underlying error.
func (e *StateCorruptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PluginError indicates issues within plugin registration or lookup.
type PluginError struct {
	Plugin  string
	Message string
	Err     error
}

// NewPluginError constructs a PluginError for the given plugin type.
func NewPluginError(plugin string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &PluginError{Plugin: plugin, Message: message, Err: err}
}

func (e *PluginError) Error() string {
	if e == nil {
		return ""
	}
	if e.Plugin != "" {
		return fmt.Sprintf("plugin error [%s]: %s", e.Plugin, e.Message)
	}
	return fmt.Sprintf("plugin error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PluginError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
