package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/state"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	// PhaseIdle means no steps have been attempted this invocation.
	PhaseIdle Phase = "idle"
	// PhaseRunning means the orchestrator is iterating the plan.
	PhaseRunning Phase = "running"
	// PhaseCompleted means every planned step has a succeeded record.
	PhaseCompleted Phase = "completed"
	// PhaseFailed means a step failed and the remainder was not attempted.
	PhaseFailed Phase = "failed"
)

// Summary reports the outcome of one orchestrator invocation.
type Summary struct {
	Phase   Phase
	Results []model.StepResult
}

// Execute runs the plan strictly sequentially. Steps with a succeeded record
// are skipped without invoking their plugin; the first failure halts the run
// and remaining steps are not attempted. Every record transition is persisted
// before the run moves on, so an interrupt between steps loses nothing.
func Execute(execCtx *ExecutionContext, plan *ExecutionPlan) (*Summary, error) {
	if execCtx == nil {
		return nil, gwerrors.NewExecutionError("", fmt.Errorf("execution context is nil"))
	}
	if execCtx.Config == nil {
		return nil, gwerrors.NewExecutionError("", fmt.Errorf("execution context config is nil"))
	}
	if plan == nil {
		return nil, gwerrors.NewExecutionError("", fmt.Errorf("execution plan is nil"))
	}
	if execCtx.Tracker == nil && !execCtx.DryRun {
		return nil, gwerrors.NewExecutionError("", fmt.Errorf("execution context tracker is nil"))
	}

	ctx := execCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := time.Duration(execCtx.Config.Settings.Timeout) * time.Second

	stepLookup := make(map[string]*config.Step, len(execCtx.Config.Steps))
	for i := range execCtx.Config.Steps {
		step := &execCtx.Config.Steps[i]
		stepLookup[step.ID] = step
	}

	summary := &Summary{Phase: PhaseIdle}
	summary.Phase = PhaseRunning

	for _, stepID := range plan.Order {
		if err := ctx.Err(); err != nil {
			summary.Phase = PhaseFailed
			return summary, gwerrors.NewExecutionError(stepID, err)
		}

		step, ok := stepLookup[stepID]
		if !ok {
			summary.Phase = PhaseFailed
			return summary, gwerrors.NewExecutionError(stepID, fmt.Errorf("step not found"))
		}

		if !execCtx.DryRun && execCtx.Tracker.IsComplete(stepID) {
			res := model.StepResult{
				StepID:    stepID,
				Status:    model.StatusSkipped,
				Message:   "already provisioned",
				Timestamp: time.Now(),
			}
			summary.Results = append(summary.Results, res)
			execCtx.notifyComplete(res)
			if execCtx.Logger != nil {
				execCtx.Logger.WithStep(stepID).Debug("skipping: succeeded in a prior run")
			}
			continue
		}

		execCtx.notifyStart(stepID)

		res, err := executeStep(ctx, execCtx, step, timeout)
		if res != nil {
			summary.Results = append(summary.Results, *res)
			execCtx.notifyComplete(*res)
		}
		if err != nil {
			summary.Phase = PhaseFailed
			return summary, err
		}
	}

	summary.Phase = PhaseCompleted
	return summary, nil
}

func executeStep(ctx context.Context, execCtx *ExecutionContext, step *config.Step, timeout time.Duration) (*model.StepResult, error) {
	stepCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	if !execCtx.DryRun {
		if err := execCtx.Tracker.Mark(state.Record{
			StepID:    step.ID,
			Status:    state.StatusRunning,
			StartedAt: start,
		}); err != nil {
			return nil, gwerrors.NewExecutionError(step.ID, err)
		}
	}

	impl, err := execCtx.Registry.Get(step.Type)
	if err != nil {
		return failStep(execCtx, step.ID, start, 0, err)
	}

	evalResult, err := impl.Evaluate(stepCtx, step)
	if err != nil {
		return failStep(execCtx, step.ID, start, exitCodeOf(err), fmt.Errorf("evaluation failed: %w", err))
	}

	if !evalResult.RequiresAction {
		res := &model.StepResult{
			StepID:    step.ID,
			Status:    model.StatusSkipped,
			Message:   evalResult.Message,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
		if !execCtx.DryRun {
			if err := execCtx.Tracker.Mark(state.Record{
				StepID:     step.ID,
				Status:     state.StatusSucceeded,
				StartedAt:  start,
				FinishedAt: time.Now(),
				Message:    evalResult.Message,
			}); err != nil {
				return nil, gwerrors.NewExecutionError(step.ID, err)
			}
		}
		return res, nil
	}

	if execCtx.DryRun {
		return &model.StepResult{
			StepID:    step.ID,
			Status:    model.StatusWouldUpdate,
			Message:   evalResult.Message,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}, nil
	}

	result, err := impl.Apply(stepCtx, evalResult, step)
	duration := time.Since(start)

	if result == nil {
		result = &model.StepResult{StepID: step.ID}
	}
	if result.StepID == "" {
		result.StepID = step.ID
	}
	result.Duration = duration
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	if err != nil {
		exitCode := exitCodeOf(err)
		if exitCode == 0 {
			exitCode = result.ExitCode
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			result.Message = "timeout exceeded"
		}
		return failStepWithResult(execCtx, result, start, exitCode, err)
	}

	if result.Status == "" {
		result.Status = model.StatusSuccess
	}
	if result.Message == "" {
		result.Message = "completed"
	}

	if markErr := execCtx.Tracker.Mark(state.Record{
		StepID:     step.ID,
		Status:     state.StatusSucceeded,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Message:    result.Message,
	}); markErr != nil {
		return result, gwerrors.NewExecutionError(step.ID, markErr)
	}

	return result, nil
}

func failStep(execCtx *ExecutionContext, stepID string, start time.Time, exitCode int, err error) (*model.StepResult, error) {
	result := &model.StepResult{
		StepID:    stepID,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Error:     err,
		ExitCode:  exitCode,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
	return failStepWithResult(execCtx, result, start, exitCode, err)
}

func failStepWithResult(execCtx *ExecutionContext, result *model.StepResult, start time.Time, exitCode int, err error) (*model.StepResult, error) {
	result.Status = model.StatusFailed
	if result.Error == nil {
		result.Error = err
	}
	if result.Message == "" {
		result.Message = err.Error()
	}
	result.ExitCode = exitCode

	if !execCtx.DryRun {
		if markErr := execCtx.Tracker.Mark(state.Record{
			StepID:     result.StepID,
			Status:     state.StatusFailed,
			StartedAt:  start,
			FinishedAt: time.Now(),
			ExitCode:   exitCode,
			Message:    result.Message,
		}); markErr != nil {
			return result, gwerrors.NewExecutionError(result.StepID, markErr)
		}
	}

	return result, gwerrors.NewExitError(result.StepID, exitCode, err)
}

func exitCodeOf(err error) int {
	var execErr *gwerrors.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.ExitCode
	}
	return 0
}
