package engine

import (
	"context"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/logger"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	"github.com/groundworklabs/groundwork/internal/state"
)

// ExecutionContext carries everything a run needs. Steps receive their
// working directory and environment from configuration, never from ambient
// process state, so the context holds no cwd.
type ExecutionContext struct {
	Config   *config.Config
	Registry *plugin.Registry
	Tracker  *state.Tracker
	Logger   *logger.Logger
	Context  context.Context

	DryRun  bool
	Verbose bool

	// OnStepStart and OnStepComplete, when set, are invoked synchronously
	// around each step for progress reporting.
	OnStepStart    func(stepID string)
	OnStepComplete func(result model.StepResult)
}

func (c *ExecutionContext) notifyStart(stepID string) {
	if c.OnStepStart != nil {
		c.OnStepStart(stepID)
	}
}

func (c *ExecutionContext) notifyComplete(res model.StepResult) {
	if c.OnStepComplete != nil {
		c.OnStepComplete(res)
	}
}
