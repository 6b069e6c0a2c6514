package plugin

import (
	"context"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
)

// Metadata identifies a plugin and the step type it serves.
type Metadata struct {
	Name        string
	Type        string
	Version     string
	Description string
}

// Plugin is the contract every step implementation satisfies.
//
// Evaluate performs a strictly read-only assessment of the current system
// state against the step's declaration; it must not mutate anything. Apply is
// only invoked when Evaluate reported RequiresAction and must be idempotent.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() Metadata

	// Schema returns the struct defining the step's YAML body, for
	// documentation and validation tooling.
	Schema() any

	// Evaluate assesses current state without mutating it.
	Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error)

	// Apply mutates the system towards the step's declared state.
	Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error)
}
