package commandplugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	"github.com/groundworklabs/groundwork/internal/plugins/internalexec"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type commandPlugin struct {
	sink io.Writer
}

// New creates a command plugin that streams step output to sink.
func New(sink io.Writer) plugin.Plugin {
	return &commandPlugin{sink: sink}
}

var _ plugin.Plugin = (*commandPlugin)(nil)

func (p *commandPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "shell-command",
		Type:        "command",
		Version:     "1.0.0",
		Description: "Executes shell commands with declared working directory and environment.",
	}
}

func (p *commandPlugin) Schema() any {
	return config.CommandStep{}
}

// Evaluate decides whether the command needs to run. Precedence: an explicit
// check command wins; otherwise declared output paths are consulted; a step
// declaring neither always requires action.
func (p *commandPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Command
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "command configuration missing", nil)
	}

	if strings.TrimSpace(cfg.Check) != "" {
		satisfied, err := p.runCheck(ctx, step.ID, cfg)
		if err != nil {
			return nil, err
		}
		if satisfied {
			return &model.EvaluationResult{
				StepID:         step.ID,
				CurrentState:   model.StatusSatisfied,
				RequiresAction: false,
				Message:        "check command succeeded",
			}, nil
		}
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        "check command reported missing state",
		}, nil
	}

	if len(step.Creates) > 0 {
		var missing []string
		for _, path := range config.ExpandPaths(step.Creates) {
			if _, err := os.Stat(path); err != nil {
				missing = append(missing, path)
			}
		}
		if len(missing) == 0 {
			return &model.EvaluationResult{
				StepID:         step.ID,
				CurrentState:   model.StatusSatisfied,
				RequiresAction: false,
				Message:        fmt.Sprintf("outputs already present: %s", strings.Join(step.Creates, ", ")),
			}, nil
		}
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("outputs missing: %s", strings.Join(missing, ", ")),
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusUnknown,
		RequiresAction: true,
		Message:        "no check declared, command will run",
	}, nil
}

func (p *commandPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Command
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "command configuration missing", nil)
	}

	cmd, err := p.buildCommand(ctx, cfg, cfg.Command)
	if err != nil {
		return nil, gwerrors.NewExecutionError(step.ID, err)
	}

	streamResult, err := internalexec.RunStreaming(cmd, p.sink)
	if err != nil {
		combinedOutput := internalexec.PrimaryOutput(streamResult)
		if combinedOutput != "" {
			err = fmt.Errorf("%w: %s", err, combinedOutput)
		}

		exitCode := streamResult.ExitCode
		if exitCode < 0 {
			exitCode = 1
		}

		result := &model.StepResult{
			StepID:   step.ID,
			Status:   model.StatusFailed,
			Message:  err.Error(),
			ExitCode: exitCode,
			Error:    err,
		}
		return result, gwerrors.NewExitError(step.ID, exitCode, err)
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Message: "command executed",
	}, nil
}

func (p *commandPlugin) runCheck(ctx context.Context, stepID string, cfg *config.CommandStep) (bool, error) {
	cmd, err := p.buildCommand(ctx, cfg, cfg.Check)
	if err != nil {
		return false, gwerrors.NewExecutionError(stepID, err)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		if len(output) > 0 {
			return false, gwerrors.NewExecutionError(stepID, fmt.Errorf("%w: %s", err, string(output)))
		}
		return false, gwerrors.NewExecutionError(stepID, err)
	}

	return true, nil
}

// buildCommand assembles the exec.Cmd with the step's declared working
// directory set on the command itself. The orchestrator's own working
// directory is never changed, so it is intact on every exit path.
func (p *commandPlugin) buildCommand(ctx context.Context, cfg *config.CommandStep, script string) (*exec.Cmd, error) {
	shell, shellArgs, err := determineShell(cfg.Shell)
	if err != nil {
		return nil, err
	}

	args := append(shellArgs, script)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Env = buildEnv(cfg.Env)
	if cfg.WorkDir != "" {
		cmd.Dir = config.ExpandPath(cfg.WorkDir)
	}
	return cmd, nil
}

func determineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	for k, v := range custom {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
