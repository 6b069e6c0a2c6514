package packageplugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	"github.com/groundworklabs/groundwork/internal/plugins/internalexec"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type packagePlugin struct {
	sink io.Writer
}

// New creates an apt-based package plugin streaming installer output to sink.
func New(sink io.Writer) plugin.Plugin {
	return &packagePlugin{sink: sink}
}

var _ plugin.Plugin = (*packagePlugin)(nil)

func (p *packagePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "apt-package",
		Type:        "package",
		Version:     "1.0.0",
		Description: "Installs system packages through apt-get, skipping ones already installed.",
	}
}

func (p *packagePlugin) Schema() any {
	return config.PackageStep{}
}

// Evaluate queries dpkg for each declared package. The step is satisfied only
// when every package reports "install ok installed".
func (p *packagePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Package
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "package configuration missing", nil)
	}

	var missing []string
	for _, name := range cfg.Packages {
		installed, err := isInstalled(ctx, name)
		if err != nil {
			return nil, gwerrors.NewExecutionError(step.ID, err)
		}
		if !installed {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Message:        fmt.Sprintf("all %d packages installed", len(cfg.Packages)),
			InternalData:   missing,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        fmt.Sprintf("packages missing: %s", strings.Join(missing, ", ")),
		InternalData:   missing,
	}, nil
}

// Apply installs the missing packages in a single apt-get invocation. When the
// evaluation carried the missing set, only those are requested; otherwise the
// full declared list is installed (apt-get treats present packages as no-ops).
func (p *packagePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Package
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "package configuration missing", nil)
	}

	targets := cfg.Packages
	if evalResult != nil {
		if missing, ok := evalResult.InternalData.([]string); ok && len(missing) > 0 {
			targets = missing
		}
	}

	if cfg.Update {
		if err := p.runApt(ctx, step.ID, "update"); err != nil {
			return &model.StepResult{
				StepID:  step.ID,
				Status:  model.StatusFailed,
				Message: err.Error(),
				Error:   err,
			}, err
		}
	}

	args := append([]string{"install", "-y"}, targets...)
	if err := p.runApt(ctx, step.ID, args...); err != nil {
		result := &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusFailed,
			Message: err.Error(),
			Error:   err,
		}
		var execErr *gwerrors.ExecutionError
		if errors.As(err, &execErr) {
			result.ExitCode = execErr.ExitCode
		}
		return result, err
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("installed %s", strings.Join(targets, ", ")),
	}, nil
}

func (p *packagePlugin) runApt(ctx context.Context, stepID string, args ...string) error {
	cmd := exec.CommandContext(ctx, "apt-get", args...)
	cmd.Env = append(cmd.Environ(), "DEBIAN_FRONTEND=noninteractive")

	res, err := internalexec.RunStreaming(cmd, p.sink)
	if err != nil {
		detail := internalexec.PrimaryOutput(res)
		if detail != "" {
			err = fmt.Errorf("apt-get %s: %w: %s", args[0], err, detail)
		} else {
			err = fmt.Errorf("apt-get %s: %w", args[0], err)
		}
		code := res.ExitCode
		if code < 0 {
			code = 1
		}
		return gwerrors.NewExitError(stepID, code, err)
	}
	return nil
}

// isInstalled checks a single package via dpkg-query. A non-zero exit means
// the package is unknown to dpkg, which is a normal "not installed" answer,
// not an error.
func isInstalled(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "dpkg-query", "-W", "-f", "${Status}", name)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("dpkg-query %s: %w", name, err)
	}
	return strings.Contains(string(out), "install ok installed"), nil
}
