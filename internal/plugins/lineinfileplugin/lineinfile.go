package lineinfileplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type lineInFilePlugin struct{}

// New creates the line_in_file plugin.
func New() plugin.Plugin {
	return &lineInFilePlugin{}
}

var _ plugin.Plugin = (*lineInFilePlugin)(nil)

func (p *lineInFilePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "line-in-file",
		Type:        "line_in_file",
		Version:     "1.0.0",
		Description: "Appends a line to a file when it is not already present.",
	}
}

func (p *lineInFilePlugin) Schema() any {
	return config.LineInFileStep{}
}

func (p *lineInFilePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.LineInFile
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "line_in_file configuration missing", nil)
	}
	file := config.ExpandPath(cfg.File)

	present, err := containsLine(file, cfg.Line)
	if err != nil {
		return nil, gwerrors.NewExecutionError(step.ID, err)
	}

	if present {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Message:        fmt.Sprintf("line already present in %s", file),
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Message:        fmt.Sprintf("line not found in %s", file),
	}, nil
}

func (p *lineInFilePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.LineInFile
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "line_in_file configuration missing", nil)
	}
	file := config.ExpandPath(cfg.File)

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return failResult(step.ID, fmt.Errorf("create parent directory: %w", err))
	}

	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return failResult(step.ID, fmt.Errorf("open %s: %w", file, err))
	}
	defer f.Close()

	// Make sure the appended line starts on its own line even when the file
	// does not end with a newline.
	prefix, err := neededPrefix(file)
	if err != nil {
		return failResult(step.ID, err)
	}

	if _, err := f.WriteString(prefix + cfg.Line + "\n"); err != nil {
		return failResult(step.ID, fmt.Errorf("append to %s: %w", file, err))
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("appended line to %s", file),
	}, nil
}

func containsLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	target := strings.TrimSpace(line)
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == target {
			return true, nil
		}
	}
	return false, nil
}

func neededPrefix(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return "\n", nil
	}
	return "", nil
}

func failResult(stepID string, err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}, gwerrors.NewExecutionError(stepID, err)
}
