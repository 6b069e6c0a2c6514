package repoplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	"github.com/groundworklabs/groundwork/internal/plugin"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type repoPlugin struct{}

// New creates the git repository plugin.
func New() plugin.Plugin {
	return &repoPlugin{}
}

var _ plugin.Plugin = (*repoPlugin)(nil)

func (p *repoPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "git-repo",
		Type:        "repo",
		Version:     "1.0.0",
		Description: "Clones git repositories to declared destinations.",
	}
}

func (p *repoPlugin) Schema() any {
	return config.RepoStep{}
}

// repoEvaluationData carries clone options from Evaluate to Apply so the
// destination is inspected exactly once per run.
type repoEvaluationData struct {
	DirExists    bool
	IsGitRepo    bool
	ActualURL    string
	CloneOptions *git.CloneOptions
}

func (p *repoPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	cfg := step.Repo
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "repo configuration missing", nil)
	}
	dest := config.ExpandPath(cfg.Destination)

	dirExists := true
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			dirExists = false
		} else {
			return nil, gwerrors.NewExecutionError(step.ID, fmt.Errorf("cannot access destination: %w", err))
		}
	}

	isGitRepo := false
	var actualURL string
	if dirExists {
		if repo, err := git.PlainOpen(dest); err == nil {
			isGitRepo = true
			if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
				actualURL = remote.Config().URLs[0]
			}
		}
	}

	cloneOpts := &git.CloneOptions{URL: cfg.URL}
	if cfg.Depth > 0 {
		cloneOpts.Depth = cfg.Depth
	}
	if cfg.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(cfg.Branch)
		cloneOpts.SingleBranch = true
	}

	data := &repoEvaluationData{
		DirExists:    dirExists,
		IsGitRepo:    isGitRepo,
		ActualURL:    actualURL,
		CloneOptions: cloneOpts,
	}

	if !dirExists {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("destination %s does not exist", dest),
			InternalData:   data,
		}, nil
	}

	if !isGitRepo {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Message:        fmt.Sprintf("%s exists but is not a git repository", dest),
			InternalData:   data,
		}, nil
	}

	if actualURL != "" && actualURL != cfg.URL {
		return &model.EvaluationResult{
			StepID:         step.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Message:        fmt.Sprintf("remote URL is %s (expected %s)", actualURL, cfg.URL),
			InternalData:   data,
		}, nil
	}

	return &model.EvaluationResult{
		StepID:         step.ID,
		CurrentState:   model.StatusSatisfied,
		RequiresAction: false,
		Message:        fmt.Sprintf("git repository present at %s", dest),
		InternalData:   data,
	}, nil
}

func (p *repoPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	cfg := step.Repo
	if cfg == nil {
		return nil, gwerrors.NewValidationError(step.ID, "repo configuration missing", nil)
	}
	dest := config.ExpandPath(cfg.Destination)

	var data *repoEvaluationData
	if evalResult != nil {
		if typed, ok := evalResult.InternalData.(*repoEvaluationData); ok {
			data = typed
		}
	}
	if data == nil {
		fresh, err := p.Evaluate(ctx, step)
		if err != nil {
			return nil, err
		}
		evalResult = fresh
		data = fresh.InternalData.(*repoEvaluationData)
	}

	if !evalResult.RequiresAction {
		return &model.StepResult{
			StepID:  step.ID,
			Status:  model.StatusSkipped,
			Message: "no changes needed",
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return failResult(step.ID, fmt.Errorf("create destination parent: %w", err))
	}

	// A non-repo directory at the destination is stale state from a previous
	// partial run. Replace it rather than cloning into it.
	if data.DirExists && !data.IsGitRepo {
		if err := os.RemoveAll(dest); err != nil {
			return failResult(step.ID, fmt.Errorf("remove stale destination: %w", err))
		}
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, data.CloneOptions); err != nil {
		return failResult(step.ID, fmt.Errorf("clone %s: %w", cfg.URL, err))
	}

	return &model.StepResult{
		StepID:  step.ID,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("cloned %s", cfg.URL),
	}, nil
}

func failResult(stepID string, err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusFailed,
		Message: err.Error(),
		Error:   err,
	}, gwerrors.NewExecutionError(stepID, err)
}
