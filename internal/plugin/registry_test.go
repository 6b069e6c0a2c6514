package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

type fakePlugin struct {
	stepType string
}

func (f *fakePlugin) Metadata() Metadata {
	return Metadata{Name: f.stepType + "-plugin", Type: f.stepType, Version: "1.0.0"}
}

func (f *fakePlugin) Schema() any { return nil }

func (f *fakePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return &model.EvaluationResult{StepID: step.ID, RequiresAction: true}, nil
}

func (f *fakePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return &model.StepResult{StepID: step.ID, Status: model.StatusSuccess}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&fakePlugin{stepType: "command"}))

	p, err := reg.Get("command")
	require.NoError(t, err)
	require.Equal(t, "command", p.Metadata().Type)
}

func TestRegistry_DuplicateTypeRejected(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&fakePlugin{stepType: "repo"}))

	err := reg.Register(&fakePlugin{stepType: "repo"})
	var pluginErr *gwerrors.PluginError
	require.ErrorAs(t, err, &pluginErr)
}

func TestRegistry_UnknownTypeErrors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	_, err := reg.Get("teleport")
	require.Error(t, err)
}

func TestRegistry_NilPluginRejected(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	require.Error(t, reg.Register(nil))
}

func TestRegistry_ListSorted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&fakePlugin{stepType: "repo"}))
	require.NoError(t, reg.Register(&fakePlugin{stepType: "command"}))
	require.NoError(t, reg.Register(&fakePlugin{stepType: "download"}))

	require.Equal(t, []string{"command", "download", "repo"}, reg.List())
}
