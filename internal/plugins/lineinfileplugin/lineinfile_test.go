package lineinfileplugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/model"
)

func lineStep(id, file, line string) *config.Step {
	return &config.Step{
		ID:      id,
		Type:    "line_in_file",
		Enabled: true,
		LineInFile: &config.LineInFileStep{
			File: file,
			Line: line,
		},
	}
}

func TestEvaluate_MissingFileRequiresAction(t *testing.T) {
	t.Parallel()

	p := New()
	step := lineStep("exports", filepath.Join(t.TempDir(), ".bashrc"), "export MOAB_DIR=$HOME/opt/moab")

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	require.Equal(t, model.StatusMissing, eval.CurrentState)
}

func TestEvaluate_LinePresentSatisfied(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(file, []byte("# profile\nexport MOAB_DIR=$HOME/opt/moab\n"), 0o644))

	p := New()
	step := lineStep("exports", file, "export MOAB_DIR=$HOME/opt/moab")

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.False(t, eval.RequiresAction)
}

func TestApply_AppendsLineAndCreatesFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "profile", ".bashrc")

	p := New()
	step := lineStep("exports", file, "export PATH=$PATH:$HOME/opt/dagmc/bin")

	result, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuccess, result.Status)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "export PATH=$PATH:$HOME/opt/dagmc/bin\n", string(data))
}

func TestApply_PreservesExistingContent(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(file, []byte("# existing profile"), 0o644))

	p := New()
	step := lineStep("exports", file, "export MOAB_DIR=$HOME/opt/moab")

	_, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "# existing profile\nexport MOAB_DIR=$HOME/opt/moab\n", string(data))
}

func TestApplyThenEvaluate_Idempotent(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), ".bashrc")
	p := New()
	step := lineStep("exports", file, "export MOAB_DIR=$HOME/opt/moab")

	_, err := p.Apply(context.Background(), nil, step)
	require.NoError(t, err)

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.False(t, eval.RequiresAction)

	// A second apply followed by evaluate still yields exactly one copy.
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "MOAB_DIR"))
}
