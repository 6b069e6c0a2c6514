package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groundworklabs/groundwork/internal/config"
)

func TestCheckCommandExists(t *testing.T) {
	t.Parallel()

	require.True(t, CheckCommandExists("sh").Passed)
	require.False(t, CheckCommandExists("groundwork-no-such-binary").Passed)
}

func TestCheckFileExists(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "present")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.True(t, CheckFileExists(file).Passed)
	require.False(t, CheckFileExists(filepath.Join(t.TempDir(), "absent")).Passed)
}

func TestCheckPathContains(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), ".bashrc")
	require.NoError(t, os.WriteFile(file, []byte("export MOAB_DIR=$HOME/opt/moab\n"), 0o644))

	require.True(t, CheckPathContains(file, "MOAB_DIR").Passed)
	require.False(t, CheckPathContains(file, "DAGMC_DIR").Passed)
}

func TestRun_CollectsFailures(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "marker")
	require.NoError(t, os.WriteFile(file, []byte("ready"), 0o644))

	validations := []config.Validation{
		{
			Type:          "command_exists",
			CommandExists: &config.CommandExistsValidation{Command: "sh"},
		},
		{
			Type:       "file_exists",
			FileExists: &config.FileExistsValidation{Path: file},
		},
		{
			Type:         "path_contains",
			PathContains: &config.PathContainsValidation{File: file, Text: "missing-text"},
		},
	}

	summary := Run(validations, nil)
	require.Len(t, summary.Results, 3)
	require.Equal(t, 1, summary.Failed)
	require.False(t, summary.AllPassed())
}

func TestRun_EmptyListPasses(t *testing.T) {
	t.Parallel()

	summary := Run(nil, nil)
	require.True(t, summary.AllPassed())
	require.Empty(t, summary.Results)
}
