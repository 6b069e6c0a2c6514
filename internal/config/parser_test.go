package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseConfig_ValidDocument(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1.0"
name: neutronics-env
settings:
  timeout: 3600
steps:
  - id: install_toolchain
    type: package
    packages: [cmake, gfortran]
  - id: clone_moab
    type: repo
    url: https://bitbucket.org/fathomteam/moab.git
    destination: /opt/src/moab
    branch: master
    depth: 1
    depends_on: [install_toolchain]
  - id: build_moab
    type: command
    command: cmake .. && make -j2 && make install
    workdir: /opt/src/moab/build
    creates: [/opt/moab/lib/libMOAB.so]
    depends_on: [clone_moab]
validations:
  - type: file_exists
    path: /opt/moab/lib/libMOAB.so
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "neutronics-env", cfg.Name)
	require.Len(t, cfg.Steps, 3)

	require.NotNil(t, cfg.Steps[0].Package)
	require.Equal(t, []string{"cmake", "gfortran"}, cfg.Steps[0].Package.Packages)

	require.NotNil(t, cfg.Steps[1].Repo)
	require.Equal(t, 1, cfg.Steps[1].Repo.Depth)

	require.NotNil(t, cfg.Steps[2].Command)
	require.Equal(t, "/opt/src/moab/build", cfg.Steps[2].Command.WorkDir)
	require.Equal(t, []string{"/opt/moab/lib/libMOAB.so"}, cfg.Steps[2].Creates)

	require.Len(t, cfg.Validations, 1)
	require.NotNil(t, cfg.Validations[0].FileExists)
}

func TestParseConfig_StepsEnabledByDefault(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1.0"
name: defaults
steps:
  - id: on_by_default
    type: command
    command: "true"
  - id: explicitly_off
    type: command
    command: "true"
    enabled: false
`)

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.Steps[0].Enabled)
	require.False(t, cfg.Steps[1].Enabled)
}

func TestParseConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestParseConfig_InvalidYAMLReportsLine(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "version: \"1.0\"\nname: broken\nsteps:\n  - id: a\n    type: command\n   command: oops\n")

	_, err := ParseConfig(path)
	var parseErr *gwerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Positive(t, parseErr.Line)
}

func TestParseConfig_DuplicateStepID(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1.0"
name: dupes
steps:
  - id: same
    type: command
    command: "true"
  - id: same
    type: command
    command: "true"
`)

	_, err := ParseConfig(path)
	var dupErr *gwerrors.DuplicateStepError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "same", dupErr.ID)
}

func TestParseConfig_DependencyCycle(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1.0"
name: cyclic
steps:
  - id: a
    type: command
    command: "true"
    depends_on: [c]
  - id: b
    type: command
    command: "true"
    depends_on: [a]
  - id: c
    type: command
    command: "true"
    depends_on: [b]
`)

	_, err := ParseConfig(path)
	var cycleErr *gwerrors.CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.NotEmpty(t, cycleErr.Cycle)
}

func TestParseConfig_UnknownDependency(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
version: "1.0"
name: dangling
steps:
  - id: a
    type: command
    command: "true"
    depends_on: [ghost]
`)

	_, err := ParseConfig(path)
	var valErr *gwerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Contains(t, valErr.Message, "ghost")
}
