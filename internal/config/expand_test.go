package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandPath_Tilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.Equal(t, home, ExpandPath("~"))
	require.Equal(t, filepath.Join(home, "opt", "moab"), ExpandPath("~/opt/moab"))
}

func TestExpandPath_EnvVars(t *testing.T) {
	t.Setenv("GW_PREFIX", "/opt/gw")

	require.Equal(t, "/opt/gw/bin", ExpandPath("$GW_PREFIX/bin"))
}

func TestExpandPath_PlainPathUnchanged(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/usr/local/lib", ExpandPath("/usr/local/lib"))
	require.Equal(t, "", ExpandPath(""))
}

func TestExpandPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	out := ExpandPaths([]string{"~/a", "/b"})
	require.Equal(t, []string{filepath.Join(home, "a"), "/b"}, out)
	require.Nil(t, ExpandPaths(nil))
}
