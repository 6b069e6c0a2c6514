package internalexec

import (
	"bytes"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStreaming_CapturesAndStreams(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	cmd := exec.Command("sh", "-c", "echo hello")

	res, err := RunStreaming(cmd, &sink)
	require.NoError(t, err)
	require.Equal(t, "hello", res.Stdout)
	require.Equal(t, "hello\n", sink.String())
	require.Zero(t, res.ExitCode)
}

func TestRunStreaming_CapturesExitCode(t *testing.T) {
	t.Parallel()

	var sink bytes.Buffer
	cmd := exec.Command("sh", "-c", "echo oops >&2; exit 7")

	res, err := RunStreaming(cmd, &sink)
	require.Error(t, err)
	require.Equal(t, 7, res.ExitCode)
	require.Equal(t, "oops", res.Stderr)
}

func TestPrimaryOutput_PrefersStderr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bad", PrimaryOutput(Result{Stdout: "ok", Stderr: "bad"}))
	require.Equal(t, "ok", PrimaryOutput(Result{Stdout: "ok"}))
}
