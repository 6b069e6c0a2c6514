package internalexec

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr emitted by a streaming command run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunStreaming wires the command's stdout/stderr through to the supplied sink
// (the parent process when sink is nil) while collecting the output for later
// inspection. The exit code is captured on the result; a non-zero exit is
// still returned as an error so the caller decides policy.
func RunStreaming(cmd *exec.Cmd, sink io.Writer) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	outSink := sink
	errSink := sink
	if sink == nil {
		outSink = os.Stdout
		errSink = os.Stderr
	}

	cmd.Stdout = io.MultiWriter(outSink, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(errSink, &stderrBuf)

	err := cmd.Run()

	res := Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}

	return res, err
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
