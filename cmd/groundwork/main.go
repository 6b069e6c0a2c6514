package main

import (
	"errors"
	"fmt"
	"os"

	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run failure to the process exit status. A step that failed
// with a non-zero exit propagates that code so callers and CI see the same
// status the underlying command produced.
func exitCode(err error) int {
	var execErr *gwerrors.ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode != 0 {
		return execErr.ExitCode
	}

	var concurrentErr *gwerrors.ConcurrentRunError
	if errors.As(err, &concurrentErr) {
		return 2
	}

	return 1
}
