package validation

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CheckResult is the outcome of one post-provisioning validation.
type CheckResult struct {
	Description string
	Passed      bool
	Message     string
}

// CheckCommandExists verifies a command resolves on PATH.
func CheckCommandExists(command string) CheckResult {
	res := CheckResult{Description: fmt.Sprintf("command %q on PATH", command)}

	path, err := exec.LookPath(command)
	if err != nil {
		res.Message = fmt.Sprintf("%s not found on PATH", command)
		return res
	}

	res.Passed = true
	res.Message = path
	return res
}

// CheckFileExists verifies a file or directory exists.
func CheckFileExists(path string) CheckResult {
	res := CheckResult{Description: fmt.Sprintf("path %s exists", path)}

	if _, err := os.Stat(path); err != nil {
		res.Message = err.Error()
		return res
	}

	res.Passed = true
	res.Message = "present"
	return res
}

// CheckPathContains verifies a file contains the given text.
func CheckPathContains(file, text string) CheckResult {
	res := CheckResult{Description: fmt.Sprintf("%s contains %q", file, text)}

	data, err := os.ReadFile(file)
	if err != nil {
		res.Message = err.Error()
		return res
	}

	if !strings.Contains(string(data), text) {
		res.Message = "text not found"
		return res
	}

	res.Passed = true
	res.Message = "found"
	return res
}
