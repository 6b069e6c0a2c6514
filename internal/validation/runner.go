package validation

import (
	"fmt"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/logger"
)

// Summary aggregates the outcomes of a validation pass.
type Summary struct {
	Results []CheckResult
	Failed  int
}

// AllPassed reports whether every validation succeeded.
func (s Summary) AllPassed() bool {
	return s.Failed == 0
}

// Run executes the configured validations in declaration order. Validations
// are observations, not provisioning work: a failure is reported but never
// mutates execution state.
func Run(validations []config.Validation, log *logger.Logger) Summary {
	var summary Summary

	for _, v := range validations {
		var res CheckResult
		switch v.Type {
		case "command_exists":
			res = CheckCommandExists(v.CommandExists.Command)
		case "file_exists":
			res = CheckFileExists(config.ExpandPath(v.FileExists.Path))
		case "path_contains":
			res = CheckPathContains(config.ExpandPath(v.PathContains.File), v.PathContains.Text)
		default:
			res = CheckResult{
				Description: fmt.Sprintf("validation type %q", v.Type),
				Message:     "unknown validation type",
			}
		}

		if !res.Passed {
			summary.Failed++
			log.WithFields(map[string]any{
				"check":  res.Description,
				"detail": res.Message,
			}).Warn("validation failed")
		} else {
			log.WithFields(map[string]any{"check": res.Description}).Debug("validation passed")
		}

		summary.Results = append(summary.Results, res)
	}

	return summary
}
