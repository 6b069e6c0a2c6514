package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	gwerrors "github.com/groundworklabs/groundwork/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	stepIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("step_id", func(fl validator.FieldLevel) bool {
			return stepIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration. Duplicate step ids and dependency cycles are fatal here,
// before any step runs.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return gwerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	stepIndex := make(map[string]int, len(cfg.Steps))

	for i, step := range cfg.Steps {
		if _, exists := stepIndex[step.ID]; exists {
			return gwerrors.NewDuplicateStepError(step.ID)
		}

		if err := ValidateStep(step); err != nil {
			return err
		}

		stepIndex[step.ID] = i
	}

	for i, step := range cfg.Steps {
		for _, dep := range step.DependsOn {
			if _, ok := stepIndex[dep]; !ok {
				return gwerrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("references unknown step %q", dep), nil)
			}
		}
	}

	if cycle := detectCycle(cfg.Steps); len(cycle) > 0 {
		return gwerrors.NewCycleError(cycle)
	}

	for i, validation := range cfg.Validations {
		if err := validateValidation(validation, i); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep validates a single step independent of other configuration
// properties.
func ValidateStep(step Step) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	switch step.Type {
	case "package":
		if step.Package == nil {
			return gwerrors.NewValidationError(step.ID, "package configuration is required", nil)
		}
		if err := v.Struct(step.Package); err != nil {
			return convertValidationError(err)
		}
	case "repo":
		if step.Repo == nil {
			return gwerrors.NewValidationError(step.ID, "repo configuration is required", nil)
		}
		if err := v.Struct(step.Repo); err != nil {
			return convertValidationError(err)
		}
	case "command":
		if step.Command == nil {
			return gwerrors.NewValidationError(step.ID, "command configuration is required", nil)
		}
		if err := v.Struct(step.Command); err != nil {
			return convertValidationError(err)
		}
	case "download":
		if step.Download == nil {
			return gwerrors.NewValidationError(step.ID, "download configuration is required", nil)
		}
		if err := v.Struct(step.Download); err != nil {
			return convertValidationError(err)
		}
	case "line_in_file":
		if step.LineInFile == nil {
			return gwerrors.NewValidationError(step.ID, "line_in_file configuration is required", nil)
		}
		if err := v.Struct(step.LineInFile); err != nil {
			return convertValidationError(err)
		}
	default:
		return gwerrors.NewValidationError(step.ID, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}

	return nil
}

func validateValidation(val Validation, index int) error {
	v := validatorInstance()
	if err := v.Struct(val); err != nil {
		return convertValidationError(err)
	}

	switch val.Type {
	case "command_exists":
		if val.CommandExists == nil {
			return gwerrors.NewValidationError(fieldForValidation(index, "command"), "command is required", nil)
		}
		if err := v.Struct(val.CommandExists); err != nil {
			return convertValidationError(err)
		}
	case "file_exists":
		if val.FileExists == nil {
			return gwerrors.NewValidationError(fieldForValidation(index, "path"), "path is required", nil)
		}
		if err := v.Struct(val.FileExists); err != nil {
			return convertValidationError(err)
		}
	case "path_contains":
		if val.PathContains == nil {
			return gwerrors.NewValidationError(fieldForValidation(index, "file"), "file and text are required", nil)
		}
		if err := v.Struct(val.PathContains); err != nil {
			return convertValidationError(err)
		}
	default:
		return gwerrors.NewValidationError(fieldForValidation(index, "type"), fmt.Sprintf("unknown validation type %q", val.Type), nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return gwerrors.NewValidationError(field, msg, err)
	}

	return gwerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}

func fieldForValidation(index int, field string) string {
	return fmt.Sprintf("validations[%d].%s", index, field)
}
