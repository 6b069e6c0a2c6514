package config

import (
	"gopkg.in/yaml.v3"
)

// Config represents the full groundwork configuration document.
type Config struct {
	Version     string       `yaml:"version" validate:"required,semver"`
	Name        string       `yaml:"name" validate:"required,min=1,max=100"`
	Description string       `yaml:"description,omitempty"`
	Settings    Settings     `yaml:"settings,omitempty"`
	Steps       []Step       `yaml:"steps" validate:"required,min=1,dive"`
	Validations []Validation `yaml:"validations,omitempty" validate:"omitempty,dive"`
}

// Settings holds global execution parameters. Steps always run one at a time
// in topological order; build tools fight over package databases and lock
// files when invoked concurrently, so there is no parallelism knob.
type Settings struct {
	Timeout int  `yaml:"timeout,omitempty" validate:"omitempty,min=1,max=360000"`
	DryRun  bool `yaml:"dry_run,omitempty"`
	Verbose bool `yaml:"verbose,omitempty"`
}

// Step describes an individual unit of provisioning work in the DAG.
type Step struct {
	ID        string   `yaml:"id" validate:"required,step_id"`
	Name      string   `yaml:"name,omitempty"`
	Type      string   `yaml:"type" validate:"required,oneof=package repo command download line_in_file"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	Enabled   bool     `yaml:"enabled,omitempty"`

	// Creates lists paths the step is expected to produce. Consulted only
	// when no prior execution record exists; a succeeded record is trusted
	// even if these paths have since vanished.
	Creates []string `yaml:"creates,omitempty"`

	Package    *PackageStep    `yaml:",inline,omitempty"`
	Repo       *RepoStep       `yaml:",inline,omitempty"`
	Command    *CommandStep    `yaml:",inline,omitempty"`
	Download   *DownloadStep   `yaml:",inline,omitempty"`
	LineInFile *LineInFileStep `yaml:",inline,omitempty"`
}

// UnmarshalYAML customises step decoding to populate type-specific structures
// without conflicts between the inline bodies.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type baseStep struct {
		ID        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Type      string   `yaml:"type"`
		DependsOn []string `yaml:"depends_on"`
		Enabled   *bool    `yaml:"enabled"`
		Creates   []string `yaml:"creates"`
	}

	var base baseStep
	if err := value.Decode(&base); err != nil {
		return err
	}

	s.ID = base.ID
	s.Name = base.Name
	s.Type = base.Type
	s.DependsOn = append([]string(nil), base.DependsOn...)
	s.Creates = append([]string(nil), base.Creates...)
	if base.Enabled != nil {
		s.Enabled = *base.Enabled
	} else {
		s.Enabled = true
	}

	s.Package = nil
	s.Repo = nil
	s.Command = nil
	s.Download = nil
	s.LineInFile = nil

	switch base.Type {
	case "package":
		var pkg PackageStep
		if err := value.Decode(&pkg); err != nil {
			return err
		}
		s.Package = &pkg
	case "repo":
		var repo RepoStep
		if err := value.Decode(&repo); err != nil {
			return err
		}
		s.Repo = &repo
	case "command":
		var cmd CommandStep
		if err := value.Decode(&cmd); err != nil {
			return err
		}
		s.Command = &cmd
	case "download":
		var dl DownloadStep
		if err := value.Decode(&dl); err != nil {
			return err
		}
		s.Download = &dl
	case "line_in_file":
		var lif LineInFileStep
		if err := value.Decode(&lif); err != nil {
			return err
		}
		s.LineInFile = &lif
	}

	return nil
}

// PackageStep installs one or more system packages.
type PackageStep struct {
	Packages []string `yaml:"packages" validate:"required,min=1,dive,min=1,max=100"`
	Update   bool     `yaml:"update,omitempty"`
}

// RepoStep clones a git repository.
type RepoStep struct {
	URL         string `yaml:"url" validate:"required,url"`
	Destination string `yaml:"destination" validate:"required"`
	Branch      string `yaml:"branch,omitempty"`
	Depth       int    `yaml:"depth,omitempty" validate:"omitempty,min=0"`
}

// CommandStep executes a shell command. WorkDir and Env are declared here
// rather than inherited from ambient process state so the step is
// self-describing and reproducible.
type CommandStep struct {
	Command string            `yaml:"command" validate:"required,min=1"`
	Check   string            `yaml:"check,omitempty"`
	Shell   string            `yaml:"shell,omitempty"`
	WorkDir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// DownloadStep fetches a URL to a local file, optionally verifying a SHA-256
// checksum.
type DownloadStep struct {
	URL         string `yaml:"url" validate:"required,url"`
	Destination string `yaml:"destination" validate:"required"`
	SHA256      string `yaml:"sha256,omitempty" validate:"omitempty,len=64,hexadecimal"`
}

// LineInFileStep appends a line to a file when it is not already present,
// e.g. environment exports in a shell profile.
type LineInFileStep struct {
	File string `yaml:"file" validate:"required"`
	Line string `yaml:"line" validate:"required,min=1"`
}

// Validation represents a post-execution validation.
type Validation struct {
	Type string `yaml:"type" validate:"required,oneof=command_exists file_exists path_contains"`

	CommandExists *CommandExistsValidation `yaml:",inline,omitempty"`
	FileExists    *FileExistsValidation    `yaml:",inline,omitempty"`
	PathContains  *PathContainsValidation  `yaml:",inline,omitempty"`
}

// UnmarshalYAML populates the validation body matching the declared type.
func (v *Validation) UnmarshalYAML(value *yaml.Node) error {
	type baseValidation struct {
		Type string `yaml:"type"`
	}

	var base baseValidation
	if err := value.Decode(&base); err != nil {
		return err
	}

	v.Type = base.Type
	v.CommandExists = nil
	v.FileExists = nil
	v.PathContains = nil

	switch base.Type {
	case "command_exists":
		var ce CommandExistsValidation
		if err := value.Decode(&ce); err != nil {
			return err
		}
		v.CommandExists = &ce
	case "file_exists":
		var fe FileExistsValidation
		if err := value.Decode(&fe); err != nil {
			return err
		}
		v.FileExists = &fe
	case "path_contains":
		var pc PathContainsValidation
		if err := value.Decode(&pc); err != nil {
			return err
		}
		v.PathContains = &pc
	}

	return nil
}

// CommandExistsValidation ensures a command exists on PATH.
type CommandExistsValidation struct {
	Command string `yaml:"command" validate:"required"`
}

// FileExistsValidation ensures a file or directory exists.
type FileExistsValidation struct {
	Path string `yaml:"path" validate:"required"`
}

// PathContainsValidation ensures a file contains specific text.
type PathContainsValidation struct {
	File string `yaml:"file" validate:"required"`
	Text string `yaml:"text" validate:"required"`
}

// StepMap builds a lookup table for steps by ID.
func StepMap(steps []Step) map[string]Step {
	out := make(map[string]Step, len(steps))
	for _, step := range steps {
		out[step.ID] = step
	}
	return out
}
