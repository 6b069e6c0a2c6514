package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/groundworklabs/groundwork/internal/config"
	"github.com/groundworklabs/groundwork/internal/engine"
	"github.com/groundworklabs/groundwork/internal/model"
)

// StepStartMsg indicates a step has started executing.
type StepStartMsg struct {
	ID   string
	Time time.Time
}

// StepCompleteMsg reports that a step has finished execution.
type StepCompleteMsg struct {
	Result model.StepResult
}

// ValidationMsg carries the outcome of one post-run validation.
type ValidationMsg struct {
	Passed  bool
	Message string
}

// DoneMsg signals that the whole run is over and the program should exit.
type DoneMsg struct{}

// validationStatus is a validation outcome retained for summary rendering.
type validationStatus struct {
	Passed  bool
	Message string
}

// Model holds the Bubbletea state for the provisioning progress display.
type Model struct {
	cfg   *config.Config
	steps map[string]model.StepResult
	order []string

	spin spinner.Model
	bar  progress.Model

	validations []validationStatus
	running     string
	total       int
	completed   int
	finished    bool
	cancelled   bool
}

// NewModel constructs the TUI model for the given configuration and plan.
// Steps appear in plan order, all pending.
func NewModel(cfg *config.Config, plan *engine.ExecutionPlan) Model {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	m := Model{
		cfg:   cfg,
		steps: make(map[string]model.StepResult),
		spin:  spin,
		bar:   bar,
	}

	if plan != nil {
		for _, id := range plan.Order {
			if _, exists := m.steps[id]; !exists {
				m.steps[id] = model.StepResult{StepID: id, Status: model.StatusPending}
				m.order = append(m.order, id)
				m.total++
			}
		}
	}

	return m
}

// Init starts the spinner tick loop.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// TotalSteps returns the number of steps tracked by the model.
func (m Model) TotalSteps() int {
	return m.total
}

// CompletedSteps returns the number of steps that reached a terminal status.
func (m Model) CompletedSteps() int {
	return m.completed
}

// IsFinished reports whether the run has ended.
func (m Model) IsFinished() bool {
	return m.finished
}

// IsCancelled reports whether the user interrupted the run.
func (m Model) IsCancelled() bool {
	return m.cancelled
}

func (m *Model) ensureStep(id string) {
	if id == "" {
		return
	}
	if _, exists := m.steps[id]; !exists {
		m.steps[id] = model.StepResult{StepID: id, Status: model.StatusPending}
		m.order = append(m.order, id)
		m.total++
	}
}

func isTerminal(status string) bool {
	switch status {
	case model.StatusSuccess, model.StatusSkipped, model.StatusFailed, model.StatusWouldUpdate:
		return true
	}
	return false
}
