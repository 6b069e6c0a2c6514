package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/groundworklabs/groundwork/internal/model"
)

// Update handles Bubbletea messages and advances model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case StepStartMsg:
		m.ensureStep(msg.ID)
		step := m.steps[msg.ID]
		step.Status = model.StatusRunning
		m.steps[msg.ID] = step
		m.running = msg.ID
		return m, nil
	case StepCompleteMsg:
		id := msg.Result.StepID
		if id == "" {
			return m, nil
		}
		m.ensureStep(id)
		previouslyDone := isTerminal(m.steps[id].Status)
		m.steps[id] = msg.Result
		if m.running == id {
			m.running = ""
		}
		if !previouslyDone {
			m.completed++
		}
		if msg.Result.Status == model.StatusFailed {
			m.finished = true
		} else if m.total > 0 && m.completed >= m.total {
			m.finished = true
		}
		return m, nil
	case ValidationMsg:
		m.validations = append(m.validations, validationStatus{Passed: msg.Passed, Message: msg.Message})
		return m, nil
	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	}

	return m, nil
}
