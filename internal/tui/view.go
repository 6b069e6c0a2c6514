package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/groundworklabs/groundwork/internal/model"
)

// View renders the current state of the run.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(fmt.Sprintf("groundwork • %s", m.title())))

	sections = append(sections, sectionStyle.Render("Progress"), m.renderProgress())

	if len(m.order) > 0 {
		sections = append(sections, sectionStyle.Render("Steps"), m.renderSteps())
	}

	if summary := m.renderSummary(); strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderProgress() string {
	ratio := 0.0
	if m.total > 0 {
		ratio = math.Min(1.0, float64(m.completed)/float64(m.total))
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", m.completed, m.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", m.bar.ViewAs(ratio))
}

func (m Model) renderSteps() string {
	var lines []string
	for _, id := range m.order {
		res := m.steps[id]
		icon := m.statusIcon(res.Status)
		line := fmt.Sprintf(" %s %s", icon, id)
		if strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s — %s", line, res.Message)
		}
		if res.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	var lines []string
	if m.total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed", m.completed, m.total))
	}

	if m.cancelled {
		lines = append(lines, "Run cancelled")
	} else if m.finished && m.total > 0 {
		if m.completed == m.total {
			lines = append(lines, "Provisioning finished")
		} else {
			lines = append(lines, "Provisioning stopped with pending steps")
		}
	}

	if len(m.validations) > 0 {
		lines = append(lines, "Validations:")
		for _, v := range m.validations {
			status := failureStyle.Render("✗")
			if v.Passed {
				status = successStyle.Render("✓")
			}
			lines = append(lines, fmt.Sprintf("  %s %s", status, v.Message))
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if m.cfg != nil && strings.TrimSpace(m.cfg.Name) != "" {
		return m.cfg.Name
	}
	return "provisioning"
}

func (m Model) statusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render(m.spin.View())
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	case model.StatusWouldUpdate:
		return pendingStyle.Render("↻")
	default:
		return pendingStyle.Render("…")
	}
}
