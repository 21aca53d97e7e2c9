package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/cupsy/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("cupsy • %s", m.heading()))
	if m.dryRun {
		title = lipgloss.JoinHorizontal(lipgloss.Left, title, " ", dryRunBadge.Render("(dry run)"))
	}
	sections = append(sections, title)

	progress := components.NewProgress(m.queues.Len()).View(m.completed)
	sections = append(sections, sectionStyle.Render("Progress"), progress)

	if entries := m.queues.Entries(); len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Queues"), renderQueueEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.queues.Len(),
		Completed: m.completed,
		Changed:   m.changed,
		DryRun:    m.dryRun,
		Finished:  m.finished,
		Cancelled: m.cancelled,
		Failed:    m.failed,
		Message:   m.message,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderQueueEntries(entries []components.QueueEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		line := fmt.Sprintf(" %s %s", StatusIcon(entry.Status), entry.Name)
		if entry.Done() {
			line = fmt.Sprintf("%s %s", line, entry.Status)
		}
		if strings.TrimSpace(entry.Detail) != "" {
			line = fmt.Sprintf("%s: %s", line, entry.Detail)
		}
		if entry.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, entry.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) heading() string {
	if strings.TrimSpace(m.title) != "" {
		return m.title
	}
	return "apply"
}

// StatusIcon returns the glyph representing a queue status.
func StatusIcon(status string) string {
	switch status {
	case components.StatusChanged, components.StatusRemoved:
		return changedStyle.Render("✓")
	case components.StatusUnchanged:
		return unchangedStyle.Render("=")
	case components.StatusRunning:
		return runningStyle.Render("⏳")
	case components.StatusFailed:
		return failedStyle.Render("✗")
	case components.StatusPlanned:
		return plannedStyle.Render("↻")
	default:
		return pendingStyle.Render("…")
	}
}
