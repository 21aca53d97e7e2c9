package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/cupsy/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, nil
	case QueueStartMsg:
		entry, _ := m.queues.Get(msg.Index)
		entry.Name = msg.Name
		entry.Status = components.StatusRunning
		m.queues.Set(msg.Index, entry)
		return m, nil
	case QueueDoneMsg:
		existing, _ := m.queues.Get(msg.Result.Index)
		entry := entryFor(msg.Result, m.dryRun)
		m.queues.Set(msg.Result.Index, entry)
		if !existing.Done() {
			m.completed++
			if entry.Status == components.StatusChanged || entry.Status == components.StatusPlanned || entry.Status == components.StatusRemoved {
				m.changed++
			}
			m.markFinishedIfComplete()
		}
		if entry.Status == components.StatusFailed {
			m.failed = true
			m.finished = true
		}
		return m, nil
	case RunDoneMsg:
		m.finished = true
		m.message = msg.Summary
		if msg.Err != nil {
			m.failed = true
		}
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
