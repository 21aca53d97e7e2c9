package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	summaryStyle = lipgloss.NewStyle().MarginTop(1)

	// queue status glyphs
	changedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	unchangedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	plannedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dryRunBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
)
