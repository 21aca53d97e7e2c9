package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering summaries.
type SummaryData struct {
	Total     int
	Completed int
	Changed   int
	DryRun    bool
	Finished  bool
	Cancelled bool
	Failed    bool
	Message   string
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	var lines []string

	if s.data.Total > 0 {
		verb := "changed"
		if s.data.DryRun {
			verb = "would change"
		}
		lines = append(lines, fmt.Sprintf("Queues: %d/%d reconciled, %d %s", s.data.Completed, s.data.Total, s.data.Changed, verb))
	}

	switch {
	case s.data.Cancelled:
		lines = append(lines, "Run cancelled")
	case s.data.Failed:
		lines = append(lines, "Run stopped at the first failure")
	case s.data.Finished && s.data.Total > 0 && s.data.Completed == s.data.Total:
		lines = append(lines, "Run finished successfully")
	case s.data.Finished && s.data.Total > 0:
		lines = append(lines, "Run finished with pending queues")
	}

	if strings.TrimSpace(s.data.Message) != "" {
		lines = append(lines, s.data.Message)
	}

	return strings.Join(lines, "\n")
}
