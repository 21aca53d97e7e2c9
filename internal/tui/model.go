package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/cupsy/internal/app/run"
	"github.com/alexisbeaulieu97/cupsy/internal/tui/components"
)

// QueueStartMsg indicates a queue has started reconciling.
type QueueStartMsg struct {
	Index int
	Name  string
}

// QueueDoneMsg reports that a queue has finished.
type QueueDoneMsg struct {
	Result run.QueueResult
}

// RunDoneMsg carries the final run summary.
type RunDoneMsg struct {
	Summary string
	Err     error
}

type tickMsg struct{}

// Model contains the Bubbletea state for an apply run.
type Model struct {
	title     string
	dryRun    bool
	queues    components.QueueList
	completed int
	changed   int
	failed    bool
	finished  bool
	cancelled bool
	message   string
}

// NewModel constructs a model tracking the named queues in document order.
func NewModel(title string, names []string, dryRun bool) Model {
	return Model{
		title:  title,
		dryRun: dryRun,
		queues: components.NewQueueList(names),
	}
}

// Init starts the Bubbletea program.
func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

// TotalQueues returns the number of queues tracked by the model.
func (m Model) TotalQueues() int {
	return m.queues.Len()
}

// CompletedQueues returns the number of queues that reached a terminal status.
func (m Model) CompletedQueues() int {
	return m.completed
}

// ChangedQueues returns the number of queues that changed or would change.
func (m Model) ChangedQueues() int {
	return m.changed
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// Queue returns the entry at index.
func (m Model) Queue(index int) (components.QueueEntry, bool) {
	return m.queues.Get(index)
}

func (m *Model) markFinishedIfComplete() {
	if m.queues.Len() > 0 && m.completed >= m.queues.Len() {
		m.finished = true
	}
}

func entryFor(res run.QueueResult, dryRun bool) components.QueueEntry {
	entry := components.QueueEntry{Name: res.Name, Duration: res.Duration}
	switch {
	case res.Err != nil:
		entry.Status = components.StatusFailed
		entry.Detail = res.Err.Error()
	case res.Result == nil || !res.Result.Changed:
		entry.Status = components.StatusUnchanged
	case dryRun:
		entry.Status = components.StatusPlanned
		if len(res.Result.Operations) > 0 {
			op := res.Result.Operations[0]
			entry.Detail = fmt.Sprintf("next: %s", op.Action)
		}
	case res.Absent:
		entry.Status = components.StatusRemoved
	default:
		entry.Status = components.StatusChanged
		entry.Detail = operationCount(len(res.Result.Operations))
		if res.Result.Rebuilt {
			entry.Detail = "rebuilt, " + entry.Detail
		}
	}
	return entry
}

func operationCount(n int) string {
	if n == 1 {
		return "1 operation"
	}
	return fmt.Sprintf("%d operations", n)
}
