package components

import "time"

// Queue statuses shown in the list.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusChanged   = "changed"
	StatusUnchanged = "ok"
	StatusPlanned   = "would change"
	StatusRemoved   = "removed"
	StatusFailed    = "failed"
)

// QueueEntry is one row of the queue list.
type QueueEntry struct {
	Name     string
	Status   string
	Detail   string
	Duration time.Duration
}

// Done reports whether the queue reached a terminal status.
func (e QueueEntry) Done() bool {
	switch e.Status {
	case StatusPending, StatusRunning, "":
		return false
	default:
		return true
	}
}

// QueueList holds queues in document order.
type QueueList struct {
	entries []QueueEntry
}

// NewQueueList creates a list with every queue pending.
func NewQueueList(names []string) QueueList {
	entries := make([]QueueEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, QueueEntry{Name: name, Status: StatusPending})
	}
	return QueueList{entries: entries}
}

// Set replaces the entry at index, growing the list when a queue was not
// announced up front.
func (l *QueueList) Set(index int, entry QueueEntry) {
	for len(l.entries) <= index {
		l.entries = append(l.entries, QueueEntry{Status: StatusPending})
	}
	l.entries[index] = entry
}

// Get returns the entry at index.
func (l QueueList) Get(index int) (QueueEntry, bool) {
	if index < 0 || index >= len(l.entries) {
		return QueueEntry{}, false
	}
	return l.entries[index], true
}

// Len returns the number of queues.
func (l QueueList) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the ordered entries.
func (l QueueList) Entries() []QueueEntry {
	clone := make([]QueueEntry, len(l.entries))
	copy(clone, l.entries)
	return clone
}
