package model

// RunState is the scheduler state of a queue.
type RunState string

const (
	RunStateIdle       RunState = "Idle"
	RunStateProcessing RunState = "Processing"
	RunStateStopped    RunState = "Stopped"
	RunStateUnknown    RunState = "Unknown"
)

// RunStateFromIPP maps the IPP printer-state enum to a RunState.
func RunStateFromIPP(state int) RunState {
	switch state {
	case 3:
		return RunStateIdle
	case 4:
		return RunStateProcessing
	case 5:
		return RunStateStopped
	default:
		return RunStateUnknown
	}
}

// JobSheets is the banner pair printed around each job.
type JobSheets struct {
	Header string
	Footer string
}

// LiveState is a snapshot of an existing queue as reported by the printing service.
type LiveState struct {
	Name         string
	Kind         Kind
	Raw          bool
	MakeAndModel string
	DeviceURI    string
	Members      []string
	JobSheets    JobSheets
	RunState     RunState

	Default   bool
	Accepting bool
	Shared    bool

	Info            string
	Location        string
	OperationPolicy string
	ErrorPolicy     string
}

// Text returns the live value of attr.
func (l *LiveState) Text(attr TextAttribute) string {
	switch attr {
	case AttrInfo:
		return l.Info
	case AttrLocation:
		return l.Location
	case AttrOperationPolicy:
		return l.OperationPolicy
	case AttrErrorPolicy:
		return l.ErrorPolicy
	default:
		return ""
	}
}

// Enabled reports whether the queue is processing jobs.
func (l *LiveState) Enabled() bool {
	return l.RunState != RunStateStopped
}
