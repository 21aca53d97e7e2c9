package model

// Action names a single mutation issued against the printing service.
type Action string

const (
	ActionCreate       Action = "create"
	ActionDelete       Action = "delete"
	ActionRebuild      Action = "rebuild"
	ActionSetText      Action = "set_text"
	ActionSetShared    Action = "set_shared"
	ActionSetDefault   Action = "set_default"
	ActionClearDefault Action = "clear_default"
	ActionSetAccepting Action = "set_accepting"
	ActionSetEnabled   Action = "set_enabled"
	ActionSetDevice    Action = "set_device"
	ActionSetJobSheets Action = "set_job_sheets"
	ActionAddMember    Action = "add_member"
	ActionRemoveMember Action = "remove_member"
)

// Operation is one entry of the audit trail.
type Operation struct {
	Action Action `json:"action" yaml:"action"`
	Target string `json:"target" yaml:"target"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Planned is set when dry-run stopped before issuing the operation.
	Planned bool `json:"planned,omitempty" yaml:"planned,omitempty"`
}

// Result is the terminal outcome of reconciling one queue.
type Result struct {
	Name       string      `json:"name" yaml:"name"`
	Changed    bool        `json:"changed" yaml:"changed"`
	DryRun     bool        `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Rebuilt    bool        `json:"rebuilt,omitempty" yaml:"rebuilt,omitempty"`
	Reason     string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Operations []Operation `json:"operations" yaml:"operations"`
}

// Record appends op to the audit trail and marks the result changed.
func (r *Result) Record(op Operation) {
	r.Changed = true
	r.Operations = append(r.Operations, op)
}

// Applied returns the operations that were actually issued.
func (r *Result) Applied() []Operation {
	out := make([]Operation, 0, len(r.Operations))
	for _, op := range r.Operations {
		if !op.Planned {
			out = append(out, op)
		}
	}
	return out
}
