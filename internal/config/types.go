package config

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/cupsy/internal/model"
)

// Queue states.
const (
	StatePresent = "present"
	StateAbsent  = "absent"
)

// Document is a queue document: global settings plus the queues to converge,
// in the order they are reconciled.
type Document struct {
	Version  string   `yaml:"version" json:"version" validate:"required,semver"`
	Settings Settings `yaml:"settings,omitempty" json:"settings,omitempty"`
	Queues   []Queue  `yaml:"queues" json:"queues" validate:"required,min=1,dive"`
}

// Settings holds connection and execution parameters.
type Settings struct {
	Server  string `yaml:"server,omitempty" json:"server,omitempty"`
	User    string `yaml:"user,omitempty" json:"user,omitempty"`
	DryRun  bool   `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty" json:"verbose,omitempty"`
}

// Driver selects where a printer's driver description comes from.
type Driver struct {
	Type string `yaml:"type" json:"type" validate:"required,oneof=raw cups file"`
	Ref  string `yaml:"ref,omitempty" json:"ref,omitempty"`
}

// Queue is the desired configuration of one printer or class. Optional fields
// left out of the document leave the live value untouched.
type Queue struct {
	Name  string `yaml:"name" json:"name" validate:"required,queue_name"`
	Kind  string `yaml:"kind,omitempty" json:"kind,omitempty" validate:"oneof=printer class"`
	State string `yaml:"state,omitempty" json:"state,omitempty" validate:"oneof=present absent"`

	Info        model.Optional[string] `yaml:"info" json:"info" validate:"omitempty,max=1023"`
	Location    model.Optional[string] `yaml:"location" json:"location" validate:"omitempty,max=1023"`
	OpPolicy    model.Optional[string] `yaml:"op_policy" json:"op_policy" validate:"omitempty,printascii"`
	ErrorPolicy model.Optional[string] `yaml:"error_policy" json:"error_policy" validate:"omitempty,oneof=abort-job retry-job retry-current-job stop-printer"`

	Shared    model.Optional[bool] `yaml:"shared" json:"shared"`
	Enabled   model.Optional[bool] `yaml:"enabled" json:"enabled"`
	Accepting model.Optional[bool] `yaml:"accept" json:"accept"`
	Default   model.Optional[bool] `yaml:"default" json:"default"`

	Header model.Optional[string] `yaml:"header" json:"header"`
	Footer model.Optional[string] `yaml:"footer" json:"footer"`

	Device model.Optional[string] `yaml:"device" json:"device" validate:"omitempty,min=1"`
	Driver *Driver                `yaml:"driver,omitempty" json:"driver,omitempty"`

	Members model.Optional[[]string] `yaml:"members" json:"members" validate:"omitempty,dive,queue_name"`
	Append  bool                     `yaml:"append,omitempty" json:"append,omitempty"`
}

// UnmarshalYAML fills in the default kind and state.
func (q *Queue) UnmarshalYAML(value *yaml.Node) error {
	type rawQueue Queue
	var temp rawQueue
	if err := value.Decode(&temp); err != nil {
		return err
	}
	*q = Queue(temp)
	if !hasYAMLKey(value, "kind") {
		q.Kind = string(model.KindPrinter)
	}
	if !hasYAMLKey(value, "state") {
		q.State = StatePresent
	}
	return nil
}

// applyDefaults fills in kind and state for queues decoded from JSON.
func (q *Queue) applyDefaults() {
	if q.Kind == "" {
		q.Kind = string(model.KindPrinter)
	}
	if q.State == "" {
		q.State = StatePresent
	}
}

// Absent reports whether the queue should be removed.
func (q *Queue) Absent() bool {
	return q.State == StateAbsent
}

// Desired converts the queue into the state the reconciler converges to.
func (q *Queue) Desired() *model.DesiredState {
	d := &model.DesiredState{
		Name:            q.Name,
		Kind:            model.Kind(q.Kind),
		Info:            q.Info,
		Location:        q.Location,
		OperationPolicy: q.OpPolicy,
		ErrorPolicy:     q.ErrorPolicy,
		Shared:          q.Shared,
		Enabled:         q.Enabled,
		Accepting:       q.Accepting,
		Default:         q.Default,
		BannerHeader:    q.Header,
		BannerFooter:    q.Footer,
	}
	if d.Kind == model.KindClass {
		d.Members = q.Members
		d.AppendOnly = q.Append
		return d
	}
	d.DeviceURI = q.Device
	if q.Driver != nil {
		d.Driver = &model.DriverSpec{Kind: model.DriverKind(q.Driver.Type), Reference: q.Driver.Ref}
	}
	return d
}

// ModuleArgs is the parameter object an orchestration engine passes to
// `cupsy module`. Queue keys sit at the top level next to the connection
// settings.
type ModuleArgs struct {
	Queue
	Server    string `json:"server,omitempty"`
	User      string `json:"user,omitempty"`
	CheckMode bool   `json:"_ansible_check_mode,omitempty"`
}

func hasYAMLKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if strings.EqualFold(k.Value, key) {
			return true
		}
	}
	return false
}
