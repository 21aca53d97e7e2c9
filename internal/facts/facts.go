// Package facts reports the printers, classes, drivers and devices known to
// the printing service. It only queries; nothing here mutates the server.
package facts

import (
	"context"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	"github.com/alexisbeaulieu97/cupsy/internal/reconcile"
)

// Object describes one printer or class.
type Object struct {
	Name          string         `json:"name" yaml:"name"`
	Kind          model.Kind     `json:"kind" yaml:"kind"`
	Status        model.RunState `json:"status" yaml:"status"`
	StatusMessage string         `json:"status_message" yaml:"status_message"`
	Raw           bool           `json:"raw" yaml:"raw"`
	Info          string         `json:"info" yaml:"info"`
	Location      string         `json:"location" yaml:"location"`
	Type          int            `json:"type" yaml:"type"`
	Shared        bool           `json:"shared" yaml:"shared"`
	Accepting     bool           `json:"accepting" yaml:"accepting"`
	URI           string         `json:"uri,omitempty" yaml:"uri,omitempty"`
	Model         string         `json:"model" yaml:"model"`
	Color         bool           `json:"color" yaml:"color"`
	Duplex        []string       `json:"duplex" yaml:"duplex"`
	MediaDefault  string         `json:"media_default" yaml:"media_default"`
	OpPolicy      string         `json:"op_policy" yaml:"op_policy"`
	ErrorPolicy   string         `json:"error_policy" yaml:"error_policy"`
	Members       []string       `json:"members,omitempty" yaml:"members,omitempty"`
}

// Report is the full read-only view of the server.
type Report struct {
	Default      string            `json:"default" yaml:"default"`
	Objects      []Object          `json:"printers" yaml:"printers"`
	Destinations []string          `json:"dests" yaml:"dests"`
	Drivers      map[string]string `json:"ppds" yaml:"ppds"`
	Devices      map[string]string `json:"devices" yaml:"devices"`
}

// Collect queries every object on the server. The first failing query aborts
// collection.
func Collect(ctx context.Context, q cups.Querier) (*Report, error) {
	names, err := q.ListObjects(ctx)
	if err != nil {
		return nil, err
	}
	defaultName, err := q.Default(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Default:      defaultName,
		Objects:      make([]Object, 0, len(names)),
		Destinations: append([]string{}, names...),
	}
	sort.Strings(report.Destinations)

	for _, name := range report.Destinations {
		attrs, err := q.GetAttributes(ctx, name)
		if err != nil {
			return nil, err
		}
		report.Objects = append(report.Objects, describe(name, attrs, defaultName))
	}

	if report.Drivers, err = q.Drivers(ctx); err != nil {
		return nil, err
	}
	if report.Devices, err = q.Devices(ctx); err != nil {
		return nil, err
	}
	return report, nil
}

func describe(name string, attrs cups.Attributes, defaultName string) Object {
	live := reconcile.LiveFromAttributes(name, attrs, defaultName)

	duplex := attrs.Strings(cups.AttrSidesSupported)
	if len(duplex) == 0 {
		duplex = []string{"one-sided"}
	}

	return Object{
		Name:          name,
		Kind:          live.Kind,
		Status:        live.RunState,
		StatusMessage: attrs.String(cups.AttrStateMessage),
		Raw:           strings.Contains(live.MakeAndModel, "Raw Printer"),
		Info:          live.Info,
		Location:      live.Location,
		Type:          attrs.Int(cups.AttrType),
		Shared:        live.Shared,
		Accepting:     live.Accepting,
		URI:           live.DeviceURI,
		Model:         live.MakeAndModel,
		Color:         attrs.Bool(cups.AttrColorSupported),
		Duplex:        duplex,
		MediaDefault:  attrs.String(cups.AttrMediaDefault),
		OpPolicy:      live.OperationPolicy,
		ErrorPolicy:   live.ErrorPolicy,
		Members:       live.Members,
	}
}
