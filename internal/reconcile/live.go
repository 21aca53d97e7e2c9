package reconcile

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
)

// Values the scheduler assumes when a queue does not report the attribute.
const (
	DefaultOperationPolicy = "default"
	DefaultErrorPolicy     = "stop-printer"
	noBanner               = "none"
)

// Snapshot fetches the current state of name.
func Snapshot(ctx context.Context, q cups.Querier, name string) (*model.LiveState, error) {
	attrs, err := q.GetAttributes(ctx, name)
	if err != nil {
		return nil, err
	}
	defaultName, err := q.Default(ctx)
	if err != nil {
		return nil, err
	}
	return LiveFromAttributes(name, attrs, defaultName), nil
}

// LiveFromAttributes builds a LiveState from raw IPP attributes.
func LiveFromAttributes(name string, attrs cups.Attributes, defaultName string) *model.LiveState {
	makeAndModel := attrs.String(cups.AttrMakeAndModel)

	live := &model.LiveState{
		Name:            name,
		Kind:            model.KindPrinter,
		Raw:             strings.Contains(makeAndModel, cups.RawMarker),
		MakeAndModel:    makeAndModel,
		DeviceURI:       attrs.String(cups.AttrDeviceURI),
		JobSheets:       jobSheets(attrs.Strings(cups.AttrJobSheets)),
		RunState:        model.RunStateFromIPP(attrs.PrinterState()),
		Default:         defaultName != "" && defaultName == name,
		Accepting:       attrs.Bool(cups.AttrAccepting),
		Shared:          attrs.Bool(cups.AttrShared),
		Info:            attrs.String(model.AttrInfo.String()),
		Location:        attrs.String(model.AttrLocation.String()),
		OperationPolicy: attrs.StringOr(model.AttrOperationPolicy.String(), DefaultOperationPolicy),
		ErrorPolicy:     attrs.StringOr(model.AttrErrorPolicy.String(), DefaultErrorPolicy),
	}
	if strings.Contains(makeAndModel, cups.ClassMarker) {
		live.Kind = model.KindClass
		live.Members = attrs.Strings(cups.AttrMemberNames)
	}
	return live
}

func jobSheets(values []string) model.JobSheets {
	sheets := model.JobSheets{Header: noBanner, Footer: noBanner}
	if len(values) > 0 && values[0] != "" {
		sheets.Header = values[0]
	}
	if len(values) > 1 && values[1] != "" {
		sheets.Footer = values[1]
	}
	return sheets
}
