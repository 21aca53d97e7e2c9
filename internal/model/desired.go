package model

import "fmt"

// Kind identifies whether a queue is a single printer or a class of printers.
type Kind string

const (
	// KindPrinter is a print queue bound to one device.
	KindPrinter Kind = "printer"
	// KindClass groups printer queues that share incoming jobs.
	KindClass Kind = "class"
)

// DriverKind says where a printer's driver description comes from.
type DriverKind string

const (
	// DriverRaw configures the queue without any driver translation.
	DriverRaw DriverKind = "raw"
	// DriverCatalog references a driver by its name in the server's driver database.
	DriverCatalog DriverKind = "cups"
	// DriverLocalFile references a driver description file on the managed host.
	DriverLocalFile DriverKind = "file"
)

// DriverSpec is the desired driver identity of a printer.
type DriverSpec struct {
	Kind      DriverKind
	Reference string
}

func (d DriverSpec) String() string {
	if d.Kind == DriverRaw || d.Reference == "" {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s:%s", d.Kind, d.Reference)
}

// TextAttribute enumerates the free-form and policy attributes shared by
// printers and classes.
type TextAttribute int

const (
	AttrInfo TextAttribute = iota
	AttrLocation
	AttrOperationPolicy
	AttrErrorPolicy
)

// TextAttributes lists every TextAttribute in reconciliation order.
var TextAttributes = []TextAttribute{AttrInfo, AttrLocation, AttrOperationPolicy, AttrErrorPolicy}

// String returns the IPP attribute name.
func (a TextAttribute) String() string {
	switch a {
	case AttrInfo:
		return "printer-info"
	case AttrLocation:
		return "printer-location"
	case AttrOperationPolicy:
		return "printer-op-policy"
	case AttrErrorPolicy:
		return "printer-error-policy"
	default:
		return fmt.Sprintf("text-attribute(%d)", int(a))
	}
}

// DesiredState is the validated target configuration for one queue. It is
// built once per invocation and never mutated by the reconciler.
type DesiredState struct {
	Name string
	Kind Kind

	Info            Optional[string]
	Location        Optional[string]
	OperationPolicy Optional[string]
	ErrorPolicy     Optional[string]

	Shared    Optional[bool]
	Enabled   Optional[bool]
	Accepting Optional[bool]
	Default   Optional[bool]

	BannerHeader Optional[string]
	BannerFooter Optional[string]

	// Printer only.
	DeviceURI Optional[string]
	Driver    *DriverSpec

	// Class only.
	Members    Optional[[]string]
	AppendOnly bool
}

// Text returns the desired value of attr.
func (d *DesiredState) Text(attr TextAttribute) Optional[string] {
	switch attr {
	case AttrInfo:
		return d.Info
	case AttrLocation:
		return d.Location
	case AttrOperationPolicy:
		return d.OperationPolicy
	case AttrErrorPolicy:
		return d.ErrorPolicy
	default:
		return None[string]()
	}
}
