// Package cups is the boundary to the printing service. Every query and
// mutation the reconciler issues goes through Client; implementations never
// retry and report failures as *errors.ProtocolError or *errors.ResourceError.
package cups

import (
	"context"

	"github.com/alexisbeaulieu97/cupsy/internal/model"
)

// IPP attribute names read from a queue.
const (
	AttrMakeAndModel   = "printer-make-and-model"
	AttrDeviceURI      = "device-uri"
	AttrMemberNames    = "member-names"
	AttrJobSheets      = "job-sheets-default"
	AttrState          = "printer-state"
	AttrStateMessage   = "printer-state-message"
	AttrAccepting      = "printer-is-accepting-jobs"
	AttrShared         = "printer-is-shared"
	AttrType           = "printer-type"
	AttrColorSupported = "color-supported"
	AttrSidesSupported = "sides-supported"
	AttrMediaDefault   = "media-default"
)

// Markers the scheduler writes into printer-make-and-model.
const (
	RawMarker   = "Local Raw Printer"
	ClassMarker = "Local Printer Class"
)

// Querier is the read-only half of the printing service.
type Querier interface {
	// ListObjects returns the names of every printer and class.
	ListObjects(ctx context.Context) ([]string, error)
	GetAttributes(ctx context.Context, name string) (Attributes, error)
	// Default returns the default destination, or "" when none is set.
	Default(ctx context.Context) (string, error)
	// Drivers maps catalog driver references to their descriptions.
	Drivers(ctx context.Context) (map[string]string, error)
	// Devices maps discovered device URIs to their device class.
	Devices(ctx context.Context) (map[string]string, error)
}

// Client is the full query and mutation capability set.
type Client interface {
	Querier

	// FetchDriverFile copies the installed driver description of name into a
	// temporary file. The caller owns the returned path and must remove it.
	FetchDriverFile(ctx context.Context, name string) (string, error)
	// FetchCatalogDriverFile copies a catalog driver into a temporary file
	// owned by the caller.
	FetchCatalogDriverFile(ctx context.Context, reference string) (string, error)

	CreatePrinter(ctx context.Context, name, deviceURI string, driver model.DriverSpec) error
	Delete(ctx context.Context, name string) error

	SetAttribute(ctx context.Context, name string, attr model.TextAttribute, value string) error
	SetShared(ctx context.Context, name string, shared bool) error
	// SetDefault makes name the default destination; "" clears it.
	SetDefault(ctx context.Context, name string) error
	SetAccepting(ctx context.Context, name string, accepting bool) error
	SetEnabled(ctx context.Context, name string, enabled bool) error
	SetDevice(ctx context.Context, name, uri string) error
	SetJobSheets(ctx context.Context, name string, sheets model.JobSheets) error

	// AddMember adds queue to class, creating the class when it does not exist.
	AddMember(ctx context.Context, queue, class string) error
	RemoveMember(ctx context.Context, queue, class string) error
}
