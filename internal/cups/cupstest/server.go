// Package cupstest provides an in-memory printing service for tests.
package cupstest

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

// Queue is the server-side record of a printer or class.
type Queue struct {
	Name         string
	Class        bool
	MakeAndModel string
	DeviceURI    string
	// Driver is the installed driver description; empty for raw queues and classes.
	Driver    string
	Members   []string
	Info      string
	Location  string
	OpPolicy  string
	ErrPolicy string
	Shared    bool
	Accepting bool
	State     int
	JobSheets model.JobSheets
}

// Call records one client invocation.
type Call struct {
	Op   string
	Args []string
}

var mutatingOps = map[string]bool{
	"create-printer": true,
	"delete":         true,
	"set-attribute":  true,
	"set-shared":     true,
	"set-default":    true,
	"set-accepting":  true,
	"set-enabled":    true,
	"set-device":     true,
	"set-job-sheets": true,
	"add-member":     true,
	"remove-member":  true,
}

// Server is a fake cups.Client. It is not safe for concurrent use.
type Server struct {
	Queues      map[string]*Queue
	DefaultDest string
	// Catalog maps catalog driver references to driver descriptions.
	Catalog    map[string]string
	DeviceList map[string]string

	Calls []Call

	tempDir string
	fail    map[string]error
	fetched []string
}

var _ cups.Client = (*Server)(nil)

// New creates an empty server writing fetched driver files below tempDir.
func New(tempDir string) *Server {
	return &Server{
		Queues:     make(map[string]*Queue),
		Catalog:    make(map[string]string),
		DeviceList: make(map[string]string),
		tempDir:    tempDir,
		fail:       make(map[string]error),
	}
}

// AddQueue installs q, filling in scheduler defaults for zero fields, and
// returns the stored record.
func (s *Server) AddQueue(q Queue) *Queue {
	if q.State == 0 {
		q.State = 3
	}
	if q.OpPolicy == "" {
		q.OpPolicy = "default"
	}
	if q.ErrPolicy == "" {
		q.ErrPolicy = "stop-printer"
	}
	if q.JobSheets == (model.JobSheets{}) {
		q.JobSheets = model.JobSheets{Header: "none", Footer: "none"}
	}
	if q.MakeAndModel == "" {
		switch {
		case q.Class:
			q.MakeAndModel = cups.ClassMarker
		case q.Driver == "":
			q.MakeAndModel = cups.RawMarker
		default:
			q.MakeAndModel = "Generic PostScript Printer"
		}
	}
	stored := q
	s.Queues[q.Name] = &stored
	return &stored
}

// FailOn makes every later call of op fail with err.
func (s *Server) FailOn(op string, err error) {
	s.fail[op] = err
}

// Mutations returns the recorded calls that change server state.
func (s *Server) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls {
		if mutatingOps[c.Op] {
			out = append(out, c)
		}
	}
	return out
}

// Outstanding lists fetched driver files that still exist on disk.
func (s *Server) Outstanding() []string {
	var out []string
	for _, path := range s.fetched {
		if _, err := os.Stat(path); err == nil {
			out = append(out, path)
		}
	}
	return out
}

func (s *Server) record(op, target string, args ...string) error {
	s.Calls = append(s.Calls, Call{Op: op, Args: append([]string{target}, args...)})
	if err, ok := s.fail[op]; ok {
		return cupserrors.NewProtocolError(op, target, err)
	}
	return nil
}

func (s *Server) lookup(op, name string) (*Queue, error) {
	q, ok := s.Queues[name]
	if !ok {
		return nil, cupserrors.NewProtocolError(op, name, fmt.Errorf("client-error-not-found"))
	}
	return q, nil
}

// ListObjects implements cups.Querier.
func (s *Server) ListObjects(_ context.Context) ([]string, error) {
	if err := s.record("list-objects", ""); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.Queues))
	for name := range s.Queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetAttributes implements cups.Querier.
func (s *Server) GetAttributes(_ context.Context, name string) (cups.Attributes, error) {
	if err := s.record("get-attributes", name); err != nil {
		return nil, err
	}
	q, err := s.lookup("get-attributes", name)
	if err != nil {
		return nil, err
	}
	attrs := cups.Attributes{
		cups.AttrMakeAndModel:              {q.MakeAndModel},
		cups.AttrJobSheets:                 {q.JobSheets.Header, q.JobSheets.Footer},
		cups.AttrState:                     {strconv.Itoa(q.State)},
		cups.AttrAccepting:                 {strconv.FormatBool(q.Accepting)},
		cups.AttrShared:                    {strconv.FormatBool(q.Shared)},
		model.AttrInfo.String():            {q.Info},
		model.AttrLocation.String():        {q.Location},
		model.AttrOperationPolicy.String(): {q.OpPolicy},
		model.AttrErrorPolicy.String():     {q.ErrPolicy},
	}
	if q.Class {
		attrs[cups.AttrMemberNames] = append([]string(nil), q.Members...)
	} else {
		attrs[cups.AttrDeviceURI] = []string{q.DeviceURI}
	}
	return attrs, nil
}

// Default implements cups.Querier.
func (s *Server) Default(_ context.Context) (string, error) {
	if err := s.record("get-default", ""); err != nil {
		return "", err
	}
	return s.DefaultDest, nil
}

// Drivers implements cups.Querier.
func (s *Server) Drivers(_ context.Context) (map[string]string, error) {
	if err := s.record("list-drivers", ""); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s.Catalog))
	for ref := range s.Catalog {
		out[ref] = "Catalog driver " + ref
	}
	return out, nil
}

// Devices implements cups.Querier.
func (s *Server) Devices(_ context.Context) (map[string]string, error) {
	if err := s.record("list-devices", ""); err != nil {
		return nil, err
	}
	return s.DeviceList, nil
}

func (s *Server) writeTemp(content string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "driver-*.ppd")
	if err != nil {
		return "", err
	}
	s.fetched = append(s.fetched, f.Name())
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}

// FetchDriverFile implements cups.Client.
func (s *Server) FetchDriverFile(_ context.Context, name string) (string, error) {
	if err := s.record("fetch-driver", name); err != nil {
		return "", err
	}
	q, err := s.lookup("fetch-driver", name)
	if err != nil {
		return "", err
	}
	if q.Driver == "" {
		return "", cupserrors.NewResourceError("fetch driver", name, fmt.Errorf("no driver installed"))
	}
	return s.writeTemp(q.Driver)
}

// FetchCatalogDriverFile implements cups.Client.
func (s *Server) FetchCatalogDriverFile(_ context.Context, reference string) (string, error) {
	if err := s.record("fetch-catalog-driver", reference); err != nil {
		return "", err
	}
	content, ok := s.Catalog[reference]
	if !ok {
		return "", cupserrors.NewResourceError("fetch driver", reference, fmt.Errorf("driver not in catalog"))
	}
	return s.writeTemp(content)
}

// CreatePrinter implements cups.Client. New printers are enabled and accepting.
func (s *Server) CreatePrinter(_ context.Context, name, deviceURI string, driver model.DriverSpec) error {
	if err := s.record("create-printer", name, deviceURI, driver.String()); err != nil {
		return err
	}
	if _, exists := s.Queues[name]; exists {
		return cupserrors.NewProtocolError("create-printer", name, fmt.Errorf("queue already exists"))
	}

	q := Queue{
		Name:      name,
		DeviceURI: deviceURI,
		Accepting: true,
		OpPolicy:  "default",
		ErrPolicy: "stop-printer",
		JobSheets: model.JobSheets{Header: "none", Footer: "none"},
	}
	switch driver.Kind {
	case model.DriverCatalog:
		content, ok := s.Catalog[driver.Reference]
		if !ok {
			return cupserrors.NewProtocolError("create-printer", name, fmt.Errorf("unknown driver %s", driver.Reference))
		}
		q.Driver = content
	case model.DriverLocalFile:
		content, err := os.ReadFile(driver.Reference)
		if err != nil {
			return cupserrors.NewProtocolError("create-printer", name, err)
		}
		q.Driver = string(content)
	}
	s.AddQueue(q)
	return nil
}

// Delete implements cups.Client.
func (s *Server) Delete(_ context.Context, name string) error {
	if err := s.record("delete", name); err != nil {
		return err
	}
	if _, err := s.lookup("delete", name); err != nil {
		return err
	}
	delete(s.Queues, name)
	if s.DefaultDest == name {
		s.DefaultDest = ""
	}
	for _, q := range s.Queues {
		q.Members = slices.DeleteFunc(q.Members, func(m string) bool { return m == name })
	}
	return nil
}

// SetAttribute implements cups.Client.
func (s *Server) SetAttribute(_ context.Context, name string, attr model.TextAttribute, value string) error {
	if err := s.record("set-attribute", name, attr.String(), value); err != nil {
		return err
	}
	q, err := s.lookup("set-attribute", name)
	if err != nil {
		return err
	}
	switch attr {
	case model.AttrInfo:
		q.Info = value
	case model.AttrLocation:
		q.Location = value
	case model.AttrOperationPolicy:
		q.OpPolicy = value
	case model.AttrErrorPolicy:
		q.ErrPolicy = value
	}
	return nil
}

// SetShared implements cups.Client.
func (s *Server) SetShared(_ context.Context, name string, shared bool) error {
	if err := s.record("set-shared", name, strconv.FormatBool(shared)); err != nil {
		return err
	}
	q, err := s.lookup("set-shared", name)
	if err != nil {
		return err
	}
	q.Shared = shared
	return nil
}

// SetDefault implements cups.Client.
func (s *Server) SetDefault(_ context.Context, name string) error {
	if err := s.record("set-default", name); err != nil {
		return err
	}
	if name != "" {
		if _, err := s.lookup("set-default", name); err != nil {
			return err
		}
	}
	s.DefaultDest = name
	return nil
}

// SetAccepting implements cups.Client.
func (s *Server) SetAccepting(_ context.Context, name string, accepting bool) error {
	if err := s.record("set-accepting", name, strconv.FormatBool(accepting)); err != nil {
		return err
	}
	q, err := s.lookup("set-accepting", name)
	if err != nil {
		return err
	}
	q.Accepting = accepting
	return nil
}

// SetEnabled implements cups.Client.
func (s *Server) SetEnabled(_ context.Context, name string, enabled bool) error {
	if err := s.record("set-enabled", name, strconv.FormatBool(enabled)); err != nil {
		return err
	}
	q, err := s.lookup("set-enabled", name)
	if err != nil {
		return err
	}
	if enabled {
		q.State = 3
	} else {
		q.State = 5
	}
	return nil
}

// SetDevice implements cups.Client.
func (s *Server) SetDevice(_ context.Context, name, uri string) error {
	if err := s.record("set-device", name, uri); err != nil {
		return err
	}
	q, err := s.lookup("set-device", name)
	if err != nil {
		return err
	}
	q.DeviceURI = uri
	return nil
}

// SetJobSheets implements cups.Client.
func (s *Server) SetJobSheets(_ context.Context, name string, sheets model.JobSheets) error {
	if err := s.record("set-job-sheets", name, sheets.Header, sheets.Footer); err != nil {
		return err
	}
	q, err := s.lookup("set-job-sheets", name)
	if err != nil {
		return err
	}
	q.JobSheets = sheets
	return nil
}

// AddMember implements cups.Client, creating the class on first use.
func (s *Server) AddMember(_ context.Context, queue, class string) error {
	if err := s.record("add-member", class, queue); err != nil {
		return err
	}
	if _, err := s.lookup("add-member", queue); err != nil {
		return err
	}
	c, ok := s.Queues[class]
	if !ok {
		c = s.AddQueue(Queue{
			Name:      class,
			Class:     true,
			Accepting: true,
			OpPolicy:  "default",
			ErrPolicy: "retry-current-job",
			JobSheets: model.JobSheets{Header: "none", Footer: "none"},
		})
	}
	if !slices.Contains(c.Members, queue) {
		c.Members = append(c.Members, queue)
	}
	return nil
}

// RemoveMember implements cups.Client.
func (s *Server) RemoveMember(_ context.Context, queue, class string) error {
	if err := s.record("remove-member", class, queue); err != nil {
		return err
	}
	c, err := s.lookup("remove-member", class)
	if err != nil {
		return err
	}
	c.Members = slices.DeleteFunc(c.Members, func(m string) bool { return m == queue })
	return nil
}
