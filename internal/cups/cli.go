package cups

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/cupsy/internal/internalexec"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

const (
	defaultServer      = "localhost"
	defaultPort        = "631"
	defaultDriverdPath = "/usr/lib/cups/daemon/cups-driverd"
	attributesTestFile = "get-printer-attributes.test"
)

// Options configures the command-line backed client.
type Options struct {
	// Server is the printing service as host[:port]. Empty means the local default.
	Server string
	// User is passed to every tool with -U.
	User string
	// DriverdPath locates cups-driverd, used to extract catalog drivers.
	DriverdPath string
	// TempDir receives fetched driver files; empty means os.TempDir.
	TempDir string

	HTTPClient *http.Client
	Runner     internalexec.Runner
}

// CLI implements Client with the stock CUPS administration tools.
type CLI struct {
	opts Options
}

var _ Client = (*CLI)(nil)

// NewCLI creates a client driving lpadmin, lpstat, lpinfo, ipptool and friends.
func NewCLI(opts Options) *CLI {
	if opts.DriverdPath == "" {
		opts.DriverdPath = defaultDriverdPath
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Runner == nil {
		opts.Runner = internalexec.CommandRunner{}
	}
	return &CLI{opts: opts}
}

func (c *CLI) address() string {
	server := c.opts.Server
	if server == "" {
		server = defaultServer
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, defaultPort)
	}
	return server
}

func (c *CLI) toolArgs(args ...string) []string {
	var out []string
	if c.opts.Server != "" {
		out = append(out, "-h", c.opts.Server)
	}
	if c.opts.User != "" {
		out = append(out, "-U", c.opts.User)
	}
	return append(out, args...)
}

// run executes a CUPS tool and converts failures into protocol errors.
func (c *CLI) run(ctx context.Context, op, target, tool string, args ...string) (internalexec.Result, error) {
	res, err := c.opts.Runner.Run(ctx, nil, tool, c.toolArgs(args...)...)
	if err != nil {
		if out := internalexec.PrimaryOutput(res); out != "" {
			err = fmt.Errorf("%s: %w", out, err)
		}
		return res, cupserrors.NewProtocolError(op, target, err)
	}
	return res, nil
}

// ListObjects implements Querier.
func (c *CLI) ListObjects(ctx context.Context) ([]string, error) {
	res, err := c.opts.Runner.Run(ctx, nil, "lpstat", c.toolArgs("-e")...)
	if err != nil {
		if strings.Contains(internalexec.PrimaryOutput(res), "No destinations added") {
			return nil, nil
		}
		return nil, cupserrors.NewProtocolError("list-objects", "", fmt.Errorf("%s: %w", internalexec.PrimaryOutput(res), err))
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

var ipptoolAttrPattern = regexp.MustCompile(`^\s*([a-z][a-z0-9-]*) \(([^)]*)\) = (.*)$`)

// GetAttributes implements Querier using ipptool's verbose test output.
func (c *CLI) GetAttributes(ctx context.Context, name string) (Attributes, error) {
	uri := (&url.URL{Scheme: "ipp", Host: c.address(), Path: "/printers/" + name}).String()
	res, err := c.opts.Runner.Run(ctx, nil, "ipptool", "-tv", uri, attributesTestFile)
	if err != nil {
		return nil, cupserrors.NewProtocolError("get-printer-attributes", name, fmt.Errorf("%s: %w", internalexec.PrimaryOutput(res), err))
	}
	return ParseIPPToolOutput(res.Stdout), nil
}

// ParseIPPToolOutput extracts "name (syntax) = value" lines. Later lines win,
// so response attributes override the echoed request.
func ParseIPPToolOutput(output string) Attributes {
	attrs := Attributes{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := ipptoolAttrPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		key, syntax, value := m[1], m[2], m[3]
		if strings.HasPrefix(syntax, "1setOf") {
			attrs[key] = strings.Split(value, ",")
		} else {
			attrs[key] = []string{value}
		}
	}
	return attrs
}

// Default implements Querier.
func (c *CLI) Default(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "get-default", "", "lpstat", "-d")
	if err != nil {
		return "", err
	}
	const prefix = "system default destination:"
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
		}
	}
	return "", nil
}

// Drivers implements Querier.
func (c *CLI) Drivers(ctx context.Context) (map[string]string, error) {
	res, err := c.run(ctx, "list-drivers", "", "lpinfo", "-m")
	if err != nil {
		return nil, err
	}
	drivers := make(map[string]string)
	for _, line := range strings.Split(res.Stdout, "\n") {
		ref, desc, _ := strings.Cut(strings.TrimSpace(line), " ")
		if ref != "" {
			drivers[ref] = strings.TrimSpace(desc)
		}
	}
	return drivers, nil
}

// Devices implements Querier.
func (c *CLI) Devices(ctx context.Context) (map[string]string, error) {
	res, err := c.run(ctx, "list-devices", "", "lpinfo", "-v")
	if err != nil {
		return nil, err
	}
	devices := make(map[string]string)
	for _, line := range strings.Split(res.Stdout, "\n") {
		class, uri, ok := strings.Cut(strings.TrimSpace(line), " ")
		if ok {
			devices[strings.TrimSpace(uri)] = class
		}
	}
	return devices, nil
}

func (c *CLI) tempFile(pattern string) (*os.File, error) {
	return os.CreateTemp(c.opts.TempDir, pattern)
}

// FetchDriverFile downloads the installed PPD from the scheduler's web interface.
func (c *CLI) FetchDriverFile(ctx context.Context, name string) (string, error) {
	u := (&url.URL{Scheme: "http", Host: c.address(), Path: "/printers/" + name + ".ppd"}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", cupserrors.NewResourceError("fetch driver", u, err)
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", cupserrors.NewResourceError("fetch driver", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", cupserrors.NewResourceError("fetch driver", u, fmt.Errorf("unexpected status %s", resp.Status))
	}

	f, err := c.tempFile(name + "-*.ppd")
	if err != nil {
		return "", cupserrors.NewResourceError("create driver file", "", err)
	}
	return finishTemp(f, func(w io.Writer) error {
		_, err := io.Copy(w, resp.Body)
		return err
	})
}

// FetchCatalogDriverFile extracts a catalog driver with cups-driverd.
func (c *CLI) FetchCatalogDriverFile(ctx context.Context, reference string) (string, error) {
	f, err := c.tempFile("catalog-*.ppd")
	if err != nil {
		return "", cupserrors.NewResourceError("create driver file", "", err)
	}
	return finishTemp(f, func(w io.Writer) error {
		res, err := c.opts.Runner.Run(ctx, w, c.opts.DriverdPath, "cat", reference)
		if err != nil {
			return fmt.Errorf("driver %q: %s: %w", reference, internalexec.PrimaryOutput(res), err)
		}
		return nil
	})
}

// finishTemp fills f and closes it, removing the file on any failure.
func finishTemp(f *os.File, fill func(io.Writer) error) (string, error) {
	path := f.Name()
	err := fill(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", cupserrors.NewResourceError("fetch driver", path, err)
	}
	return path, nil
}

// CreatePrinter implements Client. The queue is created enabled and accepting.
func (c *CLI) CreatePrinter(ctx context.Context, name, deviceURI string, driver model.DriverSpec) error {
	args := []string{"-p", name, "-E", "-v", deviceURI}
	switch driver.Kind {
	case model.DriverCatalog:
		args = append(args, "-m", driver.Reference)
	case model.DriverLocalFile:
		args = append(args, "-P", driver.Reference)
	}
	_, err := c.run(ctx, "create-printer", name, "lpadmin", args...)
	return err
}

// Delete implements Client.
func (c *CLI) Delete(ctx context.Context, name string) error {
	_, err := c.run(ctx, "delete", name, "lpadmin", "-x", name)
	return err
}

// SetAttribute implements Client.
func (c *CLI) SetAttribute(ctx context.Context, name string, attr model.TextAttribute, value string) error {
	var args []string
	switch attr {
	case model.AttrInfo:
		args = []string{"-D", value}
	case model.AttrLocation:
		args = []string{"-L", value}
	case model.AttrOperationPolicy, model.AttrErrorPolicy:
		args = []string{"-o", attr.String() + "=" + value}
	default:
		return cupserrors.NewProtocolError("set-attribute", name, fmt.Errorf("unsupported attribute %s", attr))
	}
	_, err := c.run(ctx, "set-"+attr.String(), name, "lpadmin", append([]string{"-p", name}, args...)...)
	return err
}

// SetShared implements Client.
func (c *CLI) SetShared(ctx context.Context, name string, shared bool) error {
	_, err := c.run(ctx, "set-shared", name, "lpadmin", "-p", name, "-o", "printer-is-shared="+strconv.FormatBool(shared))
	return err
}

// ErrClearDefault is returned when asked to clear the default destination;
// lpadmin can only move the default to another queue.
var ErrClearDefault = errors.New("lpadmin cannot clear the default destination")

// SetDefault implements Client.
func (c *CLI) SetDefault(ctx context.Context, name string) error {
	if name == "" {
		return cupserrors.NewProtocolError("clear-default", "", ErrClearDefault)
	}
	_, err := c.run(ctx, "set-default", name, "lpadmin", "-d", name)
	return err
}

// SetAccepting implements Client.
func (c *CLI) SetAccepting(ctx context.Context, name string, accepting bool) error {
	tool := "cupsreject"
	if accepting {
		tool = "cupsaccept"
	}
	_, err := c.run(ctx, tool, name, tool, name)
	return err
}

// SetEnabled implements Client.
func (c *CLI) SetEnabled(ctx context.Context, name string, enabled bool) error {
	tool := "cupsdisable"
	if enabled {
		tool = "cupsenable"
	}
	_, err := c.run(ctx, tool, name, tool, name)
	return err
}

// SetDevice implements Client.
func (c *CLI) SetDevice(ctx context.Context, name, uri string) error {
	_, err := c.run(ctx, "set-device", name, "lpadmin", "-p", name, "-v", uri)
	return err
}

// SetJobSheets implements Client.
func (c *CLI) SetJobSheets(ctx context.Context, name string, sheets model.JobSheets) error {
	value := sheets.Header + "," + sheets.Footer
	_, err := c.run(ctx, "set-job-sheets", name, "lpadmin", "-p", name, "-o", "job-sheets-default="+value)
	return err
}

// AddMember implements Client.
func (c *CLI) AddMember(ctx context.Context, queue, class string) error {
	_, err := c.run(ctx, "add-member", class, "lpadmin", "-p", queue, "-c", class)
	return err
}

// RemoveMember implements Client.
func (c *CLI) RemoveMember(ctx context.Context, queue, class string) error {
	_, err := c.run(ctx, "remove-member", class, "lpadmin", "-p", queue, "-r", class)
	return err
}
