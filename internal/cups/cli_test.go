package cups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/cupsy/internal/internalexec"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

type call struct {
	name string
	args []string
}

func (c call) String() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

type response struct {
	stdout string
	stderr string
	err    error
}

// recordingRunner answers commands from a table keyed by tool name.
type recordingRunner struct {
	calls     []call
	responses map[string]response
}

func (r *recordingRunner) Run(_ context.Context, stdout io.Writer, name string, args ...string) (internalexec.Result, error) {
	r.calls = append(r.calls, call{name: filepath.Base(name), args: args})
	resp := r.responses[filepath.Base(name)]
	if stdout != nil {
		_, _ = io.WriteString(stdout, resp.stdout)
		return internalexec.Result{Stderr: resp.stderr}, resp.err
	}
	return internalexec.Result{Stdout: strings.TrimSpace(resp.stdout), Stderr: resp.stderr}, resp.err
}

func newTestCLI(opts Options, responses map[string]response) (*CLI, *recordingRunner) {
	runner := &recordingRunner{responses: responses}
	opts.Runner = runner
	return NewCLI(opts), runner
}

const ipptoolSample = `"/usr/share/cups/ipptool/get-printer-attributes.test":
    Get-Printer-Attributes:
        attributes-charset (charset) = utf-8
        printer-uri (uri) = ipp://localhost:631/printers/office
    Get printer attributes using Get-Printer-Attributes                  [PASS]
        RECEIVED: 4242 bytes in response
        status-code = successful-ok (successful-ok)
        printer-info (textWithoutLanguage) = Office, second floor
        printer-location (textWithoutLanguage) = Building A
        printer-make-and-model (textWithoutLanguage) = Local Printer Class
        member-names (1setOf nameWithoutLanguage) = lp1,lp2
        job-sheets-default (1setOf name) = none,confidential
        printer-state (enum) = stopped
        printer-is-accepting-jobs (boolean) = true
        printer-is-shared (boolean) = false
        printer-op-policy (nameWithoutLanguage) = default
`

func TestParseIPPToolOutput(t *testing.T) {
	t.Parallel()

	attrs := ParseIPPToolOutput(ipptoolSample)

	require.Equal(t, "Office, second floor", attrs.String("printer-info"))
	require.Equal(t, "Building A", attrs.String("printer-location"))
	require.Equal(t, []string{"lp1", "lp2"}, attrs.Strings(AttrMemberNames))
	require.Equal(t, []string{"none", "confidential"}, attrs.Strings(AttrJobSheets))
	require.Equal(t, 5, attrs.PrinterState())
	require.True(t, attrs.Bool(AttrAccepting))
	require.False(t, attrs.Bool(AttrShared))
	require.False(t, attrs.Has("status-code"))
	require.Equal(t, "stop-printer", attrs.StringOr("printer-error-policy", "stop-printer"))
}

func TestAttributes_PrinterStateNumeric(t *testing.T) {
	t.Parallel()

	require.Equal(t, 4, Attributes{AttrState: {"4"}}.PrinterState())
	require.Equal(t, 0, Attributes{AttrState: {"bogus"}}.PrinterState())
	require.Equal(t, 0, Attributes{}.PrinterState())
}

func TestCLI_GetAttributesUsesServerURI(t *testing.T) {
	t.Parallel()

	cli, runner := newTestCLI(Options{Server: "print.example.com"}, map[string]response{
		"ipptool": {stdout: ipptoolSample},
	})

	attrs, err := cli.GetAttributes(context.Background(), "office")
	require.NoError(t, err)
	require.Equal(t, "Building A", attrs.String("printer-location"))
	require.Equal(t, "ipptool -tv ipp://print.example.com:631/printers/office get-printer-attributes.test", runner.calls[0].String())
}

func TestCLI_ListObjects(t *testing.T) {
	t.Parallel()

	t.Run("parses one name per line", func(t *testing.T) {
		t.Parallel()
		cli, runner := newTestCLI(Options{}, map[string]response{"lpstat": {stdout: "lp1\noffice\n"}})

		names, err := cli.ListObjects(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"lp1", "office"}, names)
		require.Equal(t, "lpstat -e", runner.calls[0].String())
	})

	t.Run("treats no destinations as empty", func(t *testing.T) {
		t.Parallel()
		cli, _ := newTestCLI(Options{}, map[string]response{
			"lpstat": {stderr: "lpstat: No destinations added.", err: errors.New("exit status 1")},
		})

		names, err := cli.ListObjects(context.Background())
		require.NoError(t, err)
		require.Empty(t, names)
	})

	t.Run("reports scheduler failures", func(t *testing.T) {
		t.Parallel()
		cli, _ := newTestCLI(Options{}, map[string]response{
			"lpstat": {stderr: "lpstat: Bad file descriptor", err: errors.New("exit status 1")},
		})

		_, err := cli.ListObjects(context.Background())
		var protocolErr *cupserrors.ProtocolError
		require.ErrorAs(t, err, &protocolErr)
		require.Equal(t, "list-objects", protocolErr.Op)
	})
}

func TestCLI_PassesServerAndUser(t *testing.T) {
	t.Parallel()

	cli, runner := newTestCLI(Options{Server: "print:8631", User: "cupsadm"}, map[string]response{})

	require.NoError(t, cli.Delete(context.Background(), "lp1"))
	require.Equal(t, "lpadmin -h print:8631 -U cupsadm -x lp1", runner.calls[0].String())
}

func TestCLI_Default(t *testing.T) {
	t.Parallel()

	cli, _ := newTestCLI(Options{}, map[string]response{"lpstat": {stdout: "system default destination: lp1"}})
	name, err := cli.Default(context.Background())
	require.NoError(t, err)
	require.Equal(t, "lp1", name)

	cli, _ = newTestCLI(Options{}, map[string]response{"lpstat": {stdout: "no system default destination"}})
	name, err = cli.Default(context.Background())
	require.NoError(t, err)
	require.Empty(t, name)
}

func TestCLI_DriversAndDevices(t *testing.T) {
	t.Parallel()

	cli, _ := newTestCLI(Options{}, map[string]response{
		"lpinfo": {stdout: "drv:///sample.drv/generic.ppd Generic PostScript Printer\nraw Raw Queue\n"},
	})
	drivers, err := cli.Drivers(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Generic PostScript Printer", drivers["drv:///sample.drv/generic.ppd"])
	require.Equal(t, "Raw Queue", drivers["raw"])

	cli, _ = newTestCLI(Options{}, map[string]response{
		"lpinfo": {stdout: "network ipp\ndirect usb://HP/LaserJet?serial=1\n"},
	})
	devices, err := cli.Devices(context.Background())
	require.NoError(t, err)
	require.Equal(t, "direct", devices["usb://HP/LaserJet?serial=1"])
	require.Equal(t, "network", devices["ipp"])
}

func TestCLI_Mutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name string
		run  func(*CLI) error
		want string
	}{
		{"raw printer", func(c *CLI) error { return c.CreatePrinter(ctx, "lp1", "usb://dev0", model.DriverSpec{Kind: model.DriverRaw}) }, "lpadmin -p lp1 -E -v usb://dev0"},
		{"catalog printer", func(c *CLI) error {
			return c.CreatePrinter(ctx, "lp1", "usb://dev0", model.DriverSpec{Kind: model.DriverCatalog, Reference: "drv:///sample.drv/generic.ppd"})
		}, "lpadmin -p lp1 -E -v usb://dev0 -m drv:///sample.drv/generic.ppd"},
		{"file printer", func(c *CLI) error {
			return c.CreatePrinter(ctx, "lp1", "usb://dev0", model.DriverSpec{Kind: model.DriverLocalFile, Reference: "/opt/lp1.ppd"})
		}, "lpadmin -p lp1 -E -v usb://dev0 -P /opt/lp1.ppd"},
		{"info", func(c *CLI) error { return c.SetAttribute(ctx, "lp1", model.AttrInfo, "Lobby printer") }, "lpadmin -p lp1 -D Lobby printer"},
		{"location", func(c *CLI) error { return c.SetAttribute(ctx, "lp1", model.AttrLocation, "Lobby") }, "lpadmin -p lp1 -L Lobby"},
		{"error policy", func(c *CLI) error { return c.SetAttribute(ctx, "lp1", model.AttrErrorPolicy, "retry-job") }, "lpadmin -p lp1 -o printer-error-policy=retry-job"},
		{"shared", func(c *CLI) error { return c.SetShared(ctx, "lp1", false) }, "lpadmin -p lp1 -o printer-is-shared=false"},
		{"default", func(c *CLI) error { return c.SetDefault(ctx, "lp1") }, "lpadmin -d lp1"},
		{"accept", func(c *CLI) error { return c.SetAccepting(ctx, "lp1", true) }, "cupsaccept lp1"},
		{"reject", func(c *CLI) error { return c.SetAccepting(ctx, "lp1", false) }, "cupsreject lp1"},
		{"enable", func(c *CLI) error { return c.SetEnabled(ctx, "lp1", true) }, "cupsenable lp1"},
		{"disable", func(c *CLI) error { return c.SetEnabled(ctx, "lp1", false) }, "cupsdisable lp1"},
		{"device", func(c *CLI) error { return c.SetDevice(ctx, "lp1", "socket://10.0.0.9") }, "lpadmin -p lp1 -v socket://10.0.0.9"},
		{"job sheets", func(c *CLI) error {
			return c.SetJobSheets(ctx, "lp1", model.JobSheets{Header: "standard", Footer: "none"})
		}, "lpadmin -p lp1 -o job-sheets-default=standard,none"},
		{"add member", func(c *CLI) error { return c.AddMember(ctx, "lp1", "office") }, "lpadmin -p lp1 -c office"},
		{"remove member", func(c *CLI) error { return c.RemoveMember(ctx, "lp1", "office") }, "lpadmin -p lp1 -r office"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cli, runner := newTestCLI(Options{}, map[string]response{})
			require.NoError(t, tt.run(cli))
			require.Len(t, runner.calls, 1)
			require.Equal(t, tt.want, runner.calls[0].String())
		})
	}
}

func TestCLI_MutationFailureIsProtocolError(t *testing.T) {
	t.Parallel()

	cli, _ := newTestCLI(Options{}, map[string]response{
		"lpadmin": {stderr: "lpadmin: The printer or class does not exist.", err: errors.New("exit status 1")},
	})

	err := cli.SetDevice(context.Background(), "ghost", "usb://dev0")
	var protocolErr *cupserrors.ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	require.Equal(t, "set-device", protocolErr.Op)
	require.Equal(t, "ghost", protocolErr.Target)
	require.Contains(t, err.Error(), "does not exist")
}

func TestCLI_ClearDefaultUnsupported(t *testing.T) {
	t.Parallel()

	cli, runner := newTestCLI(Options{}, map[string]response{})
	err := cli.SetDefault(context.Background(), "")
	require.ErrorIs(t, err, ErrClearDefault)
	require.Empty(t, runner.calls)
}

func TestCLI_FetchDriverFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/printers/lp1.ppd" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "*PPD-Adobe: \"4.3\"\n")
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	tmp := t.TempDir()
	cli := NewCLI(Options{Server: u.Host, TempDir: tmp, HTTPClient: srv.Client()})

	path, err := cli.FetchDriverFile(context.Background(), "lp1")
	require.NoError(t, err)
	require.Equal(t, tmp, filepath.Dir(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "*PPD-Adobe: \"4.3\"\n", string(content))

	_, err = cli.FetchDriverFile(context.Background(), "raw1")
	var resourceErr *cupserrors.ResourceError
	require.ErrorAs(t, err, &resourceErr)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1, "failed fetch must not leave a temporary file")
}

func TestCLI_FetchCatalogDriverFile(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	cli, runner := newTestCLI(Options{TempDir: tmp}, map[string]response{
		"cups-driverd": {stdout: "*PPD-Adobe: \"4.3\"\n*ModelName: \"Generic\"\n"},
	})

	path, err := cli.FetchCatalogDriverFile(context.Background(), "drv:///sample.drv/generic.ppd")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "*ModelName: \"Generic\"")
	require.Equal(t, "cups-driverd cat drv:///sample.drv/generic.ppd", runner.calls[0].String())
}

func TestCLI_FetchCatalogDriverFileRemovesTempOnFailure(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	cli, _ := newTestCLI(Options{TempDir: tmp}, map[string]response{
		"cups-driverd": {stderr: "Unable to find PPD", err: errors.New("exit status 1")},
	})

	_, err := cli.FetchCatalogDriverFile(context.Background(), "missing.ppd")
	var resourceErr *cupserrors.ResourceError
	require.ErrorAs(t, err, &resourceErr)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCLI_RealCommandsOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	binDir := t.TempDir()
	logPath := filepath.Join(binDir, "lpadmin.log")
	writeScript(t, binDir, "lpadmin", fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %s\n", logPath))
	writeScript(t, binDir, "lpstat", "#!/bin/sh\necho lp1\necho office\n")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	cli := NewCLI(Options{})
	names, err := cli.ListObjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"lp1", "office"}, names)

	require.NoError(t, cli.AddMember(context.Background(), "lp1", "office"))
	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, "-p lp1 -c office\n", string(logged))
}

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}
