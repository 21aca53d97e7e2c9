package facts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/cupsy/internal/cups/cupstest"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

func newServer(t *testing.T) *cupstest.Server {
	t.Helper()

	srv := cupstest.New(t.TempDir())
	srv.AddQueue(cupstest.Queue{Name: "lp2", DeviceURI: "socket://10.0.0.2", Driver: "*PPD-Adobe", Location: "Hall", Shared: true, Accepting: true})
	srv.AddQueue(cupstest.Queue{Name: "lp1", DeviceURI: "usb://dev0", State: 5, Info: "Lobby"})
	srv.AddQueue(cupstest.Queue{Name: "office", Class: true, Members: []string{"lp1", "lp2"}, Accepting: true})
	srv.DefaultDest = "lp2"
	srv.Catalog["drv:///sample.drv/generic.ppd"] = "*PPD-Adobe"
	srv.DeviceList["usb://dev0"] = "direct"
	return srv
}

func TestCollect(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	report, err := Collect(context.Background(), srv)
	require.NoError(t, err)

	require.Equal(t, "lp2", report.Default)
	require.Equal(t, []string{"lp1", "lp2", "office"}, report.Destinations)
	require.Len(t, report.Objects, 3)
	require.Contains(t, report.Drivers, "drv:///sample.drv/generic.ppd")
	require.Equal(t, map[string]string{"usb://dev0": "direct"}, report.Devices)

	lp1 := report.Objects[0]
	require.Equal(t, model.KindPrinter, lp1.Kind)
	require.Equal(t, model.RunStateStopped, lp1.Status)
	require.True(t, lp1.Raw)
	require.Equal(t, "Lobby", lp1.Info)
	require.Equal(t, "usb://dev0", lp1.URI)
	require.Equal(t, "default", lp1.OpPolicy)
	require.Equal(t, "stop-printer", lp1.ErrorPolicy)
	require.Equal(t, []string{"one-sided"}, lp1.Duplex)

	lp2 := report.Objects[1]
	require.False(t, lp2.Raw)
	require.True(t, lp2.Shared)
	require.Equal(t, "Hall", lp2.Location)

	office := report.Objects[2]
	require.Equal(t, model.KindClass, office.Kind)
	require.Equal(t, []string{"lp1", "lp2"}, office.Members)
	require.Empty(t, office.URI)

	require.Empty(t, srv.Mutations())
}

func TestCollect_PropagatesErrors(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.FailOn("list-devices", errors.New("server-error-internal-error"))

	_, err := Collect(context.Background(), srv)
	var protoErr *cupserrors.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.Equal(t, "list-devices", protoErr.Op)
}

func TestRender(t *testing.T) {
	t.Parallel()

	report, err := Collect(context.Background(), newServer(t))
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, Render(&buf, report, FormatJSON))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Equal(t, "lp2", decoded["default"])
		require.Len(t, decoded["printers"], 3)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, Render(&buf, report, FormatYAML))

		var decoded Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Equal(t, report.Destinations, decoded.Destinations)
		require.Equal(t, "office", decoded.Objects[2].Name)
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, Render(&buf, report, FormatTable))

		out := buf.String()
		require.Contains(t, out, "lp1")
		require.Contains(t, out, "(default)")
		require.Contains(t, out, "lp1, lp2")
		require.Contains(t, out, "usb://dev0")
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		require.Error(t, Render(&bytes.Buffer{}, report, Format("xml")))
	})
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &Report{}, FormatTable))
	require.Contains(t, buf.String(), "No printers or classes configured")
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"table", "json", "yaml"} {
		require.NoError(t, ValidateFormat(f))
	}
	require.Error(t, ValidateFormat("wide"))
}
