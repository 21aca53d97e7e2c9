package facts

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Format is an output format for a Report.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	switch Format(format) {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Render writes r to w in the requested format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return renderTables(w, r)
	default:
		return ValidateFormat(string(format))
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.FgHiCyan.Sprint(c)
	}
	return row
}

func renderTables(w io.Writer, r *Report) error {
	if len(r.Objects) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No printers or classes configured"))
	} else {
		t := newTable(w)
		t.AppendHeader(header("NAME", "KIND", "STATUS", "ACCEPTING", "SHARED", "DEVICE / MEMBERS", "MODEL", "LOCATION"))
		for _, o := range r.Objects {
			name := o.Name
			if o.Name == r.Default {
				name += " " + text.FgGreen.Sprint("(default)")
			}
			target := o.URI
			if len(o.Members) > 0 {
				target = strings.Join(o.Members, ", ")
			}
			t.AppendRow(table.Row{name, o.Kind, o.Status, yesNo(o.Accepting), yesNo(o.Shared), target, o.Model, o.Location})
		}
		t.Render()
	}

	if len(r.Devices) > 0 {
		fmt.Fprintln(w)
		t := newTable(w)
		t.AppendHeader(header("DEVICE URI", "CLASS"))
		for _, uri := range sortedKeys(r.Devices) {
			t.AppendRow(table.Row{uri, r.Devices[uri]})
		}
		t.Render()
	}

	fmt.Fprintf(w, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Drivers available:"),
		text.FgHiWhite.Sprint(len(r.Drivers)),
		text.FgHiBlue.Sprint("(use --output json for the full list)"))
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
