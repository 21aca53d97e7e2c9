package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

func TestValidQueueName(t *testing.T) {
	t.Parallel()

	valid := []string{"lp1", "Office_Laser-2", "étage.3", strings.Repeat("a", 127)}
	for _, name := range valid {
		require.True(t, ValidQueueName(name), name)
	}

	invalid := []string{"", "with space", "a/b", `a\b`, "a#b", "it's", `say"hi"`, "tab\tname", strings.Repeat("a", 128)}
	for _, name := range invalid {
		require.False(t, ValidQueueName(name), name)
	}
}

func TestValidateDocument(t *testing.T) {
	t.Parallel()

	printer := func(mutate func(q *Queue)) *Document {
		q := Queue{Name: "lp1", Kind: "printer", State: StatePresent}
		mutate(&q)
		return &Document{Version: "1.0", Queues: []Queue{q}}
	}

	cases := []struct {
		name  string
		doc   *Document
		field string
	}{
		{name: "nil document", doc: nil, field: "document"},
		{name: "bad queue name", doc: printer(func(q *Queue) { q.Name = "no/slash" }), field: "queues[0].name"},
		{name: "unknown kind", doc: printer(func(q *Queue) { q.Kind = "pool" }), field: "queues[0].kind"},
		{name: "unknown state", doc: printer(func(q *Queue) { q.State = "gone" }), field: "queues[0].state"},
		{name: "unknown error policy", doc: printer(func(q *Queue) { q.ErrorPolicy = model.Some("explode") }), field: "queues[0].error_policy"},
		{name: "members on printer", doc: printer(func(q *Queue) { q.Members = model.Some([]string{"a"}) }), field: "queues[0].members"},
		{name: "append on printer", doc: printer(func(q *Queue) { q.Append = true }), field: "queues[0].append"},
		{name: "device on class", doc: printer(func(q *Queue) { q.Kind = "class"; q.Device = model.Some("usb://x") }), field: "queues[0].device"},
		{name: "driver on class", doc: printer(func(q *Queue) { q.Kind = "class"; q.Driver = &Driver{Type: "raw"} }), field: "queues[0].driver"},
		{name: "unknown driver type", doc: printer(func(q *Queue) { q.Driver = &Driver{Type: "interface", Ref: "x"} }), field: "queues[0].driver.type"},
		{name: "driver without ref", doc: printer(func(q *Queue) { q.Driver = &Driver{Type: "cups"} }), field: "queues[0].driver.ref"},
		{name: "bad member name", doc: printer(func(q *Queue) { q.Kind = "class"; q.Members = model.Some([]string{"ok", "not ok"}) }), field: "queues[0].members[1]"},
		{
			name: "duplicate queue",
			doc: &Document{Version: "1.0", Queues: []Queue{
				{Name: "lp1", Kind: "printer", State: StatePresent},
				{Name: "lp1", Kind: "printer", State: StatePresent},
			}},
			field: "queues[1].name",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateDocument(tc.doc)
			var validationErr *cupserrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestValidateDocument_AcceptsUnsetOptionals(t *testing.T) {
	t.Parallel()

	doc := &Document{Version: "1.0", Queues: []Queue{
		{Name: "lp1", Kind: "printer", State: StatePresent, Driver: &Driver{Type: "raw"}},
		{Name: "office", Kind: "class", State: StatePresent, Members: model.Some([]string{"lp1"}), Append: true},
	}}
	require.NoError(t, ValidateDocument(doc))
}

func TestQueueDesired(t *testing.T) {
	t.Parallel()

	printer := Queue{
		Name:     "lp1",
		Kind:     "printer",
		Info:     model.Some("Lobby"),
		OpPolicy: model.Some("authenticated"),
		Header:   model.Some("standard"),
		Default:  model.Some(false),
		Device:   model.Some("usb://dev0"),
		Driver:   &Driver{Type: "file", Ref: "/etc/cups/ppd/lp1.ppd"},
	}

	d := printer.Desired()
	require.Equal(t, model.KindPrinter, d.Kind)
	require.Equal(t, model.Some("Lobby"), d.Info)
	require.Equal(t, model.Some("authenticated"), d.OperationPolicy)
	require.Equal(t, model.Some("standard"), d.BannerHeader)
	require.False(t, d.BannerFooter.IsSet())
	require.Equal(t, model.Some(false), d.Default)
	require.Equal(t, model.Some("usb://dev0"), d.DeviceURI)
	require.Equal(t, &model.DriverSpec{Kind: model.DriverLocalFile, Reference: "/etc/cups/ppd/lp1.ppd"}, d.Driver)
	require.False(t, d.Members.IsSet())

	class := Queue{Name: "office", Kind: "class", Members: model.Some([]string{"lp1"}), Append: true}
	c := class.Desired()
	require.Equal(t, model.KindClass, c.Kind)
	require.True(t, c.AppendOnly)
	require.Equal(t, model.Some([]string{"lp1"}), c.Members)
	require.Nil(t, c.Driver)
	require.False(t, c.DeviceURI.IsSet())
}
