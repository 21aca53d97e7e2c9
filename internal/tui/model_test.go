package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/cupsy/internal/app/run"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	"github.com/alexisbeaulieu97/cupsy/internal/tui/components"
)

func TestNewModelInitialisesState(t *testing.T) {
	m := NewModel("queues.yaml", []string{"lp1", "office"}, true)

	require.Equal(t, "queues.yaml", m.title)
	require.True(t, m.dryRun)
	require.Equal(t, 2, m.TotalQueues())
	require.Zero(t, m.CompletedQueues())
	require.False(t, m.IsFinished())

	entry, ok := m.Queue(1)
	require.True(t, ok)
	require.Equal(t, "office", entry.Name)
	require.Equal(t, components.StatusPending, entry.Status)
}

func TestModelInitReturnsTickCommand(t *testing.T) {
	m := NewModel("", nil, false)
	require.NotNil(t, m.Init())
}

func TestEntryFor(t *testing.T) {
	t.Parallel()

	changed := &model.Result{Name: "lp1", Changed: true, Operations: []model.Operation{
		{Action: model.ActionSetText, Target: "lp1"},
		{Action: model.ActionSetShared, Target: "lp1"},
	}}

	tests := []struct {
		name   string
		res    run.QueueResult
		dryRun bool
		status string
		detail string
	}{
		{
			name:   "failure",
			res:    run.QueueResult{Name: "lp1", Err: errors.New("lpadmin failed")},
			status: components.StatusFailed,
			detail: "lpadmin failed",
		},
		{
			name:   "unchanged",
			res:    run.QueueResult{Name: "lp1", Result: &model.Result{Name: "lp1"}},
			status: components.StatusUnchanged,
		},
		{
			name:   "changed",
			res:    run.QueueResult{Name: "lp1", Result: changed},
			status: components.StatusChanged,
			detail: "2 operations",
		},
		{
			name:   "rebuilt",
			res:    run.QueueResult{Name: "lp1", Result: &model.Result{Changed: true, Rebuilt: true, Operations: []model.Operation{{Action: model.ActionRebuild}}}},
			status: components.StatusChanged,
			detail: "rebuilt, 1 operation",
		},
		{
			name:   "removed",
			res:    run.QueueResult{Name: "lp1", Absent: true, Result: &model.Result{Changed: true, Operations: []model.Operation{{Action: model.ActionDelete}}}},
			status: components.StatusRemoved,
		},
		{
			name:   "planned",
			res:    run.QueueResult{Name: "lp1", Result: &model.Result{Changed: true, DryRun: true, Operations: []model.Operation{{Action: model.ActionCreate, Planned: true}}}},
			dryRun: true,
			status: components.StatusPlanned,
			detail: "next: create",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry := entryFor(tt.res, tt.dryRun)
			require.Equal(t, tt.status, entry.Status)
			require.Equal(t, tt.detail, entry.Detail)
		})
	}
}

func TestEntryForKeepsDuration(t *testing.T) {
	entry := entryFor(run.QueueResult{Name: "lp1", Result: &model.Result{}, Duration: 2 * time.Second}, false)
	require.Equal(t, 2*time.Second, entry.Duration)
}
