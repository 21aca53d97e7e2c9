// Package reconcile converges a printer or class on the printing service to
// a desired state. A Planner runs one pass per queue: it classifies the queue
// as absent or present, creates it or rebuilds it when its driver changed,
// then issues the attribute and membership mutations that remain.
package reconcile

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/logger"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

// Options configures a Planner.
type Options struct {
	// DryRun stops each pass at the first mutation it would issue. The result
	// still reports changed and records that operation as planned.
	DryRun bool
	Logger *logger.Logger
}

// Planner reconciles queues through a cups.Client. It holds no per-queue
// state and may be reused for consecutive passes.
type Planner struct {
	client cups.Client
	log    *logger.Logger
	dryRun bool
}

// New creates a Planner issuing every query and mutation through client.
func New(client cups.Client, opts Options) *Planner {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Planner{client: client, log: log, dryRun: opts.DryRun}
}

// Reconcile converges the queue named by desired. Any error aborts the pass;
// mutations issued before it are not rolled back.
func (p *Planner) Reconcile(ctx context.Context, desired *model.DesiredState) (*model.Result, error) {
	s := p.newPass(ctx, desired.Name)
	s.desired = desired
	s.log = s.log.WithFields(map[string]any{"kind": desired.Kind})

	exists, err := p.exists(ctx, desired.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		err = s.create()
	} else {
		err = s.modify()
	}
	if err != nil {
		s.log.Error(err, "reconcile failed")
		return nil, err
	}

	s.log.WithFields(map[string]any{
		"changed":    s.result.Changed,
		"rebuilt":    s.result.Rebuilt,
		"operations": len(s.result.Operations),
	}).Info("queue reconciled")
	return s.result, nil
}

// Remove deletes the queue called name when it exists.
func (p *Planner) Remove(ctx context.Context, name string) (*model.Result, error) {
	s := p.newPass(ctx, name)

	exists, err := p.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		err = s.issue(model.Operation{Action: model.ActionDelete, Target: name}, func() error {
			return p.client.Delete(ctx, name)
		})
		if err != nil {
			s.log.Error(err, "remove failed")
			return nil, err
		}
	}

	s.log.With("changed", s.result.Changed).Info("queue removed")
	return s.result, nil
}

func (p *Planner) exists(ctx context.Context, name string) (bool, error) {
	names, err := p.client.ListObjects(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

func (p *Planner) newPass(ctx context.Context, name string) *pass {
	return &pass{
		ctx:    ctx,
		client: p.client,
		dryRun: p.dryRun,
		log:    p.log.WithFields(map[string]any{"queue": name, "dry_run": p.dryRun}),
		result: &model.Result{Name: name, DryRun: p.dryRun, Operations: []model.Operation{}},
	}
}

// pass is the state of one reconciliation. Once halted, issue ignores every
// later operation, which is how dry-run stops at the first pending change.
type pass struct {
	ctx     context.Context
	client  cups.Client
	dryRun  bool
	log     *logger.Logger
	desired *model.DesiredState
	live    *model.LiveState
	result  *model.Result
	halted  bool
}

func (s *pass) issue(op model.Operation, call func() error) error {
	if s.halted {
		return nil
	}
	if s.dryRun {
		op.Planned = true
		s.result.Record(op)
		s.halted = true
		s.log.Infof("dry run: would %s %s", op.Action, op.Target)
		return nil
	}

	s.log.Debugf("%s %s %s", op.Action, op.Target, op.Detail)
	if err := call(); err != nil {
		return err
	}
	s.result.Record(op)
	return nil
}

func (s *pass) name() string {
	return s.desired.Name
}

func (s *pass) create() error {
	d := s.desired
	switch d.Kind {
	case model.KindPrinter:
		uri, _ := d.DeviceURI.Get()
		if uri == "" {
			return cupserrors.NewValidationError("device", fmt.Sprintf("device URI is required to create printer %s", d.Name), nil)
		}
		driver := model.DriverSpec{Kind: model.DriverRaw}
		if d.Driver != nil {
			driver = *d.Driver
		}
		err := s.issue(model.Operation{Action: model.ActionCreate, Target: d.Name, Detail: fmt.Sprintf("printer %s %s", uri, driver)}, func() error {
			return s.client.CreatePrinter(s.ctx, d.Name, uri, driver)
		})
		if err != nil {
			return err
		}
	case model.KindClass:
		members, _ := d.Members.Get()
		if len(members) == 0 {
			return cupserrors.NewValidationError("members", fmt.Sprintf("members are required to create class %s", d.Name), nil)
		}
		err := s.issue(model.Operation{Action: model.ActionCreate, Target: d.Name, Detail: "class " + strings.Join(members, ",")}, func() error {
			for _, member := range members {
				if err := s.client.AddMember(s.ctx, member, d.Name); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	default:
		return cupserrors.NewValidationError("kind", fmt.Sprintf("unknown kind %q", d.Kind), nil)
	}
	return s.applySupplied()
}

// applySupplied sets every attribute desired supplies on a queue that was
// just created.
func (s *pass) applySupplied() error {
	d := s.desired
	if d.Default.OrElse(false) {
		if err := s.setDefault(true); err != nil {
			return err
		}
	}
	for _, attr := range model.TextAttributes {
		if value, ok := d.Text(attr).Get(); ok {
			if err := s.setText(attr, value); err != nil {
				return err
			}
		}
	}
	if shared, ok := d.Shared.Get(); ok {
		if err := s.setShared(shared); err != nil {
			return err
		}
	}
	if accepting, ok := d.Accepting.Get(); ok {
		if err := s.setAccepting(accepting); err != nil {
			return err
		}
	}
	if enabled, ok := d.Enabled.Get(); ok {
		if err := s.setEnabled(enabled); err != nil {
			return err
		}
	}
	if d.BannerHeader.IsSet() || d.BannerFooter.IsSet() {
		return s.setJobSheets(model.JobSheets{
			Header: d.BannerHeader.OrElse(noBanner),
			Footer: d.BannerFooter.OrElse(noBanner),
		})
	}
	return nil
}

func (s *pass) modify() error {
	live, err := Snapshot(s.ctx, s.client, s.name())
	if err != nil {
		return err
	}
	s.live = live

	if live.Kind != s.desired.Kind {
		return cupserrors.NewValidationError("kind", fmt.Sprintf("%s exists as a %s, not a %s", s.name(), live.Kind, s.desired.Kind), nil)
	}

	decision, err := NeedsRebuild(s.ctx, s.client, s.desired, live)
	if err != nil {
		return err
	}
	if decision.Rebuild {
		if err := s.rebuild(decision); err != nil {
			return err
		}
	}

	steps := []func() error{
		s.reconcileDefault,
		s.reconcileText,
		s.reconcileFlags,
		s.reconcileJobSheets,
		s.reconcileDevice,
		s.reconcileMembers,
	}
	for _, step := range steps {
		if s.halted {
			return nil
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// rebuild deletes and recreates the printer with the desired driver, then
// restores every live attribute desired does not override and re-reads the
// queue.
func (s *pass) rebuild(decision Decision) error {
	d, old := s.desired, s.live
	uri := d.DeviceURI.OrElse(old.DeviceURI)

	s.result.Rebuilt = true
	s.result.Reason = decision.Reason
	s.log.Infof("rebuilding printer: %s", firstLine(decision.Reason))

	err := s.issue(model.Operation{Action: model.ActionRebuild, Target: d.Name, Detail: fmt.Sprintf("printer %s %s", uri, d.Driver)}, func() error {
		if err := s.client.Delete(s.ctx, d.Name); err != nil {
			return err
		}
		return s.client.CreatePrinter(s.ctx, d.Name, uri, *d.Driver)
	})
	if err != nil || s.halted {
		return err
	}

	if old.Default && !d.Default.IsSet() {
		if err := s.setDefault(true); err != nil {
			return err
		}
	}
	for _, attr := range model.TextAttributes {
		if !d.Text(attr).IsSet() {
			if err := s.setText(attr, old.Text(attr)); err != nil {
				return err
			}
		}
	}
	if !d.Shared.IsSet() {
		if err := s.setShared(old.Shared); err != nil {
			return err
		}
	}
	if !d.Accepting.IsSet() {
		if err := s.setAccepting(old.Accepting); err != nil {
			return err
		}
	}
	if !d.Enabled.IsSet() {
		if err := s.setEnabled(old.Enabled()); err != nil {
			return err
		}
	}
	if !d.BannerHeader.IsSet() || !d.BannerFooter.IsSet() {
		if err := s.setJobSheets(old.JobSheets); err != nil {
			return err
		}
	}

	live, err := Snapshot(s.ctx, s.client, d.Name)
	if err != nil {
		return err
	}
	s.live = live
	return nil
}

// reconcileDefault only acts on an explicit value.
func (s *pass) reconcileDefault() error {
	want, ok := s.desired.Default.Get()
	if !ok || want == s.live.Default {
		return nil
	}
	return s.setDefault(want)
}

func (s *pass) reconcileText() error {
	for _, attr := range model.TextAttributes {
		want, ok := s.desired.Text(attr).Get()
		if !ok || want == s.live.Text(attr) {
			continue
		}
		if err := s.setText(attr, want); err != nil || s.halted {
			return err
		}
	}
	return nil
}

func (s *pass) reconcileFlags() error {
	d, live := s.desired, s.live
	if want, ok := d.Shared.Get(); ok && want != live.Shared {
		if err := s.setShared(want); err != nil || s.halted {
			return err
		}
	}
	if want, ok := d.Accepting.Get(); ok && want != live.Accepting {
		if err := s.setAccepting(want); err != nil || s.halted {
			return err
		}
	}
	if want, ok := d.Enabled.Get(); ok && want != live.Enabled() {
		return s.setEnabled(want)
	}
	return nil
}

// reconcileJobSheets issues a single mutation carrying both banners when
// either one differs.
func (s *pass) reconcileJobSheets() error {
	current := s.live.JobSheets
	want := model.JobSheets{
		Header: s.desired.BannerHeader.OrElse(current.Header),
		Footer: s.desired.BannerFooter.OrElse(current.Footer),
	}
	if want == current {
		return nil
	}
	return s.setJobSheets(want)
}

func (s *pass) reconcileDevice() error {
	if s.desired.Kind != model.KindPrinter {
		return nil
	}
	want, ok := s.desired.DeviceURI.Get()
	if !ok || want == s.live.DeviceURI {
		return nil
	}
	return s.issue(model.Operation{Action: model.ActionSetDevice, Target: s.name(), Detail: want}, func() error {
		return s.client.SetDevice(s.ctx, s.name(), want)
	})
}

func (s *pass) reconcileMembers() error {
	if s.desired.Kind != model.KindClass {
		return nil
	}
	want, ok := s.desired.Members.Get()
	if !ok {
		return nil
	}

	plan := PlanMembership(want, s.live.Members, s.desired.AppendOnly)
	for _, member := range plan.Add {
		err := s.issue(model.Operation{Action: model.ActionAddMember, Target: s.name(), Detail: member}, func() error {
			return s.client.AddMember(s.ctx, member, s.name())
		})
		if err != nil || s.halted {
			return err
		}
	}
	for _, member := range plan.Remove {
		err := s.issue(model.Operation{Action: model.ActionRemoveMember, Target: s.name(), Detail: member}, func() error {
			return s.client.RemoveMember(s.ctx, member, s.name())
		})
		if err != nil || s.halted {
			return err
		}
	}
	return nil
}

func (s *pass) setDefault(isDefault bool) error {
	if !isDefault {
		return s.issue(model.Operation{Action: model.ActionClearDefault, Target: s.name()}, func() error {
			return s.client.SetDefault(s.ctx, "")
		})
	}
	return s.issue(model.Operation{Action: model.ActionSetDefault, Target: s.name()}, func() error {
		return s.client.SetDefault(s.ctx, s.name())
	})
}

func (s *pass) setText(attr model.TextAttribute, value string) error {
	return s.issue(model.Operation{Action: model.ActionSetText, Target: s.name(), Detail: attr.String() + "=" + value}, func() error {
		return s.client.SetAttribute(s.ctx, s.name(), attr, value)
	})
}

func (s *pass) setShared(shared bool) error {
	return s.issue(model.Operation{Action: model.ActionSetShared, Target: s.name(), Detail: strconv.FormatBool(shared)}, func() error {
		return s.client.SetShared(s.ctx, s.name(), shared)
	})
}

func (s *pass) setAccepting(accepting bool) error {
	return s.issue(model.Operation{Action: model.ActionSetAccepting, Target: s.name(), Detail: strconv.FormatBool(accepting)}, func() error {
		return s.client.SetAccepting(s.ctx, s.name(), accepting)
	})
}

func (s *pass) setEnabled(enabled bool) error {
	return s.issue(model.Operation{Action: model.ActionSetEnabled, Target: s.name(), Detail: strconv.FormatBool(enabled)}, func() error {
		return s.client.SetEnabled(s.ctx, s.name(), enabled)
	})
}

func (s *pass) setJobSheets(sheets model.JobSheets) error {
	return s.issue(model.Operation{Action: model.ActionSetJobSheets, Target: s.name(), Detail: sheets.Header + "," + sheets.Footer}, func() error {
		return s.client.SetJobSheets(s.ctx, s.name(), sheets)
	})
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
