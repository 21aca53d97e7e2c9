package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/cupsy/internal/config"
	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/logger"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	"github.com/alexisbeaulieu97/cupsy/internal/reconcile"
)

// ClientFactory builds the printing service client for a run.
type ClientFactory func(opts cups.Options) cups.Client

// DefaultClientFactory drives the stock CUPS administration tools.
func DefaultClientFactory(opts cups.Options) cups.Client {
	return cups.NewCLI(opts)
}

// Service coordinates queue document runs.
type Service struct {
	newClient ClientFactory
}

// NewService constructs a run service. A nil factory selects DefaultClientFactory.
func NewService(factory ClientFactory) *Service {
	if factory == nil {
		factory = DefaultClientFactory
	}
	return &Service{newClient: factory}
}

// Prepared is a parsed and validated queue document.
type Prepared struct {
	Path     string
	Document *config.Document
}

// Prepare loads and validates the document at path.
func (s *Service) Prepare(path string) (*Prepared, error) {
	doc, err := config.ParseConfig(path)
	if err != nil {
		return nil, err
	}
	return &Prepared{Path: path, Document: doc}, nil
}

// ApplyRequest configures an apply run. Overrides win over document settings;
// booleans are OR-ed.
type ApplyRequest struct {
	Prepared       *Prepared
	LoggerOptions  logger.Options
	DryRunOverride bool
	ServerOverride string
	UserOverride   string
	OnQueueStart   func(index int, q config.Queue)
	OnQueueResult  func(QueueResult)
}

// QueueResult is the outcome of one queue.
type QueueResult struct {
	Index    int
	Name     string
	Absent   bool
	Result   *model.Result
	Duration time.Duration
	Err      error
}

// Outcome summarises an apply run.
type Outcome struct {
	RunID   string
	DryRun  bool
	Results []QueueResult
	Changed int
	Summary string
}

// Apply reconciles every queue in document order. The first failure stops the
// run; queues after it are not attempted.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*Outcome, error) {
	if req.Prepared == nil || req.Prepared.Document == nil {
		return nil, fmt.Errorf("apply: no prepared document")
	}
	doc := req.Prepared.Document

	log, err := logger.New(req.LoggerOptions)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	outcome := &Outcome{
		RunID:   uuid.NewString(),
		DryRun:  req.DryRunOverride || doc.Settings.DryRun,
		Results: make([]QueueResult, 0, len(doc.Queues)),
	}
	log = log.WithFields(map[string]any{"run_id": outcome.RunID, "config": req.Prepared.Path})

	client := s.newClient(cups.Options{
		Server: firstNonEmpty(req.ServerOverride, doc.Settings.Server),
		User:   firstNonEmpty(req.UserOverride, doc.Settings.User),
	})
	planner := reconcile.New(client, reconcile.Options{DryRun: outcome.DryRun, Logger: log})

	for i := range doc.Queues {
		q := doc.Queues[i]
		if req.OnQueueStart != nil {
			req.OnQueueStart(i, q)
		}

		start := time.Now()
		result, err := Reconcile(ctx, planner, &q)
		qr := QueueResult{Index: i, Name: q.Name, Absent: q.Absent(), Result: result, Duration: time.Since(start), Err: err}
		outcome.Results = append(outcome.Results, qr)
		if req.OnQueueResult != nil {
			req.OnQueueResult(qr)
		}

		if err != nil {
			outcome.Summary = fmt.Sprintf("queue %s failed: %v", q.Name, err)
			return outcome, fmt.Errorf("queue %s: %w", q.Name, err)
		}
		if result.Changed {
			outcome.Changed++
		}
	}

	outcome.Summary = summarize(outcome)
	log.WithFields(map[string]any{"queues": len(outcome.Results), "changed": outcome.Changed}).Info("run complete")
	return outcome, nil
}

// Reconcile converges or removes a single queue.
func Reconcile(ctx context.Context, planner *reconcile.Planner, q *config.Queue) (*model.Result, error) {
	if q.Absent() {
		return planner.Remove(ctx, q.Name)
	}
	return planner.Reconcile(ctx, q.Desired())
}

func summarize(o *Outcome) string {
	verb := "changed"
	if o.DryRun {
		verb = "would change"
	}
	return fmt.Sprintf("%d of %d queues %s", o.Changed, len(o.Results), verb)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
