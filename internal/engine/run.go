package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/casesync/internal/importfile"
	"github.com/roach88/casesync/internal/refdata"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/snapshot"
	"github.com/roach88/casesync/internal/store"
	"github.com/roach88/casesync/internal/updatedoc"
)

// Summary tallies one run.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	store.Counts
	// Err is the fatal error that aborted the run, if any.
	Err error
}

// Syncer runs complete sync passes against a gateway.
type Syncer struct {
	gw   remote.Gateway
	opts options
	log  *slog.Logger
}

// NewSyncer creates a Syncer. The same options configure the engine of
// every run.
func NewSyncer(gw remote.Gateway, opts ...EngineOption) *Syncer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Syncer{
		gw:   gw,
		opts: o,
		log:  o.logger.With(slog.String("component", "sync")),
	}
}

// Run reconciles every person of file against the remote system.
//
// Setup failures (reference data, snapshot, journal) abort the run and are
// returned. Per-person failures are counted in the Summary only. A
// cancelled context stops the run between persons.
func (s *Syncer) Run(ctx context.Context, file *importfile.File, source string) (Summary, error) {
	sum := Summary{
		RunID:   s.opts.ids.Generate(),
		Started: s.opts.clock.Now(),
	}
	run := store.Run{
		ID:         sum.RunID,
		StartedAt:  sum.Started,
		ImportFile: source,
		DryRun:     s.opts.cfg.DryRun,
	}
	log := s.log.With(slog.String("run", sum.RunID))

	if err := s.opts.journal.BeginRun(ctx, run); err != nil {
		return sum, fmt.Errorf("journal: %w", err)
	}
	log.Info("run started", slog.String("import", source), slog.Bool("dry_run", s.opts.cfg.DryRun))

	err := s.run(ctx, file, &sum, log)
	sum.Err = err
	sum.Finished = s.opts.clock.Now()

	run.FinishedAt = sum.Finished
	run.Counts = sum.Counts
	run.Status = store.StatusCompleted
	if err != nil {
		run.Status = store.StatusFailed
		run.Error = err.Error()
	}
	// A cancelled ctx must not keep the final status out of the journal.
	if jerr := s.opts.journal.FinishRun(context.WithoutCancel(ctx), run); jerr != nil {
		err = errors.Join(err, fmt.Errorf("journal: %w", jerr))
	}
	s.opts.metrics.Observe(sum)

	log.Info("run finished",
		slog.String("status", run.Status),
		slog.Int("persons", sum.Persons),
		slog.Int("submitted", sum.Submitted),
		slog.Int("rejected", sum.Rejected),
		slog.Int("failed", sum.Failed),
		slog.Int("unchanged", sum.Unchanged),
		slog.Int("skipped", sum.Skipped),
		slog.Int("data_errors", sum.DataErrors),
		slog.Int("follow_up_failures", sum.FollowUpFailures),
		slog.Duration("duration", sum.Finished.Sub(sum.Started)),
	)
	return sum, err
}

func (s *Syncer) run(ctx context.Context, file *importfile.File, sum *Summary, log *slog.Logger) error {
	tables, err := refdata.Load(ctx, s.gw)
	if err != nil {
		return err
	}
	orgUnits, roleTypes := tables.Len()
	log.Info("reference data loaded", slog.Int("org_units", orgUnits), slog.Int("role_types", roleTypes))

	day := today(s.opts.clock)
	persons, rejected := file.Resolve(tables, day)
	sum.Persons = len(persons) + len(rejected)
	for _, r := range rejected {
		sum.DataErrors++
		log.Warn("rejected record",
			slog.String("person", r.Key),
			slog.Int("index", r.Index),
			slog.String("error", r.Err.Error()),
		)
	}

	index, _, err := snapshot.Build(ctx, s.gw, tables, day, s.opts.logger)
	if err != nil {
		return err
	}

	eng := newEngine(s.gw, tables, index, s.opts)
	for _, p := range persons {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}

		plan, err := eng.Reconcile(p)
		if err != nil {
			sum.Failed++
			log.Error("reconcile failed", slog.String("person", p.Key), slog.String("error", err.Error()))
			s.record(ctx, sum.RunID, Attempt{Kind: KindUpdate, Err: err}, p.Key, OutcomeFailed)
			continue
		}

		res := eng.Apply(ctx, plan)
		switch res.Outcome {
		case OutcomeSubmitted:
			sum.Submitted++
		case OutcomeRejected:
			sum.Rejected++
		case OutcomeFailed:
			sum.Failed++
		case OutcomeUnchanged:
			sum.Unchanged++
		case OutcomeSkipped:
			sum.Skipped++
		}
		if res.FollowUpFailed {
			sum.FollowUpFailures++
		}
		for _, a := range res.Attempts {
			outcome := res.Outcome
			if a.Kind == KindFollowUp && a.Err != nil {
				outcome = OutcomeFollowUpFailed
			}
			s.record(ctx, sum.RunID, a, p.Key, outcome)
		}
	}
	return nil
}

// record journals one attempt, even after cancellation since the document
// has already been sent. Journal write failures are logged and do not stop
// the run.
func (s *Syncer) record(ctx context.Context, runID string, a Attempt, person string, outcome Outcome) {
	sub := store.Submission{
		RunID:       runID,
		Person:      person,
		Kind:        a.Kind,
		Outcome:     string(outcome),
		Result:      a.Result,
		Payload:     a.Payload,
		PayloadHash: updatedoc.Hash(a.Payload),
		SubmittedAt: s.opts.clock.Now(),
	}
	if a.Err != nil {
		sub.Error = a.Err.Error()
	}
	if _, err := s.opts.journal.RecordSubmission(context.WithoutCancel(ctx), sub); err != nil {
		s.log.Warn("journal write failed",
			slog.String("person", person),
			slog.String("error", err.Error()),
		)
	}
}
