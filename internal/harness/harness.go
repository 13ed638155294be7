package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/casesync/internal/engine"
	"github.com/roach88/casesync/internal/importfile"
	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/store"
	"github.com/roach88/casesync/internal/testutil"
)

// Password is the password given to persons created by scenario runs.
const Password = "HarnessPassword0123456789abcde"

// Harness holds the fakes of one scenario run.
type Harness struct {
	gateway *testutil.FakeGateway
	store   *store.Store
	clock   *testutil.FixedClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh fake remote system and a fresh
// in-memory journal, with a fixed clock, predictable run ids and a fixed
// password for new persons, so the same scenario always produces the same
// trace. A fatal run error is part of the result; the returned error is
// reserved for scenarios that cannot be executed.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	today := scenario.Today
	if today == "" {
		today = DefaultToday
	}
	day, err := time.Parse(time.DateOnly, today)
	if err != nil {
		return nil, fmt.Errorf("today: %w", err)
	}

	h := &Harness{
		gateway: testutil.NewFakeGateway(),
		store:   st,
		clock:   testutil.NewFixedClockOn(day.Year(), day.Month(), day.Day()),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if err := h.seed(scenario); err != nil {
		return nil, fmt.Errorf("failed to seed remote: %w", err)
	}

	cfg, err := engineConfig(scenario.Engine)
	if err != nil {
		return nil, err
	}

	doc, err := scenario.importDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	file, err := importfile.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}

	ctx := context.Background()
	syncer := engine.NewSyncer(h.gateway,
		engine.WithConfig(cfg),
		engine.WithClock(h.clock),
		engine.WithIDGenerator(testutil.NewSequenceIDs("run")),
		engine.WithPasswords(testutil.FixedPasswords(Password)),
		engine.WithLogger(h.logger),
		engine.WithJournal(st),
	)
	sum, runErr := syncer.Run(ctx, file, scenario.Name)

	result := NewResult()
	result.RunID = sum.RunID
	if runErr != nil {
		result.RunError = runErr.Error()
	}

	run, err := st.GetRun(ctx, sum.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journaled run: %w", err)
	}
	result.Counts = run.Counts
	result.Status = run.Status

	subs, err := st.ListSubmissions(ctx, store.SubmissionFilter{RunID: sum.RunID})
	if err != nil {
		return nil, fmt.Errorf("failed to read journaled submissions: %w", err)
	}
	for _, sub := range subs {
		result.AddSubmission(sub)
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"run", sum.RunID,
		"submissions", len(subs),
	)

	for _, msg := range checkExpectation(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// seed loads the scripted remote state into the fake gateway.
func (h *Harness) seed(s *Scenario) error {
	for tag, rows := range s.Remote {
		ds, ok := datasetByTag(tag)
		if !ok {
			return fmt.Errorf("unknown row tag %q", tag)
		}
		converted := make([]remote.Row, len(rows))
		for i, r := range rows {
			converted[i] = remote.Row(r)
		}
		h.gateway.SetRows(ds, converted...)
	}
	for _, tag := range s.Truncate {
		ds, ok := datasetByTag(tag)
		if !ok {
			return fmt.Errorf("unknown row tag %q", tag)
		}
		h.gateway.Truncate(ds)
	}
	for _, r := range s.Replies {
		reply := testutil.SubmitReply{Value: r.Value}
		if r.Fault != "" {
			reply = testutil.SubmitReply{Err: testutil.FaultError(r.Fault)}
		}
		h.gateway.QueueReplies(reply)
	}
	return nil
}

// engineConfig applies the scenario switches to the defaults.
func engineConfig(sw *EngineSwitches) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if sw == nil {
		return cfg, nil
	}
	if sw.TwoPhaseNameChange != nil {
		cfg.TwoPhaseNameChange = *sw.TwoPhaseNameChange
	}
	if sw.InitialsFallback != nil {
		cfg.InitialsFallback = *sw.InitialsFallback
	}
	if len(sw.AddressTypes) > 0 {
		cfg.AddressTypes = nil
		for _, name := range sw.AddressTypes {
			t := model.AddressType(name)
			if !t.Valid() {
				return cfg, fmt.Errorf("engine.address_types: unknown address type %q", name)
			}
			cfg.AddressTypes = append(cfg.AddressTypes, t)
		}
	}
	cfg.DefaultOperatorID = sw.DefaultOperatorID
	return cfg, nil
}
