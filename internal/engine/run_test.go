package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/importfile"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/store"
	"github.com/roach88/casesync/internal/testutil"
	"github.com/roach88/casesync/internal/updatedoc"
)

const runImport = `<persons>` + jsama + `
	<person key="olan" initials="OL" firstname="Ola" lastname="Nordmann"/>
	<person key="broken" initials="BR"><role type="XX" orgunit="USIT"/></person>
	<person key="gone" initials="GO" deletable="1"/>
</persons>`

func parseImport(t *testing.T, xml string) *importfile.File {
	t.Helper()
	file, err := importfile.Parse(strings.NewReader(xml))
	require.NoError(t, err)
	return file
}

func openJournal(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestSyncer(f *fixture, gw remote.Gateway, st *store.Store, m *Metrics) *Syncer {
	return NewSyncer(gw,
		WithClock(f.clock),
		WithIDGenerator(testutil.NewSequenceIDs("run")),
		WithPasswords(testutil.FixedPasswords(testPassword)),
		WithLogger(discardLogger()),
		WithJournal(st),
		WithMetrics(m),
	)
}

func TestSyncer_Run(t *testing.T) {
	f := newFixture(t)
	seedJsama(f)
	st := openJournal(t)
	m := NewMetrics()
	ctx := context.Background()

	sum, err := newTestSyncer(f, f.gw, st, m).Run(ctx, parseImport(t, runImport), "persons.xml")
	require.NoError(t, err)

	assert.Equal(t, "run-0001", sum.RunID)
	assert.Equal(t, store.Counts{Persons: 4, Submitted: 1, Unchanged: 1, Skipped: 1, DataErrors: 1}, sum.Counts)
	assert.NoError(t, sum.Err)

	run, err := st.GetRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, "persons.xml", run.ImportFile)
	assert.Equal(t, sum.Counts, run.Counts)

	subs, err := st.ListSubmissions(ctx, store.SubmissionFilter{RunID: "run-0001"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "olan", subs[0].Person)
	assert.Equal(t, KindUpdate, subs[0].Kind)
	assert.Equal(t, string(OutcomeSubmitted), subs[0].Outcome)
	assert.Equal(t, 1001, subs[0].Result)
	assert.Equal(t, updatedoc.Hash(subs[0].Payload), subs[0].PayloadHash)
	assert.Equal(t, f.gw.Documents()[0], subs[0].Payload)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.persons.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.rejects))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.success))
}

func TestSyncer_RunJournalsFailures(t *testing.T) {
	f := newFixture(t)
	seedJsama(f)
	st := openJournal(t)
	ctx := context.Background()
	f.gw.QueueReplies(
		testutil.SubmitReply{Value: 100},
		testutil.SubmitReply{Err: testutil.FaultError("stale placeholder")},
		testutil.SubmitReply{Value: 0},
	)
	file := parseImport(t, `<persons>`+renamedJsama+`<person key="olan" initials="OL"/></persons>`)

	sum, err := newTestSyncer(f, f.gw, st, nil).Run(ctx, file, "persons.xml")
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Persons: 2, Submitted: 1, Rejected: 1, FollowUpFailures: 1}, sum.Counts)

	failures, err := st.ListSubmissions(ctx, store.SubmissionFilter{
		RunID:    sum.RunID,
		Outcomes: []string{string(OutcomeFollowUpFailed), string(OutcomeRejected)},
	})
	require.NoError(t, err)
	require.Len(t, failures, 2)
	assert.Equal(t, "jsama", failures[0].Person)
	assert.Equal(t, KindFollowUp, failures[0].Kind)
	assert.Contains(t, failures[0].Error, "stale placeholder")
	assert.Equal(t, "olan", failures[1].Person)
	assert.Contains(t, failures[1].Error, "remote returned 0")
}

func TestSyncer_TruncatedSnapshotIsFatal(t *testing.T) {
	f := newFixture(t)
	f.gw.Truncate(remote.Roles)
	st := openJournal(t)
	m := NewMetrics()

	sum, err := newTestSyncer(f, f.gw, st, m).Run(context.Background(), parseImport(t, runImport), "persons.xml")

	require.Error(t, err)
	assert.True(t, remote.IsTooManyRows(err))
	assert.Empty(t, f.gw.Documents())
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.success))

	run, err := st.GetRun(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "too many rows")
}

func TestSyncer_ReferenceDataFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.gw.FailFetch(remote.OrgUnits, testutil.FaultError("session expired"))

	_, err := newTestSyncer(f, f.gw, openJournal(t), nil).Run(context.Background(), parseImport(t, runImport), "persons.xml")

	require.Error(t, err)
	assert.True(t, remote.IsTransportError(err))
	assert.Equal(t, []string{remote.OrgUnits.RowTag}, f.gw.Fetches())
}

// cancelAfterSubmit cancels the run as soon as one document was sent.
type cancelAfterSubmit struct {
	*testutil.FakeGateway
	cancel context.CancelFunc
}

func (g cancelAfterSubmit) SubmitUpdate(ctx context.Context, doc string) (int, error) {
	defer g.cancel()
	return g.FakeGateway.SubmitUpdate(ctx, doc)
}

func TestSyncer_CancelStopsBetweenPersons(t *testing.T) {
	f := newFixture(t)
	st := openJournal(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw := cancelAfterSubmit{FakeGateway: f.gw, cancel: cancel}
	file := parseImport(t, `<persons><person key="a1" initials="AA"/><person key="b2" initials="BB"/></persons>`)

	sum, err := newTestSyncer(f, gw, st, nil).Run(ctx, file, "persons.xml")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Submitted)
	assert.Len(t, f.gw.Documents(), 1)

	run, err := st.GetRun(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Equal(t, 1, run.Submitted)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	f := newFixture(t)
	start := f.clock.Now()
	m.Observe(Summary{
		Started:  start,
		Finished: start.Add(42 * time.Second),
		Counts:   store.Counts{Persons: 3, Submitted: 2, Unchanged: 1},
	})

	path := filepath.Join(t.TempDir(), "casesync.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `casesync_persons_total{outcome="submitted"} 2`)
	assert.Contains(t, text, `casesync_persons_total{outcome="unchanged"} 1`)
	assert.Contains(t, text, "casesync_run_duration_seconds_sum 42")
	assert.Contains(t, text, "casesync_last_run_success 1")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Observe(Summary{}) })
}
