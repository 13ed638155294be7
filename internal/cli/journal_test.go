package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/store"
	"github.com/roach88/casesync/internal/testutil"
)

// syncedJournal runs one sync in which a1 is accepted and b2 rejected and
// returns the journal path and the config path.
func syncedJournal(t *testing.T) (string, string) {
	t.Helper()
	gw, url := newSyncFixture(t)
	gw.QueueReplies(testutil.SubmitReply{Value: 2001}, testutil.SubmitReply{Value: 0})
	journal := filepath.Join(t.TempDir(), "journal.db")
	cfg := writeConfig(t, map[string]any{
		"remote":  map[string]any{"url": url},
		"journal": map[string]any{"path": journal},
	})
	_, _, err := execute(t, "-p", cfg, "-i", writeFile(t, "persons.xml", newPersonsImport))
	require.NoError(t, err)
	return journal, cfg
}

func TestJournalList(t *testing.T) {
	journal, _ := syncedJournal(t)

	stdout, _, err := execute(t, "journal", "list", "--db", journal)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "RUN"))
	assert.Contains(t, lines[1], "completed")
	fields := strings.Fields(lines[1])
	assert.Equal(t, []string{"3", "1", "1", "0", "0"}, fields[len(fields)-5:])
}

func TestJournalList_Empty(t *testing.T) {
	stdout, _, err := execute(t, "journal", "list", "--db", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)
}

func TestJournalShow_FromConfig(t *testing.T) {
	_, cfg := syncedJournal(t)

	stdout, _, err := execute(t, "journal", "show", "-p", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Status:    completed")
	assert.Contains(t, stdout, "a1")
	assert.Contains(t, stdout, "b2")
	assert.NotContains(t, stdout, "<?xml")
}

func TestJournalShow_FailuresJSON(t *testing.T) {
	journal, _ := syncedJournal(t)

	stdout, _, err := execute(t, "journal", "show", "latest", "--failures", "--db", journal, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		RunID string `json:"run_id"`
		Data  struct {
			Run         store.Run          `json:"run"`
			Submissions []store.Submission `json:"submissions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, resp.Data.Run.ID, resp.RunID)
	require.Len(t, resp.Data.Submissions, 1)
	assert.Equal(t, "b2", resp.Data.Submissions[0].Person)
	assert.Equal(t, "rejected", resp.Data.Submissions[0].Outcome)
	assert.NotEmpty(t, resp.Data.Submissions[0].Payload)
}

func TestJournalShow_Errors(t *testing.T) {
	journal, _ := syncedJournal(t)

	_, _, err := execute(t, "journal", "show", "no-such-run", "--db", journal)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")

	_, _, err = execute(t, "journal", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal configured")
}
