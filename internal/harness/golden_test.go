package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/store"
)

const scenarioDir = "../../testdata/scenarios"

// TestScenarioGoldens compares every scenario's journaled trace against its
// golden file. Regenerate with:
//
//	go test ./internal/harness -run TestScenarioGoldens -update
func TestScenarioGoldens(t *testing.T) {
	scenarios, err := LoadDir(scenarioDir)
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	s, err := LoadScenario(scenarioDir + "/remote_failures.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.NoError(t, AssertGolden(t, s.Name, result))
}

func TestTraceSnapshotJSON(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "snap",
		RunID:        "run-0001",
		Status:       store.StatusCompleted,
		Counts:       store.Counts{Persons: 1, Submitted: 1},
		Trace: []TraceEvent{
			{Seq: 1, Person: "a1", Kind: "update", Outcome: "submitted", Result: 1001, Payload: "<UPDATE/>"},
		},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"scenario_name": "snap"`)
	assert.Contains(t, s, `"result": 1001`)
	assert.NotContains(t, s, "run_error")
	assert.NotContains(t, s, `"error"`)
	assert.NotContains(t, s, "UPDATE")
	assert.True(t, s[len(s)-1] == '\n', "snapshot ends with a newline")

	again, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}
