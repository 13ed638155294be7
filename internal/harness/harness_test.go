package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/store"
)

func referenceRows() map[string][]map[string]string {
	return map[string][]map[string]string{
		"ADMINDEL": {{"AI_ID": "10", "AI_FORKDN": "USIT", "AI_ADMBET": "USIT"}},
		"ROLLE":    {{"RO_ID": "1", "RO_NAVN": "SB", "RO_BETEGN": "Saksbehandler"}},
	}
}

// knownPerson adds jsama with initials JS and no roles to rows.
func knownPerson(rows map[string][]map[string]string) map[string][]map[string]string {
	rows["PERSON"] = []map[string]string{{"PE_ID": "100", "PE_BRUKERID": "jsama", "PE_OPPRETTETDATO": "2015-08-01"}}
	rows["PERNAVN"] = []map[string]string{{
		"PN_ID": "500", "PN_PEID_PE": "100", "PN_INIT": "JS", "PN_NAVN": "Jo Sama",
		"PN_FORNAVN": "Jo", "PN_ETTERNAVN": "Sama", "PN_AKTIV": "1", "PN_FRADATO": "2015-08-01",
	}}
	return rows
}

func boolp(b bool) *bool { return &b }

func TestRun_NewPerson(t *testing.T) {
	scenario := &Scenario{
		Name:        "new_person",
		Description: "A person unknown remotely is created",
		Remote:      referenceRows(),
		Import:      `<persons><person key="olan" initials="OL" firstname="Ola" lastname="Nordmann"/></persons>`,
		Expect: &Expectation{
			Status: store.StatusCompleted,
			Counts: map[string]int{"persons": 1, "submitted": 1},
		},
		Assertions: []Assertion{
			{Type: AssertDocument, Person: "olan", Contains: []string{
				"<PE_PASSORD>" + Password + "</PE_PASSORD>",
				"<PE_OPPRETTETDATO>2026-10-17</PE_OPPRETTETDATO>",
				"<PN_FRADATO>2026-10-17</PN_FRADATO>",
			}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "run-0001", result.RunID)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, 1001, result.Trace[0].Result)
}

func TestRun_Today(t *testing.T) {
	scenario := &Scenario{
		Name:        "today",
		Description: "The scenario date is the run date",
		Today:       "2025-02-28",
		Remote:      referenceRows(),
		Import:      `<persons><person key="olan" initials="OL"/></persons>`,
		Assertions: []Assertion{
			{Type: AssertDocument, Person: "olan", Contains: []string{"<PE_OPPRETTETDATO>2025-02-28</PE_OPPRETTETDATO>"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FollowUpFailure(t *testing.T) {
	scenario := &Scenario{
		Name:        "follow_up_failure",
		Description: "A failed corrective rename leaves the person submitted",
		Remote:      knownPerson(referenceRows()),
		Replies:     []Reply{{Value: 2001}, {Fault: "ORA-20001: locked"}},
		Import:      `<persons><person key="jsama" initials="JSA" firstname="Jo" lastname="Sama"/></persons>`,
		Expect: &Expectation{
			Counts: map[string]int{"submitted": 1, "follow_up_failures": 1},
		},
		Assertions: []Assertion{
			{Type: AssertSubmitted, Person: "jsama", Kind: "update", Outcome: "submitted"},
			{Type: AssertSubmitted, Person: "jsama", Kind: "follow_up", Outcome: "follow_up_failed"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "FOLLOW_UP_FAILED: person jsama: submit fake: remote fault: ORA-20001: locked", result.Trace[1].Error)
}

func TestRun_EngineSwitches(t *testing.T) {
	scenario := &Scenario{
		Name:        "single_phase",
		Description: "Renames are plain updates when two-phase renames are off",
		Engine:      &EngineSwitches{TwoPhaseNameChange: boolp(false)},
		Remote:      knownPerson(referenceRows()),
		Import:      `<persons><person key="jsama" initials="JSA" firstname="Jo" lastname="Sama"/></persons>`,
		Assertions: []Assertion{
			{Type: AssertSubmissionCount, Count: 1},
			{Type: AssertDocument, Person: "jsama", Contains: []string{"<SEEKVALUES>500</SEEKVALUES>"}, Excludes: []string{"_JSA"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AddressTypes(t *testing.T) {
	scenario := &Scenario{
		Name:        "address_types",
		Description: "Only configured address types are synchronized",
		Engine:      &EngineSwitches{AddressTypes: []string{"private"}},
		Remote:      referenceRows(),
		Import: `<persons><person key="olan" initials="OL" postaladdress="Storgata 1">
			<address type="private" postaladdress="Hjemme 2"/></person></persons>`,
		Assertions: []Assertion{
			{Type: AssertDocument, Person: "olan", Contains: []string{"Hjemme 2"}, Excludes: []string{"Storgata 1"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_DefaultOperator(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_operator",
		Description: "New permissions without operator get the configured one",
		Engine:      &EngineSwitches{DefaultOperatorID: 42},
		Remote:      referenceRows(),
		Import:      `<persons><person key="olan" initials="OL"><permission type="AR" orgunit="USIT"/></person></persons>`,
		Assertions: []Assertion{
			{Type: AssertDocument, Person: "olan", Contains: []string{"<PK_AUTAV_PE>42</PK_AUTAV_PE>"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailedExpectations(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong",
		Description: "Expectations that do not hold fail the result",
		Remote:      referenceRows(),
		Import:      `<persons><person key="olan" initials="OL"/></persons>`,
		Expect:      &Expectation{Counts: map[string]int{"submitted": 2}},
		Assertions: []Assertion{
			{Type: AssertSubmitted, Person: "olan", Outcome: "rejected"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "count submitted: expected 2, got 1", result.Errors[0])
	assert.Contains(t, result.Errors[1], "Assertion failed: submitted")
}

func TestRun_FatalRunError(t *testing.T) {
	scenario := &Scenario{
		Name:        "no_reference_data",
		Description: "A truncated reference dataset aborts the run",
		Truncate:    []string{"ROLLE"},
		Import:      `<persons><person key="olan"/></persons>`,
		Expect:      &Expectation{Status: store.StatusFailed, Error: "too many rows in Rolle/ROLLE"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusFailed, result.Status)
	assert.Empty(t, result.Trace)
	assert.Zero(t, result.Counts.Persons)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenario *Scenario
		wantErr  string
	}{
		{
			name:     "bad today",
			scenario: &Scenario{Name: "x", Today: "tomorrow", Import: "<persons/>"},
			wantErr:  "today",
		},
		{
			name:     "unknown row tag",
			scenario: &Scenario{Name: "x", Remote: map[string][]map[string]string{"PEOPLE": nil}, Import: "<persons/>"},
			wantErr:  `unknown row tag "PEOPLE"`,
		},
		{
			name:     "unknown address type",
			scenario: &Scenario{Name: "x", Engine: &EngineSwitches{AddressTypes: []string{"home"}}, Import: "<persons/>"},
			wantErr:  `unknown address type "home"`,
		},
		{
			name:     "broken import",
			scenario: &Scenario{Name: "x", Import: "<persons><person"},
			wantErr:  "failed to parse import",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "Same scenario, same trace",
		Remote:      knownPerson(referenceRows()),
		Replies:     []Reply{{Value: 0}},
		Import: `<persons>
			<person key="a1" initials="AA"/>
			<person key="jsama" initials="JSA" firstname="Jo" lastname="Sama"/>
			<person key="c3" initials="CC"/>
		</persons>`,
		Assertions: []Assertion{{Type: AssertSubmissionOrder, Persons: []string{"a1", "jsama", "c3"}}},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, first.Pass, "errors: %v", first.Errors)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Len(t, first.Trace, 4)
}
