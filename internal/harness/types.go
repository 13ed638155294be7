package harness

import "github.com/roach88/casesync/internal/store"

// TraceEvent is one journaled submission of a scenario run.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Person  string `json:"person"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Result  int    `json:"result"`
	Error   string `json:"error,omitempty"`

	// Payload is the document sent. Golden snapshots leave it out; use
	// document assertions to check its content.
	Payload string `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Counts are the run tallies as journaled.
	Counts store.Counts `json:"counts"`

	// RunError is the fatal error that aborted the run, if any.
	RunError string `json:"run_error,omitempty"`

	// Status is the journaled run status.
	Status string `json:"status"`

	// Trace contains the journaled submissions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains the failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddSubmission appends a journaled submission to the trace.
func (r *Result) AddSubmission(sub store.Submission) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     sub.Seq,
		Person:  sub.Person,
		Kind:    sub.Kind,
		Outcome: sub.Outcome,
		Result:  sub.Result,
		Error:   sub.Error,
		Payload: sub.Payload,
	})
}
