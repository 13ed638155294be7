package store

import "time"

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Counts are the per-run tallies.
type Counts struct {
	Persons          int `json:"persons"`
	Submitted        int `json:"submitted"`
	Rejected         int `json:"rejected"`
	Failed           int `json:"failed"`
	Unchanged        int `json:"unchanged"`
	Skipped          int `json:"skipped"`
	DataErrors       int `json:"data_errors"`
	FollowUpFailures int `json:"follow_up_failures"`
}

// Run is one sync invocation.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	ImportFile string    `json:"import_file"`
	DryRun     bool      `json:"dry_run"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Counts
}

// Submission is one update document sent (or attempted) during a run.
type Submission struct {
	RunID       string    `json:"run_id"`
	Seq         int64     `json:"seq"`
	Person      string    `json:"person"`
	Kind        string    `json:"kind"`
	Outcome     string    `json:"outcome"`
	Result      int       `json:"result"`
	Error       string    `json:"error,omitempty"`
	Payload     string    `json:"payload"`
	PayloadHash string    `json:"payload_hash"`
	SubmittedAt time.Time `json:"submitted_at"`
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}
