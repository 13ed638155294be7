package store

import (
	"context"
	"fmt"
)

// BeginRun records the start of a run. The status is forced to running.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, import_file, dry_run, status)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		run.ImportFile,
		boolToInt(run.DryRun),
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counts of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?, status = ?, error = ?,
			persons = ?, submitted = ?, rejected = ?, failed = ?,
			unchanged = ?, skipped = ?, data_errors = ?, follow_up_failures = ?
		WHERE id = ?
	`,
		formatTime(run.FinishedAt),
		run.Status,
		run.Error,
		run.Persons,
		run.Submitted,
		run.Rejected,
		run.Failed,
		run.Unchanged,
		run.Skipped,
		run.DataErrors,
		run.FollowUpFailures,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w", &NotFoundError{Kind: "run", ID: run.ID})
	}
	return nil
}

// RecordSubmission appends a submission to its run and returns the
// assigned sequence number. The run must exist.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO submissions
		(run_id, seq, person, kind, outcome, result, error, payload, payload_hash, submitted_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM submissions WHERE run_id = ?), ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq
	`,
		sub.RunID,
		sub.RunID,
		sub.Person,
		sub.Kind,
		sub.Outcome,
		sub.Result,
		sub.Error,
		sub.Payload,
		sub.PayloadHash,
		formatTime(sub.SubmittedAt),
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("record submission: %w", err)
	}
	return seq, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
