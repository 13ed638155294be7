package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a missing journal record.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

const runColumns = `id, started_at, finished_at, import_file, dry_run, status, error,
	persons, submitted, rejected, failed, unchanged, skipped, data_errors, follow_up_failures`

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns all runs.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id COLLATE BINARY DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, &NotFoundError{Kind: "run", ID: id}
	}
	return r, err
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, &NotFoundError{Kind: "run", ID: "latest"}
	}
	return runs[0], nil
}

// SubmissionFilter narrows ListSubmissions.
type SubmissionFilter struct {
	RunID string // required
	// Outcomes restricts the result to these outcomes; empty means all.
	Outcomes []string
	Person   string
}

// ListSubmissions returns the submissions of a run in submission order.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]Submission, error) {
	query := `
		SELECT run_id, seq, person, kind, outcome, result, error, payload, payload_hash, submitted_at
		FROM submissions
		WHERE run_id = ?`
	args := []any{f.RunID}

	if f.Person != "" {
		query += ` AND person = ?`
		args = append(args, f.Person)
	}
	if len(f.Outcomes) > 0 {
		query += ` AND outcome IN (?` + strings.Repeat(",?", len(f.Outcomes)-1) + `)`
		for _, o := range f.Outcomes {
			args = append(args, o)
		}
	}
	query += ` ORDER BY run_id, seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		var (
			sub Submission
			at  string
		)
		if err := rows.Scan(&sub.RunID, &sub.Seq, &sub.Person, &sub.Kind, &sub.Outcome,
			&sub.Result, &sub.Error, &sub.Payload, &sub.PayloadHash, &at); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if sub.SubmittedAt, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
		dryRun            int
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.ImportFile, &dryRun, &r.Status, &r.Error,
		&r.Persons, &r.Submitted, &r.Rejected, &r.Failed, &r.Unchanged, &r.Skipped,
		&r.DataErrors, &r.FollowUpFailures)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.DryRun = dryRun != 0
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
