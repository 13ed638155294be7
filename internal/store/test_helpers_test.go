package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new journal in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var baseTime = time.Date(2026, time.October, 17, 6, 0, 0, 0, time.UTC)

// beginTestRun records a run started offset minutes after baseTime.
func beginTestRun(t *testing.T, s *Store, id string, offset int) Run {
	t.Helper()
	run := Run{
		ID:         id,
		StartedAt:  baseTime.Add(time.Duration(offset) * time.Minute),
		ImportFile: "/var/lib/casesync/persons.xml",
	}
	if err := s.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return run
}

func testSubmission(runID, person, outcome string) Submission {
	return Submission{
		RunID:       runID,
		Person:      person,
		Kind:        "update",
		Outcome:     outcome,
		Payload:     "<UPDATE></UPDATE>",
		PayloadHash: "h-" + person,
		SubmittedAt: baseTime,
	}
}
