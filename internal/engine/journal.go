package engine

import (
	"context"

	"github.com/roach88/casesync/internal/store"
)

// Journal records runs and submissions. *store.Store implements it.
type Journal interface {
	BeginRun(ctx context.Context, run store.Run) error
	RecordSubmission(ctx context.Context, sub store.Submission) (int64, error)
	FinishRun(ctx context.Context, run store.Run) error
}

var _ Journal = (*store.Store)(nil)

type nopJournal struct{}

func (nopJournal) BeginRun(context.Context, store.Run) error { return nil }

func (nopJournal) RecordSubmission(context.Context, store.Submission) (int64, error) {
	return 0, nil
}

func (nopJournal) FinishRun(context.Context, store.Run) error { return nil }
