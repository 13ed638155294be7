package remote

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DryRun reads through to a real gateway but never submits. Documents are
// logged and acknowledged with synthetic positive ids.
type DryRun struct {
	inner  Gateway
	logger *slog.Logger
	next   atomic.Int64
}

var _ Gateway = (*DryRun)(nil)

// NewDryRun wraps inner.
func NewDryRun(inner Gateway, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{inner: inner, logger: logger.With(slog.String("component", "dry-run"))}
}

// FetchRows implements Gateway.
func (d *DryRun) FetchRows(ctx context.Context, criteria, rowTag string) ([]Row, error) {
	return d.inner.FetchRows(ctx, criteria, rowTag)
}

// SubmitUpdate implements Gateway.
func (d *DryRun) SubmitUpdate(ctx context.Context, document string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := d.next.Add(1)
	d.logger.Info("would submit", slog.Int64("synthetic_id", id), slog.String("payload", document))
	return int(id), nil
}

// Submitted returns the number of documents swallowed so far.
func (d *DryRun) Submitted() int {
	return int(d.next.Load())
}
