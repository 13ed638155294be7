package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/casesync/internal/remote"
)

// SubmitReply scripts one SubmitUpdate answer.
type SubmitReply struct {
	Value int
	Err   error
}

// FakeGateway is an in-memory remote.Gateway.
//
// Datasets are keyed by row tag. Submissions are recorded in order and
// answered from the scripted replies first; once those run out every
// submission succeeds with an increasing id starting at 1000.
type FakeGateway struct {
	mu        sync.Mutex
	rows      map[string][]remote.Row
	truncated map[string]bool
	fetchErr  map[string]error
	replies   []SubmitReply
	nextID    int
	fetches   []string
	documents []string
}

var _ remote.Gateway = (*FakeGateway)(nil)

// NewFakeGateway returns a gateway with empty datasets.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		rows:      make(map[string][]remote.Row),
		truncated: make(map[string]bool),
		fetchErr:  make(map[string]error),
		nextID:    1000,
	}
}

// AddRows appends rows to a dataset.
func (g *FakeGateway) AddRows(ds remote.Dataset, rows ...remote.Row) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows[ds.RowTag] = append(g.rows[ds.RowTag], rows...)
	return g
}

// SetRows replaces a dataset.
func (g *FakeGateway) SetRows(ds remote.Dataset, rows ...remote.Row) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows[ds.RowTag] = rows
	return g
}

// Truncate makes every fetch of ds fail with *remote.TooManyRowsError.
func (g *FakeGateway) Truncate(ds remote.Dataset) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.truncated[ds.RowTag] = true
	return g
}

// FailFetch makes every fetch of ds fail with err.
func (g *FakeGateway) FailFetch(ds remote.Dataset, err error) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchErr[ds.RowTag] = err
	return g
}

// QueueReplies scripts the next SubmitUpdate answers.
func (g *FakeGateway) QueueReplies(replies ...SubmitReply) *FakeGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
	return g
}

// FetchRows implements remote.Gateway. Returned rows are copies.
func (g *FakeGateway) FetchRows(ctx context.Context, criteria, rowTag string) ([]remote.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fetches = append(g.fetches, rowTag)
	if err := g.fetchErr[rowTag]; err != nil {
		return nil, err
	}
	if g.truncated[rowTag] {
		return nil, &remote.TooManyRowsError{Criteria: criteria, RowTag: rowTag}
	}

	out := make([]remote.Row, len(g.rows[rowTag]))
	for i, r := range g.rows[rowTag] {
		c := make(remote.Row, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out, nil
}

// SubmitUpdate implements remote.Gateway.
func (g *FakeGateway) SubmitUpdate(ctx context.Context, document string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.documents = append(g.documents, document)
	if len(g.replies) > 0 {
		r := g.replies[0]
		g.replies = g.replies[1:]
		return r.Value, r.Err
	}
	g.nextID++
	return g.nextID, nil
}

// Documents returns every submitted document in order.
func (g *FakeGateway) Documents() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.documents...)
}

// Fetches returns the row tags fetched so far, in order.
func (g *FakeGateway) Fetches() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.fetches...)
}

// Reset forgets recorded fetches and documents but keeps the datasets.
func (g *FakeGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches = nil
	g.documents = nil
}

// FaultError is a convenience error for scripted failures.
func FaultError(msg string) error {
	return &remote.TransportError{Op: "submit", Target: "fake", Message: fmt.Sprintf("remote fault: %s", msg)}
}
