package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/remote"
)

func TestFixedClock(t *testing.T) {
	clock := NewFixedClockOn(2026, time.October, 17)
	start := clock.Now()
	assert.Equal(t, start, clock.Now(), "time does not pass on its own")

	clock.Advance(36 * time.Hour)
	assert.Equal(t, 19, clock.Now().Day())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestSequenceIDs(t *testing.T) {
	ids := NewSequenceIDs("")
	assert.Equal(t, "run-0001", ids.Generate())
	assert.Equal(t, "run-0002", ids.Generate())

	ids = NewSequenceIDs("sync")
	assert.Equal(t, "sync-0001", ids.Generate())
}

func TestSequenceIDs_Concurrent(t *testing.T) {
	ids := NewSequenceIDs("c")
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}

func TestFakeGateway_Fetch(t *testing.T) {
	g := NewFakeGateway().
		AddRows(remote.Persons, remote.Row{"PE_ID": "1"}).
		AddRows(remote.Persons, remote.Row{"PE_ID": "2"})

	rows, err := remote.Fetch(context.Background(), g, remote.Persons)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows[0]["PE_ID"] = "mutated"
	again, err := remote.Fetch(context.Background(), g, remote.Persons)
	require.NoError(t, err)
	assert.Equal(t, "1", again[0]["PE_ID"], "callers get copies")

	g.Truncate(remote.Names)
	_, err = remote.Fetch(context.Background(), g, remote.Names)
	assert.True(t, remote.IsTooManyRows(err))

	boom := errors.New("boom")
	g.FailFetch(remote.Roles, boom)
	_, err = remote.Fetch(context.Background(), g, remote.Roles)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"PERSON", "PERSON", "PERNAVN", "PERROLLE"}, g.Fetches())
}

func TestFakeGateway_Submit(t *testing.T) {
	g := NewFakeGateway().QueueReplies(SubmitReply{Value: 0}, SubmitReply{Err: FaultError("nope")})
	ctx := context.Background()

	n, err := g.SubmitUpdate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = g.SubmitUpdate(ctx, "b")
	assert.True(t, remote.IsTransportError(err))

	n, err = g.SubmitUpdate(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1001, n)

	assert.Equal(t, []string{"a", "b", "c"}, g.Documents())
	g.Reset()
	assert.Empty(t, g.Documents())
}
