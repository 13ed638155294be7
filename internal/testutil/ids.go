package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates predictable run ids: "<prefix>-0001", "<prefix>-0002", ...
//
// This enables golden comparison of journal output and log lines that
// would otherwise carry random UUIDs.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "run".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedPasswords returns the same password on every call. It satisfies the
// password source used by the sync engine.
func FixedPasswords(pw string) func() (string, error) {
	return func() (string, error) {
		return pw, nil
	}
}
