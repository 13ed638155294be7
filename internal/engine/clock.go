package engine

import (
	"sync/atomic"
	"time"

	"github.com/roach88/casesync/internal/model"
)

// Clock supplies the wall time used for effective dating.
// Implemented by SystemClock (production) and testutil.FixedClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

func today(c Clock) model.Day {
	return model.DayOf(c.Now())
}

// RefSequence hands out document reference numbers.
//
// One sequence lives for a whole run, so reference ids drawn from it (name
// placeholders) are unique across every document of the run.
//
// Thread-safety: RefSequence is safe for concurrent use (atomic operations),
// although the engine only calls it from one goroutine.
type RefSequence struct {
	seq atomic.Int64
}

// NewRefSequence creates a sequence starting at 0.
func NewRefSequence() *RefSequence {
	return &RefSequence{}
}

// Next returns the next number, starting at 1.
func (s *RefSequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last number handed out.
func (s *RefSequence) Current() int64 {
	return s.seq.Load()
}
