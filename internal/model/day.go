package model

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format for dates written to the remote system.
const DayLayout = "2006-01-02"

// parseLayouts lists every date format seen in remote rows and import files.
var parseLayouts = []string{
	DayLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02.01.2006",
}

// Day is a calendar date without time of day. The zero value means "absent".
//
// All effective-dating comparisons happen at day granularity so that a value
// written as DayLayout and read back compares equal to the original.
type Day struct {
	t time.Time
}

// FarFuture is written as valid-until when a closed record is reactivated.
var FarFuture = NewDay(9999, time.December, 31)

// NewDay builds a Day from its components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to its calendar date in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// ParseDay parses any supported layout. An empty string yields the zero Day.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Day{}, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DayOf(t), nil
		}
	}
	return Day{}, fmt.Errorf("parse date %q: unsupported format", s)
}

// IsZero reports whether the date is absent.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	return d.t.After(other.t)
}

// Equal compares two dates; two absent dates are equal.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// String formats the date as DayLayout, or "" when absent.
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}

// expiredBy reports whether an effective-until date closes the record as of today.
// An absent date never expires.
func expiredBy(until, today Day) bool {
	return !until.IsZero() && !until.After(today)
}
