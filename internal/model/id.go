package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is an internal remote id that may not be known yet.
// The zero value is the unknown id.
type ID struct {
	value int64
	known bool
}

// NoID returns the unknown id.
func NoID() ID {
	return ID{}
}

// KnownID wraps an id assigned by the remote system.
func KnownID(v int64) ID {
	return ID{value: v, known: true}
}

// ParseID parses a remote id column. An empty string yields the unknown id.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoID(), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoID(), fmt.Errorf("parse id %q: %w", s, err)
	}
	return KnownID(v), nil
}

// Value returns the id and whether it is known.
func (id ID) Value() (int64, bool) {
	return id.value, id.known
}

// IsKnown reports whether the remote system has assigned this id.
func (id ID) IsKnown() bool {
	return id.known
}

// Equal reports whether both ids are known and identical.
// Two unknown ids are not equal: they may belong to different new entities.
func (id ID) Equal(other ID) bool {
	return id.known && other.known && id.value == other.value
}

// String returns the decimal id, or "" when unknown.
func (id ID) String() string {
	if !id.known {
		return ""
	}
	return strconv.FormatInt(id.value, 10)
}
