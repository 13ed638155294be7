package remote

import (
	"errors"
	"fmt"
)

// TransportError is the single error type the gateway raises for anything
// that went wrong talking to the remote system: network failures, timeouts,
// TLS problems, HTTP errors, malformed replies and remote faults.
type TransportError struct {
	Op      string // "fetch" or "submit"
	Target  string // dataset or URL
	Status  int    // HTTP status, 0 if no response was received
	Message string // human readable reason
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Target, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Target, msg)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// TooManyRowsError reports a result set truncated at the remote row limit.
// A partial snapshot is never usable, so callers treat this as fatal.
type TooManyRowsError struct {
	Criteria string
	RowTag   string
	Limit    int
}

// Error implements the error interface.
func (e *TooManyRowsError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("too many rows in %s/%s (limit %d)", e.Criteria, e.RowTag, e.Limit)
	}
	return fmt.Sprintf("too many rows in %s/%s", e.Criteria, e.RowTag)
}

// IsTooManyRows reports whether err is or wraps a *TooManyRowsError.
func IsTooManyRows(err error) bool {
	var tm *TooManyRowsError
	return errors.As(err, &tm)
}
