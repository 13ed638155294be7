package engine

import (
	"errors"
	"fmt"
)

// SyncError reports the failure of one person's submission.
//
// SyncErrors are never fatal to a run: they are logged with the exact
// payload, journaled, and counted.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Person is the identity key of the affected person.
	Person string

	// Payload is the exact document that was (or would have been) sent.
	Payload string

	// Result is the remote answer for rejected submissions.
	Result int

	// Err is the underlying cause, if any.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeSubmitFailed indicates the gateway raised a fault.
	ErrCodeSubmitFailed SyncErrorCode = "SUBMIT_FAILED"

	// ErrCodeSubmitRejected indicates a non-positive remote result.
	ErrCodeSubmitRejected SyncErrorCode = "SUBMIT_REJECTED"

	// ErrCodeFollowUpFailed indicates the corrective rename after a
	// successful submission failed.
	ErrCodeFollowUpFailed SyncErrorCode = "FOLLOW_UP_FAILED"

	// ErrCodeBuildFailed indicates the document could not be composed.
	ErrCodeBuildFailed SyncErrorCode = "BUILD_FAILED"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: person %s: %v", e.Code, e.Person, e.Err)
	}
	return fmt.Sprintf("%s: person %s: remote returned %d", e.Code, e.Person, e.Result)
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsRejected returns true if the remote silently refused the document.
func IsRejected(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeSubmitRejected
	}
	return false
}

// IsFollowUpFailure returns true if only the corrective rename failed.
func IsFollowUpFailure(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeFollowUpFailed
	}
	return false
}
