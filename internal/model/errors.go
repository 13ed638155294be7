package model

import (
	"errors"
	"fmt"
)

// DataErrorCode categorizes rejected import or remote data.
type DataErrorCode string

const (
	// ErrCodeIllegalRoleType indicates a role-type name absent from reference data.
	ErrCodeIllegalRoleType DataErrorCode = "illegal role type"

	// ErrCodeIllegalOrgUnit indicates an org-unit code absent from reference data.
	ErrCodeIllegalOrgUnit DataErrorCode = "illegal org-unit code"

	// ErrCodeMissingIdentity indicates a person without identity key.
	ErrCodeMissingIdentity DataErrorCode = "missing identity key"

	// ErrCodeBadValue indicates an unparsable id, date or flag.
	ErrCodeBadValue DataErrorCode = "bad value"
)

// DataError rejects a single record. It is never fatal to a run.
type DataError struct {
	Code  DataErrorCode
	Value string // offending code or raw value
	Field string // optional attribute or column name
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q (%s)", e.Code, e.Value, e.Field)
	}
	return fmt.Sprintf("%s %q", e.Code, e.Value)
}

// IsDataError reports whether err (or anything it wraps) is a DataError.
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

func badValue(field, value string) *DataError {
	return &DataError{Code: ErrCodeBadValue, Field: field, Value: value}
}
