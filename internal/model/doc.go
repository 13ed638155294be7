// Package model holds the person-record entities exchanged between the import
// file and the remote case-management system.
//
// Every entity is built fresh per run, either from remote rows (the FromRow
// constructors) or from import attributes (the NewImport* constructors), and
// is compared against exactly one instance of the other origin.
//
// Two comparisons exist and are never conflated:
//   - SameEntity: identity, by known id or natural key
//   - ValueEqual: field-by-field, ignoring ids and bookkeeping flags
//
// Unknown remote ids are represented by the zero ID, never by a sentinel number.
package model
