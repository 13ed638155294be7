// Package engine reconciles imported persons against the remote snapshot.
//
// For every imported person the engine matches a remote person, computes
// field and set deltas, and composes one update document. Only dirty
// documents are submitted. A failure to submit is logged with the exact
// payload and never aborts the remaining persons.
//
// ARCHITECTURE:
//
// Single-threaded, synchronous:
//  1. Syncer loads reference data and builds the remote snapshot
//  2. Engine.Reconcile turns one person into a Plan (documents + flags)
//  3. Engine.Apply submits the Plan and classifies the response
//  4. Syncer journals each submission and tallies the Summary
//
// Cancellation is checked between persons; a person already being
// submitted is never interrupted by the engine itself.
//
// INVARIANTS:
//   - A matched person never gets both a create and a seek PERSON block
//   - Role and permission deltas work on copies; the snapshot is never mutated
//     by reconciliation
//   - Name placeholder reference ids come from a run-wide sequence and are
//     never reused
//   - The two-phase rename follow-up is only submitted after the first
//     document was accepted
package engine
