// Package store provides the SQLite-backed run journal.
//
// Every sync run is recorded with its counts and final status, and every
// update document submitted during a run is recorded with its payload,
// payload hash, remote result and outcome. The journal is append-only
// from the sync's point of view; operators read it back with
// `casesync journal` to find and remediate failed submissions.
//
// # Ordering
//
//   - Runs are listed newest first: ORDER BY started_at DESC, id DESC COLLATE BINARY
//   - Submissions are listed in submission order: ORDER BY run_id, seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
