// Package harness runs end-to-end sync scenarios.
//
// A scenario scripts the remote system (its rows, truncated datasets and
// the answers to submissions), supplies an import document, and states the
// run totals and journaled submissions the sync must produce. The real
// engine runs against a fake gateway and an in-memory journal.
//
// # Scenario Format
//
//	name: rename_initials
//	description: "An initials change goes through a placeholder"
//	today: 2026-10-17
//	engine:
//	  two_phase_name_change: true
//	remote:
//	  ADMINDEL:
//	    - {AI_ID: "10", AI_FORKDN: USIT, AI_ADMBET: USIT}
//	  PERSON:
//	    - {PE_ID: "100", PE_BRUKERID: jsama, PE_OPPRETTETDATO: "2015-08-01"}
//	replies:
//	  - value: 0
//	  - fault: "ORA-00001: unique constraint violated"
//	import: |
//	  <persons><person key="jsama" initials="JSA"/></persons>
//	expect:
//	  status: completed
//	  counts: {persons: 1, submitted: 1}
//	assertions:
//	  - type: submitted
//	    person: jsama
//	    kind: follow_up
//	    outcome: submitted
//	  - type: document
//	    person: jsama
//	    contains: ["<PN_INIT>_JSA</PN_INIT>"]
//
// # Assertion Types
//
//   - submitted: the person has a submission with the given outcome
//   - document: the person's first document contains (or excludes) text
//   - submission_order: persons were first submitted in this order
//   - submission_count: the number of submissions, optionally of one person
//
// # Deterministic Testing
//
// Runs use a fixed clock (noon UTC on the scenario date), run ids from
// testutil.SequenceIDs and a fixed password for new persons, so the
// journaled trace can be compared against golden snapshots.
package harness
