// Package harness runs taxonomy scenarios against a real engine and store.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	fixture: subjects        # subjects, subjects_raw, or omitted
//	strict: true             # optional precommit validation
//	steps:
//	  - op: insert
//	    name: 内積
//	    parent: 5
//	    expect_id: 10
//	  - op: move
//	    id: 1
//	    parent: 4
//	    expect_error: CYCLE_DETECTED
//	  - op: remove
//	    id: 2
//	    policy: reparent
//	assertions:
//	  - type: subtree
//	    id: 1
//	    expect: [3, 4, 5, 6, 10]
//	  - type: parent
//	    id: 7
//	    expect: []
//	  - type: consistent
//
// # Assertion Types
//
//   - subtree, leaves, children, ancestors, roots: result IDs in order
//   - parent: the parent's ID, or an empty list for a root
//   - category: the category's name, or absence when name is omitted
//   - consistent: the closure satisfies every invariant
//   - violation: the first violated invariant has the given name
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory SQLite database with sequential
// operation IDs, so the step trace and final tables are identical across
// runs and can be compared against golden files (RunWithGolden).
package harness
