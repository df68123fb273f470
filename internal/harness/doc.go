// Package harness runs mapping scenarios against a fresh in-memory database.
//
// A scenario applies table declarations, executes statements and checks the
// final state, recording every step in a trace that can be compared against
// a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: add_column
//	description: "A second declaration adds a nullable column"
//	steps:
//	  - migrate: schemas/songs_v1.yaml
//	  - exec: "INSERT INTO songs (id, title) VALUES (?, ?)"
//	    args: [1, "Blue"]
//	    expect: { rows: 1 }
//	  - migrate: schemas/songs_v2.yaml
//	  - query: "SELECT id, tag FROM songs"
//	    expect: { rows: 1 }
//	assertions:
//	  - type: columns
//	    table: songs
//	    columns: [id, title, tag]
//	  - type: final_state
//	    table: songs
//	    where: { id: 1 }
//	    expect: { tag: null }
//
// Migrate paths are resolved relative to the scenario file.
//
// # Assertion Types
//
//   - columns: the live column list of a table, in order
//   - row_count: the number of rows in a table
//   - final_state: the one row matching where has the expected values
//   - trace_contains: some step ran exactly the given statement
//
// # Determinism
//
// Each run uses its own in-memory SQLite database and records only values
// the statements produce, so traces are identical across runs.
package harness
