// Package harness provides conformance testing for the vx front end.
//
// A scenario names a source text and the output expected from each stage.
// The harness compiles the source, compares postfix, IR, error code and
// evaluated value, runs structural assertions, and can snapshot the result
// to a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: precedence_mul_first
//	description: "* binds tighter than +"
//	source: "1 + 2 * 3"          # or source_file: path/to/file.vx
//	expect:
//	  postfix: "1 2 3 * + end"
//	  ir: "(add 1 (mul 2 3))"
//	  value: 7
//	assertions:
//	  - type: token_count
//	    kind: Operator
//	    count: 2
//	  - type: postfix_order
//	    symbols: ["*", "+"]
//
// An expect clause with error: CODE requires compilation to fail with that
// code and cannot be combined with postfix, ir or value.
//
// # Assertion Types
//
//   - token_count: exactly count tokens of the given kind
//   - postfix_order: symbols occur in this relative order in postfix
//   - statement_count: number of unconnected statements before exit
//   - stored: the unit round-trips through the history store unchanged
//
// # Deterministic Testing
//
// Every scenario compiles with a fixed run ID (scenario.run_id or
// "test-run-default") against a fresh in-memory store, so snapshots are
// byte-identical across runs.
package harness
