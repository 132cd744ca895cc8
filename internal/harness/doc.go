// Package harness runs query scenarios: YAML files that name a query by
// declared types, script the server's answer, and assert on the outcome.
//
// # Scenario Format
//
//	name: people_named_jimmy
//	description: "Find people by first name"
//	schema: ../types          # CUE declarations, relative to the scenario
//	query:
//	  find: Person[]
//	  as: Target[]
//	  where:
//	    - FirstName == "Jimmy"
//	server:
//	  payloads:
//	    - { firstName: Jimmy }
//	  fail:                   # optional
//	    status: 500
//	    message: boom
//	assertions:
//	  - type: statement
//	    statement: find { Person[]( FirstName == "Jimmy" ) } as { firstName: FirstName }[]
//	  - type: state
//	    state: completed
//	  - type: payload_count
//	    count: 1
//	  - type: payload_contains
//	    index: 0
//	    fields: { firstName: Jimmy }
//	  - type: error
//	    kind: query_failed
//	  - type: history
//	    expect: { state: completed, payloads: 1 }
//
// # Deterministic Execution
//
// Every scenario runs against an in-memory transport and an in-memory
// query history, with a fixed client query id (scenario.query_id) and a
// deterministic clock, so traces are identical across runs and can be
// compared against golden files.
package harness
