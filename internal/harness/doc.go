// Package harness runs algorithm scenarios end to end: build a graph, run
// the computation, store the result and check it.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	job:
//	  algorithm: wcc
//	  undirected: true
//	  concurrency: 2
//	graph:
//	  edges:
//	    - [30, 10]
//	    - [10, 20, 0.5]   # optional weight
//	  nodes: [99]
//	assertions:
//	  - type: converged
//	    value: true
//	  - type: node_value
//	    property: component
//	    node: 20
//	    value: 10
//
// job takes the same fields as a CUE job file. Instead of an inline graph a
// scenario may set job.graph to an edge list, or graph.random to generate
// one.
//
// # Assertion Types
//
//   - supersteps: the run took exactly count supersteps
//   - converged: the run halted on its own (true) or at the cap (false)
//   - node_value: a stored property of one node equals value
//   - contains: an array property of one node contains value
//   - same_value: a property is identical across nodes
//   - property_sum: a property summed over all nodes equals value
//   - messages_conserved: every message sent was delivered exactly once
//
// Node ids in assertions are external ids, as written in the graph.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory store with sequential run ids
// (testutil.SequentialIDGenerator) and a deterministic clock
// (testutil.DeterministicClock), so stored runs and golden snapshots are
// byte-identical across executions.
package harness
