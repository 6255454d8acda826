// Package store persists completed computations in SQLite.
//
// A run row records what was computed (algorithm, job, graph path), how it
// ended (supersteps, convergence, per-superstep stats) and when. The public
// node properties of the result are stored next to it, one row per property
// and node, with values encoded as JSON.
//
// # Ordering
//
// Runs are listed by seq, the insertion order, never by created_at. Node
// values are returned ordered by property, then node id.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a run deletes its values
package store
