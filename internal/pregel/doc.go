// Package pregel implements a vertex-centric bulk-synchronous graph
// computation engine.
//
// An algorithm is written as a Computation: a per-node Compute function run
// repeatedly in lock-step supersteps, exchanging float64 messages along the
// graph, with an optional single-threaded MasterCompute hook between rounds.
//
// Superstep Loop:
//
//	INIT → COMPUTE → BARRIER → MASTER_COMPUTE → CHECK → (COMPUTE | HALTED)
//
//   - INIT runs Init once per node, partitions in parallel.
//   - COMPUTE visits every node at superstep 0, and afterwards only nodes
//     that received a message, sent one, or voted to continue.
//   - BARRIER joins all partition tasks and swaps the message buffers.
//   - MASTER_COMPUTE runs once, single-threaded, and sees the accumulator
//     totals of the superstep that just finished.
//   - CHECK halts on MasterHalt, on quiescence (unless the master asked to
//     continue), or when Config.MaxIterations supersteps have run.
//
// Ownership:
//
// The node id space is split into contiguous partitions, one worker task per
// partition per superstep. A node's property slots are written only by the
// worker owning its partition, so the NodeValues store needs no locking. The
// message queues are the only structure written across partitions.
//
// Failure:
//
// Errors returned or panics raised by user hooks abort the computation with
// an *Error; no partial result is produced. Context cancellation is polled at
// partition-task boundaries and at the barrier and is reported with code
// CANCELED.
package pregel
