package pregel

// Computation is a vertex-centric algorithm run by the scheduler.
//
// Schema is resolved once, before any node is visited. Init is called once
// per node before the initial superstep. Compute is called once per active
// node per superstep, concurrently across partitions: it must only touch its
// own node's properties through the context and must not depend on the order
// in which nodes or messages are visited.
type Computation interface {
	Schema(cfg Config) (*Schema, error)
	Init(ctx *InitContext) error
	Compute(ctx *ComputeContext, msgs Messages) error
}

// MasterDecision is the global signal returned by MasterCompute.
type MasterDecision int

const (
	// MasterDefer leaves the halting decision to node activity and the
	// superstep cap.
	MasterDefer MasterDecision = iota
	// MasterContinue forces another superstep even if no node is active.
	// The superstep cap still applies.
	MasterContinue
	// MasterHalt stops the computation after the current superstep.
	MasterHalt
)

// String implements fmt.Stringer.
func (d MasterDecision) String() string {
	switch d {
	case MasterDefer:
		return "defer"
	case MasterContinue:
		return "continue"
	case MasterHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// MasterComputation is implemented by computations with a global hook that
// runs single-threaded after every superstep barrier.
type MasterComputation interface {
	MasterCompute(ctx *MasterComputeContext) (MasterDecision, error)
}

// Reducing is implemented by computations whose messages can be combined
// before delivery.
type Reducing interface {
	Reducer() Reducer
}

// Weighted is implemented by computations that scale messages sent with
// SendToNeighbors by the relationship weight.
type Weighted interface {
	ApplyRelationshipWeight(value, weight float64) float64
}

// Accumulating is implemented by computations that use named accumulators.
type Accumulating interface {
	Accumulators() []string
}

// Closer is implemented by computations holding per-run resources.
// Close is called exactly once when Run returns, whatever the outcome.
type Closer interface {
	Close() error
}
