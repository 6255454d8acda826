package pregel

import "math/rand/v2"

// nodeAccess is the part of the context surface shared by init and compute:
// graph topology of one node and read/write access to that node's properties.
//
// Property accessors panic with an *Error on misuse (unknown key, wrong
// value type). The scheduler recovers the panic and aborts the computation.
type nodeAccess struct {
	graph  Graph
	values *NodeValues
	cfg    Config
	node   int64
}

// NodeID returns the dense id of the current node.
func (c *nodeAccess) NodeID() int64 { return c.node }

// OriginalID returns the id the node was loaded with. Graphs that do not map
// ids report the dense id.
func (c *nodeAccess) OriginalID() int64 { return originalID(c.graph, c.node) }

// NodeCount returns the number of nodes in the graph.
func (c *nodeAccess) NodeCount() int64 { return c.graph.NodeCount() }

// Degree returns the out-degree of the current node.
func (c *nodeAccess) Degree() int { return c.graph.Degree(c.node) }

// Config returns the engine configuration of the running computation.
func (c *nodeAccess) Config() Config { return c.cfg }

// ForEachNeighbor calls fn with the target of every outgoing relationship.
func (c *nodeAccess) ForEachNeighbor(fn func(target int64)) {
	c.graph.ForEachRelationship(c.node, func(target int64, _ float64) bool {
		fn(target)
		return true
	})
}

// ForEachRelationship calls fn for every outgoing relationship until fn
// returns false.
func (c *nodeAccess) ForEachRelationship(fn func(target int64, weight float64) bool) {
	c.graph.ForEachRelationship(c.node, fn)
}

// DoubleValue reads a double property of the current node.
func (c *nodeAccess) DoubleValue(key string) float64 {
	return must(c.values.Double(key, c.node))
}

// SetDoubleValue writes a double property of the current node.
func (c *nodeAccess) SetDoubleValue(key string, v float64) {
	check(c.values.SetDouble(key, c.node, v))
}

// LongValue reads a long property of the current node.
func (c *nodeAccess) LongValue(key string) int64 {
	return must(c.values.Long(key, c.node))
}

// SetLongValue writes a long property of the current node.
func (c *nodeAccess) SetLongValue(key string, v int64) {
	check(c.values.SetLong(key, c.node, v))
}

// LongArrayValue reads a long array property of the current node. The slice
// is owned by the store and may be modified in place.
func (c *nodeAccess) LongArrayValue(key string) []int64 {
	return must(c.values.LongArray(key, c.node))
}

// SetLongArrayValue writes a long array property of the current node.
func (c *nodeAccess) SetLongArrayValue(key string, v []int64) {
	check(c.values.SetLongArray(key, c.node, v))
}

// DoubleArrayValue reads a double array property of the current node.
func (c *nodeAccess) DoubleArrayValue(key string) []float64 {
	return must(c.values.DoubleArray(key, c.node))
}

// SetDoubleArrayValue writes a double array property of the current node.
func (c *nodeAccess) SetDoubleArrayValue(key string, v []float64) {
	check(c.values.SetDoubleArray(key, c.node, v))
}

// InitContext is passed to Computation.Init, once per node, before the
// initial superstep. No messages exist yet.
type InitContext struct {
	nodeAccess
}

// ComputeContext is passed to Computation.Compute. One instance is owned by
// each partition worker and rebound to every node it visits; it must not be
// retained after Compute returns.
type ComputeContext struct {
	nodeAccess

	superstep int
	queues    messenger
	weighted  Weighted
	acc       *accumulators
	rng       *rand.Rand

	// per node
	sentFromNode bool
	voted        bool

	// per superstep, summed by the scheduler
	sent int64
}

func (c *ComputeContext) bind(node int64) {
	c.node = node
	c.sentFromNode = false
	c.voted = false
}

// Superstep returns the current superstep, starting at 0.
func (c *ComputeContext) Superstep() int { return c.superstep }

// IsInitialSuperstep reports whether this is superstep 0.
func (c *ComputeContext) IsInitialSuperstep() bool { return c.superstep == 0 }

// SendTo sends value to target. In synchronous mode it is delivered during the
// next superstep. Panics with an OUT_OF_RANGE *Error if target is not a node.
func (c *ComputeContext) SendTo(target int64, value float64) {
	if n := c.graph.NodeCount(); target < 0 || target >= n {
		panic(outOfRange(target, n))
	}
	c.send(target, value)
}

// SendToNeighbors sends value along every outgoing relationship. Computations
// implementing Weighted get the value scaled by the relationship weight.
func (c *ComputeContext) SendToNeighbors(value float64) {
	c.graph.ForEachRelationship(c.node, func(target int64, weight float64) bool {
		v := value
		if c.weighted != nil {
			v = c.weighted.ApplyRelationshipWeight(value, weight)
		}
		c.send(target, v)
		return true
	})
}

func (c *ComputeContext) send(target int64, value float64) {
	c.queues.send(target, value)
	c.sentFromNode = true
	c.sent++
}

// VoteToContinue keeps the node active in the next superstep even if it
// receives no messages.
func (c *ComputeContext) VoteToContinue() { c.voted = true }

// Accumulate adds v to the named accumulator. The total is only readable by
// MasterCompute after the superstep.
func (c *ComputeContext) Accumulate(name string, v float64) { c.acc.add(name, v) }

// Random returns the generator of the partition owning the node. It is seeded
// from the configured seed and the partition index.
func (c *ComputeContext) Random() *rand.Rand { return c.rng }

// MasterComputeContext is passed to MasterCompute once per superstep after
// the barrier. It runs single-threaded and may read or write any node.
type MasterComputeContext struct {
	graph     Graph
	values    *NodeValues
	cfg       Config
	superstep int
	acc       *accumulators
}

// Superstep returns the superstep that just finished.
func (c *MasterComputeContext) Superstep() int { return c.superstep }

// IsInitialSuperstep reports whether superstep 0 just finished.
func (c *MasterComputeContext) IsInitialSuperstep() bool { return c.superstep == 0 }

// NodeCount returns the number of nodes in the graph.
func (c *MasterComputeContext) NodeCount() int64 { return c.graph.NodeCount() }

// Config returns the engine configuration of the running computation.
func (c *MasterComputeContext) Config() Config { return c.cfg }

// Accumulated returns the total added to the named accumulator during the
// superstep that just finished.
func (c *MasterComputeContext) Accumulated(name string) float64 { return c.acc.get(name) }

// OriginalID maps a dense node id back to the id it was loaded with.
func (c *MasterComputeContext) OriginalID(node int64) int64 { return originalID(c.graph, node) }

// ForEachNode calls fn for every node in id order until fn returns false.
func (c *MasterComputeContext) ForEachNode(fn func(node int64) bool) {
	n := c.graph.NodeCount()
	for node := int64(0); node < n; node++ {
		if !fn(node) {
			return
		}
	}
}

// DoubleValue reads a double property of any node.
func (c *MasterComputeContext) DoubleValue(key string, node int64) float64 {
	return must(c.values.Double(key, node))
}

// SetDoubleValue writes a double property of any node.
func (c *MasterComputeContext) SetDoubleValue(key string, node int64, v float64) {
	check(c.values.SetDouble(key, node, v))
}

// LongValue reads a long property of any node.
func (c *MasterComputeContext) LongValue(key string, node int64) int64 {
	return must(c.values.Long(key, node))
}

// SetLongValue writes a long property of any node.
func (c *MasterComputeContext) SetLongValue(key string, node int64, v int64) {
	check(c.values.SetLong(key, node, v))
}

// LongArrayValue reads a long array property of any node.
func (c *MasterComputeContext) LongArrayValue(key string, node int64) []int64 {
	return must(c.values.LongArray(key, node))
}

// SetLongArrayValue writes a long array property of any node.
func (c *MasterComputeContext) SetLongArrayValue(key string, node int64, v []int64) {
	check(c.values.SetLongArray(key, node, v))
}

// DoubleArrayValue reads a double array property of any node.
func (c *MasterComputeContext) DoubleArrayValue(key string, node int64) []float64 {
	return must(c.values.DoubleArray(key, node))
}

// SetDoubleArrayValue writes a double array property of any node.
func (c *MasterComputeContext) SetDoubleArrayValue(key string, node int64, v []float64) {
	check(c.values.SetDoubleArray(key, node, v))
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
