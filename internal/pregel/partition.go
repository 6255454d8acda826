package pregel

import "fmt"

// Partition is a contiguous slice [Start, Start+Length) of the node id space.
// Each partition is owned by exactly one worker task per superstep.
type Partition struct {
	Index  int
	Start  int64
	Length int64
}

// End returns the exclusive upper bound of the partition.
func (p Partition) End() int64 { return p.Start + p.Length }

// String implements fmt.Stringer.
func (p Partition) String() string {
	return fmt.Sprintf("partition[%d: %d..%d)", p.Index, p.Start, p.End())
}

// Partitioning selects how the node id space is split across workers.
type Partitioning string

const (
	// PartitionRange splits the id space into equal-size ranges.
	PartitionRange Partitioning = "range"
	// PartitionDegree splits the id space into contiguous ranges of roughly
	// equal total degree.
	PartitionDegree Partitioning = "degree"
)

// RangePartitions splits [0, nodeCount) into min(concurrency, nodeCount)
// ordered, disjoint partitions whose lengths differ by at most one.
// The first nodeCount%count partitions receive the extra node.
func RangePartitions(nodeCount int64, concurrency int) []Partition {
	if nodeCount <= 0 || concurrency <= 0 {
		return nil
	}
	count := int64(concurrency)
	if nodeCount < count {
		count = nodeCount
	}
	base := nodeCount / count
	extra := nodeCount % count

	partitions := make([]Partition, 0, count)
	var start int64
	for i := int64(0); i < count; i++ {
		length := base
		if i < extra {
			length++
		}
		partitions = append(partitions, Partition{Index: int(i), Start: start, Length: length})
		start += length
	}
	return partitions
}

// DegreePartitions splits the id space into at most concurrency contiguous
// partitions whose summed degree (plus one per node, so isolated nodes still
// cost something) is close to the average. Deterministic for a fixed graph.
func DegreePartitions(g Graph, concurrency int) []Partition {
	nodeCount := g.NodeCount()
	if nodeCount <= 0 || concurrency <= 0 {
		return nil
	}
	var total int64
	for node := int64(0); node < nodeCount; node++ {
		total += int64(g.Degree(node)) + 1
	}
	target := (total + int64(concurrency) - 1) / int64(concurrency)

	var partitions []Partition
	var start, weight int64
	for node := int64(0); node < nodeCount; node++ {
		weight += int64(g.Degree(node)) + 1
		remainingSlots := concurrency - len(partitions) - 1
		if weight >= target && remainingSlots > 0 {
			partitions = append(partitions, Partition{Index: len(partitions), Start: start, Length: node + 1 - start})
			start = node + 1
			weight = 0
		}
	}
	if start < nodeCount {
		partitions = append(partitions, Partition{Index: len(partitions), Start: start, Length: nodeCount - start})
	}
	return partitions
}

func partitionsFor(g Graph, cfg Config) []Partition {
	if cfg.Partitioning == PartitionDegree {
		return DegreePartitions(g, cfg.Concurrency)
	}
	return RangePartitions(g.NodeCount(), cfg.Concurrency)
}
