// Package graph provides the read-only, in-memory graph computations run
// over: a compressed adjacency layout with dense node ids, built from
// arbitrary original ids.
package graph

import (
	"github.com/roach88/superstep/internal/pregel"
)

var (
	_ pregel.Graph    = (*Graph)(nil)
	_ pregel.IDMapper = (*Graph)(nil)
)

// Graph is an immutable directed graph in compressed sparse row form.
//
// Node ids are dense in [0, NodeCount()). The relationships of node n are
// targets[offsets[n]:offsets[n+1]], in insertion order.
type Graph struct {
	offsets   []int64
	targets   []int64
	weights   []float64 // nil when unweighted
	originals []int64
	internal  map[int64]int64
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int64 { return int64(len(g.originals)) }

// RelationshipCount returns the number of stored relationships. Undirected
// graphs store each relationship in both directions.
func (g *Graph) RelationshipCount() int64 { return int64(len(g.targets)) }

// Weighted reports whether any relationship was added with a weight.
func (g *Graph) Weighted() bool { return g.weights != nil }

// Degree returns the out-degree of node.
func (g *Graph) Degree(node int64) int {
	return int(g.offsets[node+1] - g.offsets[node])
}

// ForEachRelationship calls fn for every relationship of node until fn
// returns false. Unweighted graphs report weight 1.
func (g *Graph) ForEachRelationship(node int64, fn func(target int64, weight float64) bool) {
	start, end := g.offsets[node], g.offsets[node+1]
	for i := start; i < end; i++ {
		weight := 1.0
		if g.weights != nil {
			weight = g.weights[i]
		}
		if !fn(g.targets[i], weight) {
			return
		}
	}
}

// ToOriginalID returns the id node was added with.
func (g *Graph) ToOriginalID(node int64) int64 { return g.originals[node] }

// ToInternalID returns the dense id of an original id.
func (g *Graph) ToInternalID(original int64) (int64, bool) {
	node, ok := g.internal[original]
	return node, ok
}
