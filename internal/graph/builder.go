package graph

import "math/rand/v2"

// Builder accumulates nodes and relationships and produces a Graph.
//
// Nodes are assigned dense ids in the order they are first seen. A Builder is
// not safe for concurrent use.
type Builder struct {
	undirected bool
	originals  []int64
	internal   map[int64]int64
	sources    []int64
	targets    []int64
	weights    []float64
	weighted   bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithUndirected stores every relationship in both directions.
func WithUndirected(undirected bool) BuilderOption {
	return func(b *Builder) { b.undirected = undirected }
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{internal: make(map[int64]int64)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddNode registers original and returns its dense id. Adding the same
// original id twice returns the same dense id.
func (b *Builder) AddNode(original int64) int64 {
	if node, ok := b.internal[original]; ok {
		return node
	}
	node := int64(len(b.originals))
	b.internal[original] = node
	b.originals = append(b.originals, original)
	return node
}

// AddRelationship adds an unweighted relationship between original ids,
// registering unseen nodes.
func (b *Builder) AddRelationship(source, target int64) {
	b.add(source, target, 1)
}

// AddWeightedRelationship adds a weighted relationship between original ids.
func (b *Builder) AddWeightedRelationship(source, target int64, weight float64) {
	b.weighted = true
	b.add(source, target, weight)
}

func (b *Builder) add(source, target int64, weight float64) {
	s, t := b.AddNode(source), b.AddNode(target)
	b.sources = append(b.sources, s)
	b.targets = append(b.targets, t)
	b.weights = append(b.weights, weight)
	if b.undirected && s != t {
		b.sources = append(b.sources, t)
		b.targets = append(b.targets, s)
		b.weights = append(b.weights, weight)
	}
}

// Build lays the relationships out by source, keeping insertion order per
// source. The builder can keep being used afterwards.
func (b *Builder) Build() *Graph {
	nodeCount := len(b.originals)
	offsets := make([]int64, nodeCount+1)
	for _, s := range b.sources {
		offsets[s+1]++
	}
	for i := 1; i <= nodeCount; i++ {
		offsets[i] += offsets[i-1]
	}

	targets := make([]int64, len(b.targets))
	var weights []float64
	if b.weighted {
		weights = make([]float64, len(b.targets))
	}
	cursor := make([]int64, nodeCount)
	copy(cursor, offsets[:nodeCount])
	for i, s := range b.sources {
		pos := cursor[s]
		cursor[s]++
		targets[pos] = b.targets[i]
		if weights != nil {
			weights[pos] = b.weights[i]
		}
	}

	originals := make([]int64, nodeCount)
	copy(originals, b.originals)
	internal := make(map[int64]int64, nodeCount)
	for k, v := range b.internal {
		internal[k] = v
	}
	return &Graph{
		offsets:   offsets,
		targets:   targets,
		weights:   weights,
		originals: originals,
		internal:  internal,
	}
}

// Random generates a directed graph over original ids [0, nodeCount) with
// nodeCount*avgDegree relationships between uniformly drawn, distinct
// endpoints. The same seed always yields the same graph.
func Random(nodeCount, avgDegree int, seed uint64, opts ...BuilderOption) *Graph {
	b := NewBuilder(opts...)
	for i := 0; i < nodeCount; i++ {
		b.AddNode(int64(i))
	}
	if nodeCount < 2 {
		return b.Build()
	}
	rng := rand.New(rand.NewPCG(seed, uint64(nodeCount)))
	n := int64(nodeCount)
	for i := 0; i < nodeCount*avgDegree; i++ {
		source := rng.Int64N(n)
		target := rng.Int64N(n - 1)
		if target >= source {
			target++
		}
		b.AddRelationship(source, target)
	}
	return b.Build()
}
