package pregel

import "math/rand/v2"

type edge struct {
	target int64
	weight float64
}

// adjacency is a minimal in-memory Graph for engine tests.
type adjacency struct {
	out [][]edge
}

func newAdjacency(nodeCount int) *adjacency {
	return &adjacency{out: make([][]edge, nodeCount)}
}

func (a *adjacency) add(source, target int64) *adjacency {
	return a.addWeighted(source, target, 1)
}

func (a *adjacency) addWeighted(source, target int64, weight float64) *adjacency {
	a.out[source] = append(a.out[source], edge{target: target, weight: weight})
	return a
}

func (a *adjacency) NodeCount() int64 { return int64(len(a.out)) }

func (a *adjacency) Degree(node int64) int { return len(a.out[node]) }

func (a *adjacency) ForEachRelationship(node int64, fn func(target int64, weight float64) bool) {
	for _, e := range a.out[node] {
		if !fn(e.target, e.weight) {
			return
		}
	}
}

// cycle returns 0→1→…→n-1→0.
func cycle(n int) *adjacency {
	g := newAdjacency(n)
	for i := 0; i < n; i++ {
		g.add(int64(i), int64((i+1)%n))
	}
	return g
}

// randomAdjacency returns a seeded random directed graph.
func randomAdjacency(n, avgDegree int, seed uint64) *adjacency {
	rng := rand.New(rand.NewPCG(seed, 0))
	g := newAdjacency(n)
	for i := 0; i < n*avgDegree; i++ {
		g.add(rng.Int64N(int64(n)), rng.Int64N(int64(n)))
	}
	return g
}
