package algorithms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
)

// build creates a graph over original ids [0, nodeCount) from edge pairs.
func build(nodeCount int, undirected bool, edges ...[2]int64) *graph.Graph {
	b := graph.NewBuilder(graph.WithUndirected(undirected))
	for i := 0; i < nodeCount; i++ {
		b.AddNode(int64(i))
	}
	for _, e := range edges {
		b.AddRelationship(e[0], e[1])
	}
	return b.Build()
}

func run(t *testing.T, g pregel.Graph, c pregel.Computation, opts ...pregel.Option) *pregel.Result {
	t.Helper()
	p, err := pregel.New(g, c, EngineConfig(c, pregel.NewConfig(opts...)))
	require.NoError(t, err)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	return result
}
