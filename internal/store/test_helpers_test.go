package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/superstep/internal/algorithms"
	"github.com/roach88/superstep/internal/config"
	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
	"github.com/roach88/superstep/internal/testutil"
)

// createTestStore opens a fresh store with sequential ids and a
// deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// componentsGraph has components {30, 10, 20}, {7, 8} and {99}.
func componentsGraph() *graph.Graph {
	b := graph.NewBuilder(graph.WithUndirected(true))
	b.AddRelationship(30, 10)
	b.AddRelationship(10, 20)
	b.AddRelationship(7, 8)
	b.AddNode(99)
	return b.Build()
}

// runJob runs job over g and returns the result.
func runJob(t *testing.T, job config.Job, g pregel.Graph) *pregel.Result {
	t.Helper()
	c, cfg, err := job.Computation()
	require.NoError(t, err)
	p, err := pregel.New(g, c, cfg)
	require.NoError(t, err)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	return result
}

func wccJob() config.Job {
	job := config.Default()
	job.Algorithm = "wcc"
	job.Graph = "components.csv"
	job.Undirected = true
	job.Concurrency = 2
	return job
}

func hitsJob(iterations int) config.Job {
	job := config.Default()
	job.Algorithm = "hits"
	job.Params = algorithms.Params{"hitsIterations": iterations}
	return job
}
