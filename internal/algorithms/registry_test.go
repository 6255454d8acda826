package algorithms

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		alg, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, alg.Name)

		c, err := alg.New(nil)
		require.NoError(t, err)
		named, ok := c.(pregel.Named)
		require.True(t, ok)
		assert.Equal(t, name, named.Name())
	}

	_, err := Lookup("louvain")
	assert.ErrorContains(t, err, "unknown algorithm")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"hits", "pagerank", "slpa", "wcc"}, Names())
}

func TestEngineConfig(t *testing.T) {
	cfg := pregel.NewConfig(pregel.WithMaxIterations(3))

	h, err := NewHits(Params{"hitsIterations": 5})
	require.NoError(t, err)
	assert.Equal(t, 22, EngineConfig(h, cfg).MaxIterations)

	p, err := NewPageRank(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, EngineConfig(p, cfg).MaxIterations)
}

func TestAsynchronous_PhasedAlgorithmsRefuse(t *testing.T) {
	g := build(3, false, [2]int64{0, 1}, [2]int64{0, 2}, [2]int64{1, 2})

	for _, name := range []string{"hits", "slpa", "pagerank"} {
		t.Run(name, func(t *testing.T) {
			alg, err := Lookup(name)
			require.NoError(t, err)
			c, err := alg.New(nil)
			require.NoError(t, err)

			_, err = pregel.New(g, c, EngineConfig(c, pregel.NewConfig(pregel.WithAsynchronous(true))))
			var pe *pregel.Error
			require.True(t, errors.As(err, &pe), "expected *pregel.Error, got %v", err)
			assert.Equal(t, pregel.ErrCodeSchemaInvalid, pe.Code)
			assert.ErrorContains(t, err, name+" requires synchronous execution")

			_, err = pregel.New(g, c, EngineConfig(c, pregel.NewConfig()))
			assert.NoError(t, err)
		})
	}
}

func TestAsynchronous_WCC(t *testing.T) {
	b := graph.NewBuilder(graph.WithUndirected(true))
	b.AddRelationship(30, 10)
	b.AddRelationship(10, 20)
	b.AddRelationship(7, 8)
	g := b.Build()

	for _, concurrency := range []int{1, 3} {
		c, err := NewWCC(nil)
		require.NoError(t, err)

		result := run(t, g, c, pregel.WithConcurrency(concurrency), pregel.WithAsynchronous(true))
		assert.True(t, result.Converged)
		components, err := result.Values.Longs(ComponentProperty)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 10, 10, 7, 7}, components)
	}
}

func TestParams(t *testing.T) {
	p := Params{"f": 0.5, "i": 3, "i64": int64(4), "whole": 2.0, "s": "x", "n": json.Number("6")}

	f, err := p.Float("f", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	f, err = p.Float("missing", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)

	i, err := p.Int("i64", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, i)

	i, err = p.Int("whole", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = p.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 6, i)

	_, err = p.Int("f", 0)
	assert.Error(t, err)
	_, err = p.Float("s", 0)
	assert.Error(t, err)

	assert.NoError(t, p.only("f", "i", "i64", "whole", "s", "n"))
	assert.ErrorContains(t, p.only("f"), "[i i64 n s whole]")
}
