package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rel struct {
	target int64
	weight float64
}

func relationships(g *Graph, node int64) []rel {
	var out []rel
	g.ForEachRelationship(node, func(target int64, weight float64) bool {
		out = append(out, rel{target, weight})
		return true
	})
	return out
}

func TestBuilder_DenseIDs(t *testing.T) {
	b := NewBuilder()
	b.AddRelationship(100, 7)
	b.AddRelationship(7, 42)
	b.AddRelationship(100, 42)
	g := b.Build()

	require.Equal(t, int64(3), g.NodeCount())
	assert.Equal(t, int64(3), g.RelationshipCount())
	assert.False(t, g.Weighted())

	assert.Equal(t, int64(100), g.ToOriginalID(0))
	assert.Equal(t, int64(7), g.ToOriginalID(1))
	assert.Equal(t, int64(42), g.ToOriginalID(2))

	node, ok := g.ToInternalID(42)
	require.True(t, ok)
	assert.Equal(t, int64(2), node)
	_, ok = g.ToInternalID(5)
	assert.False(t, ok)

	assert.Equal(t, 2, g.Degree(0))
	assert.Equal(t, 1, g.Degree(1))
	assert.Equal(t, 0, g.Degree(2))
	assert.Equal(t, []rel{{1, 1}, {2, 1}}, relationships(g, 0))
	assert.Nil(t, relationships(g, 2))
}

func TestBuilder_Undirected(t *testing.T) {
	b := NewBuilder(WithUndirected(true))
	b.AddWeightedRelationship(1, 2, 0.5)
	b.AddRelationship(2, 2)
	g := b.Build()

	assert.True(t, g.Weighted())
	assert.Equal(t, int64(3), g.RelationshipCount(), "self loops are stored once")
	assert.Equal(t, []rel{{1, 0.5}}, relationships(g, 0))
	assert.Equal(t, []rel{{0, 0.5}, {1, 1}}, relationships(g, 1))
}

func TestBuilder_IsolatedNodes(t *testing.T) {
	b := NewBuilder()
	b.AddNode(5)
	b.AddNode(6)
	assert.Equal(t, int64(0), b.AddNode(5))
	g := b.Build()
	assert.Equal(t, int64(2), g.NodeCount())
	assert.Equal(t, 0, g.Degree(1))
}

func TestGraph_ForEachRelationshipStops(t *testing.T) {
	b := NewBuilder()
	for i := int64(1); i <= 5; i++ {
		b.AddRelationship(0, i)
	}
	g := b.Build()

	visited := 0
	g.ForEachRelationship(0, func(int64, float64) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestRandom(t *testing.T) {
	g := Random(100, 3, 9)
	assert.Equal(t, int64(100), g.NodeCount())
	assert.Equal(t, int64(300), g.RelationshipCount())

	for node := int64(0); node < g.NodeCount(); node++ {
		assert.Equal(t, node, g.ToOriginalID(node))
		for _, r := range relationships(g, node) {
			assert.NotEqual(t, node, r.target, "no self loops")
		}
	}

	same := Random(100, 3, 9)
	other := Random(100, 3, 10)
	assert.Equal(t, g, same)
	assert.NotEqual(t, g, other)

	assert.Equal(t, int64(1), Random(1, 5, 1).NodeCount())
}

func TestReadEdgeList(t *testing.T) {
	input := `# a small graph
source,target
10,20
10,30

20, 30
`
	g, err := ReadEdgeList(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.NodeCount())
	assert.Equal(t, int64(3), g.RelationshipCount())
	assert.False(t, g.Weighted())
	assert.Equal(t, []rel{{1, 1}, {2, 1}}, relationships(g, 0))
}

func TestReadEdgeList_Weighted(t *testing.T) {
	g, err := ReadEdgeList(strings.NewReader("1,2,0.25\n2,1,4\n"), WithUndirected(true))
	require.NoError(t, err)
	assert.True(t, g.Weighted())
	assert.Equal(t, []rel{{1, 0.25}, {1, 4}}, relationships(g, 0))
}

func TestReadEdgeList_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"too many columns", "1,2,3,4\n", "expected 2 or 3 columns"},
		{"mixed columns", "1,2\n2,3,0.5\n", "like the first row"},
		{"bad target", "1,x\n", "target"},
		{"bad source after header", "a,b\nc,1\n", "source"},
		{"bad weight", "1,2,heavy\n", "weight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEdgeList(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEdgeList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edges.csv")
	require.NoError(t, os.WriteFile(path, []byte("0,1\n1,2\n"), 0o644))

	g, err := LoadEdgeList(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.NodeCount())

	_, err = LoadEdgeList(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
