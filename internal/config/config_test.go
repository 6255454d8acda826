package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
)

func parse(t *testing.T, src string) (*Job, error) {
	t.Helper()
	return Parse("job.cue", []byte(src))
}

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %v", err)
	assert.Equal(t, code, loadErr.Code, loadErr.Error())
	return loadErr
}

func TestParse_Defaults(t *testing.T) {
	job, err := parse(t, `algorithm: "wcc"`)
	require.NoError(t, err)

	assert.Equal(t, "wcc", job.Algorithm)
	assert.Empty(t, job.Graph)
	assert.False(t, job.Undirected)
	assert.Equal(t, 4, job.Concurrency)
	assert.Zero(t, job.MaxIterations, "no cap unless set")
	assert.False(t, job.Asynchronous)
	assert.Equal(t, "range", job.Partitioning)
	assert.Equal(t, uint64(0), job.Seed)
	assert.Nil(t, job.Params)

	def := Default()
	def.Algorithm = "wcc"
	assert.Equal(t, def, *job)
}

func TestParse_AllFields(t *testing.T) {
	job, err := parse(t, `
algorithm:     "slpa"
graph:         "edges.csv"
undirected:    true
concurrency:   8
maxIterations: 50
asynchronous:  true
partitioning:  "degree"
seed:          42
params: {
	propagationSteps:       3
	minAssociationStrength: 0.25
}
`)
	require.NoError(t, err)

	assert.Equal(t, Job{
		Algorithm:     "slpa",
		Graph:         "edges.csv",
		Undirected:    true,
		Concurrency:   8,
		MaxIterations: 50,
		Asynchronous:  true,
		Partitioning:  "degree",
		Seed:          42,
		Params: map[string]any{
			"propagationSteps":       int64(3),
			"minAssociationStrength": 0.25,
		},
	}, *job)
	assert.Equal(t, []string{"minAssociationStrength", "propagationSteps"}, job.ParamNames())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{name: "syntax", src: `algorithm: "wcc`, code: ErrCodeBuildFailed},
		{name: "missing algorithm", src: `concurrency: 2`, code: ErrCodeSchema},
		{name: "empty algorithm", src: `algorithm: ""`, code: ErrCodeSchema},
		{name: "unknown field", src: "algorithm: \"wcc\"\nthreads: 2", code: ErrCodeSchema},
		{name: "zero concurrency", src: "algorithm: \"wcc\"\nconcurrency: 0", code: ErrCodeSchema},
		{name: "zero max iterations", src: "algorithm: \"wcc\"\nmaxIterations: 0", code: ErrCodeSchema},
		{name: "negative seed", src: "algorithm: \"wcc\"\nseed: -1", code: ErrCodeSchema},
		{name: "bad partitioning", src: "algorithm: \"wcc\"\npartitioning: \"hash\"", code: ErrCodeSchema},
		{name: "string param", src: "algorithm: \"wcc\"\nparams: level: \"high\"", code: ErrCodeSchema},
		{name: "unknown algorithm", src: `algorithm: "louvain"`, code: ErrCodeUnknownAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.src)
			requireLoadError(t, err, tt.code)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := parse(t, "concurrency: 2\nalgorithm: \"louvain\"")
	loadErr := requireLoadError(t, err, ErrCodeUnknownAlgorithm)
	assert.Equal(t, 2, loadErr.Line())
	assert.Contains(t, loadErr.Error(), "job.cue:2:")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.cue")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: \"wcc\"\ngraph: \"edges.csv\"\nundirected: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edges.csv"), []byte("1,2\n2,3\n5,6\n"), 0o644))

	job, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "edges.csv"), job.Graph)

	g, err := job.LoadGraph()
	require.NoError(t, err)
	assert.Equal(t, int64(5), g.NodeCount())
	assert.Equal(t, int64(6), g.RelationshipCount())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	requireLoadError(t, err, ErrCodeNotFound)
}

func TestJob_LoadGraphWithoutGraph(t *testing.T) {
	job := Default()
	_, err := job.LoadGraph()
	requireLoadError(t, err, ErrCodeGeneric)
}

func TestJob_EngineConfig(t *testing.T) {
	job, err := parse(t, "algorithm: \"pagerank\"\nconcurrency: 2\nseed: 9\npartitioning: \"degree\"")
	require.NoError(t, err)

	assert.Equal(t, pregel.Config{
		Concurrency:   2,
		MaxIterations: 20,
		Partitioning:  pregel.PartitionDegree,
		Seed:          9,
	}, job.EngineConfig())
	assert.NoError(t, job.EngineConfig().Validate())
}

func TestJob_Computation(t *testing.T) {
	job, err := parse(t, "algorithm: \"hits\"\nparams: hitsIterations: 5")
	require.NoError(t, err)

	c, cfg, err := job.Computation()
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 22, cfg.MaxIterations)

	job.Params["hitsIterations"] = 0
	_, _, err = job.Computation()
	requireLoadError(t, err, ErrCodeParams)

	job.Algorithm = "louvain"
	_, _, err = job.Computation()
	requireLoadError(t, err, ErrCodeUnknownAlgorithm)
}

func TestJob_ComputationCap(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"bounded without cap", "algorithm: \"hits\"", 82},
		{"bounded with lower cap", "algorithm: \"hits\"\nmaxIterations: 3", 3},
		{"bounded with higher cap", "algorithm: \"slpa\"\nmaxIterations: 50", 5},
		{"unbounded without cap", "algorithm: \"pagerank\"", pregel.DefaultMaxIterations},
		{"unbounded with cap", "algorithm: \"pagerank\"\nmaxIterations: 7", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := parse(t, tt.src)
			require.NoError(t, err)
			_, cfg, err := job.Computation()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MaxIterations)
		})
	}
}

func TestJob_ComputationHonorsCap(t *testing.T) {
	job, err := parse(t, "algorithm: \"hits\"\nmaxIterations: 3")
	require.NoError(t, err)

	c, cfg, err := job.Computation()
	require.NoError(t, err)

	b := graph.NewBuilder()
	b.AddRelationship(0, 1)
	b.AddRelationship(1, 2)
	p, err := pregel.New(b.Build(), c, cfg)
	require.NoError(t, err)
	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Supersteps)
	assert.False(t, result.Converged)
}

func TestJob_ComputationRequiresSync(t *testing.T) {
	for _, alg := range []string{"hits", "slpa", "pagerank"} {
		t.Run(alg, func(t *testing.T) {
			job, err := parse(t, "algorithm: \""+alg+"\"\nasynchronous: true")
			require.NoError(t, err)
			_, _, err = job.Computation()
			loadErr := requireLoadError(t, err, ErrCodeSchema)
			assert.Contains(t, loadErr.Message, "requires synchronous execution")
		})
	}

	job, err := parse(t, "algorithm: \"wcc\"\nasynchronous: true")
	require.NoError(t, err)
	_, cfg, err := job.Computation()
	require.NoError(t, err)
	assert.True(t, cfg.Asynchronous)
}
