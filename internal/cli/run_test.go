package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/superstep/internal/pregel"
	"github.com/roach88/superstep/internal/store"
	"github.com/roach88/superstep/internal/testutil"
)

func TestRun_JSON(t *testing.T) {
	_, job := writeFixture(t)

	out, err := execute(t, "run", "--config", job, "--format", "json")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, out, &summary)
	assert.Equal(t, "wcc", summary.Algorithm)
	assert.Equal(t, int64(5), summary.Nodes)
	assert.Equal(t, int64(6), summary.Relationships)
	assert.True(t, summary.Converged)
	assert.Equal(t, []string{"component"}, summary.Properties)
	assert.Len(t, summary.Stats, summary.Supersteps)
	assert.Empty(t, summary.RunID)
}

func TestRun_Text(t *testing.T) {
	dir, _ := writeFixture(t)

	out, err := execute(t, "run",
		"--graph", filepath.Join(dir, "edges.csv"),
		"--algorithm", "wcc",
		"--undirected")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ wcc:")
	assert.Contains(t, out, "converged")
	assert.Contains(t, out, "5 nodes, 6 relationships")
	assert.Contains(t, out, "properties: component")
	assert.NotContains(t, out, "stored as")
}

func TestRun_FlagsOverrideConfig(t *testing.T) {
	_, job := writeFixture(t)

	out, err := execute(t, "run", "--config", job,
		"--algorithm", "pagerank",
		"--param", "dampingFactor=0.8",
		"--param", "tolerance=0",
		"--max-iterations", "3",
		"--format", "json")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, out, &summary)
	assert.Equal(t, "pagerank", summary.Algorithm)
	assert.Equal(t, []string{"rank"}, summary.Properties)
	assert.Equal(t, 3, summary.Supersteps, "tolerance 0 never converges before the cap")
	assert.False(t, summary.Converged)
}

func TestRun_MaxIterationsCapsBoundedAlgorithm(t *testing.T) {
	dir, _ := writeFixture(t)

	out, err := execute(t, "run",
		"--graph", filepath.Join(dir, "edges.csv"),
		"--algorithm", "hits",
		"--max-iterations", "3",
		"--format", "json")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, out, &summary)
	assert.Equal(t, 3, summary.Supersteps)
	assert.False(t, summary.Converged)
}

func TestRun_StoresResult(t *testing.T) {
	dir, job := writeFixture(t)
	db := filepath.Join(dir, "results.db")

	out, err := execute(t, "run", "--config", job, "--db", db, "--format", "json")
	require.NoError(t, err)
	var summary RunSummary
	decodeData(t, out, &summary)
	require.Len(t, summary.RunID, 36)

	out, err = execute(t, "runs", "--db", db, "--format", "json")
	require.NoError(t, err)
	var runs []store.Run
	decodeData(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)
	assert.Equal(t, filepath.Join(dir, "edges.csv"), runs[0].Graph)
	assert.True(t, runs[0].Job.Undirected)

	out, err = execute(t, "show", summary.RunID, "--db", db, "--node", "6", "--format", "json")
	require.NoError(t, err)
	var shown ShowResult
	decodeData(t, out, &shown)
	require.Len(t, shown.Values, 1)
	assert.Equal(t, int64(6), shown.Values[0].OriginalID)
	assert.JSONEq(t, "5", string(shown.Values[0].Value))
}

func TestRun_StoreOptions(t *testing.T) {
	dir, job := writeFixture(t)

	buf := &bytes.Buffer{}
	cmd := newRunCommand(&RunOptions{
		RootOptions:  &RootOptions{Format: "text"},
		StoreOptions: []store.Option{store.WithIDGenerator(testutil.NewSequentialIDGenerator("cli"))},
	})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", job, "--db", filepath.Join(dir, "results.db")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "stored as:  cli-0001")
}

func TestRun_Canceled(t *testing.T) {
	_, job := writeFixture(t)

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--config", job})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, pregel.IsCanceled(err))
	assert.Contains(t, buf.String(), "Error [CANCELED]")
}

func TestRun_Errors(t *testing.T) {
	dir, job := writeFixture(t)
	edges := filepath.Join(dir, "edges.csv")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"no algorithm", []string{"--graph", edges}, ExitCommandError, "E008"},
		{"unknown algorithm", []string{"--graph", edges, "--algorithm", "louvain"}, ExitCommandError, "E009"},
		{"rejected param", []string{"--config", job, "--param", "damping=0.5"}, ExitCommandError, "E010"},
		{"malformed param", []string{"--config", job, "--param", "tolerance"}, ExitCommandError, "expected key=value"},
		{"non-numeric param", []string{"--config", job, "--param", "tolerance=low"}, ExitCommandError, "not a number"},
		{"no graph", []string{"--algorithm", "wcc"}, ExitCommandError, "job has no graph"},
		{"missing graph file", []string{"--algorithm", "wcc", "--graph", filepath.Join(dir, "nope.csv")}, ExitCommandError, "open edge list"},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.cue")}, ExitCommandError, "E005"},
		{"zero concurrency", []string{"--config", job, "--concurrency", "0"}, ExitCommandError, "CONFIG_INVALID"},
		{"negative cap", []string{"--graph", edges, "--algorithm", "hits", "--max-iterations", "-1"}, ExitCommandError, "CONFIG_INVALID"},
		{"bad partitioning", []string{"--config", job, "--partitioning", "hash"}, ExitCommandError, "CONFIG_INVALID"},
		{"asynchronous pagerank", []string{"--graph", edges, "--algorithm", "pagerank", "--async"}, ExitCommandError, "pagerank requires synchronous execution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"run"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRun_ErrorJSON(t *testing.T) {
	dir, _ := writeFixture(t)

	out, err := execute(t, "run", "--graph", filepath.Join(dir, "edges.csv"), "--algorithm", "louvain", "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E009", resp.Error.Code)
}

func TestParseParam(t *testing.T) {
	key, v, err := parseParam("hitsIterations=5")
	require.NoError(t, err)
	assert.Equal(t, "hitsIterations", key)
	assert.Equal(t, int64(5), v)

	_, v, err = parseParam("tolerance=1e-9")
	require.NoError(t, err)
	assert.Equal(t, 1e-9, v)

	_, _, err = parseParam("=3")
	assert.Error(t, err)
}
