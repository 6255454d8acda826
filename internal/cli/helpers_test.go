package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFixture writes a two-component edge list and a wcc job next to it.
// Components: {1, 2, 3} and {5, 6}.
func writeFixture(t *testing.T) (dir, job string) {
	t.Helper()

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "edges.csv"), []byte("source,target\n1,2\n2,3\n5,6\n"), 0o644))
	job = filepath.Join(dir, "job.cue")
	require.NoError(t, os.WriteFile(job, []byte(`algorithm:   "wcc"
graph:       "edges.csv"
undirected:  true
concurrency: 2
`), 0o644))
	return dir, job
}

// decodeData decodes the data of an "ok" JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
