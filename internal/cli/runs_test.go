package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedRun runs the fixture job into a fresh database.
func storedRun(t *testing.T) (db, id string) {
	t.Helper()

	dir, job := writeFixture(t)
	db = filepath.Join(dir, "results.db")
	out, err := execute(t, "run", "--config", job, "--db", db, "--format", "json")
	require.NoError(t, err)

	var summary RunSummary
	decodeData(t, out, &summary)
	return db, summary.RunID
}

func TestRuns_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")

	out, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs stored.\n", out)
}

func TestRuns_Text(t *testing.T) {
	db, id := storedRun(t)

	out, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], id))
	assert.Contains(t, lines[1], "wcc")
	assert.Contains(t, lines[1], "true")
}

func TestRuns_Delete(t *testing.T) {
	db, id := storedRun(t)

	out, err := execute(t, "runs", "--db", db, "--delete", id)
	require.NoError(t, err)
	assert.Equal(t, "✓ Deleted "+id+"\n", out)

	out, err = execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs stored.\n", out)

	out, err = execute(t, "runs", "--db", db, "--delete", id)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "run not found")
}

func TestRuns_BadDatabase(t *testing.T) {
	_, err := execute(t, "runs", "--db", filepath.Join(t.TempDir(), "missing", "dir", "results.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestShow_Text(t *testing.T) {
	db, id := storedRun(t)

	out, err := execute(t, "show", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id+"  wcc  5 nodes")
	assert.Contains(t, out, "graph: ")

	var values []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "component") {
			values = append(values, strings.Join(strings.Fields(line), " "))
		}
	}
	assert.Equal(t, []string{
		"component 1 1",
		"component 2 1",
		"component 3 1",
		"component 5 5",
		"component 6 5",
	}, values)
}

func TestShow_Filters(t *testing.T) {
	db, id := storedRun(t)

	out, err := execute(t, "show", id, "--db", db, "--property", "rank")
	require.NoError(t, err)
	assert.Contains(t, out, "No values match.")

	out, err = execute(t, "show", id, "--db", db, "--property", "component", "--node", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "component")
	assert.Equal(t, 1, strings.Count(out, "component "))
}

func TestShow_NotFound(t *testing.T) {
	db, _ := storedRun(t)

	out, err := execute(t, "show", "no-such-run", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run not found: no-such-run")
}
