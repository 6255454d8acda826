package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTest_AllScenariosPass(t *testing.T) {
	out, err := execute(t, "test", scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ wcc_components")
	assert.Contains(t, out, "✓ hits_chain")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Golden(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden-dir", goldenDir, "--filter", "wcc_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_UpdateGolden(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "golden")

	_, err := execute(t, "test", filepath.Join(scenariosDir, "wcc_components.yaml"), "--golden-dir", dir, "--update")
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(dir, "wcc_components.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "wcc_components.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wcc_components.golden"), []byte("{}\n"), 0o644))
	out, err := execute(t, "test", filepath.Join(scenariosDir, "wcc_components.yaml"), "--golden-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_UpdateRequiresGoldenDir(t *testing.T) {
	_, err := execute(t, "test", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_Failures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_wrong.yaml"), []byte(`name: a_wrong
description: expects the wrong superstep count
job:
  algorithm: wcc
  undirected: true
graph:
  edges: [[1, 2]]
assertions:
  - type: supersteps
    count: 99
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_typo.yaml"), []byte(`name: b_typo
assertion: []
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a scenario"), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ a_wrong")
	assert.Contains(t, out, "99 supersteps")
	assert.Contains(t, out, "✗ b_typo.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "Test Summary: 0 passed, 2 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--filter", "*_chain", "--format", "json")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "hits_chain", result.Scenarios[0].Name)
}

func TestTest_Empty(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_NotFound(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
