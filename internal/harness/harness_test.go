package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Golden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/wcc_components.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRun_DeterministicRunIDs(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/wcc_components.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.Equal(t, "wcc_components-0001", result.Run.ID)
	assert.Len(t, result.Values, 6)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_expectations
description: "every assertion here is false"
job:
  algorithm: wcc
  undirected: true
graph:
  edges:
    - [1, 2]
    - [3, 4]
assertions:
  - type: supersteps
    count: 7
  - type: converged
    value: false
  - type: node_value
    property: component
    node: 4
    value: 1
  - type: same_value
    property: component
    nodes: [1, 3]
  - type: property_sum
    property: component
    value: 100
  - type: node_value
    property: component
    node: 42
    value: 1
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "Expected: 7 supersteps")
	assert.Contains(t, result.Errors[1], "converged=false")
	assert.Contains(t, result.Errors[2], "component of node 4 = 1")
	assert.Contains(t, result.Errors[3], "same_value")
	assert.Contains(t, result.Errors[4], "sum of component = 100")
	assert.Contains(t, result.Errors[5], "0 values")
}

func TestRun_RandomGraphConservesMessages(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: hits_random
description: "HITS sends without a reducer, so every message is delivered exactly once"
job:
  algorithm: hits
  concurrency: 4
  params:
    hitsIterations: 4
graph:
  random:
    nodes: 200
    degree: 3
    seed: 9
assertions:
  - type: supersteps
    count: 18
  - type: messages_conserved
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
}

func TestRun_Errors(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_params
description: "wcc takes no parameters"
job:
  algorithm: wcc
  params:
    seed: 1
graph:
  nodes: [1]
assertions:
  - type: converged
    value: true
`))
	require.NoError(t, err)
	_, err = Run(context.Background(), scenario)
	assert.ErrorContains(t, err, "unknown parameters")

	scenario.Job.Params = nil
	scenario.Graph.Edges = [][]float64{{1.5, 2}}
	_, err = Run(context.Background(), scenario)
	assert.ErrorContains(t, err, "must be integers")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scenario.Graph.Edges = nil
	_, err = Run(ctx, scenario)
	assert.ErrorContains(t, err, "failed to run wcc")
}

func TestMessagesConserved(t *testing.T) {
	assert.NoError(t, assertMessagesConserved(&Result{Run: runWithStats(
		stat(0, 3, 0, 0), stat(1, 0, 3, 0),
	)}))
	assert.Error(t, assertMessagesConserved(&Result{Run: runWithStats(
		stat(0, 3, 0, 0), stat(1, 0, 1, 0),
	)}))
	// messages still pending when the cap stopped the run
	assert.NoError(t, assertMessagesConserved(&Result{Run: runWithStats(
		stat(0, 2, 0, 2),
	)}))
	assert.Error(t, assertMessagesConserved(&Result{Run: runWithStats(
		stat(0, 2, 0, 0),
	)}))
}

func TestValuesEqual(t *testing.T) {
	decoded, err := decodeValue([]byte(`[1, 2.5]`))
	require.NoError(t, err)

	assert.True(t, valuesEqual(decoded, []any{1, 2.5}, 0))
	assert.False(t, valuesEqual(decoded, []any{1}, 0))
	assert.False(t, valuesEqual(decoded, 1, 0))
	assert.True(t, containsValue(decoded, 2.4, 0.2))
	assert.False(t, containsValue(decoded, 3, 0))

	one, err := decodeValue([]byte(`0.3333333333`))
	require.NoError(t, err)
	assert.True(t, valuesEqual(one, 1.0/3, 1e-9))
	assert.False(t, valuesEqual(one, "x", 1))
}
