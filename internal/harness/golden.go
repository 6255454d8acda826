package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/superstep/internal/pregel"
)

// Snapshot is the golden representation of a scenario run: everything that
// is deterministic about it.
type Snapshot struct {
	Scenario   string                  `json:"scenario"`
	Algorithm  string                  `json:"algorithm"`
	Supersteps int                     `json:"supersteps"`
	Converged  bool                    `json:"converged"`
	Stats      []pregel.SuperstepStats `json:"stats"`
	Nodes      []NodeSnapshot          `json:"nodes"`
}

// NodeSnapshot holds the stored properties of one node.
type NodeSnapshot struct {
	ID         int64                      `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// NewSnapshot builds the snapshot of result, nodes ordered by node id.
func NewSnapshot(name string, result *Result) Snapshot {
	nodes := make([]NodeSnapshot, result.Run.NodeCount)
	for i := range nodes {
		nodes[i].Properties = make(map[string]json.RawMessage)
	}
	for _, v := range result.Values {
		n := &nodes[v.Node]
		n.ID = v.OriginalID
		n.Properties[v.Property] = v.Value
	}
	return Snapshot{
		Scenario:   name,
		Algorithm:  result.Run.Algorithm,
		Supersteps: result.Run.Supersteps,
		Converged:  result.Run.Converged,
		Stats:      result.Run.Stats,
		Nodes:      nodes,
	}
}

// Marshal encodes the snapshot as indented JSON with a trailing newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
