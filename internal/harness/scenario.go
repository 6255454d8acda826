package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/superstep/internal/config"
)

// Scenario defines one algorithm run over a small graph and the outcome it
// must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Job selects the algorithm and engine settings. Unset fields keep the
	// engine defaults. job.graph, if set, is an edge list relative to the
	// scenario file.
	Job config.Job `yaml:"job"`

	// Graph is an inline graph, used when job.graph is empty.
	Graph GraphSpec `yaml:"graph,omitempty"`

	// Assertions validate the stored result.
	Assertions []Assertion `yaml:"assertions"`
}

// GraphSpec is an inline graph. Exactly one of Edges/Nodes or Random is
// used. Direction comes from job.undirected.
type GraphSpec struct {
	// Edges are [source, target] or [source, target, weight], by external id.
	Edges [][]float64 `yaml:"edges,omitempty"`

	// Nodes adds nodes that may have no relationships.
	Nodes []int64 `yaml:"nodes,omitempty"`

	// Random generates a seeded random graph instead.
	Random *RandomGraph `yaml:"random,omitempty"`
}

// RandomGraph parameters for graph.Random.
type RandomGraph struct {
	Nodes  int    `yaml:"nodes"`
	Degree int    `yaml:"degree"`
	Seed   uint64 `yaml:"seed"`
}

func (g GraphSpec) inline() bool {
	return len(g.Edges) > 0 || len(g.Nodes) > 0
}

// Assertion validates the stored result of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "supersteps": the run took exactly Count supersteps
	// - "converged": the run converged iff Value is true
	// - "node_value": Property of Node equals Value (within Delta for numbers)
	// - "contains": the array Property of Node contains Value
	// - "same_value": Property is identical for all Nodes
	// - "property_sum": Property summed over all nodes equals Value within Delta
	// - "messages_conserved": every message sent is delivered in the next superstep
	Type string `yaml:"type"`

	// Property is the node property key.
	Property string `yaml:"property,omitempty"`

	// Node is an external node id.
	Node *int64 `yaml:"node,omitempty"`

	// Nodes are external node ids (used by same_value).
	Nodes []int64 `yaml:"nodes,omitempty"`

	// Value is the expected value: a number, a list of numbers or a bool.
	Value any `yaml:"value,omitempty"`

	// Delta is the tolerance for floating point comparisons.
	Delta float64 `yaml:"delta,omitempty"`

	// Count is the expected superstep count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSupersteps        = "supersteps"
	AssertConverged         = "converged"
	AssertNodeValue         = "node_value"
	AssertContains          = "contains"
	AssertSameValue         = "same_value"
	AssertPropertySum       = "property_sum"
	AssertMessagesConserved = "messages_conserved"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Job.Graph != "" && !filepath.IsAbs(scenario.Job.Graph) {
		scenario.Job.Graph = filepath.Join(filepath.Dir(path), scenario.Job.Graph)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative graph paths are left as is.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Job: config.Default()}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Job.Algorithm == "" {
		return fmt.Errorf("job.algorithm is required")
	}

	sources := 0
	if s.Job.Graph != "" {
		sources++
	}
	if s.Graph.inline() {
		sources++
	}
	if s.Graph.Random != nil {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of job.graph, graph.edges/nodes or graph.random is required")
	}

	for i, edge := range s.Graph.Edges {
		if len(edge) != 2 && len(edge) != 3 {
			return fmt.Errorf("graph.edges[%d]: expected [source, target] or [source, target, weight]", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSupersteps:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be at least 1 for supersteps", index)
		}
	case AssertConverged:
		if _, ok := a.Value.(bool); !ok {
			return fmt.Errorf("assertions[%d]: value must be true or false for converged", index)
		}
	case AssertNodeValue, AssertContains:
		if a.Property == "" || a.Node == nil || a.Value == nil {
			return fmt.Errorf("assertions[%d]: property, node and value are required for %s", index, a.Type)
		}
	case AssertSameValue:
		if a.Property == "" || len(a.Nodes) < 2 {
			return fmt.Errorf("assertions[%d]: property and at least two nodes are required for same_value", index)
		}
	case AssertPropertySum:
		if a.Property == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: property and value are required for property_sum", index)
		}
	case AssertMessagesConserved:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
