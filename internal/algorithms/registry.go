// Package algorithms contains graph algorithms written against the pregel
// engine and a registry to look them up by name.
package algorithms

import (
	"fmt"
	"sort"

	"github.com/roach88/superstep/internal/pregel"
)

// Factory builds a fresh computation from parameters. Computations hold
// per-run state, so every run needs its own.
type Factory func(params Params) (pregel.Computation, error)

// Algorithm is a registry entry.
type Algorithm struct {
	Name        string
	Description string
	New         Factory
}

// Bounded is implemented by computations that run a fixed number of
// supersteps derived from their parameters.
type Bounded interface {
	Supersteps() int
}

var registry = map[string]Algorithm{
	"hits": {
		Name:        "hits",
		Description: "hub and authority scores (HITS)",
		New:         func(p Params) (pregel.Computation, error) { return NewHits(p) },
	},
	"slpa": {
		Name:        "slpa",
		Description: "overlapping communities by speaker-listener label propagation",
		New:         func(p Params) (pregel.Computation, error) { return NewSLPA(p) },
	},
	"pagerank": {
		Name:        "pagerank",
		Description: "PageRank with dead-end redistribution",
		New:         func(p Params) (pregel.Computation, error) { return NewPageRank(p) },
	},
	"wcc": {
		Name:        "wcc",
		Description: "connected components by minimum label propagation",
		New:         func(p Params) (pregel.Computation, error) { return NewWCC(p) },
	},
}

// Lookup returns the algorithm registered under name.
func Lookup(name string) (Algorithm, error) {
	alg, ok := registry[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("unknown algorithm %q (available: %v)", name, Names())
	}
	return alg, nil
}

// Names returns the registered algorithm names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EngineConfig adapts cfg to c: computations with a fixed superstep count
// get a cap that lets them finish. Callers holding an explicit cap apply it
// afterwards.
func EngineConfig(c pregel.Computation, cfg pregel.Config) pregel.Config {
	if b, ok := c.(Bounded); ok {
		cfg.MaxIterations = b.Supersteps()
	}
	return cfg
}

// requireSync rejects asynchronous execution for computations that read a
// superstep's messages only in the superstep after.
func requireSync(name string, cfg pregel.Config) error {
	if cfg.Asynchronous {
		return fmt.Errorf("%s requires synchronous execution", name)
	}
	return nil
}
