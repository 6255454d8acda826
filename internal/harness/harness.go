package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/superstep/internal/graph"
	"github.com/roach88/superstep/internal/pregel"
	"github.com/roach88/superstep/internal/store"
	"github.com/roach88/superstep/internal/testutil"
)

// Harness executes scenarios against a store with deterministic run ids and
// timestamps.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build the graph and the computation
// 3. Run the computation and store the result
// 4. Read the run back and evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	ids := testutil.NewSequentialIDGenerator(scenario.Name)

	st, err := store.Open(":memory:", store.WithClock(clock), store.WithIDGenerator(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  clock,
		ids:    ids,
		logger: slog.Default().With("scenario", scenario.Name),
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := buildGraph(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	c, cfg, err := scenario.Job.Computation()
	if err != nil {
		return nil, err
	}
	p, err := pregel.New(g, c, cfg)
	if err != nil {
		return nil, err
	}
	computed, err := p.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", scenario.Job.Algorithm, err)
	}

	saved, err := h.store.SaveRun(ctx, scenario.Job, g, computed)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if result.Run, err = h.store.GetRun(ctx, saved.ID); err != nil {
		return nil, err
	}
	if result.Values, err = h.store.NodeValues(ctx, saved.ID, store.ValueQuery{}); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Store: h.store, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"run_id", saved.ID,
		"supersteps", result.Run.Supersteps,
		"pass", result.Pass,
		"clock_ticks", h.clock.Ticks(),
	)
	return result, nil
}

// buildGraph loads or generates the scenario graph.
func buildGraph(s *Scenario) (*graph.Graph, error) {
	opts := []graph.BuilderOption{graph.WithUndirected(s.Job.Undirected)}

	switch {
	case s.Job.Graph != "":
		return graph.LoadEdgeList(s.Job.Graph, opts...)
	case s.Graph.Random != nil:
		r := s.Graph.Random
		return graph.Random(r.Nodes, r.Degree, r.Seed, opts...), nil
	}

	b := graph.NewBuilder(opts...)
	for _, e := range s.Graph.Edges {
		source, target := int64(e[0]), int64(e[1])
		if float64(source) != e[0] || float64(target) != e[1] {
			return nil, fmt.Errorf("edge %v: node ids must be integers", e)
		}
		if len(e) == 3 {
			b.AddWeightedRelationship(source, target, e[2])
		} else {
			b.AddRelationship(source, target)
		}
	}
	for _, id := range s.Graph.Nodes {
		b.AddNode(id)
	}
	return b.Build(), nil
}
