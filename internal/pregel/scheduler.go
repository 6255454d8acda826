package pregel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// cancelCheckInterval is how many nodes a worker visits between polls of the
// termination flag. Must be a power of two.
const cancelCheckInterval = 1024

// SuperstepStats describes one finished superstep.
type SuperstepStats struct {
	Superstep int `json:"superstep"`

	// Visited is the number of nodes Compute was called for.
	Visited int64 `json:"visited"`

	// Sent is the number of messages sent, before reduction.
	Sent int64 `json:"sent"`

	// Delivered is the number of messages handed to Compute. With a reducer
	// each node receives at most one.
	Delivered int64 `json:"delivered"`

	// Active is the number of nodes that sent a message or voted to continue.
	Active int64 `json:"active"`

	// Pending is the number of messages waiting after the barrier.
	Pending int64 `json:"pending"`

	Decision MasterDecision `json:"-"`
}

// Result is the outcome of a completed computation.
type Result struct {
	// Values exposes the public properties of every node.
	Values Values

	// Supersteps is the number of supersteps that ran.
	Supersteps int

	// Converged is false only when the superstep cap stopped the computation.
	Converged bool

	Stats    []SuperstepStats
	Duration time.Duration
}

// Pregel runs one computation over one graph.
//
// Lifecycle: New resolves the schema and allocates the node value store,
// partitions and message queues. Run executes
// INIT → COMPUTE → BARRIER → MASTER_COMPUTE → CHECK until halted. A Pregel
// instance runs at most once.
type Pregel struct {
	graph       Graph
	computation Computation
	master      MasterComputation
	cfg         Config
	name        string

	values     *NodeValues
	partitions []Partition
	queues     messenger
	acc        *accumulators
	workers    []*worker

	// active[n] is set when n sent a message or voted to continue during the
	// previous superstep. Each slot is written only by the worker owning n.
	active     []bool
	nextActive []bool

	ran atomic.Bool
}

// worker owns one partition for the lifetime of the computation.
type worker struct {
	partition Partition
	init      *InitContext
	compute   *ComputeContext
	scratch   []float64

	visited   int64
	delivered int64
	flagged   int64
}

// New prepares computation c over g.
//
// Schema errors and invalid configuration are reported here, before any node
// is visited.
func New(g Graph, c Computation, cfg Config) (*Pregel, error) {
	if cfg.Partitioning == "" {
		cfg.Partitioning = PartitionRange
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	schema, err := c.Schema(cfg)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, schemaError("", "resolve schema: %v", err)
	}
	if schema == nil {
		return nil, schemaError("", "computation returned no schema")
	}

	var names []string
	if a, ok := c.(Accumulating); ok {
		names = a.Accumulators()
	}
	acc, err := newAccumulators(names)
	if err != nil {
		return nil, err
	}

	var reducer Reducer
	if r, ok := c.(Reducing); ok {
		reducer = r.Reducer()
	}
	nodeCount := g.NodeCount()
	var queues messenger
	if cfg.Asynchronous {
		queues = newAsyncQueues(nodeCount, reducer)
	} else {
		queues = newSyncQueues(nodeCount, reducer)
	}

	p := &Pregel{
		graph:       g,
		computation: c,
		cfg:         cfg,
		name:        computationName(c),
		values:      NewNodeValues(schema, nodeCount),
		partitions:  partitionsFor(g, cfg),
		queues:      queues,
		acc:         acc,
		active:      make([]bool, nodeCount),
		nextActive:  make([]bool, nodeCount),
	}
	if m, ok := c.(MasterComputation); ok {
		p.master = m
	}
	weighted, _ := c.(Weighted)

	p.workers = make([]*worker, len(p.partitions))
	for i, part := range p.partitions {
		access := nodeAccess{graph: g, values: p.values, cfg: cfg}
		p.workers[i] = &worker{
			partition: part,
			init:      &InitContext{nodeAccess: access},
			compute: &ComputeContext{
				nodeAccess: access,
				queues:     queues,
				weighted:   weighted,
				acc:        acc,
				rng:        rand.New(rand.NewPCG(cfg.Seed, uint64(part.Index))),
			},
			scratch: make([]float64, 1),
		}
	}
	return p, nil
}

// Partitions returns the partitions work is split into.
func (p *Pregel) Partitions() []Partition {
	out := make([]Partition, len(p.partitions))
	copy(out, p.partitions)
	return out
}

// Run executes the computation until it halts, fails or ctx is canceled.
//
// On failure the first error observed is returned and no result is produced.
// Cancellation is reported as an *Error with code CANCELED. Close is called on
// computations implementing Closer whatever the outcome.
func (p *Pregel) Run(ctx context.Context) (result *Result, err error) {
	if !p.ran.CompareAndSwap(false, true) {
		return nil, configError("computation %s already ran", p.name)
	}
	if closer, ok := p.computation.(Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil && err == nil {
				result = nil
				err = fmt.Errorf("close %s: %w", p.name, cerr)
			}
		}()
	}

	start := time.Now()
	slog.Info("computation starting",
		"computation", p.name,
		"nodes", p.graph.NodeCount(),
		"partitions", len(p.partitions),
		"concurrency", p.cfg.Concurrency,
		"max_iterations", p.cfg.MaxIterations,
		"asynchronous", p.cfg.Asynchronous,
	)

	if err := p.runInit(ctx); err != nil {
		return nil, p.fail(ctx, -1, err)
	}

	var stats []SuperstepStats
	converged := false
	for superstep := 0; ; superstep++ {
		slog.Debug("compute iteration starting",
			"computation", p.name,
			"superstep", superstep,
			"max_iterations", p.cfg.MaxIterations,
		)
		s, err := p.runCompute(ctx, superstep)
		if err != nil {
			return nil, p.fail(ctx, superstep, err)
		}

		// BARRIER
		if err := ctx.Err(); err != nil {
			return nil, p.fail(ctx, superstep, err)
		}
		p.queues.barrier()
		p.active, p.nextActive = p.nextActive, p.active
		clear(p.nextActive)
		s.Pending = p.queues.pending()

		// MASTER_COMPUTE
		p.acc.rotate()
		s.Decision, err = p.runMaster(superstep)
		if err != nil {
			return nil, p.fail(ctx, superstep, err)
		}
		stats = append(stats, s)

		slog.Debug("compute iteration finished",
			"computation", p.name,
			"superstep", superstep,
			"visited", s.Visited,
			"sent", s.Sent,
			"active", s.Active,
			"pending", s.Pending,
			"decision", s.Decision.String(),
		)

		// CHECK
		halt, natural := p.shouldHalt(superstep, s)
		if halt {
			converged = natural
			break
		}
	}

	result = &Result{
		Values:     Values{store: p.values},
		Supersteps: len(stats),
		Converged:  converged,
		Stats:      stats,
		Duration:   time.Since(start),
	}
	slog.Info("computation finished",
		"computation", p.name,
		"supersteps", result.Supersteps,
		"converged", result.Converged,
		"duration", result.Duration,
	)
	return result, nil
}

// shouldHalt decides whether the loop stops after superstep, and whether the
// stop counts as convergence rather than exhaustion of the superstep cap.
func (p *Pregel) shouldHalt(superstep int, s SuperstepStats) (halt, converged bool) {
	switch {
	case s.Decision == MasterHalt:
		return true, true
	case s.Decision != MasterContinue && s.Active == 0 && s.Pending == 0:
		return true, true
	case superstep+1 >= p.cfg.MaxIterations:
		slog.Debug("superstep cap reached",
			"computation", p.name,
			"max_iterations", p.cfg.MaxIterations,
		)
		return true, false
	}
	return false, false
}

// fail maps err to the error returned by Run. A canceled parent context wins
// over the context errors workers observe through the group.
func (p *Pregel) fail(ctx context.Context, superstep int, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		slog.Info("computation canceled",
			"computation", p.name,
			"superstep", superstep,
		)
		return canceledError(superstep, cerr)
	}
	slog.Error("computation failed",
		"computation", p.name,
		"superstep", superstep,
		"error", err,
	)
	return err
}

func (p *Pregel) runInit(ctx context.Context) error {
	group, gctx := newWorkerGroup(ctx, p.cfg.Concurrency)
	for _, w := range p.workers {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ic := w.init
			for node := w.partition.Start; node < w.partition.End(); node++ {
				if (node-w.partition.Start)%cancelCheckInterval == cancelCheckInterval-1 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ic.node = node
				if err := protect("init", -1, node, func() error {
					return p.computation.Init(ic)
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return group.Wait()
}

func (p *Pregel) runCompute(ctx context.Context, superstep int) (SuperstepStats, error) {
	group, gctx := newWorkerGroup(ctx, p.cfg.Concurrency)
	for _, w := range p.workers {
		group.Go(func() error {
			return p.computePartition(gctx, w, superstep)
		})
	}
	if err := group.Wait(); err != nil {
		return SuperstepStats{}, err
	}

	s := SuperstepStats{Superstep: superstep}
	for _, w := range p.workers {
		s.Visited += w.visited
		s.Delivered += w.delivered
		s.Active += w.flagged
		s.Sent += w.compute.sent
	}
	return s, nil
}

func (p *Pregel) computePartition(ctx context.Context, w *worker, superstep int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.visited, w.delivered, w.flagged = 0, 0, 0
	cc := w.compute
	cc.superstep = superstep
	cc.sent = 0

	msgs := Messages{}
	for node := w.partition.Start; node < w.partition.End(); node++ {
		if (node-w.partition.Start)%cancelCheckInterval == cancelCheckInterval-1 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if superstep > 0 && !p.active[node] && !p.queues.has(node) {
			continue
		}

		msgs.values = p.queues.take(node, w.scratch)
		cc.bind(node)
		w.visited++
		w.delivered += int64(len(msgs.values))

		if err := protect("compute", superstep, node, func() error {
			return p.computation.Compute(cc, msgs)
		}); err != nil {
			return err
		}
		if cc.sentFromNode || cc.voted {
			p.nextActive[node] = true
			w.flagged++
		}
	}
	return nil
}

func (p *Pregel) runMaster(superstep int) (MasterDecision, error) {
	if p.master == nil {
		return MasterDefer, nil
	}
	mc := &MasterComputeContext{
		graph:     p.graph,
		values:    p.values,
		cfg:       p.cfg,
		superstep: superstep,
		acc:       p.acc,
	}
	decision := MasterDefer
	err := protect("master compute", superstep, -1, func() error {
		var err error
		decision, err = p.master.MasterCompute(mc)
		return err
	})
	if err != nil {
		return MasterDefer, err
	}
	slog.Debug("master compute iteration",
		"computation", p.name,
		"superstep", superstep,
		"decision", decision.String(),
	)
	return decision, nil
}

// Named is implemented by computations that want a stable name in logs.
type Named interface {
	Name() string
}

func computationName(c Computation) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}

// Run is a convenience wrapper for New followed by Run.
func Run(ctx context.Context, g Graph, c Computation, opts ...Option) (*Result, error) {
	p, err := New(g, c, NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}
