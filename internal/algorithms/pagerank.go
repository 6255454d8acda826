package algorithms

import (
	"fmt"
	"math"

	"github.com/roach88/superstep/internal/pregel"
)

const (
	// RankProperty holds the PageRank score.
	RankProperty = "rank"

	danglingAccumulator = "dangling"
	deltaAccumulator    = "delta"

	// DefaultDampingFactor is the probability of following a relationship.
	DefaultDampingFactor = 0.85

	// DefaultTolerance is the summed rank change below which PageRank halts.
	DefaultTolerance = 1e-7
)

// PageRank ranks nodes by the stationary distribution of a random surfer.
//
// Rank held by nodes without outgoing relationships is collected in an
// accumulator and spread evenly over all nodes in the next superstep, so the
// ranks keep summing to one. The computation halts once the summed absolute
// change of a superstep drops below the tolerance, or at the superstep cap.
type PageRank struct {
	damping   float64
	tolerance float64

	// set by MasterCompute, read by Compute in the next superstep
	danglingShare float64
}

var (
	_ pregel.MasterComputation = (*PageRank)(nil)
	_ pregel.Reducing          = (*PageRank)(nil)
)

// NewPageRank reads dampingFactor (default 0.85) and tolerance (default 1e-7).
func NewPageRank(params Params) (*PageRank, error) {
	if err := params.only("dampingFactor", "tolerance"); err != nil {
		return nil, err
	}
	damping, err := params.Float("dampingFactor", DefaultDampingFactor)
	if err != nil {
		return nil, err
	}
	if damping < 0 || damping >= 1 {
		return nil, fmt.Errorf("dampingFactor must be in [0, 1), got %v", damping)
	}
	tolerance, err := params.Float("tolerance", DefaultTolerance)
	if err != nil {
		return nil, err
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance must not be negative, got %v", tolerance)
	}
	return &PageRank{damping: damping, tolerance: tolerance}, nil
}

func (p *PageRank) Name() string { return "pagerank" }

func (p *PageRank) Reducer() pregel.Reducer { return pregel.SumReducer{} }

func (p *PageRank) Accumulators() []string {
	return []string{danglingAccumulator, deltaAccumulator}
}

func (p *PageRank) Schema(cfg pregel.Config) (*pregel.Schema, error) {
	if err := requireSync(p.Name(), cfg); err != nil {
		return nil, err
	}
	return pregel.NewSchemaBuilder().
		Add(RankProperty, pregel.Double, pregel.Public).
		Build()
}

func (p *PageRank) Init(ctx *pregel.InitContext) error {
	ctx.SetDoubleValue(RankProperty, 1/float64(ctx.NodeCount()))
	return nil
}

func (p *PageRank) Compute(ctx *pregel.ComputeContext, msgs pregel.Messages) error {
	rank := ctx.DoubleValue(RankProperty)
	if !ctx.IsInitialSuperstep() {
		n := float64(ctx.NodeCount())
		next := (1-p.damping)/n + p.damping*(sum(msgs)+p.danglingShare)
		ctx.Accumulate(deltaAccumulator, math.Abs(next-rank))
		rank = next
		ctx.SetDoubleValue(RankProperty, rank)
	}

	if degree := ctx.Degree(); degree > 0 {
		ctx.SendToNeighbors(rank / float64(degree))
	} else {
		ctx.Accumulate(danglingAccumulator, rank)
	}
	ctx.VoteToContinue()
	return nil
}

func (p *PageRank) MasterCompute(ctx *pregel.MasterComputeContext) (pregel.MasterDecision, error) {
	if ctx.NodeCount() == 0 {
		return pregel.MasterHalt, nil
	}
	p.danglingShare = ctx.Accumulated(danglingAccumulator) / float64(ctx.NodeCount())
	if !ctx.IsInitialSuperstep() && ctx.Accumulated(deltaAccumulator) < p.tolerance {
		return pregel.MasterHalt, nil
	}
	return pregel.MasterDefer, nil
}
