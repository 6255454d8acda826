package algorithms

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/superstep/internal/pregel"
)

const (
	// HubProperty holds the hub score.
	HubProperty = "hub"

	// AuthProperty holds the authority score.
	AuthProperty = "auth"

	inNeighborsProperty = "inNeighbors"

	normAccumulator = "norm"

	// DefaultHitsIterations is the default number of auth/hub rounds.
	DefaultHitsIterations = 20
)

// HitsPhase is the step of the HITS state machine a superstep performs.
type HitsPhase int

// Phases in the order they first run.
const (
	SendIDs HitsPhase = iota
	ReceiveIDs
	CalculateAuths
	NormalizeAuths
	CalculateHubs
	NormalizeHubs
)

func (p HitsPhase) String() string {
	switch p {
	case SendIDs:
		return "SEND_IDS"
	case ReceiveIDs:
		return "RECEIVE_IDS"
	case CalculateAuths:
		return "CALCULATE_AUTHS"
	case NormalizeAuths:
		return "NORMALIZE_AUTHS"
	case CalculateHubs:
		return "CALCULATE_HUBS"
	case NormalizeHubs:
		return "NORMALIZE_HUBS"
	default:
		return fmt.Sprintf("HitsPhase(%d)", int(p))
	}
}

// Next returns the phase following p. After NORMALIZE_HUBS the cycle
// restarts at CALCULATE_AUTHS; the id exchange happens once.
func (p HitsPhase) Next() HitsPhase {
	switch p {
	case SendIDs:
		return ReceiveIDs
	case ReceiveIDs:
		return CalculateAuths
	case CalculateAuths:
		return NormalizeAuths
	case NormalizeAuths:
		return CalculateHubs
	case CalculateHubs:
		return NormalizeHubs
	default:
		return CalculateAuths
	}
}

// Hits computes hub and authority scores.
//
// Every node first learns its in-neighbors by exchanging ids. Each round then
// sets auth to the sum of the in-neighbors' hubs and hub to the sum of the
// out-neighbors' auths, both normalized by their Euclidean norm.
//
// Phase, norm and the round counter are written only by MasterCompute and
// read by Compute during the following superstep.
type Hits struct {
	iterations int

	phase     HitsPhase
	norm      float64
	completed int
}

var (
	_ pregel.MasterComputation = (*Hits)(nil)
	_ pregel.Accumulating      = (*Hits)(nil)
	_ Bounded                  = (*Hits)(nil)
)

// NewHits reads hitsIterations (default 20).
func NewHits(params Params) (*Hits, error) {
	if err := params.only("hitsIterations"); err != nil {
		return nil, err
	}
	iterations, err := params.Int("hitsIterations", DefaultHitsIterations)
	if err != nil {
		return nil, err
	}
	if iterations < 1 {
		return nil, fmt.Errorf("hitsIterations must be at least 1, got %d", iterations)
	}
	return &Hits{iterations: iterations}, nil
}

func (h *Hits) Name() string { return "hits" }

// Supersteps is two supersteps for the id exchange plus four per round.
func (h *Hits) Supersteps() int { return 2 + 4*h.iterations }

func (h *Hits) Accumulators() []string { return []string{normAccumulator} }

func (h *Hits) Schema(cfg pregel.Config) (*pregel.Schema, error) {
	if err := requireSync(h.Name(), cfg); err != nil {
		return nil, err
	}
	return pregel.NewSchemaBuilder().
		AddWithDefault(HubProperty, pregel.Double, pregel.Public, 1.0).
		AddWithDefault(AuthProperty, pregel.Double, pregel.Public, 1.0).
		Add(inNeighborsProperty, pregel.LongArray, pregel.Private).
		Build()
}

func (h *Hits) Init(*pregel.InitContext) error { return nil }

func (h *Hits) Compute(ctx *pregel.ComputeContext, msgs pregel.Messages) error {
	switch h.phase {
	case SendIDs:
		ctx.SendToNeighbors(float64(ctx.NodeID()))
	case ReceiveIDs:
		in := make([]int64, 0, msgs.Len())
		for m := range msgs.All() {
			in = append(in, int64(m))
		}
		slices.Sort(in)
		ctx.SetLongArrayValue(inNeighborsProperty, in)
		ctx.SendToNeighbors(ctx.DoubleValue(HubProperty))
	case CalculateAuths:
		auth := sum(msgs)
		ctx.SetDoubleValue(AuthProperty, auth)
		ctx.Accumulate(normAccumulator, auth*auth)
	case NormalizeAuths:
		auth := normalize(ctx.DoubleValue(AuthProperty), h.norm)
		ctx.SetDoubleValue(AuthProperty, auth)
		for _, source := range ctx.LongArrayValue(inNeighborsProperty) {
			ctx.SendTo(source, auth)
		}
	case CalculateHubs:
		hub := sum(msgs)
		ctx.SetDoubleValue(HubProperty, hub)
		ctx.Accumulate(normAccumulator, hub*hub)
	case NormalizeHubs:
		hub := normalize(ctx.DoubleValue(HubProperty), h.norm)
		ctx.SetDoubleValue(HubProperty, hub)
		ctx.SendToNeighbors(hub)
	}
	// nodes without messages still take part in every phase
	ctx.VoteToContinue()
	return nil
}

func (h *Hits) MasterCompute(ctx *pregel.MasterComputeContext) (pregel.MasterDecision, error) {
	if h.phase == CalculateAuths || h.phase == CalculateHubs {
		h.norm = math.Sqrt(ctx.Accumulated(normAccumulator))
	}
	if h.phase == NormalizeHubs {
		h.completed++
		if h.completed >= h.iterations {
			return pregel.MasterHalt, nil
		}
	}
	h.phase = h.phase.Next()
	return pregel.MasterDefer, nil
}

func normalize(v, norm float64) float64 {
	if norm == 0 {
		return 0
	}
	return v / norm
}

func sum(msgs pregel.Messages) float64 {
	var total float64
	for m := range msgs.All() {
		total += m
	}
	return total
}
