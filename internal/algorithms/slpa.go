package algorithms

import (
	"fmt"
	"slices"

	"github.com/roach88/superstep/internal/pregel"
)

const (
	// CommunityIDsProperty holds the communities a node belongs to.
	CommunityIDsProperty = "communityIds"
	labelsProperty       = "labels"

	// DefaultPropagationSteps is the default number of speak/listen rounds.
	DefaultPropagationSteps = 4

	// DefaultMinAssociationStrength is the default share of a node's memory
	// a label needs to survive pruning.
	DefaultMinAssociationStrength = 0.2
)

// SLPA finds overlapping communities with speaker-listener label
// propagation.
//
// Every node starts with its own original id as the only label in its
// memory. During each propagation step a node speaks a label drawn at random
// from its memory to its neighbors, and listens by appending the most
// frequent label it heard (ties go to the smallest label). After the last
// step every node keeps the labels whose share of its memory is at least
// minAssociationStrength.
type SLPA struct {
	propagationSteps int
	minStrength      float64
}

var _ Bounded = (*SLPA)(nil)

// NewSLPA reads propagationSteps (default 4) and minAssociationStrength
// (default 0.2).
func NewSLPA(params Params) (*SLPA, error) {
	if err := params.only("propagationSteps", "minAssociationStrength"); err != nil {
		return nil, err
	}
	steps, err := params.Int("propagationSteps", DefaultPropagationSteps)
	if err != nil {
		return nil, err
	}
	if steps < 1 {
		return nil, fmt.Errorf("propagationSteps must be at least 1, got %d", steps)
	}
	strength, err := params.Float("minAssociationStrength", DefaultMinAssociationStrength)
	if err != nil {
		return nil, err
	}
	if strength <= 0 || strength > 1 {
		return nil, fmt.Errorf("minAssociationStrength must be in (0, 1], got %v", strength)
	}
	return &SLPA{propagationSteps: steps, minStrength: strength}, nil
}

func (s *SLPA) Name() string { return "slpa" }

// Supersteps is one superstep per propagation step plus the final listen
// and prune.
func (s *SLPA) Supersteps() int { return s.propagationSteps + 1 }

func (s *SLPA) Schema(cfg pregel.Config) (*pregel.Schema, error) {
	if err := requireSync(s.Name(), cfg); err != nil {
		return nil, err
	}
	return pregel.NewSchemaBuilder().
		Add(CommunityIDsProperty, pregel.LongArray, pregel.Public).
		Add(labelsProperty, pregel.LongArray, pregel.Private).
		Build()
}

func (s *SLPA) Init(ctx *pregel.InitContext) error {
	ctx.SetLongArrayValue(labelsProperty, []int64{ctx.OriginalID()})
	return nil
}

func (s *SLPA) Compute(ctx *pregel.ComputeContext, msgs pregel.Messages) error {
	labels := ctx.LongArrayValue(labelsProperty)
	if !ctx.IsInitialSuperstep() {
		if heard, ok := mostFrequent(msgs); ok {
			labels = append(labels, heard)
			ctx.SetLongArrayValue(labelsProperty, labels)
		}
	}

	if ctx.Superstep() < s.propagationSteps {
		spoken := labels[ctx.Random().IntN(len(labels))]
		ctx.SendToNeighbors(float64(spoken))
		ctx.VoteToContinue()
		return nil
	}

	ctx.SetLongArrayValue(CommunityIDsProperty, prune(labels, s.minStrength))
	return nil
}

// mostFrequent returns the most frequent message, preferring the smallest
// label among equally frequent ones.
func mostFrequent(msgs pregel.Messages) (int64, bool) {
	if msgs.IsEmpty() {
		return 0, false
	}
	counts := make(map[int64]int, msgs.Len())
	for m := range msgs.All() {
		counts[int64(m)]++
	}
	var best int64
	bestCount := 0
	for label, count := range counts {
		if count > bestCount || (count == bestCount && label < best) {
			best, bestCount = label, count
		}
	}
	return best, true
}

// prune keeps the distinct labels whose relative frequency in labels is at
// least threshold, sorted ascending.
func prune(labels []int64, threshold float64) []int64 {
	counts := make(map[int64]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}
	kept := make([]int64, 0, len(counts))
	total := float64(len(labels))
	for label, count := range counts {
		if float64(count)/total >= threshold {
			kept = append(kept, label)
		}
	}
	slices.Sort(kept)
	return kept
}
