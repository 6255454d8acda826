package algorithms

import "github.com/roach88/superstep/internal/pregel"

// ComponentProperty holds the smallest original id reachable from a node.
const ComponentProperty = "component"

// WCC labels every node with the smallest original id that reaches it. On
// undirected graphs this is the weakly connected component.
type WCC struct{}

var _ pregel.Reducing = WCC{}

// NewWCC takes no parameters.
func NewWCC(params Params) (WCC, error) {
	if err := params.only(); err != nil {
		return WCC{}, err
	}
	return WCC{}, nil
}

func (WCC) Name() string { return "wcc" }

func (WCC) Reducer() pregel.Reducer { return pregel.MinReducer{} }

func (WCC) Schema(pregel.Config) (*pregel.Schema, error) {
	return pregel.NewSchemaBuilder().
		Add(ComponentProperty, pregel.Long, pregel.Public).
		Build()
}

func (WCC) Init(ctx *pregel.InitContext) error {
	ctx.SetLongValue(ComponentProperty, ctx.OriginalID())
	return nil
}

// Compute folds every message into the label, including those an
// asynchronous run delivers during the initial superstep.
func (WCC) Compute(ctx *pregel.ComputeContext, msgs pregel.Messages) error {
	current := ctx.LongValue(ComponentProperty)
	component := current
	for m := range msgs.All() {
		if label := int64(m); label < component {
			component = label
		}
	}
	if ctx.IsInitialSuperstep() || component < current {
		ctx.SetLongValue(ComponentProperty, component)
		ctx.SendToNeighbors(float64(component))
	}
	return nil
}
