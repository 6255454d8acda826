package pregel

// Graph is the read-only graph a computation runs over. Node ids are dense
// in [0, NodeCount()) and stable for the lifetime of a computation.
type Graph interface {
	NodeCount() int64
	Degree(node int64) int

	// ForEachRelationship calls fn for every outgoing relationship of node
	// until fn returns false. Unweighted graphs report weight 1.
	ForEachRelationship(node int64, fn func(target int64, weight float64) bool)
}

// IDMapper is implemented by graphs loaded from external ids.
type IDMapper interface {
	ToOriginalID(node int64) int64
	ToInternalID(original int64) (int64, bool)
}

func originalID(g Graph, node int64) int64 {
	if m, ok := g.(IDMapper); ok {
		return m.ToOriginalID(node)
	}
	return node
}
