package pregel

import "slices"

const (
	pageShift = 12
	pageSize  = 1 << pageShift
	pageMask  = pageSize - 1
)

// pagedArray is a fixed-size array split into pages of pageSize elements so
// large node counts never need one contiguous allocation.
type pagedArray[T any] struct {
	pages [][]T
	size  int64
}

func newPagedArray[T any](size int64) *pagedArray[T] {
	numPages := (size + pageSize - 1) >> pageShift
	pages := make([][]T, numPages)
	for i := range pages {
		n := int64(pageSize)
		if rest := size - int64(i)<<pageShift; rest < n {
			n = rest
		}
		pages[i] = make([]T, n)
	}
	return &pagedArray[T]{pages: pages, size: size}
}

func (a *pagedArray[T]) get(i int64) T {
	return a.pages[i>>pageShift][i&pageMask]
}

func (a *pagedArray[T]) set(i int64, v T) {
	a.pages[i>>pageShift][i&pageMask] = v
}

func (a *pagedArray[T]) fill(f func() T) {
	for _, page := range a.pages {
		for j := range page {
			page[j] = f()
		}
	}
}

// toSlice copies the array into one contiguous slice.
func (a *pagedArray[T]) toSlice() []T {
	out := make([]T, 0, a.size)
	for _, page := range a.pages {
		out = append(out, page...)
	}
	return out
}

type property struct {
	element      Element
	doubles      *pagedArray[float64]
	longs        *pagedArray[int64]
	longArrays   *pagedArray[[]int64]
	doubleArrays *pagedArray[[]float64]
}

func newProperty(el Element, nodeCount int64) property {
	p := property{element: el}
	switch el.Type {
	case Double:
		p.doubles = newPagedArray[float64](nodeCount)
		if def, ok := el.Default.(float64); ok && def != 0 {
			p.doubles.fill(func() float64 { return def })
		}
	case Long:
		p.longs = newPagedArray[int64](nodeCount)
		if def, ok := el.Default.(int64); ok && def != 0 {
			p.longs.fill(func() int64 { return def })
		}
	case LongArray:
		p.longArrays = newPagedArray[[]int64](nodeCount)
		if def, ok := el.Default.([]int64); ok {
			p.longArrays.fill(func() []int64 { return slices.Clone(def) })
		}
	case DoubleArray:
		p.doubleArrays = newPagedArray[[]float64](nodeCount)
		if def, ok := el.Default.([]float64); ok {
			p.doubleArrays.fill(func() []float64 { return slices.Clone(def) })
		}
	}
	return p
}

// NodeValues is the per-node property store of one computation.
//
// Every access is bounds-checked against the node count and type-checked
// against the schema. NodeValues performs no locking: the scheduler
// guarantees a (property, node) slot is only touched by the worker owning
// the node's partition, or by the single-threaded master phase.
type NodeValues struct {
	schema    *Schema
	nodeCount int64
	props     []property
}

// NewNodeValues allocates one paged array per schema element, sized to nodeCount.
func NewNodeValues(schema *Schema, nodeCount int64) *NodeValues {
	props := make([]property, len(schema.elements))
	for i, el := range schema.elements {
		props[i] = newProperty(el, nodeCount)
	}
	return &NodeValues{schema: schema, nodeCount: nodeCount, props: props}
}

// Schema returns the schema the store was declared with.
func (v *NodeValues) Schema() *Schema { return v.schema }

// NodeCount returns the number of nodes the store was sized for.
func (v *NodeValues) NodeCount() int64 { return v.nodeCount }

func (v *NodeValues) resolve(key string, t ValueType, node int64) (*property, error) {
	i, ok := v.schema.position(key)
	if !ok {
		return nil, unknownProperty(key)
	}
	p := &v.props[i]
	if p.element.Type != t {
		return nil, typeMismatch(p.element.Key, p.element.Type, t)
	}
	if node < 0 || node >= v.nodeCount {
		return nil, outOfRange(node, v.nodeCount)
	}
	return p, nil
}

// Double returns the scalar double property key of node.
func (v *NodeValues) Double(key string, node int64) (float64, error) {
	p, err := v.resolve(key, Double, node)
	if err != nil {
		return 0, err
	}
	return p.doubles.get(node), nil
}

// SetDouble stores a scalar double property.
func (v *NodeValues) SetDouble(key string, node int64, value float64) error {
	p, err := v.resolve(key, Double, node)
	if err != nil {
		return err
	}
	p.doubles.set(node, value)
	return nil
}

// Long returns the scalar long property key of node.
func (v *NodeValues) Long(key string, node int64) (int64, error) {
	p, err := v.resolve(key, Long, node)
	if err != nil {
		return 0, err
	}
	return p.longs.get(node), nil
}

// SetLong stores a scalar long property.
func (v *NodeValues) SetLong(key string, node int64, value int64) error {
	p, err := v.resolve(key, Long, node)
	if err != nil {
		return err
	}
	p.longs.set(node, value)
	return nil
}

// LongArray returns the long array property key of node.
// The returned slice is owned by the store.
func (v *NodeValues) LongArray(key string, node int64) ([]int64, error) {
	p, err := v.resolve(key, LongArray, node)
	if err != nil {
		return nil, err
	}
	return p.longArrays.get(node), nil
}

// SetLongArray stores a long array property. The store keeps the slice.
func (v *NodeValues) SetLongArray(key string, node int64, value []int64) error {
	p, err := v.resolve(key, LongArray, node)
	if err != nil {
		return err
	}
	p.longArrays.set(node, value)
	return nil
}

// DoubleArray returns the double array property key of node.
// The returned slice is owned by the store.
func (v *NodeValues) DoubleArray(key string, node int64) ([]float64, error) {
	p, err := v.resolve(key, DoubleArray, node)
	if err != nil {
		return nil, err
	}
	return p.doubleArrays.get(node), nil
}

// SetDoubleArray stores a double array property. The store keeps the slice.
func (v *NodeValues) SetDoubleArray(key string, node int64, value []float64) error {
	p, err := v.resolve(key, DoubleArray, node)
	if err != nil {
		return err
	}
	p.doubleArrays.set(node, value)
	return nil
}

// Values is the read-only view of a completed computation. Only public
// properties are visible; private keys report ErrCodeUnknownProperty.
type Values struct {
	store *NodeValues
}

func (r Values) public(key string) error {
	el, ok := r.store.schema.Lookup(key)
	if !ok || el.Visibility != Public {
		return unknownProperty(key)
	}
	return nil
}

// NodeCount returns the number of nodes in the result.
func (r Values) NodeCount() int64 { return r.store.nodeCount }

// Properties returns the public elements in declaration order.
func (r Values) Properties() []Element {
	var out []Element
	for _, el := range r.store.schema.elements {
		if el.Visibility == Public {
			out = append(out, el)
		}
	}
	return out
}

// Double returns a public double property of node.
func (r Values) Double(key string, node int64) (float64, error) {
	if err := r.public(key); err != nil {
		return 0, err
	}
	return r.store.Double(key, node)
}

// Long returns a public long property of node.
func (r Values) Long(key string, node int64) (int64, error) {
	if err := r.public(key); err != nil {
		return 0, err
	}
	return r.store.Long(key, node)
}

// LongArray returns a copy of a public long array property of node.
func (r Values) LongArray(key string, node int64) ([]int64, error) {
	if err := r.public(key); err != nil {
		return nil, err
	}
	v, err := r.store.LongArray(key, node)
	return slices.Clone(v), err
}

// DoubleArray returns a copy of a public double array property of node.
func (r Values) DoubleArray(key string, node int64) ([]float64, error) {
	if err := r.public(key); err != nil {
		return nil, err
	}
	v, err := r.store.DoubleArray(key, node)
	return slices.Clone(v), err
}

func (r Values) property(key string, t ValueType) (*property, error) {
	if err := r.public(key); err != nil {
		return nil, err
	}
	if r.store.nodeCount == 0 {
		i, _ := r.store.schema.position(key)
		p := &r.store.props[i]
		if p.element.Type != t {
			return nil, typeMismatch(p.element.Key, p.element.Type, t)
		}
		return p, nil
	}
	return r.store.resolve(key, t, 0)
}

// Doubles exports a public double property for every node, indexed by node id.
func (r Values) Doubles(key string) ([]float64, error) {
	p, err := r.property(key, Double)
	if err != nil {
		return nil, err
	}
	return p.doubles.toSlice(), nil
}

// Longs exports a public long property for every node, indexed by node id.
func (r Values) Longs(key string) ([]int64, error) {
	p, err := r.property(key, Long)
	if err != nil {
		return nil, err
	}
	return p.longs.toSlice(), nil
}

// LongArrays exports a public long array property for every node.
func (r Values) LongArrays(key string) ([][]int64, error) {
	p, err := r.property(key, LongArray)
	if err != nil {
		return nil, err
	}
	out := p.longArrays.toSlice()
	for i := range out {
		out[i] = slices.Clone(out[i])
	}
	return out, nil
}

// DoubleArrays exports a public double array property for every node.
func (r Values) DoubleArrays(key string) ([][]float64, error) {
	p, err := r.property(key, DoubleArray)
	if err != nil {
		return nil, err
	}
	out := p.doubleArrays.toSlice()
	for i := range out {
		out[i] = slices.Clone(out[i])
	}
	return out, nil
}

// Value returns a public property of node as float64, int64, []int64 or
// []float64, depending on its declared type.
func (r Values) Value(key string, node int64) (any, error) {
	if err := r.public(key); err != nil {
		return nil, err
	}
	el, _ := r.store.schema.Lookup(key)
	switch el.Type {
	case Double:
		return r.store.Double(key, node)
	case Long:
		return r.store.Long(key, node)
	case LongArray:
		return r.LongArray(key, node)
	default:
		return r.DoubleArray(key, node)
	}
}
