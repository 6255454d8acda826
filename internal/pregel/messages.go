package pregel

import (
	"iter"
	"math"
	"sync"
	"sync/atomic"
)

// Messages is the read-only inbox handed to Compute. It is only valid for
// the duration of the Compute call it was passed to.
type Messages struct {
	values []float64
}

// NewMessages builds an inbox holding values. The engine builds inboxes
// itself; this is for exercising a Computation outside the scheduler.
func NewMessages(values ...float64) Messages {
	return Messages{values: values}
}

// Len returns the number of messages.
func (m Messages) Len() int { return len(m.values) }

// IsEmpty reports whether the inbox holds no messages.
func (m Messages) IsEmpty() bool { return len(m.values) == 0 }

// All iterates over the messages in unspecified order.
func (m Messages) All() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, v := range m.values {
			if !yield(v) {
				return
			}
		}
	}
}

// Reducer folds all messages sent to one node in one superstep into a single
// value. Reduce must be associative and commutative: arrival order within a
// superstep is unspecified.
type Reducer interface {
	Identity() float64
	Reduce(current, message float64) float64
}

// SumReducer adds messages.
type SumReducer struct{}

// Identity returns 0.
func (SumReducer) Identity() float64 { return 0 }

// Reduce returns current + msg.
func (SumReducer) Reduce(current, msg float64) float64 { return current + msg }

// MinReducer keeps the smallest message.
type MinReducer struct{}

// Identity returns +Inf.
func (MinReducer) Identity() float64 { return math.Inf(1) }

// Reduce returns the smaller value.
func (MinReducer) Reduce(current, msg float64) float64 { return math.Min(current, msg) }

// MaxReducer keeps the largest message.
type MaxReducer struct{}

// Identity returns -Inf.
func (MaxReducer) Identity() float64 { return math.Inf(-1) }

// Reduce returns the larger value.
func (MaxReducer) Reduce(current, msg float64) float64 { return math.Max(current, msg) }

// CountReducer counts messages, ignoring their values.
type CountReducer struct{}

// Identity returns 0.
func (CountReducer) Identity() float64 { return 0 }

// Reduce returns current + 1.
func (CountReducer) Reduce(current, _ float64) float64 { return current + 1 }

// messenger is the message queue abstraction used by the scheduler.
//
// send may be called from any worker; take and has are only called by the
// worker owning the node; barrier and pending only between supersteps.
type messenger interface {
	send(target int64, value float64)
	take(node int64, scratch []float64) []float64
	has(node int64) bool
	barrier()
	pending() int64
}

// lockStripes is the number of mutexes guarding list inboxes. Must be a
// power of two.
const lockStripes = 256

// buffer is one generation of per-node inboxes.
type buffer interface {
	add(node int64, value float64)
	read(node int64, scratch []float64) []float64
	has(node int64) bool
	len() int64
}

// listBuffer keeps every message. Appends are guarded by striped mutexes.
type listBuffer struct {
	locks [lockStripes]sync.Mutex
	lists [][]float64
	count atomic.Int64
}

func newListBuffer(nodeCount int64) *listBuffer {
	return &listBuffer{lists: make([][]float64, nodeCount)}
}

func (b *listBuffer) add(node int64, value float64) {
	mu := &b.locks[node&(lockStripes-1)]
	mu.Lock()
	b.lists[node] = append(b.lists[node], value)
	mu.Unlock()
	b.count.Add(1)
}

func (b *listBuffer) read(node int64, _ []float64) []float64 { return b.lists[node] }
func (b *listBuffer) has(node int64) bool                   { return len(b.lists[node]) > 0 }
func (b *listBuffer) len() int64                            { return b.count.Load() }

// reduceBuffer folds messages into one slot per node with a CAS loop, so
// memory stays bounded regardless of in-degree.
type reduceBuffer struct {
	reducer Reducer
	slots   []atomic.Uint64
	present []atomic.Uint64
	count   atomic.Int64
}

func newReduceBuffer(nodeCount int64, r Reducer) *reduceBuffer {
	b := &reduceBuffer{
		reducer: r,
		slots:   make([]atomic.Uint64, nodeCount),
		present: make([]atomic.Uint64, (nodeCount+63)/64),
	}
	identity := math.Float64bits(r.Identity())
	if identity != 0 {
		for i := range b.slots {
			b.slots[i].Store(identity)
		}
	}
	return b
}

func (b *reduceBuffer) add(node int64, value float64) {
	slot := &b.slots[node]
	for {
		old := slot.Load()
		next := math.Float64bits(b.reducer.Reduce(math.Float64frombits(old), value))
		if slot.CompareAndSwap(old, next) {
			break
		}
	}
	mask := uint64(1) << (node & 63)
	if b.present[node>>6].Or(mask)&mask == 0 {
		b.count.Add(1)
	}
}

func (b *reduceBuffer) read(node int64, scratch []float64) []float64 {
	if !b.has(node) {
		return nil
	}
	scratch[0] = math.Float64frombits(b.slots[node].Load())
	return scratch[:1]
}

func (b *reduceBuffer) has(node int64) bool {
	return b.present[node>>6].Load()&(uint64(1)<<(node&63)) != 0
}

func (b *reduceBuffer) len() int64 { return b.count.Load() }

// syncQueues double-buffers inboxes: messages sent during superstep t land in
// next and become readable only after the barrier, during t+1.
type syncQueues struct {
	newBuffer func() buffer
	current   buffer
	next      buffer
}

func newSyncQueues(nodeCount int64, r Reducer) *syncQueues {
	newBuffer := func() buffer { return newListBuffer(nodeCount) }
	if r != nil {
		newBuffer = func() buffer { return newReduceBuffer(nodeCount, r) }
	}
	return &syncQueues{newBuffer: newBuffer, current: newBuffer(), next: newBuffer()}
}

func (q *syncQueues) send(target int64, value float64) { q.next.add(target, value) }

func (q *syncQueues) take(node int64, scratch []float64) []float64 {
	return q.current.read(node, scratch)
}

func (q *syncQueues) has(node int64) bool { return q.current.has(node) }

// barrier promotes next to current and allocates a fresh next. The old
// current generation is dropped.
func (q *syncQueues) barrier() {
	q.current = q.next
	q.next = q.newBuffer()
}

func (q *syncQueues) pending() int64 { return q.current.len() }

// asyncQueues keeps a single generation. A node drains its inbox when it is
// visited, so a message may be consumed in the superstep it was sent in if
// the target is visited after the sender; otherwise it waits for the next
// superstep. Every message is still consumed exactly once.
type asyncQueues struct {
	reducer Reducer
	locks   [lockStripes]sync.Mutex
	lists   [][]float64
	slots   []float64
	present []bool
	count   atomic.Int64
}

func newAsyncQueues(nodeCount int64, r Reducer) *asyncQueues {
	q := &asyncQueues{reducer: r}
	if r != nil {
		q.slots = make([]float64, nodeCount)
		q.present = make([]bool, nodeCount)
	} else {
		q.lists = make([][]float64, nodeCount)
	}
	return q
}

func (q *asyncQueues) send(target int64, value float64) {
	mu := &q.locks[target&(lockStripes-1)]
	mu.Lock()
	defer mu.Unlock()
	if q.reducer == nil {
		q.lists[target] = append(q.lists[target], value)
		q.count.Add(1)
		return
	}
	if !q.present[target] {
		q.present[target] = true
		q.slots[target] = q.reducer.Reduce(q.reducer.Identity(), value)
		q.count.Add(1)
		return
	}
	q.slots[target] = q.reducer.Reduce(q.slots[target], value)
}

func (q *asyncQueues) take(node int64, scratch []float64) []float64 {
	mu := &q.locks[node&(lockStripes-1)]
	mu.Lock()
	defer mu.Unlock()
	if q.reducer == nil {
		values := q.lists[node]
		q.lists[node] = nil
		q.count.Add(-int64(len(values)))
		return values
	}
	if !q.present[node] {
		return nil
	}
	q.present[node] = false
	q.count.Add(-1)
	scratch[0] = q.slots[node]
	return scratch[:1]
}

func (q *asyncQueues) has(node int64) bool {
	mu := &q.locks[node&(lockStripes-1)]
	mu.Lock()
	defer mu.Unlock()
	if q.reducer == nil {
		return len(q.lists[node]) > 0
	}
	return q.present[node]
}

func (q *asyncQueues) barrier() {}

func (q *asyncQueues) pending() int64 { return q.count.Load() }
