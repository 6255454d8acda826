package pregel

import (
	"fmt"
	"math"
	"sync/atomic"
)

// accumulators are named float64 sums shared by all workers of a superstep.
//
// Workers can only add. The master phase sees the total of the superstep that
// just finished; the running total is reset on entry to the master phase so
// no worker ever reads a partially accumulated value.
type accumulators struct {
	index    map[string]int
	values   []atomic.Uint64
	snapshot []float64
}

func newAccumulators(names []string) (*accumulators, error) {
	a := &accumulators{
		index:    make(map[string]int, len(names)),
		values:   make([]atomic.Uint64, len(names)),
		snapshot: make([]float64, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, configError("accumulator name must not be empty")
		}
		if _, dup := a.index[name]; dup {
			return nil, configError("duplicate accumulator %q", name)
		}
		a.index[name] = i
	}
	return a, nil
}

func (a *accumulators) add(name string, v float64) {
	i, ok := a.index[name]
	if !ok {
		panic(newError(ErrCodeUnknownProperty, fmt.Sprintf("accumulator %q not declared", name)))
	}
	slot := &a.values[i]
	for {
		old := slot.Load()
		next := math.Float64bits(math.Float64frombits(old) + v)
		if slot.CompareAndSwap(old, next) {
			return
		}
	}
}

// rotate publishes the running totals as the snapshot and resets them.
func (a *accumulators) rotate() {
	for i := range a.values {
		a.snapshot[i] = math.Float64frombits(a.values[i].Swap(0))
	}
}

func (a *accumulators) get(name string) float64 {
	i, ok := a.index[name]
	if !ok {
		panic(newError(ErrCodeUnknownProperty, fmt.Sprintf("accumulator %q not declared", name)))
	}
	return a.snapshot[i]
}
