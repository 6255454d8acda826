package algorithms

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
)

// Params are algorithm-specific parameters as decoded from a job file or
// scenario. Numbers may arrive as any Go numeric type.
type Params map[string]any

// Float returns the numeric parameter key, or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("parameter %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("parameter %q: expected a number, got %T", key, v)
	}
}

// Int returns the integer parameter key, or def when absent. Whole floats
// are accepted.
func (p Params) Int(key string, def int) (int, error) {
	if _, ok := p[key]; !ok {
		return def, nil
	}
	f, err := p.Float(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("parameter %q: expected an integer, got %v", key, f)
	}
	return int(f), nil
}

// only rejects keys outside allowed.
func (p Params) only(allowed ...string) error {
	var unknown []string
	for key := range p {
		if !slices.Contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("unknown parameters %v (allowed: %v)", unknown, allowed)
}
