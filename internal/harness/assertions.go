package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/superstep/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// AssertionContext gives assertions access to the stored run.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result and returns
// one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSupersteps:
			err = assertSupersteps(result, assertion)
		case AssertConverged:
			err = assertConverged(result, assertion)
		case AssertNodeValue, AssertContains:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
			} else {
				err = assertNodeValue(actx, result.Run.ID, assertion)
			}
		case AssertSameValue:
			err = assertSameValue(result, assertion)
		case AssertPropertySum:
			err = assertPropertySum(result, assertion)
		case AssertMessagesConserved:
			err = assertMessagesConserved(result)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func assertSupersteps(result *Result, a Assertion) error {
	if result.Run.Supersteps != a.Count {
		return &AssertionError{
			Type:     AssertSupersteps,
			Expected: fmt.Sprintf("%d supersteps", a.Count),
			Actual:   fmt.Sprintf("%d supersteps", result.Run.Supersteps),
		}
	}
	return nil
}

func assertConverged(result *Result, a Assertion) error {
	want, _ := a.Value.(bool)
	if result.Run.Converged != want {
		return &AssertionError{
			Type:     AssertConverged,
			Expected: fmt.Sprintf("converged=%v", want),
			Actual:   fmt.Sprintf("converged=%v after %d supersteps", result.Run.Converged, result.Run.Supersteps),
		}
	}
	return nil
}

// assertNodeValue reads the value of a single node back from the store.
func assertNodeValue(actx *AssertionContext, runID string, a Assertion) error {
	values, err := actx.Store.NodeValues(actx.Ctx, runID, store.ValueQuery{
		Property:   a.Property,
		OriginalID: a.Node,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}
	if len(values) != 1 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("one %s value for node %d", a.Property, *a.Node),
			Actual:   fmt.Sprintf("%d values", len(values)),
		}
	}

	actual, err := decodeValue(values[0].Value)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Type, err)
	}

	var ok bool
	if a.Type == AssertContains {
		ok = containsValue(actual, a.Value, a.Delta)
	} else {
		ok = valuesEqual(actual, a.Value, a.Delta)
	}
	if !ok {
		verb := "="
		if a.Type == AssertContains {
			verb = "contains"
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s of node %d %s %v", a.Property, *a.Node, verb, a.Value),
			Actual:   string(values[0].Value),
		}
	}
	return nil
}

func assertSameValue(result *Result, a Assertion) error {
	byNode := make(map[int64]json.RawMessage)
	for _, v := range result.column(a.Property) {
		byNode[v.OriginalID] = v.Value
	}

	first, ok := byNode[a.Nodes[0]]
	if !ok {
		return &AssertionError{
			Type:     AssertSameValue,
			Expected: fmt.Sprintf("%s of node %d", a.Property, a.Nodes[0]),
			Actual:   "not stored",
		}
	}
	for _, node := range a.Nodes[1:] {
		v, ok := byNode[node]
		if !ok || !bytes.Equal(first, v) {
			return &AssertionError{
				Type:     AssertSameValue,
				Expected: fmt.Sprintf("%s of node %d = %s (as node %d)", a.Property, node, first, a.Nodes[0]),
				Actual:   string(v),
			}
		}
	}
	return nil
}

func assertPropertySum(result *Result, a Assertion) error {
	want, ok := toFloat(a.Value)
	if !ok {
		return fmt.Errorf("property_sum: value %v is not a number", a.Value)
	}

	var sum float64
	for _, v := range result.column(a.Property) {
		decoded, err := decodeValue(v.Value)
		if err != nil {
			return fmt.Errorf("property_sum: %w", err)
		}
		f, ok := toFloat(decoded)
		if !ok {
			return fmt.Errorf("property_sum: %s of node %d is not a number", a.Property, v.OriginalID)
		}
		sum += f
	}

	if math.Abs(sum-want) > a.Delta {
		return &AssertionError{
			Type:     AssertPropertySum,
			Expected: fmt.Sprintf("sum of %s = %v ± %v", a.Property, want, a.Delta),
			Actual:   fmt.Sprintf("%v", sum),
		}
	}
	return nil
}

// assertMessagesConserved checks that messages sent in superstep t are
// exactly the messages delivered in t+1, and that none are left when the
// run ends. Only meaningful for synchronous runs without a reducer.
func assertMessagesConserved(result *Result) error {
	stats := result.Run.Stats
	var carried int64
	for _, s := range stats {
		if s.Delivered != carried {
			return &AssertionError{
				Type:     AssertMessagesConserved,
				Expected: fmt.Sprintf("superstep %d delivers %d messages", s.Superstep, carried),
				Actual:   fmt.Sprintf("%d delivered", s.Delivered),
			}
		}
		carried = s.Sent
	}
	if len(stats) > 0 && stats[len(stats)-1].Pending != carried {
		last := stats[len(stats)-1]
		return &AssertionError{
			Type:     AssertMessagesConserved,
			Expected: fmt.Sprintf("%d messages pending after superstep %d", carried, last.Superstep),
			Actual:   fmt.Sprintf("%d pending", last.Pending),
		}
	}
	return nil
}

// decodeValue parses a stored value keeping numbers as json.Number.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode stored value %s: %w", raw, err)
	}
	return v, nil
}

// valuesEqual compares a decoded stored value against an expected YAML value.
// Numbers compare within delta, lists element-wise.
func valuesEqual(actual, expected any, delta float64) bool {
	if a, ok := toFloat(actual); ok {
		e, ok := toFloat(expected)
		return ok && math.Abs(a-e) <= delta
	}

	actualList, ok := actual.([]any)
	if !ok {
		return false
	}
	expectedList, ok := expected.([]any)
	if !ok || len(actualList) != len(expectedList) {
		return false
	}
	for i := range actualList {
		if !valuesEqual(actualList[i], expectedList[i], delta) {
			return false
		}
	}
	return true
}

func containsValue(actual, expected any, delta float64) bool {
	list, ok := actual.([]any)
	if !ok {
		return false
	}
	for _, v := range list {
		if valuesEqual(v, expected, delta) {
			return true
		}
	}
	return false
}

// toFloat converts the numeric types produced by yaml.v3 and encoding/json.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
