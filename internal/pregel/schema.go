package pregel

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ValueType is the type of a node property.
type ValueType int

const (
	// Double is a scalar float64 property.
	Double ValueType = iota + 1
	// Long is a scalar int64 property.
	Long
	// LongArray is an []int64 property.
	LongArray
	// DoubleArray is a []float64 property.
	DoubleArray
)

// String returns the lowercase name of the value type.
func (t ValueType) String() string {
	switch t {
	case Double:
		return "double"
	case Long:
		return "long"
	case LongArray:
		return "long_array"
	case DoubleArray:
		return "double_array"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

func (t ValueType) valid() bool {
	return t >= Double && t <= DoubleArray
}

// Visibility controls whether a property is part of the computation result.
type Visibility int

const (
	// Public properties are readable from the Result after the run.
	Public Visibility = iota
	// Private properties are working state, discarded with the run.
	Private
)

// Element describes one declared node property.
type Element struct {
	Key        string
	Type       ValueType
	Visibility Visibility

	// Default is the initial value for every node. Nil means the zero value
	// of Type. Must match Type: float64, int64, []int64 or []float64.
	Default any
}

// Schema is the immutable set of node properties a computation declares.
// Elements keep declaration order.
type Schema struct {
	elements []Element
	index    map[string]int
}

// Elements returns a copy of the declared elements in declaration order.
func (s *Schema) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Lookup returns the element declared under key.
func (s *Schema) Lookup(key string) (Element, bool) {
	i, ok := s.position(key)
	if !ok {
		return Element{}, false
	}
	return s.elements[i], true
}

// position resolves key without normalizing in the common case where the
// caller already passes the normalized form.
func (s *Schema) position(key string) (int, bool) {
	if i, ok := s.index[key]; ok {
		return i, true
	}
	i, ok := s.index[normalizeKey(key)]
	return i, ok
}

// Len returns the number of declared properties.
func (s *Schema) Len() int {
	return len(s.elements)
}

// SchemaBuilder accumulates elements and validates them in Build.
//
// Errors are deferred to Build so a schema can be declared as a single chain:
//
//	schema, err := pregel.NewSchemaBuilder().
//	    Add("rank", pregel.Double, pregel.Public).
//	    Add("inNeighbors", pregel.LongArray, pregel.Private).
//	    Build()
type SchemaBuilder struct {
	elements []Element
}

// NewSchemaBuilder creates an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

// Add declares a property initialized to the zero value of its type.
func (b *SchemaBuilder) Add(key string, t ValueType, v Visibility) *SchemaBuilder {
	b.elements = append(b.elements, Element{Key: key, Type: t, Visibility: v})
	return b
}

// AddWithDefault declares a property initialized to def on every node.
func (b *SchemaBuilder) AddWithDefault(key string, t ValueType, v Visibility, def any) *SchemaBuilder {
	b.elements = append(b.elements, Element{Key: key, Type: t, Visibility: v, Default: def})
	return b
}

// Build validates the declared elements and returns the schema.
//
// Keys are NFC-normalized so that visually identical keys collide.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := &Schema{
		elements: make([]Element, 0, len(b.elements)),
		index:    make(map[string]int, len(b.elements)),
	}
	for _, el := range b.elements {
		key := normalizeKey(el.Key)
		if key == "" {
			return nil, schemaError(el.Key, "property key must not be empty")
		}
		if _, dup := s.index[key]; dup {
			return nil, schemaError(key, "duplicate property key")
		}
		if !el.Type.valid() {
			return nil, schemaError(key, "unknown value type %s", el.Type)
		}
		if el.Visibility != Public && el.Visibility != Private {
			return nil, schemaError(key, "unknown visibility %d", int(el.Visibility))
		}
		if el.Default != nil && !defaultMatches(el.Type, el.Default) {
			return nil, schemaError(key, "default %T does not match %s", el.Default, el.Type)
		}
		el.Key = key
		s.index[key] = len(s.elements)
		s.elements = append(s.elements, el)
	}
	return s, nil
}

func defaultMatches(t ValueType, def any) bool {
	switch def.(type) {
	case float64:
		return t == Double
	case int64:
		return t == Long
	case []int64:
		return t == LongArray
	case []float64:
		return t == DoubleArray
	default:
		return false
	}
}

func normalizeKey(key string) string {
	return norm.NFC.String(key)
}
