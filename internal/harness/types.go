package harness

import (
	"github.com/roach88/superstep/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Run is the stored run, as read back from the store.
	Run *store.Run `json:"run"`

	// Values are the stored node values, ordered by property then node.
	Values []store.NodeValue `json:"values"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Values: []store.NodeValue{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// column returns every stored value of property.
func (r *Result) column(property string) []store.NodeValue {
	var out []store.NodeValue
	for _, v := range r.Values {
		if v.Property == property {
			out = append(out, v)
		}
	}
	return out
}
