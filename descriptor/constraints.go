package descriptor

import "regexp"

// Constraints are declarative bounds checked after deserialization.
type Constraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
	MinLength        *int
	MaxLength        *int
	Pattern          *regexp.Regexp
	MinItems         *int
	MaxItems         *int
	MinProperties    *int
	MaxProperties    *int
	UniqueItems      bool
}

// Empty reports whether c declares no bound.
func (c *Constraints) Empty() bool {
	return c == nil || *c == Constraints{}
}

// Merge returns the bounds of c overridden by the bounds set in o.
func (c *Constraints) Merge(o *Constraints) *Constraints {
	if o.Empty() {
		return c
	}
	if c.Empty() {
		return o
	}
	m := *c
	set(&m.Minimum, o.Minimum)
	set(&m.Maximum, o.Maximum)
	set(&m.ExclusiveMinimum, o.ExclusiveMinimum)
	set(&m.ExclusiveMaximum, o.ExclusiveMaximum)
	set(&m.MultipleOf, o.MultipleOf)
	set(&m.MinLength, o.MinLength)
	set(&m.MaxLength, o.MaxLength)
	set(&m.Pattern, o.Pattern)
	set(&m.MinItems, o.MinItems)
	set(&m.MaxItems, o.MaxItems)
	set(&m.MinProperties, o.MinProperties)
	set(&m.MaxProperties, o.MaxProperties)
	m.UniqueItems = c.UniqueItems || o.UniqueItems
	return &m
}

func set[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Ptr returns a pointer to v, for populating Constraints literals.
func Ptr[T any](v T) *T {
	return &v
}

// Validator is a custom check run after constraints. Func returns nil when
// the value is valid; a returned *errors.ValidationError keeps its paths,
// any other error becomes a message at the validated node.
//
// Record validators receive the constructed record. When some fields failed,
// validators whose Dependencies all deserialized successfully still run,
// against a map[string]any of those fields keyed by field name.
type Validator struct {
	Func         func(v any) error
	Name         string
	Dependencies []string
}
