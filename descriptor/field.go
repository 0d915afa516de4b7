package descriptor

import "regexp"

// Field is one member of a record.
type Field struct {
	Type    *Type
	Default *Default
	// Pattern restricts the keys taken by a FieldPattern field.
	Pattern *regexp.Regexp
	// Serialization overrides the registered serialization conversions.
	Serialization *Conversion
	Skip          Skip

	// Name identifies the field in memory: the map key of untyped records
	// and the name used by DependentRequired and validator dependencies.
	Name string
	// Alias is the property name in the tree value; Name when empty.
	Alias string

	// GoIndex locates the struct field when the record has a struct GoType.
	GoIndex []int
	// Deserialization overrides the registered deserialization conversions.
	Deserialization []*Conversion
	Validators      []Validator

	Kind              FieldKind
	Required          bool
	FallBackOnDefault bool
}

// Property returns the tree property name of the field.
func (f *Field) Property() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Serialized is a computed property of a record, added to its tree value
// on serialization only.
type Serialized struct {
	// Type describes the value returned by Get.
	Type *Type
	// Get computes the property from the in-memory record: a struct value
	// or map[string]any.
	Get func(record any) (any, error)
	// Serialization overrides the registered serialization conversions.
	Serialization *Conversion

	Name  string
	Alias string
}

// Property returns the tree property name of the computed property.
func (s *Serialized) Property() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// HasDefault reports whether the field can be filled when absent.
func (f *Field) HasDefault() bool {
	return f.Default != nil
}

// Default supplies the value of an absent field.
type Default struct {
	Value   any
	Factory func() any
}

// Get returns the default value, calling Factory when set.
func (d *Default) Get() any {
	if d.Factory != nil {
		return d.Factory()
	}
	return d.Value
}

// DefaultValue is a Default holding v.
func DefaultValue(v any) *Default {
	return &Default{Value: v}
}

// DefaultFactory is a Default computed by fn on each use.
func DefaultFactory(fn func() any) *Default {
	return &Default{Factory: fn}
}

// Skip controls when a field is omitted on serialization.
type Skip struct {
	If      func(v any) bool
	None    bool
	Default bool
}
