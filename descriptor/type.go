package descriptor

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Type is a structural description of a type. The variant is selected by
// Kind; only the fields relevant to that variant are set. Types are treated
// as immutable once handed to a compiler.
type Type struct {
	// GoType selects the in-memory representation. When nil, records are
	// map[string]any keyed by field name, collections and tuples are []any
	// and mappings are map[string]any.
	GoType reflect.Type

	Elem          *Type // collection items, mapping values
	Key           *Type // mapping keys; String when nil
	Origin        *Type // generic reference: the generic definition
	Discriminator *Discriminator
	Constraints   *Constraints

	DependentRequired map[string][]string

	Name string
	Var  string // type variable name

	Elems        []*Type // tuple elements
	Alternatives []*Type // union alternatives
	Args         []*Type // generic reference arguments
	Bound        []*Type // type variable: allowed instantiations
	Fields       []Field
	Serialized   []Serialized // record computed properties
	Values       []EnumValue
	Params       []string // generic definition parameters
	Validators   []Validator

	Kind      Kind
	Primitive Primitive
}

// EnumValue pairs the tree representation of an enum member with its
// in-memory value.
type EnumValue struct {
	Tree any
	Go   any
}

// Discriminator selects a union alternative from the value of Property.
// Mapping binds tag values to alternative indexes; alternatives without a
// mapping entry are tagged with their Name.
type Discriminator struct {
	Mapping  map[string]int
	Property string
}

// Tags returns the tag values that select alternative i, in sorted order.
func (d *Discriminator) Tags(union *Type, i int) []string {
	var tags []string
	for tag, idx := range d.Mapping {
		if idx == i {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 && i < len(union.Alternatives) && union.Alternatives[i].Name != "" {
		tags = append(tags, union.Alternatives[i].Name)
	}
	slices.Sort(tags)
	return tags
}

// Lookup returns the alternative index selected by tag.
func (d *Discriminator) Lookup(union *Type, tag string) (int, bool) {
	if idx, ok := d.Mapping[tag]; ok {
		return idx, true
	}
	for i, alt := range union.Alternatives {
		if alt.Name == tag && !d.mapped(i) {
			return i, true
		}
	}
	return 0, false
}

func (d *Discriminator) mapped(i int) bool {
	for _, idx := range d.Mapping {
		if idx == i {
			return true
		}
	}
	return false
}

// Shared primitive descriptors.
var (
	Null    = &Type{Kind: KindPrimitive, Primitive: PrimNull}
	Bool    = &Type{Kind: KindPrimitive, Primitive: PrimBool}
	Int     = &Type{Kind: KindPrimitive, Primitive: PrimInt}
	Float   = &Type{Kind: KindPrimitive, Primitive: PrimFloat}
	String  = &Type{Kind: KindPrimitive, Primitive: PrimString}
	AnyType = &Type{Kind: KindAny}
)

// Prim returns the shared descriptor of a primitive kind.
func Prim(p Primitive) *Type {
	switch p {
	case PrimBool:
		return Bool
	case PrimInt:
		return Int
	case PrimFloat:
		return Float
	case PrimString:
		return String
	default:
		return Null
	}
}

// Collection describes a homogeneous sequence.
func Collection(elem *Type) *Type {
	return &Type{Kind: KindCollection, Elem: elem}
}

// Mapping describes a string-keyed object with homogeneous values. A nil key
// defaults to String.
func Mapping(key, elem *Type) *Type {
	if key == nil {
		key = String
	}
	return &Type{Kind: KindMapping, Key: key, Elem: elem}
}

// Tuple describes a fixed-length heterogeneous sequence.
func Tuple(elems ...*Type) *Type {
	return &Type{Kind: KindTuple, Elems: elems}
}

// Record describes an object with an ordered field list.
func Record(name string, fields ...Field) *Type {
	return &Type{Kind: KindRecord, Name: name, Fields: fields}
}

// Union describes a value of one of the alternatives.
func Union(alternatives ...*Type) *Type {
	return &Type{Kind: KindUnion, Alternatives: alternatives}
}

// Optional is Union[t, Null].
func Optional(t *Type) *Type {
	return Union(t, Null)
}

// Tagged describes a discriminated union of records.
func Tagged(property string, alternatives ...*Type) *Type {
	return &Type{
		Kind:          KindUnion,
		Alternatives:  alternatives,
		Discriminator: &Discriminator{Property: property},
	}
}

// Enum describes a closed set of values.
func Enum(name string, values ...EnumValue) *Type {
	return &Type{Kind: KindEnum, Name: name, Values: values}
}

// Literal describes a closed set of tree values that are their own in-memory value.
func Literal(values ...any) *Type {
	t := &Type{Kind: KindLiteral, Values: make([]EnumValue, len(values))}
	for i, v := range values {
		t.Values[i] = EnumValue{Tree: v, Go: v}
	}
	return t
}

// Generic references the generic definition origin applied to args.
func Generic(origin *Type, args ...*Type) *Type {
	return &Type{Kind: KindGeneric, Origin: origin, Args: args}
}

// Var declares a type variable, optionally bounded to a set of types.
func Var(name string, bound ...*Type) *Type {
	return &Type{Kind: KindTypeVar, Var: name, Bound: bound}
}

// Define turns t into a generic definition over params.
func Define(t *Type, params ...string) *Type {
	t.Params = params
	return t
}

// Copy returns a shallow copy of t.
func (t *Type) Copy() *Type {
	c := *t
	return &c
}

// WithGoType returns a copy of t represented in memory by goType.
func (t *Type) WithGoType(goType reflect.Type) *Type {
	c := t.Copy()
	c.GoType = goType
	return c
}

// WithName returns a copy of t named name.
func (t *Type) WithName(name string) *Type {
	c := t.Copy()
	c.Name = name
	return c
}

// WithConstraints returns a copy of t whose constraints are merged with cs.
func (t *Type) WithConstraints(cs *Constraints) *Type {
	c := t.Copy()
	c.Constraints = t.Constraints.Merge(cs)
	return c
}

// WithValidators returns a copy of t with validators appended.
func (t *Type) WithValidators(vs ...Validator) *Type {
	c := t.Copy()
	c.Validators = append(slices.Clone(t.Validators), vs...)
	return c
}

// IsNull reports whether t is the null primitive.
func (t *Type) IsNull() bool {
	return t.Kind == KindPrimitive && t.Primitive == PrimNull
}

// IsGeneric reports whether t is a generic definition.
func (t *Type) IsGeneric() bool {
	return len(t.Params) > 0
}

// OptionalOf returns the non-null alternative of Union[T, Null].
func (t *Type) OptionalOf() (*Type, bool) {
	if t.Kind != KindUnion || len(t.Alternatives) != 2 {
		return nil, false
	}
	switch {
	case t.Alternatives[1].IsNull():
		return t.Alternatives[0], true
	case t.Alternatives[0].IsNull():
		return t.Alternatives[1], true
	}
	return nil, false
}

// Field returns the record field named name.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ID identifies t for caching and recursion detection. Generic references
// are identified structurally by origin and arguments; every other node by
// identity.
func (t *Type) ID() string {
	switch t.Kind {
	case KindGeneric:
		var b strings.Builder
		fmt.Fprintf(&b, "%p<", t.Origin)
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(a.ID())
		}
		b.WriteByte('>')
		if t.GoType != nil {
			b.WriteByte('@')
			b.WriteString(t.GoType.String())
		}
		return b.String()
	case KindTypeVar:
		return "$" + t.Var
	default:
		return fmt.Sprintf("%p", t)
	}
}

// Same reports whether a and b denote the same type. Primitives and Any are
// compared by representation; constraints and validators are ignored.
func Same(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind == KindPrimitive && b.Kind == KindPrimitive {
		return a.Primitive == b.Primitive && a.GoType == b.GoType
	}
	if a.Kind == KindAny && b.Kind == KindAny {
		return a.GoType == b.GoType
	}
	if a.Kind != b.Kind || a.Kind != KindGeneric {
		return false
	}
	return a.ID() == b.ID()
}

func (t *Type) String() string {
	return t.format(0)
}

func (t *Type) format(depth int) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name != "" {
		return t.Name
	}
	if depth > 4 {
		return "..."
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindCollection:
		return "list[" + t.Elem.format(depth+1) + "]"
	case KindMapping:
		return "map[" + t.Key.format(depth+1) + "]" + t.Elem.format(depth+1)
	case KindTuple:
		return "tuple[" + formatList(t.Elems, ", ", depth) + "]"
	case KindUnion:
		if inner, ok := t.OptionalOf(); ok {
			return "optional[" + inner.format(depth+1) + "]"
		}
		return formatList(t.Alternatives, " | ", depth)
	case KindLiteral, KindEnum:
		parts := make([]string, len(t.Values))
		for i, v := range t.Values {
			parts[i] = fmt.Sprintf("%#v", v.Tree)
		}
		return t.Kind.String() + "[" + strings.Join(parts, ", ") + "]"
	case KindGeneric:
		return t.Origin.format(depth+1) + "<" + formatList(t.Args, ", ", depth) + ">"
	case KindTypeVar:
		return t.Var
	case KindRecord:
		return "record"
	default:
		return t.Kind.String()
	}
}

func formatList(ts []*Type, sep string, depth int) string {
	parts := make([]string, len(ts))
	for i, e := range ts {
		parts[i] = e.format(depth + 1)
	}
	return strings.Join(parts, sep)
}
