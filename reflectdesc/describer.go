package reflectdesc

import (
	"reflect"
	"sync"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// Enumerator is implemented by Go types with a closed set of values.
type Enumerator interface {
	EnumValues() []descriptor.EnumValue
}

var enumeratorType = reflect.TypeFor[Enumerator]()

// Describer derives descriptors from Go types. Descriptions are cached per
// Go type so that recursive structs describe to recursive descriptors and
// repeated calls return the same pointers.
type Describer struct {
	types map[reflect.Type]*descriptor.Type
	mu    sync.Mutex
}

// New creates a Describer.
func New() *Describer {
	return &Describer{types: make(map[reflect.Type]*descriptor.Type)}
}

// Define binds rt to a fixed descriptor, overriding derivation.
func (d *Describer) Define(rt reflect.Type, t *descriptor.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.types[rt] = t
}

// Describe returns the descriptor of rt.
func (d *Describer) Describe(rt reflect.Type) (*descriptor.Type, error) {
	if rt == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "type cannot be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.describe(rt, nil)
}

// Of describes the Go type T.
func Of[T any](d *Describer) (*descriptor.Type, error) {
	return d.Describe(reflect.TypeFor[T]())
}

func (d *Describer) describe(rt reflect.Type, path []string) (*descriptor.Type, error) {
	if t, ok := d.types[rt]; ok {
		return t, nil
	}

	if rt.Implements(enumeratorType) {
		values := reflect.Zero(rt).Interface().(Enumerator).EnumValues()
		t := descriptor.Enum(typeName(rt), values...).WithGoType(rt)
		d.types[rt] = t
		return t, nil
	}

	var t *descriptor.Type
	switch rt.Kind() {
	case reflect.Bool:
		t = primitive(descriptor.Bool, rt)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		t = primitive(descriptor.Int, rt)
	case reflect.Float32, reflect.Float64:
		t = primitive(descriptor.Float, rt)
	case reflect.String:
		t = primitive(descriptor.String, rt)
	case reflect.Interface:
		if rt.NumMethod() > 0 {
			return nil, unsupported(rt, path)
		}
		t = descriptor.AnyType
	case reflect.Ptr:
		elem, err := d.describe(rt.Elem(), path)
		if err != nil {
			return nil, err
		}
		t = descriptor.Optional(elem).WithGoType(rt)
	case reflect.Slice, reflect.Array:
		t = descriptor.Collection(nil).WithGoType(rt)
		d.types[rt] = t
		elem, err := d.describe(rt.Elem(), at(path, "[elem]"))
		if err != nil {
			delete(d.types, rt)
			return nil, err
		}
		t.Elem = elem
		return t, nil
	case reflect.Map:
		key, err := d.describe(rt.Key(), at(path, "[key]"))
		if err != nil {
			return nil, err
		}
		if key.Kind != descriptor.KindPrimitive || key.Primitive == descriptor.PrimNull {
			return nil, unsupported(rt, path)
		}
		t = descriptor.Mapping(key, nil).WithGoType(rt)
		d.types[rt] = t
		elem, err := d.describe(rt.Elem(), at(path, "[value]"))
		if err != nil {
			delete(d.types, rt)
			return nil, err
		}
		t.Elem = elem
		return t, nil
	case reflect.Struct:
		return d.describeStruct(rt, path)
	default:
		return nil, unsupported(rt, path)
	}

	d.types[rt] = t
	return t, nil
}

// primitive keeps the shared descriptor for the default representation of
// each primitive and annotates every other Go type.
func primitive(base *descriptor.Type, rt reflect.Type) *descriptor.Type {
	switch {
	case base == descriptor.Bool && rt == reflect.TypeFor[bool](),
		base == descriptor.Int && rt == reflect.TypeFor[int](),
		base == descriptor.Float && rt == reflect.TypeFor[float64](),
		base == descriptor.String && rt == reflect.TypeFor[string]():
		return base
	}
	return base.WithGoType(rt)
}

func (d *Describer) describeStruct(rt reflect.Type, path []string) (*descriptor.Type, error) {
	t := descriptor.Record(typeName(rt)).WithGoType(rt)
	d.types[rt] = t

	fields, err := d.fieldsOf(rt, path)
	if err != nil {
		delete(d.types, rt)
		return nil, err
	}
	t.Fields = fields
	return t, nil
}

// fieldsOf describes the exported fields of a struct type in declaration
// order. Untagged embedded structs are flattened.
func (d *Describer) fieldsOf(rt reflect.Type, path []string) ([]descriptor.Field, error) {
	var fields []descriptor.Field
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidSchema).
				Path(at(path, sf.Name)...).
				GoType(rt.String()).
				Cause(err).
				Build()
		}
		if tag.skip {
			continue
		}

		fpath := at(path, sf.Name)
		ft, err := d.describe(sf.Type, fpath)
		if err != nil {
			return nil, err
		}

		cs, err := parseValidate(sf.Tag.Get("validate"))
		if err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidSchema).
				Path(fpath...).
				GoType(rt.String()).
				Cause(err).
				Build()
		}
		if !cs.Empty() {
			ft = constrain(ft, cs)
		}

		f := descriptor.Field{
			Name:     sf.Name,
			Alias:    tag.alias,
			Type:     ft,
			GoIndex:  sf.Index,
			Kind:     tag.kind,
			Required: tag.required,
			Pattern:  tag.pattern,
			Skip:     descriptor.Skip{None: tag.skipNone, Default: tag.skipDefault},
		}
		if sf.Anonymous && tag.alias == "" && tag.kind == descriptor.FieldNormal && sf.Type.Kind() == reflect.Struct {
			f.Kind = descriptor.FieldFlattened
		}
		if tag.omitEmpty {
			f.Skip.If = isZero
		}
		if raw, ok := sf.Tag.Lookup("default"); ok {
			v, err := parseDefault(raw, sf.Type)
			if err != nil {
				return nil, errors.New(errors.PhaseLoad, errors.KindInvalidSchema).
					Path(fpath...).
					GoType(sf.Type.String()).
					Detail("invalid default %q", raw).
					Cause(err).
					Build()
			}
			f.Default = descriptor.DefaultValue(v)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// constrain attaches constraints to the element type of optional fields,
// where the value being checked lives.
func constrain(t *descriptor.Type, cs *descriptor.Constraints) *descriptor.Type {
	if inner, ok := t.OptionalOf(); ok {
		out := t.Copy()
		out.Alternatives = []*descriptor.Type{inner.WithConstraints(cs), descriptor.Null}
		return out
	}
	return t.WithConstraints(cs)
}

func isZero(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || rv.IsZero()
}

func typeName(rt reflect.Type) string {
	if rt.Name() != "" {
		return rt.Name()
	}
	return rt.String()
}

func unsupported(rt reflect.Type, path []string) error {
	return errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Path(path...).
		GoType(rt.String()).
		Detail("cannot describe %s", rt.Kind()).
		Build()
}

func at(path []string, seg string) []string {
	return append(path[:len(path):len(path)], seg)
}
