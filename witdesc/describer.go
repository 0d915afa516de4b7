package witdesc

import (
	"maps"
	"math"
	"reflect"
	"strconv"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typecodec/codec"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// Describer maps WIT types to descriptors. Results are cached per WIT type
// and Go type, so describing the same type twice returns the same
// descriptor.
type Describer struct {
	cache sync.Map // cacheKey -> *descriptor.Type
}

type cacheKey struct {
	wit    wit.Type
	goType reflect.Type
}

// New creates a Describer.
func New() *Describer {
	return &Describer{}
}

// Describe returns the descriptor of witType with untyped in-memory values.
func (d *Describer) Describe(witType wit.Type) (*descriptor.Type, error) {
	return d.Bind(witType, nil)
}

// Bind returns the descriptor of witType represented in memory by goType.
// Record fields are matched to struct fields by wit tag, or else by the
// kebab-case form of the Go field name.
func (d *Describer) Bind(witType wit.Type, goType reflect.Type) (*descriptor.Type, error) {
	if witType == nil {
		return nil, errors.New(errors.PhaseLoad, errors.KindNilPointer).
			Detail("WIT type cannot be nil").
			Build()
	}
	if goType != nil && goType.Kind() == reflect.Interface && goType.NumMethod() == 0 {
		goType = nil
	}

	key := cacheKey{wit: witType, goType: goType}
	if cached, ok := d.cache.Load(key); ok {
		return cached.(*descriptor.Type), nil
	}

	t, err := d.describe(witType, goType, nil)
	if err != nil {
		return nil, err
	}
	actual, _ := d.cache.LoadOrStore(key, t)
	return actual.(*descriptor.Type), nil
}

var (
	u8  = intRange(0, math.MaxUint8)
	s8  = intRange(math.MinInt8, math.MaxInt8)
	u16 = intRange(0, math.MaxUint16)
	s16 = intRange(math.MinInt16, math.MaxInt16)
	u32 = intRange(0, math.MaxUint32)
	s32 = intRange(math.MinInt32, math.MaxInt32)
	u64 = descriptor.Int.WithConstraints(&descriptor.Constraints{Minimum: descriptor.Ptr(0.0)})
	s64 = descriptor.Int

	char = descriptor.String.WithConstraints(&descriptor.Constraints{
		MinLength: descriptor.Ptr(1),
		MaxLength: descriptor.Ptr(1),
	})
)

func intRange(lo, hi float64) *descriptor.Type {
	return descriptor.Int.WithConstraints(&descriptor.Constraints{
		Minimum: descriptor.Ptr(lo),
		Maximum: descriptor.Ptr(hi),
	})
}

func (d *Describer) describe(witType wit.Type, goType reflect.Type, path []string) (*descriptor.Type, error) {
	switch t := witType.(type) {
	case wit.Bool:
		return primitive(descriptor.Bool, goType, path, "bool", reflect.Bool)
	case wit.U8:
		return primitive(u8, goType, path, "uint8", reflect.Uint8)
	case wit.S8:
		return primitive(s8, goType, path, "int8", reflect.Int8)
	case wit.U16:
		return primitive(u16, goType, path, "uint16", reflect.Uint16)
	case wit.S16:
		return primitive(s16, goType, path, "int16", reflect.Int16)
	case wit.U32:
		return primitive(u32, goType, path, "uint32", reflect.Uint32)
	case wit.S32:
		return primitive(s32, goType, path, "int32", reflect.Int32)
	case wit.U64:
		return primitive(u64, goType, path, "uint64", reflect.Uint64)
	case wit.S64:
		return primitive(s64, goType, path, "int64", reflect.Int64)
	case wit.F32:
		return primitive(descriptor.Float, goType, path, "float32", reflect.Float32)
	case wit.F64:
		return primitive(descriptor.Float, goType, path, "float64", reflect.Float64)
	case wit.Char:
		return primitive(char, goType, path, "string", reflect.String)
	case wit.String:
		return primitive(descriptor.String, goType, path, "string", reflect.String)
	case *wit.TypeDef:
		return d.describeTypeDef(t, goType, path)
	default:
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported WIT type: %T", witType).
			Build()
	}
}

func primitive(t *descriptor.Type, goType reflect.Type, path []string, expected string, kinds ...reflect.Kind) (*descriptor.Type, error) {
	if goType == nil {
		return t, nil
	}
	for _, k := range kinds {
		if goType.Kind() == k {
			return t.WithGoType(goType), nil
		}
	}
	return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), expected)
}

func (d *Describer) describeTypeDef(td *wit.TypeDef, goType reflect.Type, path []string) (*descriptor.Type, error) {
	var t *descriptor.Type
	var err error
	switch kind := td.Kind.(type) {
	case *wit.Record:
		t, err = d.describeRecord(kind, goType, path)
	case *wit.List:
		t, err = d.describeList(kind, goType, path)
	case *wit.Tuple:
		t, err = d.describeTuple(kind, goType, path)
	case *wit.Enum:
		t, err = describeEnum(kind, goType, path)
	case *wit.Flags:
		t, err = describeFlags(kind, goType, path)
	case *wit.Option:
		t, err = d.describeOption(kind, goType, path)
	case *wit.Result:
		t, err = d.describeResult(kind, goType, path)
	case *wit.Variant:
		t, err = d.describeVariant(kind, goType, path)
	case *wit.Own, *wit.Borrow:
		// handles are u32 indexes into the resource table
		t, err = primitive(u32, goType, path, "uint32", reflect.Uint32)
	case wit.Type:
		t, err = d.describe(kind, goType, path)
	default:
		return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
			Path(path...).
			Detail("unsupported TypeDef kind: %T", kind).
			Build()
	}
	if err != nil {
		return nil, err
	}
	if td.Name != nil {
		t = t.WithName(*td.Name)
	}
	return t, nil
}

func (d *Describer) describeRecord(r *wit.Record, goType reflect.Type, path []string) (*descriptor.Type, error) {
	if goType != nil && goType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "struct")
	}

	var byName map[string]reflect.StructField
	if goType != nil {
		byName = goFields(goType)
	}

	fields := make([]descriptor.Field, 0, len(r.Fields))
	for _, wf := range r.Fields {
		var fieldGo reflect.Type
		var index []int
		if goType != nil {
			sf, found := byName[wf.Name]
			if !found {
				return nil, errors.FieldMissing(errors.PhaseLoad, path, wf.Name)
			}
			fieldGo, index = sf.Type, sf.Index
		}

		ft, err := d.describe(wf.Type, fieldGo, at(path, wf.Name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, descriptor.Field{
			Name:     wf.Name,
			Type:     ft,
			Required: true,
			GoIndex:  index,
		})
	}

	t := descriptor.Record("", fields...)
	if goType != nil {
		t.GoType = goType
	}
	return t, nil
}

// goFields indexes the exported fields of a struct by the WIT name they
// bind to: the wit tag when present, otherwise the kebab-case Go name.
// Tagged fields win over derived names.
func goFields(goType reflect.Type) map[string]reflect.StructField {
	tagged := make(map[string]reflect.StructField)
	derived := make(map[string]reflect.StructField)
	for i := range goType.NumField() {
		sf := goType.Field(i)
		if !sf.IsExported() {
			continue
		}
		switch tag := sf.Tag.Get("wit"); tag {
		case "-":
		case "":
			name := codec.KebabCase(sf.Name)
			if _, dup := derived[name]; !dup {
				derived[name] = sf
			}
		default:
			tagged[tag] = sf
		}
	}
	maps.Copy(derived, tagged)
	return derived
}

func (d *Describer) describeList(l *wit.List, goType reflect.Type, path []string) (*descriptor.Type, error) {
	var elemGo reflect.Type
	if goType != nil {
		if goType.Kind() != reflect.Slice {
			return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "slice")
		}
		elemGo = goType.Elem()
	}
	elem, err := d.describe(l.Type, elemGo, at(path, "[elem]"))
	if err != nil {
		return nil, err
	}
	t := descriptor.Collection(elem)
	t.GoType = goType
	return t, nil
}

func (d *Describer) describeTuple(tp *wit.Tuple, goType reflect.Type, path []string) (*descriptor.Type, error) {
	if goType != nil {
		switch {
		case goType.Kind() == reflect.Struct && goType.NumField() == len(tp.Types):
		case goType.Kind() == reflect.Array && goType.Len() == len(tp.Types):
		default:
			return nil, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
				Path(path...).
				GoType(goType.String()).
				Detail("tuple has %d elements", len(tp.Types)).
				Build()
		}
	}

	elems := make([]*descriptor.Type, len(tp.Types))
	for i, wt := range tp.Types {
		var elemGo reflect.Type
		switch {
		case goType == nil:
		case goType.Kind() == reflect.Struct:
			elemGo = goType.Field(i).Type
		default:
			elemGo = goType.Elem()
		}
		elem, err := d.describe(wt, elemGo, at(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		elems[i] = elem
	}
	t := descriptor.Tuple(elems...)
	t.GoType = goType
	return t, nil
}

// describeEnum maps cases to their names, or to their index when goType is
// an integer type.
func describeEnum(e *wit.Enum, goType reflect.Type, path []string) (*descriptor.Type, error) {
	values := make([]descriptor.EnumValue, len(e.Cases))
	for i, c := range e.Cases {
		var goVal any = c.Name
		if goType != nil {
			switch goType.Kind() {
			case reflect.String:
				goVal = reflect.ValueOf(c.Name).Convert(goType).Interface()
			case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Int, reflect.Int32:
				goVal = reflect.ValueOf(i).Convert(goType).Interface()
			default:
				return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "string or integer")
			}
		}
		values[i] = descriptor.EnumValue{Tree: c.Name, Go: goVal}
	}
	t := descriptor.Enum("", values...)
	t.GoType = goType
	return t, nil
}

// describeFlags maps a flags value to the list of its set flag names.
func describeFlags(f *wit.Flags, goType reflect.Type, path []string) (*descriptor.Type, error) {
	if goType != nil && (goType.Kind() != reflect.Slice || goType.Elem().Kind() != reflect.String) {
		return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "[]string")
	}
	names := make([]any, len(f.Flags))
	for i, flag := range f.Flags {
		names[i] = flag.Name
	}
	elem := descriptor.Literal(names...)
	if goType != nil {
		elem = elem.WithGoType(goType.Elem())
	}
	t := descriptor.Collection(elem).WithConstraints(&descriptor.Constraints{UniqueItems: true})
	t.GoType = goType
	return t, nil
}

func (d *Describer) describeOption(o *wit.Option, goType reflect.Type, path []string) (*descriptor.Type, error) {
	var innerGo reflect.Type
	if goType != nil {
		if goType.Kind() != reflect.Ptr {
			return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "pointer")
		}
		innerGo = goType.Elem()
	}
	inner, err := d.describe(o.Type, innerGo, path)
	if err != nil {
		return nil, err
	}
	t := descriptor.Optional(inner)
	t.GoType = goType
	return t, nil
}

// describeResult maps result<T, E> to {"ok": T} or {"err": E}. Results are
// always untyped in memory.
func (d *Describer) describeResult(r *wit.Result, goType reflect.Type, path []string) (*descriptor.Type, error) {
	if goType != nil {
		return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "any")
	}
	ok, err := d.payload(r.OK, at(path, "ok"))
	if err != nil {
		return nil, err
	}
	fail, err := d.payload(r.Err, at(path, "err"))
	if err != nil {
		return nil, err
	}
	return descriptor.Union(
		descriptor.Record("ok", descriptor.Field{Name: "ok", Type: ok, Required: true}),
		descriptor.Record("err", descriptor.Field{Name: "err", Type: fail, Required: true}),
	), nil
}

// describeVariant maps each case to {"tag": name, "value": payload},
// discriminated by tag. Cases without a payload have no value property.
func (d *Describer) describeVariant(v *wit.Variant, goType reflect.Type, path []string) (*descriptor.Type, error) {
	if goType != nil {
		return nil, errors.TypeMismatch(errors.PhaseLoad, path, goType.String(), "any")
	}
	alts := make([]*descriptor.Type, len(v.Cases))
	mapping := make(map[string]int, len(v.Cases))
	for i, c := range v.Cases {
		fields := []descriptor.Field{{Name: "tag", Type: descriptor.Literal(c.Name), Required: true}}
		if c.Type != nil {
			payload, err := d.describe(c.Type, nil, at(path, c.Name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, descriptor.Field{Name: "value", Type: payload, Required: true})
		}
		alts[i] = descriptor.Record(c.Name, fields...)
		mapping[c.Name] = i
	}
	t := descriptor.Tagged("tag", alts...)
	t.Discriminator.Mapping = mapping
	return t, nil
}

func (d *Describer) payload(t wit.Type, path []string) (*descriptor.Type, error) {
	if t == nil {
		return descriptor.Null, nil
	}
	return d.describe(t, nil, path)
}

func at(path []string, seg string) []string {
	return append(path[:len(path):len(path)], seg)
}
