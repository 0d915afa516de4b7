package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// deserializer is the tree to value visitor: one handler per variant.
func (c *compiler) deserializer(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	switch t.Kind {
	case descriptor.KindPrimitive:
		return &primitiveDeserializer{prim: t.Primitive, goType: t.GoType, coercer: c.opts.coercer()}, nil
	case descriptor.KindAny:
		return &anyDeserializer{goType: t.GoType}, nil
	case descriptor.KindEnum, descriptor.KindLiteral:
		return c.deserializeLiteral(t, path)
	case descriptor.KindCollection:
		return c.deserializeCollection(t, convs, path)
	case descriptor.KindMapping:
		return c.deserializeMapping(t, convs, path)
	case descriptor.KindTuple:
		return c.deserializeTuple(t, convs, path)
	case descriptor.KindUnion:
		return c.deserializeUnion(t, convs, path)
	case descriptor.KindRecord:
		return c.deserializeRecord(t, path)
	default:
		return nil, errors.Unsupported(errors.PhaseCompile, path, fmt.Sprintf("cannot deserialize %s", t.Kind))
	}
}

func typeError(expected string, v any) *errors.ValidationError {
	return errors.Invalid(fmt.Sprintf("expected type %s, found %s", expected, classOf(v)))
}

func asValidation(err error) *errors.ValidationError {
	if verr, ok := errors.AsValidation(err); ok {
		return verr
	}
	return errors.Invalid(err.Error())
}

var primitiveExpected = [...]string{
	descriptor.PrimNull:   "null",
	descriptor.PrimBool:   "boolean",
	descriptor.PrimInt:    "integer",
	descriptor.PrimFloat:  "number",
	descriptor.PrimString: "string",
}

type primitiveDeserializer struct {
	goType  reflect.Type
	coercer Coercer
	prim    descriptor.Primitive
}

func (m *primitiveDeserializer) Kind() MethodKind { return MethodPrimitive }

func (m *primitiveDeserializer) convert(v any) (any, error) {
	out, ok := m.accept(v)
	if !ok && m.coercer != nil {
		if coerced, cok := m.coercer(m.prim, v); cok {
			out, ok = m.accept(coerced)
		}
	}
	if !ok {
		return nil, typeError(primitiveExpected[m.prim], v)
	}
	if m.goType == nil {
		return out, nil
	}
	rv, err := assign(m.goType, out)
	if err != nil {
		return nil, errors.Invalid(err.Error())
	}
	return rv.Interface(), nil
}

func (m *primitiveDeserializer) accept(v any) (any, bool) {
	switch m.prim {
	case descriptor.PrimNull:
		return nil, v == nil
	case descriptor.PrimBool:
		b, ok := v.(bool)
		return b, ok
	case descriptor.PrimInt:
		if classOf(v) != classNumber {
			return nil, false
		}
		n, ok := toInt64(v)
		if !ok {
			return nil, false
		}
		if m.goType == nil {
			return int(n), true
		}
		return n, true
	case descriptor.PrimFloat:
		if classOf(v) != classNumber {
			return nil, false
		}
		return toFloat64(v)
	case descriptor.PrimString:
		s, ok := v.(string)
		return s, ok
	}
	return nil, false
}

// passesThrough reports whether a method returns valid inputs unchanged.
func passesThrough(m Method) bool {
	switch mm := m.(type) {
	case identityMethod:
		return true
	case *anyDeserializer:
		return mm.goType == nil || mm.goType.Kind() == reflect.Interface
	case *primitiveDeserializer:
		return mm.goType == nil && mm.coercer == nil && mm.prim != descriptor.PrimInt && mm.prim != descriptor.PrimFloat
	}
	return false
}

type anyDeserializer struct {
	goType reflect.Type
}

func (m *anyDeserializer) Kind() MethodKind { return MethodAny }

func (m *anyDeserializer) convert(v any) (any, error) {
	if m.goType == nil || m.goType.Kind() == reflect.Interface {
		return v, nil
	}
	rv, err := assign(m.goType, v)
	if err != nil {
		return nil, errors.Invalid(err.Error())
	}
	return rv.Interface(), nil
}

type literalDeserializer struct {
	goType reflect.Type
	values []descriptor.EnumValue
}

func (c *compiler) deserializeLiteral(t *descriptor.Type, path []string) (Method, error) {
	if len(t.Values) == 0 {
		return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("%s has no values", t.Kind))
	}
	return &literalDeserializer{goType: t.GoType, values: t.Values}, nil
}

func (m *literalDeserializer) Kind() MethodKind { return MethodLiteral }

func (m *literalDeserializer) convert(v any) (any, error) {
	for _, val := range m.values {
		if !treeEqual(v, val.Tree) {
			continue
		}
		if m.goType == nil {
			return val.Go, nil
		}
		rv, err := assign(m.goType, val.Go)
		if err != nil {
			return nil, errors.Invalid(err.Error())
		}
		return rv.Interface(), nil
	}
	return nil, errors.Invalid("not one of " + formatValues(m.values))
}

func formatValues(values []descriptor.EnumValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if s, ok := v.Tree.(string); ok {
			parts[i] = strconv.Quote(s)
		} else {
			parts[i] = fmt.Sprint(v.Tree)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type collectionDeserializer struct {
	elem      Method
	goType    reflect.Type
	checkOnly bool
}

func (c *compiler) deserializeCollection(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	elem, err := c.compile(t.Elem, convs, childPath(path, "[elem]"))
	if err != nil {
		return nil, err
	}
	if t.GoType != nil && t.GoType.Kind() != reflect.Slice && t.GoType.Kind() != reflect.Array {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, t.GoType.String(), "slice or array")
	}
	return &collectionDeserializer{
		elem:      elem,
		goType:    t.GoType,
		checkOnly: c.opts.NoCopy && t.GoType == nil && passesThrough(elem),
	}, nil
}

func (m *collectionDeserializer) Kind() MethodKind { return MethodCollection }

func (m *collectionDeserializer) convert(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, typeError("array", v)
	}

	var out reflect.Value
	var plain []any
	switch {
	case m.checkOnly:
	case m.goType == nil:
		plain = make([]any, len(items))
	case m.goType.Kind() == reflect.Array:
		if len(items) != m.goType.Len() {
			return nil, errors.Invalid(fmt.Sprintf("expected %d items, found %d", m.goType.Len(), len(items)))
		}
		out = reflect.New(m.goType).Elem()
	default:
		out = reflect.MakeSlice(m.goType, len(items), len(items))
	}

	var verr *errors.ValidationError
	for i, item := range items {
		elem, err := m.elem.convert(item)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(strconv.Itoa(i), asValidation(err)))
			continue
		}
		switch {
		case m.checkOnly:
		case plain != nil:
			plain[i] = elem
		default:
			rv, err := assign(m.goType.Elem(), elem)
			if err != nil {
				verr = errors.Merge(verr, errors.Nested(strconv.Itoa(i), errors.Invalid(err.Error())))
				continue
			}
			out.Index(i).Set(rv)
		}
	}
	if verr != nil {
		return nil, verr
	}

	switch {
	case m.checkOnly:
		return v, nil
	case plain != nil:
		return plain, nil
	default:
		return out.Interface(), nil
	}
}

type mappingDeserializer struct {
	key       Method
	elem      Method
	goType    reflect.Type
	checkOnly bool
}

func (c *compiler) deserializeMapping(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	key, err := c.keys().compile(mappingKey(t), convs, childPath(path, "[key]"))
	if err != nil {
		return nil, err
	}
	elem, err := c.compile(t.Elem, convs, childPath(path, "[value]"))
	if err != nil {
		return nil, err
	}
	if t.GoType != nil && t.GoType.Kind() != reflect.Map {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, t.GoType.String(), "map")
	}
	return &mappingDeserializer{
		key:       key,
		elem:      elem,
		goType:    t.GoType,
		checkOnly: c.opts.NoCopy && t.GoType == nil && passesThrough(elem) && mappingKey(t).Primitive == descriptor.PrimString,
	}, nil
}

func (m *mappingDeserializer) Kind() MethodKind { return MethodMapping }

func (m *mappingDeserializer) convert(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("object", v)
	}

	var out reflect.Value
	var plain map[string]any
	switch {
	case m.checkOnly:
	case m.goType == nil:
		plain = make(map[string]any, len(obj))
	default:
		out = reflect.MakeMapWithSize(m.goType, len(obj))
	}

	var verr *errors.ValidationError
	for k, item := range obj {
		key, err := m.key.convert(k)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(k, asValidation(err)))
			continue
		}
		elem, err := m.elem.convert(item)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(k, asValidation(err)))
			continue
		}
		switch {
		case m.checkOnly:
		case plain != nil:
			plain[k] = elem
		default:
			kv, err := assign(m.goType.Key(), key)
			if err != nil {
				verr = errors.Merge(verr, errors.Nested(k, errors.Invalid(err.Error())))
				continue
			}
			ev, err := assign(m.goType.Elem(), elem)
			if err != nil {
				verr = errors.Merge(verr, errors.Nested(k, errors.Invalid(err.Error())))
				continue
			}
			out.SetMapIndex(kv, ev)
		}
	}
	if verr != nil {
		return nil, verr
	}

	switch {
	case m.checkOnly:
		return v, nil
	case plain != nil:
		return plain, nil
	default:
		return out.Interface(), nil
	}
}

type tupleDeserializer struct {
	goType reflect.Type
	elems  []Method
}

func (c *compiler) deserializeTuple(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	elems, err := c.compileAll(t.Elems, convs, path)
	if err != nil {
		return nil, err
	}
	if err := checkTupleGoType(t, path); err != nil {
		return nil, err
	}
	return &tupleDeserializer{goType: t.GoType, elems: elems}, nil
}

func (c *compiler) compileAll(ts []*descriptor.Type, convs []*descriptor.Conversion, path []string) ([]Method, error) {
	out := make([]Method, len(ts))
	for i, e := range ts {
		m, err := c.compile(e, convs, childPath(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func checkTupleGoType(t *descriptor.Type, path []string) error {
	if t.GoType == nil {
		return nil
	}
	switch t.GoType.Kind() {
	case reflect.Slice:
		return nil
	case reflect.Array:
		if t.GoType.Len() == len(t.Elems) {
			return nil
		}
	case reflect.Struct:
		if t.GoType.NumField() == len(t.Elems) {
			return nil
		}
	}
	return errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
		Path(path...).
		GoType(t.GoType.String()).
		Detail("tuple has %d elements", len(t.Elems)).
		Build()
}

func (m *tupleDeserializer) Kind() MethodKind { return MethodTuple }

func (m *tupleDeserializer) convert(v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, typeError("array", v)
	}
	if len(items) != len(m.elems) {
		return nil, errors.Invalid(fmt.Sprintf("expected %d items, found %d", len(m.elems), len(items)))
	}

	values := make([]any, len(items))
	var verr *errors.ValidationError
	for i, item := range items {
		out, err := m.elems[i].convert(item)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(strconv.Itoa(i), asValidation(err)))
			continue
		}
		values[i] = out
	}
	if verr != nil {
		return nil, verr
	}
	if m.goType == nil {
		return values, nil
	}

	var out reflect.Value
	switch m.goType.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(m.goType, len(values), len(values))
	default:
		out = reflect.New(m.goType).Elem()
	}
	for i, val := range values {
		var slot reflect.Value
		if m.goType.Kind() == reflect.Struct {
			slot = out.Field(i)
		} else {
			slot = out.Index(i)
		}
		rv, err := assign(slot.Type(), val)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(strconv.Itoa(i), errors.Invalid(err.Error())))
			continue
		}
		slot.Set(rv)
	}
	if verr != nil {
		return nil, verr
	}
	return out.Interface(), nil
}

// conversionMethod applies a converter before (serialization) or after
// (deserialization) its inner method.
type conversionMethod struct {
	inner     Method
	fn        func(any) (any, error)
	goType    reflect.Type
	name      string
	serialize bool
}

func (m *conversionMethod) Kind() MethodKind { return MethodConversion }

func (m *conversionMethod) convert(v any) (any, error) {
	if m.serialize {
		mid, err := m.fn(v)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidInput, err, "conversion "+m.name)
		}
		return m.inner.convert(mid)
	}

	mid, err := m.inner.convert(v)
	if err != nil {
		return nil, err
	}
	out, err := m.fn(mid)
	if err != nil {
		return nil, asValidation(err)
	}
	if m.goType == nil {
		return out, nil
	}
	rv, err := assign(m.goType, out)
	if err != nil {
		return nil, errors.Invalid(err.Error())
	}
	return rv.Interface(), nil
}
