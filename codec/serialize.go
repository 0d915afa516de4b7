package codec

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// serializer is the value to tree visitor: one handler per variant.
func (c *compiler) serializer(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	switch t.Kind {
	case descriptor.KindPrimitive:
		return &primitiveSerializer{prim: t.Primitive, fallbackToAny: c.opts.FallbackToAny}, nil
	case descriptor.KindAny:
		return anySerializer{}, nil
	case descriptor.KindEnum, descriptor.KindLiteral:
		if len(t.Values) == 0 {
			return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("%s has no values", t.Kind))
		}
		return &literalSerializer{values: t.Values, name: t.String(), fallbackToAny: c.opts.FallbackToAny}, nil
	case descriptor.KindCollection:
		elem, err := c.compile(t.Elem, convs, childPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &collectionSerializer{elem: elem, fallbackToAny: c.opts.FallbackToAny}, nil
	case descriptor.KindMapping:
		key, err := c.compile(mappingKey(t), convs, childPath(path, "[key]"))
		if err != nil {
			return nil, err
		}
		elem, err := c.compile(t.Elem, convs, childPath(path, "[value]"))
		if err != nil {
			return nil, err
		}
		return &mappingSerializer{key: key, elem: elem, fallbackToAny: c.opts.FallbackToAny}, nil
	case descriptor.KindTuple:
		elems, err := c.compileAll(t.Elems, convs, path)
		if err != nil {
			return nil, err
		}
		return &tupleSerializer{elems: elems, fallbackToAny: c.opts.FallbackToAny}, nil
	case descriptor.KindUnion:
		return c.serializeUnion(t, convs, path)
	case descriptor.KindRecord:
		return c.serializeRecord(t, path)
	default:
		return nil, errors.Unsupported(errors.PhaseCompile, path, fmt.Sprintf("cannot serialize %s", t.Kind))
	}
}

// mismatch reports a value that does not fit the descriptor, or falls back
// to its untyped tree form.
func mismatch(fallbackToAny bool, v any, expected string) (any, error) {
	if fallbackToAny {
		return toTree(v), nil
	}
	return nil, errors.TypeMismatch(errors.PhaseSerialize, nil, fmt.Sprintf("%T", v), expected)
}

type primitiveSerializer struct {
	prim          descriptor.Primitive
	fallbackToAny bool
}

func (m *primitiveSerializer) Kind() MethodKind { return MethodPrimitive }

func (m *primitiveSerializer) convert(v any) (any, error) {
	if m.prim == descriptor.PrimNull {
		if isNil(v) {
			return nil, nil
		}
		return mismatch(m.fallbackToAny, v, "null")
	}

	rv := reflect.ValueOf(deref(v))
	if rv.IsValid() {
		switch k := rv.Kind(); {
		case m.prim == descriptor.PrimBool && k == reflect.Bool:
			return rv.Bool(), nil
		case m.prim == descriptor.PrimString && k == reflect.String:
			return rv.String(), nil
		case m.prim == descriptor.PrimInt && isIntKind(k):
			return rv.Int(), nil
		case m.prim == descriptor.PrimInt && isUintKind(k):
			if u := rv.Uint(); u > math.MaxInt64 {
				return u, nil
			}
			return int64(rv.Uint()), nil
		case m.prim == descriptor.PrimFloat && isNumberKind(k):
			f, _ := toFloat64(rv.Interface())
			return f, nil
		}
	}
	return mismatch(m.fallbackToAny, v, primitiveExpected[m.prim])
}

type anySerializer struct{}

func (anySerializer) Kind() MethodKind { return MethodAny }

func (anySerializer) convert(v any) (any, error) {
	return toTree(v), nil
}

type literalSerializer struct {
	name          string
	values        []descriptor.EnumValue
	fallbackToAny bool
}

func (m *literalSerializer) Kind() MethodKind { return MethodLiteral }

func (m *literalSerializer) convert(v any) (any, error) {
	for _, val := range m.values {
		if reflect.DeepEqual(v, val.Go) || treeEqual(deref(v), val.Go) {
			return val.Tree, nil
		}
	}
	if m.fallbackToAny {
		return toTree(v), nil
	}
	return nil, errors.InvalidEnum(errors.PhaseSerialize, nil, v, m.name)
}

type collectionSerializer struct {
	elem          Method
	fallbackToAny bool
}

func (m *collectionSerializer) Kind() MethodKind { return MethodCollection }

func (m *collectionSerializer) convert(v any) (any, error) {
	rv := reflect.ValueOf(deref(v))
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return mismatch(m.fallbackToAny, v, "slice or array")
	}
	out := make([]any, rv.Len())
	for i := range out {
		item, err := m.elem.convert(rv.Index(i).Interface())
		if err != nil {
			return nil, prefixPath(err, strconv.Itoa(i))
		}
		out[i] = item
	}
	return out, nil
}

type mappingSerializer struct {
	key           Method
	elem          Method
	fallbackToAny bool
}

func (m *mappingSerializer) Kind() MethodKind { return MethodMapping }

func (m *mappingSerializer) convert(v any) (any, error) {
	rv := reflect.ValueOf(deref(v))
	if !rv.IsValid() || rv.Kind() != reflect.Map {
		return mismatch(m.fallbackToAny, v, "map")
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.key.convert(iter.Key().Interface())
		if err != nil {
			return nil, prefixPath(err, fmt.Sprint(iter.Key().Interface()))
		}
		name := keyString(k)
		item, err := m.elem.convert(iter.Value().Interface())
		if err != nil {
			return nil, prefixPath(err, name)
		}
		out[name] = item
	}
	return out, nil
}

// keyString renders a serialized mapping key as an object property.
func keyString(k any) string {
	switch kk := k.(type) {
	case string:
		return kk
	case float64:
		return formatNumber(kk)
	case nil:
		return "null"
	}
	return fmt.Sprint(k)
}

type tupleSerializer struct {
	elems         []Method
	fallbackToAny bool
}

func (m *tupleSerializer) Kind() MethodKind { return MethodTuple }

func (m *tupleSerializer) convert(v any) (any, error) {
	rv := reflect.ValueOf(deref(v))
	var items []reflect.Value
	switch {
	case !rv.IsValid():
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i))
		}
	case rv.Kind() == reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			items = append(items, rv.Field(i))
		}
	}
	if len(items) != len(m.elems) {
		return mismatch(m.fallbackToAny, v, fmt.Sprintf("tuple of %d elements", len(m.elems)))
	}
	out := make([]any, len(items))
	for i, item := range items {
		if !item.CanInterface() {
			return mismatch(m.fallbackToAny, v, "tuple with exported fields")
		}
		tv, err := m.elems[i].convert(item.Interface())
		if err != nil {
			return nil, prefixPath(err, strconv.Itoa(i))
		}
		out[i] = tv
	}
	return out, nil
}

// unionSerializer tries alternatives in declaration order. Alternatives
// of a discriminated union get their tag added back when they do not
// produce it themselves.
type unionSerializer struct {
	name          string
	property      string
	tags          []string
	alternatives  []Method
	fallbackToAny bool
}

func (c *compiler) serializeUnion(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	if len(t.Alternatives) == 0 {
		return nil, errors.InvalidSchema(errors.PhaseCompile, path, "union has no alternatives")
	}
	strict := c.alternatives()

	m := &unionSerializer{name: t.String(), fallbackToAny: c.opts.FallbackToAny}
	for _, alt := range t.Alternatives {
		am, err := strict.compile(alt, convs, childPath(path, "["+alt.String()+"]"))
		if err != nil {
			return nil, err
		}
		m.alternatives = append(m.alternatives, am)
	}

	if d := t.Discriminator; d != nil {
		m.property = d.Property
		m.tags = make([]string, len(t.Alternatives))
		for i, alt := range t.Alternatives {
			tags := d.Tags(t, i)
			if len(tags) == 0 {
				return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("alternative %s has no tag", alt))
			}
			m.tags[i] = tags[0]
		}
	}
	return m, nil
}

func (m *unionSerializer) Kind() MethodKind { return MethodUnion }

func (m *unionSerializer) convert(v any) (any, error) {
	var errs []error
	for i, alt := range m.alternatives {
		out, err := alt.convert(v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if m.property != "" {
			if obj, ok := out.(map[string]any); ok {
				if _, has := obj[m.property]; !has {
					tagged := make(map[string]any, len(obj)+1)
					for k, val := range obj {
						tagged[k] = val
					}
					tagged[m.property] = m.tags[i]
					out = tagged
				}
			}
		}
		return out, nil
	}
	if m.fallbackToAny {
		return toTree(v), nil
	}
	return nil, errors.New(errors.PhaseSerialize, errors.KindTypeMismatch).
		GoType(fmt.Sprintf("%T", v)).
		Type(m.name).
		Detail("no alternative accepts the value").
		Cause(errors.Join(errs...)).
		Build()
}
