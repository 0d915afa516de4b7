package codec

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// class is the shape of a tree value used for union dispatch.
type class uint8

const (
	classNull class = 1 << iota
	classBool
	classNumber
	classString
	classArray
	classObject

	classPrimitives = classNull | classBool | classNumber | classString
	classAll        = classPrimitives | classArray | classObject
)

var classNames = map[class]string{
	classNull:   "null",
	classBool:   "boolean",
	classNumber: "number",
	classString: "string",
	classArray:  "array",
	classObject: "object",
}

func (c class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	var names []string
	for bit := classNull; bit <= classObject; bit <<= 1 {
		if c&bit != 0 {
			names = append(names, classNames[bit])
		}
	}
	return fmt.Sprint(names)
}

func classOf(v any) class {
	switch v.(type) {
	case nil:
		return classNull
	case bool:
		return classBool
	case string:
		return classString
	case []any:
		return classArray
	case map[string]any:
		return classObject
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return classNumber
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return classNull
		}
		return classOf(rv.Elem().Interface())
	case reflect.Bool:
		return classBool
	case reflect.String:
		return classString
	case reflect.Slice, reflect.Array:
		return classArray
	case reflect.Map, reflect.Struct:
		return classObject
	}
	if isNumberKind(rv.Kind()) {
		return classNumber
	}
	return 0
}

func isNumberKind(k reflect.Kind) bool {
	return isIntKind(k) || isUintKind(k) || k == reflect.Float32 || k == reflect.Float64
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

// toInt64 accepts any integer kind and integral floats.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// 1<<63 is exactly representable; MaxInt64 rounds up to it
		if n == math.Trunc(n) && n >= -(1<<63) && n < 1<<63 {
			return int64(n), true
		}
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case isIntKind(rv.Kind()):
		return rv.Int(), true
	case isUintKind(rv.Kind()):
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		return toInt64(rv.Float())
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case isIntKind(rv.Kind()):
		return float64(rv.Int()), true
	case isUintKind(rv.Kind()):
		return float64(rv.Uint()), true
	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// deref follows pointers and interfaces; nil pointers yield nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// assign converts v into a value of goType. Pointers are allocated when v
// fits the pointed-to type; nil yields the zero value.
func assign(goType reflect.Type, v any) (reflect.Value, error) {
	if goType == nil {
		return reflect.ValueOf(v), nil
	}
	if v == nil {
		return reflect.Zero(goType), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(goType) {
		return rv, nil
	}
	if goType.Kind() == reflect.Ptr {
		elem, err := assign(goType.Elem(), v)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(goType.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return assign(goType, rv.Elem().Interface())
	}
	if sameFamily(rv.Kind(), goType.Kind()) && rv.Type().ConvertibleTo(goType) {
		out := rv.Convert(goType)
		if overflows(out, rv) {
			return reflect.Value{}, fmt.Errorf("value %v overflows %s", v, goType)
		}
		return out, nil
	}
	if rv.Kind() == goType.Kind() && rv.Type().ConvertibleTo(goType) {
		return rv.Convert(goType), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, goType)
}

func overflows(out, in reflect.Value) bool {
	switch {
	case isIntKind(out.Kind()):
		n, ok := toInt64(in.Interface())
		return !ok || out.OverflowInt(n)
	case isUintKind(out.Kind()):
		n, ok := toInt64(in.Interface())
		if !ok {
			u, isUint := in.Interface().(uint64)
			return !isUint || out.OverflowUint(u)
		}
		return n < 0 || out.OverflowUint(uint64(n))
	case out.Kind() == reflect.Float32:
		f, _ := toFloat64(in.Interface())
		return out.OverflowFloat(f)
	}
	return false
}

func family(k reflect.Kind) int {
	switch {
	case isNumberKind(k):
		return 1
	case k == reflect.String:
		return 2
	case k == reflect.Bool:
		return 3
	}
	return 0
}

func sameFamily(a, b reflect.Kind) bool {
	fa := family(a)
	return fa != 0 && fa == family(b)
}

// treeEqual compares tree values, treating numbers by value.
func treeEqual(a, b any) bool {
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		return ok && fa == fb && classOf(a) == classOf(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Comparable() && rb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toTree converts an arbitrary Go value into an untyped tree value.
// Exported struct fields are keyed by their Go name.
func toTree(v any) any {
	return toTreeValue(reflect.ValueOf(v), 0)
}

func toTreeValue(rv reflect.Value, depth int) any {
	if !rv.IsValid() || depth > DefaultMaxDepth {
		return nil
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return toTreeValue(rv.Elem(), depth+1)
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = toTreeValue(rv.Index(i), depth+1)
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = toTreeValue(iter.Value(), depth+1)
		}
		return out
	case reflect.Struct:
		t := rv.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.IsExported() {
				out[f.Name] = toTreeValue(rv.Field(i), depth+1)
			}
		}
		return out
	}
	if isIntKind(rv.Kind()) {
		return rv.Int()
	}
	if isUintKind(rv.Kind()) {
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return u
	}
	return nil
}
