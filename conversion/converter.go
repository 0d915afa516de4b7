package conversion

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/wippyai/typecodec/errors"
)

// ConverterFunc is the untyped converter signature held by compiled methods.
type ConverterFunc = func(any) (any, error)

// Func adapts a typed fallible function into a converter.
func Func[S, T any](fn func(S) (T, error)) ConverterFunc {
	return func(v any) (any, error) {
		s, ok := v.(S)
		if !ok {
			return nil, fmt.Errorf("expected %s, got %T", reflect.TypeFor[S](), v)
		}
		return fn(s)
	}
}

// Pure adapts a typed infallible function into a converter.
func Pure[S, T any](fn func(S) T) ConverterFunc {
	return Func(func(s S) (T, error) { return fn(s), nil })
}

// Converter is a reflected converter function.
type Converter struct {
	Source  reflect.Type
	Target  reflect.Type
	fn      reflect.Value
	Name    string
	HasBool bool
	HasErr  bool
}

var errorType = reflect.TypeFor[error]()

// ParseConverter inspects fn and wraps it as a converter.
//
// Supported signatures:
//   - func(src S) (dst T)
//   - func(src S) (dst T, ok bool)
//   - func(src S) (dst T, err error)
func ParseConverter(fn any) (*Converter, error) {
	if fn == nil {
		return nil, errors.InvalidConverter("nil", "converter cannot be nil")
	}
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, errors.InvalidConverter(fnType.String(), "converter is not a function")
	}
	if fnType.NumIn() != 1 || fnType.IsVariadic() {
		return nil, errors.InvalidConverter(fnType.String(), "converter must take exactly one argument")
	}

	c := &Converter{
		Source: fnType.In(0),
		fn:     fnVal,
		Name:   funcName(fnVal),
	}

	switch fnType.NumOut() {
	case 1:
	case 2:
		last := fnType.Out(1)
		switch {
		case last.Kind() == reflect.Bool:
			c.HasBool = true
		case last == errorType:
			c.HasErr = true
		default:
			return nil, errors.InvalidConverter(fnType.String(), "second result must be bool or error")
		}
	default:
		return nil, errors.InvalidConverter(fnType.String(), "converter must return one or two results")
	}
	c.Target = fnType.Out(0)
	return c, nil
}

func funcName(fn reflect.Value) string {
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Func returns the untyped converter. Arguments are converted to the source
// type when they belong to the same family of kinds.
func (c *Converter) Func() ConverterFunc {
	return func(v any) (any, error) {
		arg, err := c.argument(v)
		if err != nil {
			return nil, err
		}
		out := c.fn.Call([]reflect.Value{arg})
		switch {
		case c.HasErr:
			if e := out[1].Interface(); e != nil {
				return nil, e.(error)
			}
		case c.HasBool:
			if !out[1].Bool() {
				return nil, fmt.Errorf("cannot convert %v to %s", v, c.Target)
			}
		}
		return out[0].Interface(), nil
	}
}

func (c *Converter) argument(v any) (reflect.Value, error) {
	if v == nil {
		switch c.Source.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(c.Source), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot pass null as %s", c.Source)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(c.Source) {
		return rv, nil
	}
	if sameFamily(rv.Kind(), c.Source.Kind()) && rv.Type().ConvertibleTo(c.Source) {
		return rv.Convert(c.Source), nil
	}
	return reflect.Value{}, fmt.Errorf("expected %s, got %T", c.Source, v)
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	default:
		return 0
	}
}

func sameFamily(a, b reflect.Kind) bool {
	fa := family(a)
	return fa != 0 && fa == family(b)
}
