package typecodec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/wippyai/typecodec/codec"
	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/reflectdesc"
	"github.com/wippyai/typecodec/stdconv"
	"github.com/wippyai/typecodec/tree"
)

var (
	defaultOnce      sync.Once
	defaultContext   *codec.Context
	defaultDescriber *reflectdesc.Describer
)

func initDefaults() {
	reg := conversion.NewRegistry()
	if err := stdconv.Register(reg); err != nil {
		panic(fmt.Sprintf("typecodec: %v", err))
	}
	defaultContext = codec.NewContext(reg)
	defaultDescriber = reflectdesc.New()
	stdconv.Define(defaultDescriber)
}

// Default returns the process-wide compilation context. Its registry holds
// the standard conversions; conversions registered on it later are seen by
// every helper of this package.
func Default() *codec.Context {
	defaultOnce.Do(initDefaults)
	return defaultContext
}

// Describer returns the process-wide reflection describer used by the
// generic helpers.
func Describer() *reflectdesc.Describer {
	defaultOnce.Do(initDefaults)
	return defaultDescriber
}

// Register adds a conversion function from A to B to the default registry.
// fn has the shape func(A) B or func(A) (B, error). For Deserialization, A
// is the tree side; for Serialization, B is.
func Register[A, B any](dir descriptor.Direction, fn any) error {
	d := Describer()
	source, err := d.Describe(reflect.TypeFor[A]())
	if err != nil {
		return err
	}
	target, err := d.Describe(reflect.TypeFor[B]())
	if err != nil {
		return err
	}
	return Default().Registry().RegisterFunc(dir, source, target, fn)
}

// Deserialize converts tree value v into a T.
func Deserialize[T any](v any, opts codec.Options) (T, error) {
	var zero T
	t, err := reflectdesc.Of[T](Describer())
	if err != nil {
		return zero, err
	}
	exec, err := Default().CompileDeserializer(t, opts)
	if err != nil {
		return zero, err
	}
	out, err := exec.Convert(v)
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Serialize converts v into a tree value.
func Serialize[T any](v T, opts codec.Options) (any, error) {
	t, err := reflectdesc.Of[T](Describer())
	if err != nil {
		return nil, err
	}
	exec, err := Default().CompileSerializer(t, opts)
	if err != nil {
		return nil, err
	}
	return exec.Convert(v)
}

// Unmarshal parses JSON data and deserializes it into a T.
func Unmarshal[T any](data []byte, opts codec.Options) (T, error) {
	v, err := tree.ParseJSON(data)
	if err != nil {
		var zero T
		return zero, err
	}
	return Deserialize[T](v, opts)
}

// Marshal serializes v and renders it as compact JSON.
func Marshal[T any](v T, opts codec.Options) ([]byte, error) {
	out, err := Serialize(v, opts)
	if err != nil {
		return nil, err
	}
	return tree.RenderJSON(out, tree.RenderOptions{})
}
