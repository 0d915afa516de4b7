package codec

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

func deserialize(t *testing.T, ctx *Context, typ *descriptor.Type, opts Options, in any) (any, error) {
	t.Helper()
	exec, err := ctx.CompileDeserializer(typ, opts)
	require.NoError(t, err)
	return exec.Convert(in)
}

func serialize(t *testing.T, ctx *Context, typ *descriptor.Type, opts Options, in any) (any, error) {
	t.Helper()
	exec, err := ctx.CompileSerializer(typ, opts)
	require.NoError(t, err)
	return exec.Convert(in)
}

type point struct {
	X     int
	Y     float64
	Label string
}

func pointType() *descriptor.Type {
	return descriptor.Record("Point",
		descriptor.Field{Name: "x", Type: descriptor.Int, Required: true, GoIndex: []int{0}},
		descriptor.Field{Name: "y", Type: descriptor.Float, Required: true, GoIndex: []int{1}},
		descriptor.Field{Name: "label", Type: descriptor.String, Required: true, GoIndex: []int{2}},
	).WithGoType(reflect.TypeFor[point]())
}

func nodeType() *descriptor.Type {
	node := descriptor.Record("Node")
	node.Fields = []descriptor.Field{
		{Name: "value", Type: descriptor.Int, Required: true},
		{Name: "children", Type: descriptor.Collection(node), Required: true},
	}
	return node
}

func TestStructRecordRoundTrip(t *testing.T) {
	ctx := NewContext(nil)
	typ := pointType()

	out, err := deserialize(t, ctx, typ, Options{}, map[string]any{"x": 1.0, "y": 2.5, "label": "a"})
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Y: 2.5, Label: "a"}, out)

	tree, err := serialize(t, ctx, typ, Options{}, out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(1), "y": 2.5, "label": "a"}, tree)

	back, err := deserialize(t, ctx, typ, Options{}, tree)
	require.NoError(t, err)
	assert.Equal(t, out, back)
}

func TestCompileIsCached(t *testing.T) {
	ctx := NewContext(nil)
	typ := pointType()

	first, err := ctx.CompileDeserializer(typ, Options{})
	require.NoError(t, err)
	second, err := ctx.CompileDeserializer(typ, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.Method(), second.Method())

	other, err := ctx.CompileDeserializer(typ, Options{AdditionalProperties: true})
	require.NoError(t, err)
	assert.NotEqual(t, first.Method(), other.Method())
}

func TestRecursiveRecord(t *testing.T) {
	ctx := NewContext(nil)
	node := nodeType()

	cyclic, err := ctx.IsCyclic(descriptor.Deserialization, node, Options{})
	require.NoError(t, err)
	assert.True(t, cyclic)

	in := map[string]any{
		"value": 1.0,
		"children": []any{
			map[string]any{"value": 2.0, "children": []any{}},
		},
	}
	out, err := deserialize(t, ctx, node, Options{}, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"value": 1,
		"children": []any{
			map[string]any{"value": 2, "children": []any{}},
		},
	}, out)

	_, err = deserialize(t, ctx, node, Options{}, map[string]any{
		"value":    1.0,
		"children": []any{map[string]any{"value": "x", "children": []any{}}},
	})
	verr, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []errors.Entry{{Path: []string{"children", "0", "value"}, Messages: []string{"expected type integer, found string"}}}, verr.Flatten())
}

func TestAcyclicVerdict(t *testing.T) {
	ctx := NewContext(nil)
	cyclic, err := ctx.IsCyclic(descriptor.Deserialization, pointType(), Options{})
	require.NoError(t, err)
	assert.False(t, cyclic)
}

func TestUnionDispatchByClass(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Union(descriptor.Int, descriptor.String)

	out, err := deserialize(t, ctx, typ, Options{}, "5")
	require.NoError(t, err)
	assert.Equal(t, "5", out)

	out, err = deserialize(t, ctx, typ, Options{}, 5.0)
	require.NoError(t, err)
	assert.Equal(t, 5, out)

	_, err = deserialize(t, ctx, typ, Options{}, true)
	require.Error(t, err)
	assert.Equal(t, "expected type number or string, found boolean", err.Error())
}

func TestOrderedUnionFirstMatchWins(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Union(descriptor.Float, descriptor.Int)

	exec, err := ctx.CompileDeserializer(typ, Options{})
	require.NoError(t, err)
	assert.IsType(t, &orderedUnion{}, exec.Method())

	out, err := exec.Convert(3.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)
}

func TestConstraintErrorPath(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("R", descriptor.Field{
		Name:     "a",
		Type:     descriptor.Int.WithConstraints(&descriptor.Constraints{Minimum: descriptor.Ptr(0.0)}),
		Required: true,
	})

	_, err := deserialize(t, ctx, typ, Options{}, map[string]any{"a": -1.0})
	verr, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []errors.Entry{{Path: []string{"a"}, Messages: []string{"less than 0 (minimum)"}}}, verr.Flatten())
	assert.Equal(t, "a: less than 0 (minimum)", err.Error())
}

func TestGenericConversionResolution(t *testing.T) {
	globalID := descriptor.Define(&descriptor.Type{Kind: descriptor.KindPrimitive, Primitive: descriptor.PrimString, Name: "GlobalId"}, "T")
	faction, ship := descriptor.Record("Faction"), descriptor.Record("Ship")

	reg := conversion.NewRegistry()
	require.NoError(t, reg.Register(descriptor.Deserialization, &descriptor.Conversion{
		Source: descriptor.String,
		Target: descriptor.Generic(globalID, descriptor.Var("T")),
		Converter: conversion.Pure(func(s string) string {
			return "id:" + s
		}),
	}))
	ctx := NewContext(reg)

	for _, entity := range []*descriptor.Type{faction, ship} {
		ref := descriptor.Generic(globalID, entity)
		convs, err := reg.Resolve(descriptor.Deserialization, ref)
		require.NoError(t, err)
		require.Len(t, convs, 1)
		assert.Equal(t, ref.ID(), convs[0].Target.ID(), "target bound to %s", entity.Name)

		out, err := deserialize(t, ctx, ref, Options{}, "42")
		require.NoError(t, err)
		assert.Equal(t, "id:42", out)
	}
}

func TestGenericConversionMismatch(t *testing.T) {
	globalID := descriptor.Define(&descriptor.Type{Kind: descriptor.KindPrimitive, Primitive: descriptor.PrimString, Name: "GlobalId"}, "T")
	faction, ship := descriptor.Record("Faction"), descriptor.Record("Ship")

	reg := conversion.NewRegistry()
	require.NoError(t, reg.Register(descriptor.Deserialization, &descriptor.Conversion{
		Source:    descriptor.String,
		Target:    descriptor.Generic(globalID, faction),
		Converter: func(v any) (any, error) { return v, nil },
	}))
	ctx := NewContext(reg)

	_, err := ctx.CompileDeserializer(descriptor.Generic(globalID, faction), Options{})
	require.NoError(t, err)

	_, err = ctx.CompileDeserializer(descriptor.Generic(globalID, ship), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindUnresolvedConversion}))
}

func TestGenericInstantiation(t *testing.T) {
	ctx := NewContext(nil)
	box := descriptor.Define(descriptor.Record("Box",
		descriptor.Field{Name: "item", Type: descriptor.Var("T"), Required: true},
	), "T")

	out, err := deserialize(t, ctx, descriptor.Generic(box, descriptor.Int), Options{}, map[string]any{"item": 3.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"item": 3}, out)

	_, err = ctx.CompileDeserializer(box, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCompile(err))
}

func petsType() *descriptor.Type {
	cat := descriptor.Record("cat", descriptor.Field{Name: "lives", Type: descriptor.Int, Required: true})
	dog := descriptor.Record("dog", descriptor.Field{Name: "barks", Type: descriptor.Bool, Required: true})
	return descriptor.Tagged("type", cat, dog)
}

func TestDiscriminatedUnion(t *testing.T) {
	ctx := NewContext(nil)
	pets := petsType()

	out, err := deserialize(t, ctx, pets, Options{}, map[string]any{"type": "cat", "lives": 9.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"lives": 9}, out)

	_, err = deserialize(t, ctx, pets, Options{}, map[string]any{"lives": 9.0})
	require.Error(t, err)
	assert.Equal(t, "type: missing property", err.Error())

	_, err = deserialize(t, ctx, pets, Options{}, map[string]any{"type": "cow"})
	require.Error(t, err)
	assert.Equal(t, `type: not one of ["cat", "dog"]`, err.Error())

	tree, err := serialize(t, ctx, pets, Options{}, map[string]any{"barks": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"barks": true, "type": "dog"}, tree)
}

func TestCoercion(t *testing.T) {
	ctx := NewContext(nil)
	opts := Options{Coercion: CoercionOn}

	out, err := deserialize(t, ctx, descriptor.Int, opts, "42")
	require.NoError(t, err)
	assert.Equal(t, 42, out)

	out, err = deserialize(t, ctx, descriptor.Bool, opts, "yes")
	require.NoError(t, err)
	assert.Equal(t, true, out)

	_, err = deserialize(t, ctx, descriptor.Int, Options{}, "42")
	require.Error(t, err)
	assert.Equal(t, "expected type integer, found string", err.Error())
}

func TestIntegerRange(t *testing.T) {
	ctx := NewContext(nil)

	out, err := deserialize(t, ctx, descriptor.Int, Options{}, -9.223372036854775808e18)
	require.NoError(t, err)
	assert.Equal(t, math.MinInt64, out)

	_, err = deserialize(t, ctx, descriptor.Int, Options{}, 9.223372036854775807e18)
	require.Error(t, err)

	out, err = deserialize(t, ctx, descriptor.Int, Options{}, 9.2233720368547748e18)
	require.NoError(t, err)
	assert.Equal(t, 9223372036854774784, out)
}

func TestUniqueItems(t *testing.T) {
	tests := []struct {
		name  string
		items any
		dup   bool
	}{
		{"numbers by value", []any{1, 2, 1.0}, true},
		{"distinct", []any{"a", 1, true, nil}, false},
		{"nulls", []any{nil, nil}, true},
		{"nested lists", []any{[]any{1}, []any{1}}, true},
		{"arrays holding lists", [][2]any{{[]any{1}, 2}, {[]any{1}, 2}}, true},
		{"distinct arrays holding lists", [][2]any{{[]any{1}, 2}, {[]any{2}, 2}}, false},
		{"comparable arrays", [][2]any{{1, "a"}, {1, "a"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dup, hasDuplicates(reflect.ValueOf(tt.items)))
		})
	}

	assert.True(t, treeEqual([2]any{[]any{}}, [2]any{[]any{}}))
	assert.False(t, treeEqual([2]any{[]any{1}}, [2]any{[]any{2}}))
}

func TestCustomCoercer(t *testing.T) {
	ctx := NewContext(nil)
	opts := Options{
		Coercion:   CoercionCustom,
		CoercerKey: "many",
		Coercer: func(p descriptor.Primitive, v any) (any, bool) {
			if s, ok := v.(string); ok && p == descriptor.PrimInt && s == "many" {
				return int64(1000), true
			}
			return nil, false
		},
	}
	out, err := deserialize(t, ctx, descriptor.Int, opts, "many")
	require.NoError(t, err)
	assert.Equal(t, 1000, out)
}

func TestNoCopyCollection(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Collection(descriptor.String)
	in := []any{"a", "b"}

	out, err := deserialize(t, ctx, typ, Options{NoCopy: true}, in)
	require.NoError(t, err)
	assert.Same(t, &in[0], &out.([]any)[0])

	out, err = deserialize(t, ctx, typ, Options{}, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.NotSame(t, &in[0], &out.([]any)[0])
}

func TestSerializeExclusions(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("R",
		descriptor.Field{Name: "a", Type: descriptor.Optional(descriptor.Int)},
		descriptor.Field{Name: "b", Type: descriptor.Int, Default: descriptor.DefaultValue(1)},
	)

	tree, err := serialize(t, ctx, typ, Options{}, map[string]any{"a": nil, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": nil, "b": int64(1)}, tree)

	tree, err = serialize(t, ctx, typ, Options{ExcludeNone: true}, map[string]any{"a": nil, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": int64(2)}, tree)

	tree, err = serialize(t, ctx, typ, Options{ExcludeDefaults: true}, map[string]any{"a": 3, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(3)}, tree)
}

type patch struct {
	Name string
	Age  int
	set  map[string]bool
}

func (p patch) IsFieldSet(name string) bool { return p.set[name] }

func TestSerializeExcludeUnset(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("Patch",
		descriptor.Field{Name: "name", Type: descriptor.String, GoIndex: []int{0}},
		descriptor.Field{Name: "age", Type: descriptor.Int, GoIndex: []int{1}},
	).WithGoType(reflect.TypeFor[patch]())

	in := patch{Name: "x", set: map[string]bool{"name": true}}
	tree, err := serialize(t, ctx, typ, Options{ExcludeUnset: true}, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x"}, tree)

	tree, err = serialize(t, ctx, typ, Options{}, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "age": int64(0)}, tree)
}

func TestSerializeFallbackToAny(t *testing.T) {
	ctx := NewContext(nil)

	out, err := serialize(t, ctx, descriptor.Int, Options{FallbackToAny: true}, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	_, err = serialize(t, ctx, descriptor.Int, Options{}, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseSerialize, Kind: errors.KindTypeMismatch}))

	_, err = serialize(t, ctx, descriptor.Collection(descriptor.Int), Options{}, []any{1, "x"})
	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{"1"}, e.Path)
}

func TestDepthExceeded(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Int
	for range 10 {
		typ = descriptor.Collection(typ)
	}

	_, err := ctx.CompileDeserializer(typ, Options{MaxDepth: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindDepthExceeded}))

	_, err = ctx.CompileDeserializer(typ, Options{})
	require.NoError(t, err)
}

func TestRegistryChangeDropsCache(t *testing.T) {
	reg := conversion.NewRegistry()
	ctx := NewContext(reg)
	defer ctx.Close()

	_, err := ctx.CompileDeserializer(pointType(), Options{})
	require.NoError(t, err)
	assert.Positive(t, ctx.Cache().Len())

	require.NoError(t, reg.RegisterFunc(descriptor.Deserialization, descriptor.String, descriptor.Int, strconv.Atoi))
	assert.Zero(t, ctx.Cache().Len())

	out, err := deserialize(t, ctx, descriptor.Int, Options{}, "12")
	require.NoError(t, err)
	assert.Equal(t, 12, out)
}

func TestConcurrentCompile(t *testing.T) {
	ctx := NewContext(nil)
	node := nodeType()
	in := map[string]any{"value": 1.0, "children": []any{}}

	const workers = 16
	methods := make([]Method, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			exec, err := ctx.CompileDeserializer(node, Options{})
			if !assert.NoError(t, err) {
				return
			}
			methods[i] = exec.Method()
			_, err = exec.Convert(in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, m := range methods[1:] {
		assert.Equal(t, methods[0], m)
	}
}

func TestUnexpectedProperties(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("R", descriptor.Field{Name: "a", Type: descriptor.Int, Required: true})

	_, err := deserialize(t, ctx, typ, Options{}, map[string]any{"a": 1.0, "b": 2.0})
	require.Error(t, err)
	assert.Equal(t, "b: unexpected property", err.Error())

	out, err := deserialize(t, ctx, typ, Options{AdditionalProperties: true}, map[string]any{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestDefaultsAndDependentRequired(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("Order",
		descriptor.Field{Name: "name", Type: descriptor.String, Required: true},
		descriptor.Field{Name: "count", Type: descriptor.Int, Default: descriptor.DefaultValue(7)},
		descriptor.Field{Name: "card", Type: descriptor.String},
		descriptor.Field{Name: "billing", Type: descriptor.String},
	)
	typ.DependentRequired = map[string][]string{"card": {"billing"}}

	out, err := deserialize(t, ctx, typ, Options{}, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "count": 7}, out)

	_, err = deserialize(t, ctx, typ, Options{}, map[string]any{"name": "x", "card": "1"})
	require.Error(t, err)
	assert.Equal(t, "billing: missing property", err.Error())

	_, err = deserialize(t, ctx, typ, Options{}, map[string]any{"name": "x", "count": "lots"})
	require.Error(t, err)

	out, err = deserialize(t, ctx, typ, Options{FallBackOnDefault: true}, map[string]any{"name": "x", "count": "lots"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x", "count": 7}, out)
}

func TestMergedFields(t *testing.T) {
	ctx := NewContext(nil)
	inner := descriptor.Record("Inner", descriptor.Field{Name: "x", Type: descriptor.Int, Required: true})
	outer := descriptor.Record("Outer",
		descriptor.Field{Name: "id", Type: descriptor.String, Required: true},
		descriptor.Field{Name: "inner", Type: inner, Kind: descriptor.FieldFlattened},
		descriptor.Field{Name: "labels", Type: descriptor.Mapping(nil, descriptor.String), Kind: descriptor.FieldPattern, Pattern: regexp.MustCompile(`^l_`)},
	)

	out, err := deserialize(t, ctx, outer, Options{}, map[string]any{"id": "a", "x": 1.0, "l_a": "q"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":     "a",
		"inner":  map[string]any{"x": 1},
		"labels": map[string]any{"l_a": "q"},
	}, out)

	_, err = deserialize(t, ctx, outer, Options{}, map[string]any{"id": "a", "x": 1.0, "z": 1.0})
	require.Error(t, err)
	assert.Equal(t, "z: unexpected property", err.Error())

	tree, err := serialize(t, ctx, outer, Options{}, out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "a", "x": int64(1), "l_a": "q"}, tree)
}

func TestMergedFieldMustBeObjectShaped(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("R", descriptor.Field{Name: "n", Type: descriptor.Int, Kind: descriptor.FieldFlattened})

	_, err := ctx.CompileDeserializer(typ, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindNotObjectShaped}))
}

func TestRecordValidatorOnPartialValue(t *testing.T) {
	ctx := NewContext(nil)
	typ := descriptor.Record("Range",
		descriptor.Field{Name: "lo", Type: descriptor.Int, Required: true},
		descriptor.Field{Name: "hi", Type: descriptor.Int, Required: true},
		descriptor.Field{Name: "name", Type: descriptor.String, Required: true},
	).WithValidators(descriptor.Validator{
		Name:         "ordered",
		Dependencies: []string{"lo", "hi"},
		Func: func(v any) error {
			m := v.(map[string]any)
			if m["lo"].(int) > m["hi"].(int) {
				return fmt.Errorf("lo above hi")
			}
			return nil
		},
	})

	_, err := deserialize(t, ctx, typ, Options{}, map[string]any{"lo": 5.0, "hi": 1.0})
	verr, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"lo above hi"}, verr.Messages)
	assert.Equal(t, []string{"missing property"}, verr.At("name").Messages)

	_, err = deserialize(t, ctx, typ, Options{}, map[string]any{"lo": 5.0, "hi": 1.0, "name": "r"})
	require.Error(t, err)
	assert.Equal(t, "lo above hi", err.Error())
}

func TestPerCallConversions(t *testing.T) {
	ctx := NewContext(nil)
	atoi := &descriptor.Conversion{
		Source:    descriptor.String,
		Target:    descriptor.Int,
		Converter: conversion.Func(strconv.Atoi),
	}

	exec, err := ctx.Compile(descriptor.Deserialization, descriptor.Collection(descriptor.Int), []*descriptor.Conversion{atoi}, Options{})
	require.NoError(t, err)
	out, err := exec.Convert([]any{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, out)

	_, err = exec.Convert([]any{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0: ")
}

func TestEnum(t *testing.T) {
	ctx := NewContext(nil)
	color := descriptor.Enum("Color",
		descriptor.EnumValue{Tree: "red", Go: 1},
		descriptor.EnumValue{Tree: "blue", Go: 2},
	)

	out, err := deserialize(t, ctx, color, Options{}, "red")
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	_, err = deserialize(t, ctx, color, Options{}, "green")
	require.Error(t, err)
	assert.Equal(t, `not one of ["red", "blue"]`, err.Error())

	tree, err := serialize(t, ctx, color, Options{}, 2)
	require.NoError(t, err)
	assert.Equal(t, "blue", tree)
}

func TestTupleAndTypedMapping(t *testing.T) {
	ctx := NewContext(nil)

	out, err := deserialize(t, ctx, descriptor.Tuple(descriptor.Int, descriptor.String), Options{}, []any{1.0, "a"})
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, out)

	_, err = deserialize(t, ctx, descriptor.Tuple(descriptor.Int, descriptor.String), Options{}, []any{1.0})
	require.Error(t, err)
	assert.Equal(t, "expected 2 items, found 1", err.Error())

	typ := descriptor.Mapping(descriptor.Int, descriptor.String).WithGoType(reflect.TypeFor[map[int]string]())
	out, err = deserialize(t, ctx, typ, Options{}, map[string]any{"1": "a"})
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "a"}, out)

	tree, err := serialize(t, ctx, typ, Options{}, map[int]string{2: "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"2": "b"}, tree)
}
