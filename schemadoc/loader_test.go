package schemadoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typecodec/codec"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

const petsDoc = `
types:
  Node:
    record:
      fields:
        - {name: value, type: int, required: true}
        - {name: children, type: {list: Node}, required: true}
  Port:
    type: int
    minimum: 1
    maximum: 65535
  Server:
    record:
      dependent_required:
        tls_cert: [tls_key]
      fields:
        - {name: host, type: string, required: true}
        - {name: port, type: Port, default: 8080}
        - {name: tls_cert, alias: tlsCert, type: {optional: string}}
        - {name: tls_key, alias: tlsKey, type: {optional: string}}
        - {name: tags, type: {list: string, unique_items: true}, skip_none: true}
  Cat:
    record:
      fields:
        - {name: lives, type: int, required: true}
  Dog:
    record:
      fields:
        - {name: barks, type: bool, required: true}
  Pet:
    union:
      discriminator: kind
      mapping: {cat: Cat, dog: Dog}
      of: [Cat, Dog]
  Box:
    params: [T]
    record:
      fields:
        - {name: item, type: T, required: true}
  IntBox:
    ref: [Box, int]
  Color:
    enum: [red, green]
  Pair:
    tuple: [string, float]
  Counts:
    map: int
`

func load(t *testing.T) *Document {
	t.Helper()
	doc, err := Load([]byte(petsDoc))
	require.NoError(t, err)
	return doc
}

func deserialize(t *testing.T, doc *Document, name string, in any) (any, error) {
	t.Helper()
	typ, err := doc.Lookup(name)
	require.NoError(t, err)
	exec, err := codec.NewContext(nil).CompileDeserializer(typ, codec.Options{})
	require.NoError(t, err)
	return exec.Convert(in)
}

func TestLoadNames(t *testing.T) {
	doc := load(t)
	assert.Equal(t, []string{"Node", "Port", "Server", "Cat", "Dog", "Pet", "Box", "IntBox", "Color", "Pair", "Counts"}, doc.Names())

	_, err := doc.Lookup("Missing")
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound})
}

func TestLoadRecursive(t *testing.T) {
	doc := load(t)
	node, err := doc.Lookup("Node")
	require.NoError(t, err)
	assert.Equal(t, "Node", node.Name)
	assert.Same(t, node, node.Fields[1].Type.Elem)

	out, err := deserialize(t, doc, "Node", map[string]any{
		"value": 1.0,
		"children": []any{
			map[string]any{"value": 2.0, "children": []any{}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"value":    1,
		"children": []any{map[string]any{"value": 2, "children": []any{}}},
	}, out)
}

func TestLoadConstraintsAndDefaults(t *testing.T) {
	doc := load(t)

	out, err := deserialize(t, doc, "Server", map[string]any{"host": "localhost"})
	require.NoError(t, err)
	assert.Equal(t, 8080, out.(map[string]any)["port"])

	_, err = deserialize(t, doc, "Server", map[string]any{"host": "h", "port": 0.0})
	require.Error(t, err)
	assert.Equal(t, "port: less than 1 (minimum)", err.Error())

	_, err = deserialize(t, doc, "Server", map[string]any{"host": "h", "tlsCert": "c"})
	require.Error(t, err)
	assert.Equal(t, "tlsKey: missing property", err.Error())

	server, err := doc.Lookup("Server")
	require.NoError(t, err)
	f, ok := server.Field("tags")
	require.True(t, ok)
	assert.True(t, f.Skip.None)
	assert.True(t, f.Type.Constraints.UniqueItems)
}

func TestLoadScalarDefaults(t *testing.T) {
	doc, err := Load([]byte(`
types:
  Opts:
    record:
      fields:
        - {name: mode, type: string, default: fast}
        - {name: verbose, type: bool, default: false}
        - {name: hosts, type: {list: string}, default: [a, b]}
        - {name: parent, type: {optional: string}, default: null}
        - {name: plain, type: {optional: string}}
`))
	require.NoError(t, err)
	opts, err := doc.Lookup("Opts")
	require.NoError(t, err)

	tests := []struct {
		field string
		want  any
	}{
		{"mode", "fast"},
		{"verbose", false},
		{"hosts", []any{"a", "b"}},
		{"parent", nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f, ok := opts.Field(tt.field)
			require.True(t, ok)
			require.True(t, f.HasDefault())
			assert.Equal(t, tt.want, f.Default.Get())
		})
	}

	f, ok := opts.Field("plain")
	require.True(t, ok)
	assert.False(t, f.HasDefault())

	out, err := deserialize(t, doc, "Opts", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "fast", out.(map[string]any)["mode"])
	assert.Equal(t, false, out.(map[string]any)["verbose"])
}

func TestLoadDiscriminatedUnion(t *testing.T) {
	doc := load(t)
	pet, err := doc.Lookup("Pet")
	require.NoError(t, err)
	require.NotNil(t, pet.Discriminator)
	assert.Equal(t, "kind", pet.Discriminator.Property)
	assert.Equal(t, map[string]int{"cat": 0, "dog": 1}, pet.Discriminator.Mapping)

	out, err := deserialize(t, doc, "Pet", map[string]any{"kind": "dog", "barks": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"barks": true}, out)
}

func TestLoadGeneric(t *testing.T) {
	doc := load(t)
	box, err := doc.Lookup("Box")
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, box.Params)
	assert.Equal(t, descriptor.KindTypeVar, box.Fields[0].Type.Kind)

	intBox, err := doc.Lookup("IntBox")
	require.NoError(t, err)
	assert.Equal(t, descriptor.KindGeneric, intBox.Kind)
	assert.Same(t, box, intBox.Origin)

	out, err := deserialize(t, doc, "IntBox", map[string]any{"item": 3.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"item": 3}, out)
}

func TestLoadScalarKinds(t *testing.T) {
	doc := load(t)

	out, err := deserialize(t, doc, "Color", "green")
	require.NoError(t, err)
	assert.Equal(t, "green", out)

	out, err = deserialize(t, doc, "Pair", []any{"a", 1.5})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", 1.5}, out)

	out, err = deserialize(t, doc, "Counts", map[string]any{"a": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		detail string
	}{
		{"not yaml", "types: [", "invalid schema document"},
		{"no types", "other: 1", "schema document has no types mapping"},
		{"alias cycle", "types:\n  A: B\n  B: A\n", "alias cycle"},
		{"self alias", "types:\n  A: {type: A, minimum: 1}\n", "alias cycle"},
		{"unknown type", "types:\n  A: {list: Missing}\n", `unknown type "Missing"`},
		{"unknown kind", "types:\n  A: {set: int}\n", `unknown type kind "set"`},
		{"two kinds", "types:\n  A: {list: int, map: int}\n", `type expression has both "list" and "map"`},
		{"builtin shadow", "types:\n  int: string\n", "type name shadows a builtin"},
		{"bad field kind", "types:\n  A: {record: {fields: [{name: a, type: int, kind: weird}]}}\n", `unknown field kind "weird"`},
		{"bad mapping", "types:\n  A: {union: {discriminator: k, mapping: {x: C}, of: [int]}}\n", `discriminator tag "x" maps to "C" which is not an alternative`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.PhaseLoad, e.Phase)
			assert.Equal(t, tt.detail, e.Detail)
		})
	}
}
