package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typecodec/errors"
)

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON([]byte(`{"a": 1, "b": [true, null, 2.5, "x"], "c": {"d": 9007199254740993}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": int64(1),
		"b": []any{true, nil, 2.5, "x"},
		"c": map[string]any{"d": int64(9007199254740993)},
	}, v)

	_, err = ParseJSON([]byte(`{"a":`))
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseLoad}))
}

func TestSelectJSON(t *testing.T) {
	doc := []byte(`{"orders": [{"id": "a"}, {"id": "b"}]}`)

	v, err := SelectJSON(doc, "orders.1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "b"}, v)

	_, err = SelectJSON(doc, "missing")
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}))
}

func TestParseYAML(t *testing.T) {
	v, err := ParseYAML([]byte("name: x\ncount: 3\nratio: 0.5\n1: one\nitems:\n  - a\n  - b\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "x",
		"count": int64(3),
		"ratio": 0.5,
		"1":     "one",
		"items": []any{"a", "b"},
	}, v)

	_, err = ParseYAML([]byte("a: [1, 2"))
	assert.Error(t, err)
}

func TestParseByFormat(t *testing.T) {
	v, err := Parse("YAML", []byte("a: true"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": true}, v)

	_, err = Parse("toml", nil)
	assert.True(t, errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidInput}))
}

func TestRenderJSON(t *testing.T) {
	v := map[string]any{"b": 1, "a": []any{"x"}}

	compact, err := RenderJSON(v, RenderOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":["x"],"b":1}`, string(compact))

	indented, err := RenderJSON(v, RenderOptions{Indent: "  ", Sort: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(indented), "{\n  \"a\""))
}

func TestRenderYAML(t *testing.T) {
	out, err := RenderYAML(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(out))
}
