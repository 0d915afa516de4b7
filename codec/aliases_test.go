package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typecodec/descriptor"
)

func TestCaseAliasers(t *testing.T) {
	tests := []struct {
		in    string
		camel string
		snake string
		kebab string
	}{
		{"first_name", "firstName", "first_name", "first-name"},
		{"FirstName", "firstName", "first_name", "first-name"},
		{"first-name", "firstName", "first_name", "first-name"},
		{"HTTPPort", "httpPort", "http_port", "http-port"},
		{"ID", "id", "id", "id"},
		{"userID", "userId", "user_id", "user-id"},
		{"Field2Name", "field2Name", "field2_name", "field2-name"},
		{"x", "x", "x", "x"},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.camel, CamelCase(tt.in))
			assert.Equal(t, tt.snake, SnakeCase(tt.in))
			assert.Equal(t, tt.kebab, KebabCase(tt.in))
		})
	}
}

func TestNamedAliaser(t *testing.T) {
	assert.Equal(t, []string{"camel", "kebab", "snake"}, AliaserNames())

	camel, ok := NamedAliaser("camel")
	require.True(t, ok)

	ctx := NewContext(nil)
	typ := descriptor.Record("R", descriptor.Field{Name: "created_at", Type: descriptor.String, Required: true})
	tree, err := serialize(t, ctx, typ, Options{Aliaser: camel, AliaserKey: "camel"}, map[string]any{"created_at": "now"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"createdAt": "now"}, tree)

	_, ok = NamedAliaser("pascal")
	assert.False(t, ok)
}
