package stdconv

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/typecodec/codec"
	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
	"github.com/wippyai/typecodec/reflectdesc"
)

type event struct {
	ID      uuid.UUID     `codec:"id,required"`
	At      time.Time     `codec:"at,required"`
	Timeout time.Duration `codec:"timeout"`
}

func setup(t *testing.T) (*codec.Context, *descriptor.Type) {
	t.Helper()
	reg := conversion.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, 4, reg.Len(descriptor.Deserialization))
	assert.Equal(t, 3, reg.Len(descriptor.Serialization))

	d := reflectdesc.New()
	Define(d)
	typ, err := reflectdesc.Of[event](d)
	require.NoError(t, err)
	return codec.NewContext(reg), typ
}

func TestRoundTrip(t *testing.T) {
	ctx, typ := setup(t)
	id := uuid.MustParse("3f2504e0-4f89-41d3-9a0c-0305e82c3301")
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	deser, err := ctx.CompileDeserializer(typ, codec.Options{})
	require.NoError(t, err)
	out, err := deser.Convert(map[string]any{
		"id":      id.String(),
		"at":      "2024-05-01T12:30:00Z",
		"timeout": "1m30s",
	})
	require.NoError(t, err)
	assert.Equal(t, event{ID: id, At: at, Timeout: 90 * time.Second}, out)

	ser, err := ctx.CompileSerializer(typ, codec.Options{})
	require.NoError(t, err)
	tree, err := ser.Convert(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":      id.String(),
		"at":      "2024-05-01T12:30:00Z",
		"timeout": "1m30s",
	}, tree)
}

func TestDurationFromNanoseconds(t *testing.T) {
	ctx, _ := setup(t)
	exec, err := ctx.CompileDeserializer(Duration, codec.Options{})
	require.NoError(t, err)

	out, err := exec.Convert(1500.0)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Nanosecond, out)

	out, err = exec.Convert("2s")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, out)
}

func TestInvalidValues(t *testing.T) {
	ctx, typ := setup(t)
	exec, err := ctx.CompileDeserializer(typ, codec.Options{})
	require.NoError(t, err)

	_, err = exec.Convert(map[string]any{"id": "nope", "at": "yesterday"})
	verr, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.NotEmpty(t, verr.At("id").Messages)
	assert.NotEmpty(t, verr.At("at").Messages)
}
