package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationFlatten(t *testing.T) {
	verr := Invalid("root failure")
	verr.AddChild("b", Invalid("too short"))
	verr.AddChild("a", Nested("0", Invalid("not a string")))

	entries := verr.Flatten()
	require.Len(t, entries, 3)
	assert.Empty(t, entries[0].Path)
	assert.Equal(t, []string{"root failure"}, entries[0].Messages)
	assert.Equal(t, []string{"a", "0"}, entries[1].Path)
	assert.Equal(t, []string{"b"}, entries[2].Path)
}

func TestValidationMerge(t *testing.T) {
	a := AtPath(Invalid("x"), "f")
	b := AtPath(Invalid("y"), "f")
	c := AtPath(Invalid("z"), "g")

	merged := Merge(Merge(a, b), c)
	assert.Equal(t, []string{"x", "y"}, merged.At("f").Messages)
	assert.Equal(t, []string{"z"}, merged.At("g").Messages)

	// inputs untouched
	assert.Equal(t, []string{"x"}, a.At("f").Messages)
	assert.Nil(t, a.At("g"))

	assert.Same(t, a, Merge(nil, a))
	assert.Same(t, a, Merge(a, &ValidationError{}))
}

func TestValidationAt(t *testing.T) {
	verr := AtPath(Invalid("less than minimum 0"), "a")
	assert.Equal(t, []string{"less than minimum 0"}, verr.At("a").Messages)
	assert.Nil(t, verr.At("a", "b"))
	assert.Nil(t, verr.At("missing"))
	assert.Same(t, verr, verr.At())
}

func TestValidationErrorString(t *testing.T) {
	verr := AtPath(Invalid("m1", "m2"), "a", "1")
	assert.Equal(t, "a.1: m1, m2", verr.Error())
	assert.Equal(t, "validation failed", (&ValidationError{}).Error())
}

func TestAsValidation(t *testing.T) {
	verr := Invalid("bad")
	wrapped := fmt.Errorf("decode: %w", verr)

	got, ok := AsValidation(wrapped)
	require.True(t, ok)
	assert.Same(t, verr, got)
	assert.True(t, stderrors.Is(wrapped, &ValidationError{}))

	_, ok = AsValidation(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	var nilErr *ValidationError
	assert.True(t, nilErr.Empty())
	assert.True(t, (&ValidationError{}).Empty())
	assert.False(t, Invalid("x").Empty())

	verr := &ValidationError{}
	verr.AddChild("a", nil)
	assert.True(t, verr.Empty())
}
