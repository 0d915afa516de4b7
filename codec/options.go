package codec

import (
	"fmt"
	"strings"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// CoercionMode selects how mismatched primitive tree values are handled.
type CoercionMode uint8

const (
	// CoercionOff rejects values whose tree class does not match.
	CoercionOff CoercionMode = iota
	// CoercionOn converts values with the built-in Coerce.
	CoercionOn
	// CoercionCustom converts values with Options.Coercer.
	CoercionCustom
)

var coercionNames = [...]string{
	CoercionOff:    "off",
	CoercionOn:     "on",
	CoercionCustom: "custom",
}

func (m CoercionMode) String() string {
	if int(m) < len(coercionNames) {
		return coercionNames[m]
	}
	return "unknown"
}

// ParseCoercionMode parses off, on or custom.
func ParseCoercionMode(s string) (CoercionMode, error) {
	for i, name := range coercionNames {
		if strings.EqualFold(s, name) {
			return CoercionMode(i), nil
		}
	}
	return CoercionOff, fmt.Errorf("unknown coercion mode %q", s)
}

// Coercer converts tree value v towards primitive kind p. It reports false
// when v cannot be coerced.
type Coercer func(p descriptor.Primitive, v any) (any, bool)

// DefaultMaxDepth bounds the nesting of a compiled type graph.
const DefaultMaxDepth = 512

// Aliaser maps the property name of a record field to its tree name.
type Aliaser func(property string) string

// Options configure compilation. Options are part of every cache key.
//
// Functions cannot be compared, so each function option is identified in
// the cache key by its companion key string. Setting a function without
// its key is rejected at compile time.
type Options struct {
	// Coercer is used when Coercion is CoercionCustom; Coerce when nil.
	Coercer Coercer
	// PassThrough marks types whose values are returned unchanged.
	PassThrough func(*descriptor.Type) bool
	// Aliaser renames every record property, in both directions.
	Aliaser Aliaser

	CoercerKey     string
	PassThroughKey string
	AliaserKey     string

	MaxDepth int
	Coercion CoercionMode

	// AdditionalProperties accepts unknown record properties on deserialization.
	AdditionalProperties bool
	// FallBackOnDefault replaces invalid field values by their default.
	FallBackOnDefault bool
	// NoCopy returns the input when checking it is enough.
	NoCopy bool

	// ExcludeUnset skips record fields that were never set.
	ExcludeUnset bool
	// ExcludeNone skips null record fields.
	ExcludeNone bool
	// ExcludeDefaults skips record fields equal to their default.
	ExcludeDefaults bool
	// FallbackToAny serializes values failing the type check as untyped trees.
	FallbackToAny bool

	skipValidation bool
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) coercer() Coercer {
	switch o.Coercion {
	case CoercionOn:
		return Coerce
	case CoercionCustom:
		if o.Coercer != nil {
			return o.Coercer
		}
		return Coerce
	default:
		return nil
	}
}

func (o Options) key() string {
	var b strings.Builder
	flag := func(v bool, c byte) {
		if v {
			b.WriteByte(c)
		} else {
			b.WriteByte('-')
		}
	}
	flag(o.AdditionalProperties, 'a')
	flag(o.FallBackOnDefault, 'f')
	flag(o.NoCopy, 'n')
	flag(o.ExcludeUnset, 'u')
	flag(o.ExcludeNone, 'x')
	flag(o.ExcludeDefaults, 'd')
	flag(o.FallbackToAny, 'y')
	flag(o.skipValidation, 's')
	fmt.Fprintf(&b, ":%d:%s", o.maxDepth(), o.Coercion)
	if o.Coercion == CoercionCustom && o.Coercer != nil {
		fmt.Fprintf(&b, ":c%q", o.CoercerKey)
	}
	if o.PassThrough != nil {
		fmt.Fprintf(&b, ":p%q", o.PassThroughKey)
	}
	if o.Aliaser != nil {
		fmt.Fprintf(&b, ":a%q", o.AliaserKey)
	}
	return b.String()
}

// check rejects function options that cannot be told apart in the cache.
func (o Options) check() error {
	var missing string
	switch {
	case o.Coercion == CoercionCustom && o.Coercer != nil && o.CoercerKey == "":
		missing = "Coercer requires CoercerKey"
	case o.PassThrough != nil && o.PassThroughKey == "":
		missing = "PassThrough requires PassThroughKey"
	case o.Aliaser != nil && o.AliaserKey == "":
		missing = "Aliaser requires AliaserKey"
	default:
		return nil
	}
	return errors.New(errors.PhaseCompile, errors.KindInvalidInput).
		Detail(missing).
		Build()
}

// property returns the tree name of a record property.
func (o Options) property(name string) string {
	if o.Aliaser != nil {
		return o.Aliaser(name)
	}
	return name
}
