package codec

import (
	"strconv"
	"strings"

	"github.com/wippyai/typecodec/descriptor"
)

var stringBools = map[string]bool{
	"0": false, "1": true,
	"f": false, "t": true,
	"n": false, "y": true,
	"no": false, "yes": true,
	"false": false, "true": true,
	"off": false, "on": true,
	"ko": false, "ok": true,
}

// Coerce is the built-in coercer. It parses strings into booleans and
// numbers, maps the empty string to null, and formats scalars as strings.
func Coerce(p descriptor.Primitive, v any) (any, bool) {
	switch p {
	case descriptor.PrimNull:
		if s, ok := v.(string); ok && s == "" {
			return nil, true
		}
	case descriptor.PrimBool:
		switch x := v.(type) {
		case string:
			b, ok := stringBools[strings.ToLower(x)]
			return b, ok
		default:
			if n, ok := toInt64(v); ok && (n == 0 || n == 1) {
				return n == 1, true
			}
		}
	case descriptor.PrimInt:
		switch x := v.(type) {
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			return n, err == nil
		case bool:
			if x {
				return int64(1), true
			}
			return int64(0), true
		}
	case descriptor.PrimFloat:
		switch x := v.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			return f, err == nil
		case bool:
			if x {
				return 1.0, true
			}
			return 0.0, true
		}
	case descriptor.PrimString:
		switch x := v.(type) {
		case bool:
			return strconv.FormatBool(x), true
		default:
			if f, ok := toFloat64(v); ok {
				if n, isInt := toInt64(v); isInt {
					return strconv.FormatInt(n, 10), true
				}
				return formatNumber(f), true
			}
		}
	}
	return nil, false
}

// coercible returns the tree classes a primitive accepts under coercion.
func coercible(p descriptor.Primitive) class {
	switch p {
	case descriptor.PrimNull:
		return classNull | classString
	case descriptor.PrimBool:
		return classBool | classString | classNumber
	case descriptor.PrimInt, descriptor.PrimFloat:
		return classNumber | classString | classBool
	case descriptor.PrimString:
		return classString | classNumber | classBool
	}
	return 0
}
