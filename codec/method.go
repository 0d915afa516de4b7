package codec

import "github.com/wippyai/typecodec/descriptor"

// MethodKind is the variant tag of a compiled method.
type MethodKind uint8

const (
	MethodIdentity MethodKind = iota
	MethodPrimitive
	MethodCollection
	MethodMapping
	MethodTuple
	MethodUnion
	MethodRecord
	MethodConversion
	MethodRecursive
	MethodLiteral
	MethodValidated
	MethodAny
)

var methodKindNames = [...]string{
	MethodIdentity:   "identity",
	MethodPrimitive:  "primitive",
	MethodCollection: "collection",
	MethodMapping:    "mapping",
	MethodTuple:      "tuple",
	MethodUnion:      "union",
	MethodRecord:     "record",
	MethodConversion: "conversion",
	MethodRecursive:  "recursive",
	MethodLiteral:    "literal",
	MethodValidated:  "validated",
	MethodAny:        "any",
}

func (k MethodKind) String() string {
	if int(k) < len(methodKindNames) {
		return methodKindNames[k]
	}
	return "unknown"
}

// Method is a compiled conversion procedure. Methods are immutable once
// published and safe for concurrent use.
type Method interface {
	Kind() MethodKind
	convert(v any) (any, error)
}

// Executable is the result of a top-level compilation.
type Executable struct {
	method    Method
	typ       *descriptor.Type
	direction descriptor.Direction
}

// Convert runs the compiled method. Deserialization failures are reported
// as *errors.ValidationError, serialization failures as *errors.Error.
// No partial result is returned alongside an error.
func (e *Executable) Convert(v any) (any, error) {
	out, err := e.method.convert(v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Method returns the root compiled method.
func (e *Executable) Method() Method {
	return e.method
}

// Type returns the descriptor the method was compiled for.
func (e *Executable) Type() *descriptor.Type {
	return e.typ
}

// Direction returns the conversion direction.
func (e *Executable) Direction() descriptor.Direction {
	return e.direction
}

type identityMethod struct{}

func (identityMethod) Kind() MethodKind { return MethodIdentity }

func (identityMethod) convert(v any) (any, error) { return v, nil }

// recursiveMethod forwards to a method that is still being built when the
// placeholder is handed out. The cell is set exactly once, when the cycle
// that created it unwinds.
type recursiveMethod struct {
	cell Method
	key  string
}

func (m *recursiveMethod) Kind() MethodKind { return MethodRecursive }

func (m *recursiveMethod) convert(v any) (any, error) {
	return m.cell.convert(v)
}

func (m *recursiveMethod) set(target Method) {
	if m.cell != nil {
		panic("codec: recursive method " + m.key + " set twice")
	}
	m.cell = target
}

// Target returns the method the placeholder resolves to.
func (m *recursiveMethod) Target() Method {
	return m.cell
}
