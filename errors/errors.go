package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile     Phase = "compile"     // method compilation
	PhaseDeserialize Phase = "deserialize" // tree to value
	PhaseSerialize   Phase = "serialize"   // value to tree
	PhaseValidate    Phase = "validate"    // constraint and validator checks
	PhaseRegister    Phase = "register"    // conversion registration
	PhaseLoad        Phase = "load"        // descriptor and document loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch         Kind = "type_mismatch"
	KindUnsupported          Kind = "unsupported"
	KindUnresolvedConversion Kind = "unresolved_conversion"
	KindUnification          Kind = "unification"
	KindNotObjectShaped      Kind = "not_object_shaped"
	KindInvalidSchema        Kind = "invalid_schema"
	KindDepthExceeded        Kind = "depth_exceeded"
	KindFieldMissing         Kind = "field_missing"
	KindFieldUnknown         Kind = "field_unknown"
	KindInvalidEnum          Kind = "invalid_enum"
	KindInvalidDiscriminator Kind = "invalid_discriminator"
	KindInvalidConverter     Kind = "invalid_converter"
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindNilPointer           Kind = "nil_pointer"
)

// Error is the structured error type used by the compiler and its frontends
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	GoType string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Type != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.Type != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", type ")
			b.WriteString(e.Type)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("type ")
			b.WriteString(e.Type)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
// A zero Kind in target matches any kind of the same phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Phase != t.Phase {
		return false
	}
	return t.Kind == "" || e.Kind == t.Kind
}

// IsCompile reports whether err is a compile-time error
func IsCompile(err error) bool {
	var e *Error
	return As(err, &e) && e.Phase == PhaseCompile
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = append([]string(nil), path...)
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Type sets the descriptor name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, typ string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Type:   typ,
	}
}

// Unsupported creates an unsupported descriptor shape error
func Unsupported(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Path:   path,
		Detail: what,
	}
}

// UnresolvedConversion reports that registered conversions exist for a type
// but none of them unify with the requested instantiation.
func UnresolvedConversion(path []string, typ string, candidates int) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindUnresolvedConversion,
		Path:   path,
		Type:   typ,
		Detail: fmt.Sprintf("none of %d registered conversion(s) unify", candidates),
	}
}

// Unification creates a generic unification error
func Unification(path []string, pattern, concrete string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindUnification,
		Path:   path,
		Type:   concrete,
		Detail: fmt.Sprintf("cannot unify with %s", pattern),
	}
}

// NotObjectShaped reports a flattened or pattern field whose type does not
// compile to an object.
func NotObjectShaped(path []string, field, typ string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindNotObjectShaped,
		Path:   path,
		Type:   typ,
		Detail: fmt.Sprintf("field %q must be object-shaped", field),
	}
}

// DepthExceeded creates a compile depth guard error
func DepthExceeded(path []string, limit int) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindDepthExceeded,
		Path:   path,
		Detail: fmt.Sprintf("type graph deeper than %d", limit),
	}
}

// InvalidSchema creates a schema declaration error
func InvalidSchema(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidSchema,
		Path:   path,
		Detail: detail,
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Path:   path,
		Type:   enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// InvalidConverter creates an error for converter functions of unusable shape
func InvalidConverter(goType, detail string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindInvalidConverter,
		GoType: goType,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Load creates a document loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidSchema,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
