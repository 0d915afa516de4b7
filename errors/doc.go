// Package errors provides structured error types for the typecodec library.
//
// Compile and serialization failures are reported as *Error, categorized by
// Phase (where the error occurred) and Kind (error category), with the value
// path, descriptor and Go type names, and a cause chain:
//
//	err := errors.New(errors.PhaseCompile, errors.KindNotObjectShaped).
//		Path("order", "extra").
//		Type("int").
//		Detail("flattened field must be object-shaped").
//		Build()
//
// Deserialization failures are reported as *ValidationError, a tree of
// messages keyed by field alias or item index. Sibling failures are
// accumulated and merged so one error carries one entry per failing path:
//
//	verr := errors.AtPath(errors.Invalid("less than minimum 0"), "a")
//	verr.Flatten() // [{Path: [a], Messages: [less than minimum 0]}]
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
