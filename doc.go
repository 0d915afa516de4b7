// Package typecodec compiles type descriptors into conversion methods
// between untyped trees (JSON-like values) and typed in-memory values.
//
// The library is organized into several packages with distinct responsibilities:
//
//	typecodec/         Root package with the default context and generic helpers
//	├── descriptor/    Type descriptors, fields, constraints, generics
//	├── conversion/    Conversion registry and converter adapters
//	├── codec/         Compiler, recursion detection, method cache, options
//	├── errors/        Structured compile errors and validation error trees
//	├── reflectdesc/   Descriptors from Go struct types and struct tags
//	├── witdesc/       Descriptors from WebAssembly component (WIT) types
//	├── schemadoc/     Descriptors from YAML schema documents
//	├── tree/          JSON and YAML parsing and rendering of tree values
//	├── stdconv/       Standard conversions for UUID, time and duration
//	└── cmd/typecodec/ Command line tool
//
// # Quick Start
//
//	type Order struct {
//		ID    uuid.UUID `codec:"id,required"`
//		Count int       `codec:"count" validate:"min=1"`
//	}
//
//	order, err := typecodec.Unmarshal[Order]([]byte(`{"id": "...", "count": 2}`), codec.Options{})
//	data, err := typecodec.Marshal(order, codec.Options{})
//
// # Compilation
//
// A descriptor is compiled once per direction and option set into a Method
// that is cached by the context. Recursive descriptors compile to methods
// that reference themselves, so values of any depth convert without
// recompiling. Registering a conversion drops every cached method.
//
// # Errors
//
// Compile failures are *errors.Error values with phase "compile".
// Deserialization failures are *errors.ValidationError trees keyed by
// property alias and item index:
//
//	var verr *errors.ValidationError
//	if errors.As(err, &verr) {
//		for _, e := range verr.Flatten() {
//			fmt.Println(e.Path, e.Messages)
//		}
//	}
package typecodec
