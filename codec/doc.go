// Package codec compiles type descriptors into conversion methods between
// untyped trees and in-memory values.
//
// A Context owns a conversion registry, a method cache and the recursion
// verdicts of the graphs it has walked. Compiling a descriptor produces an
// Executable for one direction:
//
//	ctx := codec.NewContext(registry)
//	exec, err := ctx.CompileDeserializer(orderType, codec.Options{})
//	if err != nil {
//		// *errors.Error with PhaseCompile
//	}
//	order, err := exec.Convert(tree)
//
// Deserialization accepts trees made of nil, bool, numbers, string, []any
// and map[string]any, and reports failures as *errors.ValidationError with
// one entry per failing path. Serialization produces trees of the same
// shape and reports failures as *errors.Error.
//
// Compiled methods are cached per (direction, descriptor, conversions,
// options) and dropped whenever the registry changes. Recursive descriptors
// compile to a finite method graph: nodes on a cycle go through a
// placeholder that is bound once the cycle is built.
package codec
