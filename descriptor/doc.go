// Package descriptor defines the structural type model consumed by the codec
// compiler.
//
// A Type is a tagged variant selected by Kind: primitives, collections,
// mappings, tuples, records, enums, literals, unions, generic references,
// type variables and the untyped Any. Records carry an ordered list of
// Field descriptors. Generic definitions are ordinary types with Params;
// a Generic reference applies a definition to arguments and is expanded
// with Instantiate.
//
//	node := descriptor.Record("Node")
//	node.Fields = []descriptor.Field{
//		{Name: "value", Type: descriptor.Int, Required: true},
//		{Name: "children", Type: descriptor.Collection(node), Required: true},
//	}
//
// Conversions between types are described by Conversion; their type
// variables are bound with Unify and substituted with Apply.
package descriptor
