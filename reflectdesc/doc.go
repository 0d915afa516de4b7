// Package reflectdesc derives type descriptors from Go types.
//
// Structs become records over their exported fields, pointers become
// optionals, slices and arrays collections, maps mappings and empty
// interfaces Any. Field behavior is read from struct tags:
//
//	type Order struct {
//		ID    string            `codec:"id,required" validate:"minlen=1"`
//		Count int               `codec:"count" default:"1" validate:"min=1"`
//		Meta  map[string]string `codec:",additional"`
//		Base                    // untagged embedded structs are flattened
//	}
//
// Types implementing Enumerator describe to enums, and Define binds a Go
// type to a fixed descriptor, which is how standard conversions for types
// such as uuid.UUID plug in.
package reflectdesc
