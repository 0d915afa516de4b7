// Package schemadoc loads type descriptors from YAML schema documents.
//
// A document maps type names to type expressions. An expression is either a
// name (a builtin such as int or string, a type parameter, or another
// document type) or a mapping with one kind key and optional constraints:
//
//	types:
//	  Node:
//	    record:
//	      fields:
//	        - {name: value, type: int, required: true}
//	        - {name: children, type: {list: Node}, required: true}
//	  Port:
//	    type: int
//	    minimum: 1
//	    maximum: 65535
//	  Box:
//	    params: [T]
//	    record:
//	      fields:
//	        - {name: item, type: T, required: true}
//	  IntBox:
//	    ref: [Box, int]
//
// Kind keys are list, map, tuple, optional, union, enum, literal, record,
// ref and type (an alias with extra constraints). Names may be used before
// they are defined, so recursive types need no forward declarations.
package schemadoc
