package descriptor

// Kind is the variant tag of a Type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindCollection
	KindMapping
	KindTuple
	KindRecord
	KindEnum
	KindLiteral
	KindUnion
	KindGeneric
	KindTypeVar
	KindAny
)

var kindNames = [...]string{
	KindPrimitive:  "primitive",
	KindCollection: "collection",
	KindMapping:    "mapping",
	KindTuple:      "tuple",
	KindRecord:     "record",
	KindEnum:       "enum",
	KindLiteral:    "literal",
	KindUnion:      "union",
	KindGeneric:    "generic",
	KindTypeVar:    "typevar",
	KindAny:        "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Primitive is the sub-kind of a KindPrimitive type.
type Primitive uint8

const (
	PrimNull Primitive = iota
	PrimBool
	PrimInt
	PrimFloat
	PrimString
)

var primitiveNames = [...]string{
	PrimNull:   "null",
	PrimBool:   "bool",
	PrimInt:    "int",
	PrimFloat:  "float",
	PrimString: "string",
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return "unknown"
}

// FieldKind selects how a record field maps onto the object representation.
type FieldKind uint8

const (
	FieldNormal FieldKind = iota
	FieldReadOnly
	FieldWriteOnly
	FieldFlattened
	FieldAdditional
	FieldPattern
)

var fieldKindNames = [...]string{
	FieldNormal:     "normal",
	FieldReadOnly:   "readonly",
	FieldWriteOnly:  "writeonly",
	FieldFlattened:  "flattened",
	FieldAdditional: "additional",
	FieldPattern:    "pattern",
}

func (k FieldKind) String() string {
	if int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return "unknown"
}

// Merged reports whether the field takes keys from the parent object
// instead of a single aliased property.
func (k FieldKind) Merged() bool {
	return k == FieldFlattened || k == FieldAdditional || k == FieldPattern
}

// Direction is the conversion direction of a compiled method.
type Direction uint8

const (
	// Deserialization converts a tree value into the in-memory value.
	Deserialization Direction = iota
	// Serialization converts an in-memory value into a tree value.
	Serialization
)

func (d Direction) String() string {
	if d == Serialization {
		return "serialization"
	}
	return "deserialization"
}
