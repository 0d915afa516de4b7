package descriptor

// Conversion converts values of Source into values of Target. Either side
// may mention type variables, which are bound by unification against the
// requested type when the conversion is resolved.
//
// For deserialization the tree value is first deserialized as Source and
// then converted; for serialization the in-memory value is converted and
// the result serialized as Target.
type Conversion struct {
	Converter func(any) (any, error)
	Source    *Type
	Target    *Type
	// Coercion overrides the coercion option while compiling the inner side.
	Coercion *bool
	Name     string
	// SubConversions are used when compiling the inner side instead of the
	// registered ones.
	SubConversions []*Conversion
	// SkipValidation compiles the inner side without constraint checks.
	SkipValidation bool
}

// Inner returns the side compiled structurally for direction dir.
func (c *Conversion) Inner(dir Direction) *Type {
	if dir == Serialization {
		return c.Target
	}
	return c.Source
}

// Outer returns the side matched against the requested type.
func (c *Conversion) Outer(dir Direction) *Type {
	if dir == Serialization {
		return c.Source
	}
	return c.Target
}

// Substitute returns a copy of c with subst applied to both sides.
func (c *Conversion) Substitute(subst Substitution) *Conversion {
	if len(subst) == 0 {
		return c
	}
	out := *c
	out.Source = Apply(c.Source, subst)
	out.Target = Apply(c.Target, subst)
	return &out
}

func (c *Conversion) String() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Source.String() + " -> " + c.Target.String()
}
