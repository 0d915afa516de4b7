package codec

import (
	"github.com/wippyai/typecodec/descriptor"
)

// objectShape describes the properties an object-shaped type consumes.
// Open shapes accept arbitrary properties.
type objectShape struct {
	aliases map[string]bool
	open    bool
}

func (s *objectShape) owns(key string) bool {
	return s.open || s.aliases[key]
}

// shape computes the object shape of a node, following conversions and
// generic instantiations like the compile walk. It reports false for
// types that do not compile to objects.
func (c *compiler) shape(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (*objectShape, bool, error) {
	return c.shapeOf(t, convs, path, map[string]bool{})
}

func (c *compiler) shapeOf(t *descriptor.Type, convs []*descriptor.Conversion, path []string, seen map[string]bool) (*objectShape, bool, error) {
	key := c.nodeKey(t, convs)
	if seen[key] {
		return &objectShape{aliases: map[string]bool{}}, true, nil
	}
	seen[key] = true

	r, err := c.resolve(t, convs, path)
	if err != nil {
		return nil, false, err
	}
	switch {
	case r.passThrough:
		return nil, false, nil
	case len(r.convs) > 0:
		out := &objectShape{aliases: map[string]bool{}}
		for _, conv := range r.convs {
			s, ok, err := c.forConversion(conv).shapeOf(conv.Inner(c.dir), conv.SubConversions, path, seen)
			if err != nil || !ok {
				return nil, false, err
			}
			out.merge(s)
			if c.dir == descriptor.Serialization {
				break
			}
		}
		return out, true, nil
	case r.instance != nil:
		return c.shapeOf(r.instance, convs, path, seen)
	}

	switch t.Kind {
	case descriptor.KindMapping:
		return &objectShape{open: true}, true, nil
	case descriptor.KindRecord:
		out := &objectShape{aliases: map[string]bool{}}
		for i := range t.Fields {
			f := &t.Fields[i]
			if !c.includes(f) {
				continue
			}
			switch f.Kind {
			case descriptor.FieldFlattened:
				s, ok, err := c.shapeOf(f.Type, c.fieldConversions(f), childPath(path, c.property(f)), seen)
				if err != nil {
					return nil, false, err
				}
				if ok {
					out.merge(s)
				}
			case descriptor.FieldAdditional, descriptor.FieldPattern:
				out.open = true
			default:
				out.aliases[c.property(f)] = true
			}
		}
		return out, true, nil
	}
	return nil, false, nil
}

func (s *objectShape) merge(o *objectShape) {
	s.open = s.open || o.open
	if s.aliases == nil {
		s.aliases = map[string]bool{}
	}
	for k := range o.aliases {
		s.aliases[k] = true
	}
}

// classes computes the tree classes a node accepts on deserialization.
func (c *compiler) classes(t *descriptor.Type, convs []*descriptor.Conversion, path []string, seen map[string]bool) (class, error) {
	key := c.nodeKey(t, convs)
	if seen[key] {
		return 0, nil
	}
	seen[key] = true

	r, err := c.resolve(t, convs, path)
	if err != nil {
		return 0, err
	}
	switch {
	case r.passThrough:
		return classAll, nil
	case len(r.convs) > 0:
		var out class
		for _, conv := range r.convs {
			cl, err := c.forConversion(conv).classes(conv.Inner(c.dir), conv.SubConversions, path, seen)
			if err != nil {
				return 0, err
			}
			out |= cl
		}
		return out, nil
	case r.instance != nil:
		return c.classes(r.instance, convs, path, seen)
	}

	switch t.Kind {
	case descriptor.KindPrimitive:
		if c.opts.coercer() != nil {
			return coercible(t.Primitive), nil
		}
		switch t.Primitive {
		case descriptor.PrimNull:
			return classNull, nil
		case descriptor.PrimBool:
			return classBool, nil
		case descriptor.PrimString:
			return classString, nil
		default:
			return classNumber, nil
		}
	case descriptor.KindCollection, descriptor.KindTuple:
		return classArray, nil
	case descriptor.KindMapping, descriptor.KindRecord:
		return classObject, nil
	case descriptor.KindEnum, descriptor.KindLiteral:
		var out class
		for _, v := range t.Values {
			out |= classOf(v.Tree)
		}
		return out, nil
	case descriptor.KindUnion:
		var out class
		for _, alt := range t.Alternatives {
			cl, err := c.classes(alt, convs, path, seen)
			if err != nil {
				return 0, err
			}
			out |= cl
		}
		return out, nil
	}
	return classAll, nil
}
