package codec

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// deserializeUnion picks the dispatch strategy: discriminator lookup,
// dispatch by tree class when alternatives accept disjoint classes, or
// ordered alternatives where the first success wins.
func (c *compiler) deserializeUnion(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	if len(t.Alternatives) == 0 {
		return nil, errors.InvalidSchema(errors.PhaseCompile, path, "union has no alternatives")
	}
	alts := make([]Method, len(t.Alternatives))
	for i, alt := range t.Alternatives {
		m, err := c.compile(alt, convs, childPath(path, "["+alt.String()+"]"))
		if err != nil {
			return nil, err
		}
		alts[i] = m
	}

	if t.Discriminator != nil {
		return c.discriminated(t, convs, alts, path)
	}

	classes := make([]class, len(alts))
	distinct := true
	var seen class
	for i, alt := range t.Alternatives {
		cl, err := c.classes(alt, convs, path, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if cl == 0 || cl&seen != 0 {
			distinct = false
		}
		seen |= cl
		classes[i] = cl
	}

	if distinct {
		m := &byClassUnion{goType: t.GoType, expected: seen, dispatch: make(map[class]int)}
		for i, cl := range classes {
			for bit := classNull; bit <= classObject; bit <<= 1 {
				if cl&bit != 0 {
					m.dispatch[bit] = i
				}
			}
		}
		m.alternatives = alts
		return m, nil
	}
	return &orderedUnion{goType: t.GoType, alternatives: alts}, nil
}

func finishUnion(goType reflect.Type, out any) (any, error) {
	if goType == nil {
		return out, nil
	}
	rv, err := assign(goType, out)
	if err != nil {
		return nil, errors.Invalid(err.Error())
	}
	return rv.Interface(), nil
}

type byClassUnion struct {
	goType       reflect.Type
	dispatch     map[class]int
	alternatives []Method
	expected     class
}

func (m *byClassUnion) Kind() MethodKind { return MethodUnion }

func (m *byClassUnion) convert(v any) (any, error) {
	idx, ok := m.dispatch[classOf(v)]
	if !ok {
		return nil, errors.Invalid(fmt.Sprintf("expected type %s, found %s", classList(m.expected), classOf(v)))
	}
	out, err := m.alternatives[idx].convert(v)
	if err != nil {
		return nil, err
	}
	return finishUnion(m.goType, out)
}

func classList(c class) string {
	var names []string
	for bit := classNull; bit <= classObject; bit <<= 1 {
		if c&bit != 0 {
			names = append(names, classNames[bit])
		}
	}
	return strings.Join(names, " or ")
}

// orderedUnion tries alternatives in declaration order; the first success
// wins and the errors of every alternative are merged on failure.
type orderedUnion struct {
	goType       reflect.Type
	alternatives []Method
}

func (m *orderedUnion) Kind() MethodKind { return MethodUnion }

func (m *orderedUnion) convert(v any) (any, error) {
	var verr *errors.ValidationError
	for _, alt := range m.alternatives {
		out, err := alt.convert(v)
		if err == nil {
			return finishUnion(m.goType, out)
		}
		verr = errors.Merge(verr, asValidation(err))
	}
	return nil, verr
}

type discriminatedUnion struct {
	goType       reflect.Type
	tags         map[string]int
	property     string
	known        []string
	alternatives []Method
	strip        []bool
}

func (c *compiler) discriminated(t *descriptor.Type, convs []*descriptor.Conversion, alts []Method, path []string) (Method, error) {
	d := t.Discriminator
	if d.Property == "" {
		return nil, errors.InvalidSchema(errors.PhaseCompile, path, "discriminator has no property")
	}
	m := &discriminatedUnion{
		goType:       t.GoType,
		property:     d.Property,
		tags:         make(map[string]int),
		alternatives: alts,
		strip:        make([]bool, len(alts)),
	}
	for i, alt := range t.Alternatives {
		tags := d.Tags(t, i)
		if len(tags) == 0 {
			return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("alternative %s has no tag", alt))
		}
		for _, tag := range tags {
			m.tags[tag] = i
		}
		s, ok, err := c.shape(alt, convs, path)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NotObjectShaped(path, d.Property, alt.String())
		}
		m.strip[i] = !s.owns(d.Property)
	}
	for tag := range m.tags {
		m.known = append(m.known, tag)
	}
	slices.Sort(m.known)
	return m, nil
}

func (m *discriminatedUnion) Kind() MethodKind { return MethodUnion }

func (m *discriminatedUnion) convert(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("object", v)
	}
	raw, ok := obj[m.property]
	if !ok {
		return nil, errors.Nested(m.property, errors.Invalid("missing property"))
	}
	tag, _ := raw.(string)
	idx, ok := m.tags[tag]
	if !ok {
		quoted := make([]string, len(m.known))
		for i, k := range m.known {
			quoted[i] = fmt.Sprintf("%q", k)
		}
		return nil, errors.Nested(m.property, errors.Invalid("not one of ["+strings.Join(quoted, ", ")+"]"))
	}

	if m.strip[idx] {
		rest := make(map[string]any, len(obj)-1)
		for k, val := range obj {
			if k != m.property {
				rest[k] = val
			}
		}
		obj = rest
	}
	out, err := m.alternatives[idx].convert(obj)
	if err != nil {
		return nil, err
	}
	return finishUnion(m.goType, out)
}
