package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// compiler walks descriptors for one direction and option set. Compilers
// derived with with() share the state of their top-level call.
type compiler struct {
	ctx    *Context
	state  *compileState
	optKey string
	opts   Options
	dir    descriptor.Direction
}

type compileState struct {
	pending  map[string]Method
	building map[string]*recursiveMethod
	depth    int
}

// resolution is what a node compiles through: nothing, conversions, or a
// generic instantiation. Both the recursion detector and the compile walk
// follow resolutions, so they see the same graph.
type resolution struct {
	instance    *descriptor.Type
	convs       []*descriptor.Conversion
	passThrough bool
}

// edge is a child node reached from a node, with its path segment.
type edge struct {
	t     *descriptor.Type
	c     *compiler
	seg   string
	convs []*descriptor.Conversion
}

func (c *Context) newCompiler(dir descriptor.Direction, opts Options) *compiler {
	return &compiler{
		ctx:    c,
		dir:    dir,
		opts:   opts,
		optKey: opts.key(),
		state: &compileState{
			pending:  make(map[string]Method),
			building: make(map[string]*recursiveMethod),
		},
	}
}

func (c *compiler) with(opts Options) *compiler {
	key := opts.key()
	if key == c.optKey {
		return c
	}
	return &compiler{ctx: c.ctx, state: c.state, dir: c.dir, opts: opts, optKey: key}
}

// forConversion applies the per-conversion overrides to the inner side.
func (c *compiler) forConversion(conv *descriptor.Conversion) *compiler {
	opts := c.opts
	if conv.Coercion != nil {
		if *conv.Coercion {
			if opts.Coercion == CoercionOff {
				opts.Coercion = CoercionOn
			}
		} else {
			opts.Coercion = CoercionOff
		}
	}
	if conv.SkipValidation {
		opts.skipValidation = true
	}
	return c.with(opts)
}

// keys compiles mapping keys, which always arrive as strings.
func (c *compiler) keys() *compiler {
	if c.dir == descriptor.Serialization || c.opts.Coercion != CoercionOff {
		return c
	}
	opts := c.opts
	opts.Coercion = CoercionOn
	return c.with(opts)
}

// alternatives compiles union alternatives. Serialized alternatives must
// fail on mismatch so the next one gets a chance.
func (c *compiler) alternatives() *compiler {
	if c.dir == descriptor.Deserialization || !c.opts.FallbackToAny {
		return c
	}
	opts := c.opts
	opts.FallbackToAny = false
	return c.with(opts)
}

func (c *compiler) nodeKey(t *descriptor.Type, convs []*descriptor.Conversion) string {
	var b strings.Builder
	if c.dir == descriptor.Serialization {
		b.WriteString("s|")
	} else {
		b.WriteString("d|")
	}
	b.WriteString(t.ID())
	b.WriteByte('|')
	for i, conv := range convs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%p", conv)
	}
	b.WriteByte('|')
	b.WriteString(c.optKey)
	return b.String()
}

// property returns the tree name of record field f.
func (c *compiler) property(f *descriptor.Field) string {
	return c.opts.property(f.Property())
}

func (c *compiler) serializedProperty(sm *descriptor.Serialized) string {
	return c.opts.property(sm.Property())
}

func serializedConversions(sm *descriptor.Serialized) []*descriptor.Conversion {
	if sm.Serialization != nil {
		return []*descriptor.Conversion{sm.Serialization}
	}
	return nil
}

func childPath(path []string, seg string) []string {
	if seg == "" {
		return path
	}
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

func withPath(err error, path []string) error {
	var e *errors.Error
	if errors.As(err, &e) && e.Path == nil && len(path) > 0 {
		cp := *e
		cp.Path = append([]string(nil), path...)
		return &cp
	}
	return err
}

// fieldConversions returns the per-field overrides for the direction.
func (c *compiler) fieldConversions(f *descriptor.Field) []*descriptor.Conversion {
	if c.dir == descriptor.Serialization {
		if f.Serialization != nil {
			return []*descriptor.Conversion{f.Serialization}
		}
		return nil
	}
	return f.Deserialization
}

// includes reports whether a field takes part in the direction.
func (c *compiler) includes(f *descriptor.Field) bool {
	if c.dir == descriptor.Serialization {
		return f.Kind != descriptor.FieldWriteOnly
	}
	return f.Kind != descriptor.FieldReadOnly
}

func (c *compiler) resolve(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (*resolution, error) {
	key := c.nodeKey(t, convs)
	if r, ok := c.ctx.resolutions[key]; ok {
		return r, nil
	}

	r := &resolution{}
	switch {
	case c.opts.PassThrough != nil && c.opts.PassThrough(t):
		r.passThrough = true
	case t.Kind == descriptor.KindTypeVar:
		return nil, errors.Unsupported(errors.PhaseCompile, path, fmt.Sprintf("unbound type variable %s", t.Var))
	default:
		selected, err := c.selectConversions(t, convs)
		if err != nil {
			return nil, withPath(err, path)
		}
		r.convs = selected
		if len(selected) == 0 && t.Kind == descriptor.KindGeneric {
			inst, err := c.ctx.instantiate(t, path)
			if err != nil {
				return nil, err
			}
			r.instance = inst
		}
	}

	c.ctx.resolutions[key] = r
	return r, nil
}

func (c *compiler) selectConversions(t *descriptor.Type, convs []*descriptor.Conversion) ([]*descriptor.Conversion, error) {
	if len(convs) > 0 {
		origin := conversion.OriginKey(t)
		var candidates []*descriptor.Conversion
		for _, conv := range convs {
			if conversion.OriginKey(conv.Outer(c.dir)) == origin {
				candidates = append(candidates, conv)
			}
		}
		if len(candidates) > 0 {
			return conversion.Select(c.dir, t, candidates)
		}
	}

	selected, err := c.ctx.registry.Resolve(c.dir, t)
	if err != nil {
		return nil, err
	}
	// a conversion whose inner side is the requested type itself would loop
	out := selected[:0:0]
	for _, conv := range selected {
		if inner := conv.Inner(c.dir); inner != t && inner.ID() != t.ID() {
			out = append(out, conv)
		}
	}
	return out, nil
}

// edges lists the children compiled for a node, in compile order.
func (c *compiler) edges(t *descriptor.Type, convs []*descriptor.Conversion, path []string) ([]edge, error) {
	r, err := c.resolve(t, convs, path)
	if err != nil {
		return nil, err
	}
	switch {
	case r.passThrough:
		return nil, nil
	case len(r.convs) > 0:
		selected := r.convs
		if c.dir == descriptor.Serialization {
			selected = selected[:1]
		}
		out := make([]edge, len(selected))
		for i, conv := range selected {
			out[i] = edge{t: conv.Inner(c.dir), convs: conv.SubConversions, c: c.forConversion(conv)}
		}
		return out, nil
	case r.instance != nil:
		return []edge{{t: r.instance, convs: convs, c: c}}, nil
	}

	switch t.Kind {
	case descriptor.KindCollection:
		return []edge{{t: t.Elem, convs: convs, c: c, seg: "[elem]"}}, nil
	case descriptor.KindMapping:
		return []edge{
			{t: mappingKey(t), convs: convs, c: c.keys(), seg: "[key]"},
			{t: t.Elem, convs: convs, c: c, seg: "[value]"},
		}, nil
	case descriptor.KindTuple:
		out := make([]edge, len(t.Elems))
		for i, e := range t.Elems {
			out[i] = edge{t: e, convs: convs, c: c, seg: "[" + strconv.Itoa(i) + "]"}
		}
		return out, nil
	case descriptor.KindUnion:
		ac := c.alternatives()
		out := make([]edge, len(t.Alternatives))
		for i, alt := range t.Alternatives {
			out[i] = edge{t: alt, convs: convs, c: ac, seg: "[" + alt.String() + "]"}
		}
		return out, nil
	case descriptor.KindRecord:
		out := make([]edge, 0, len(t.Fields))
		for i := range t.Fields {
			f := &t.Fields[i]
			if !c.includes(f) {
				continue
			}
			if f.Type == nil {
				return nil, errors.InvalidSchema(errors.PhaseCompile, childPath(path, c.property(f)), "field has no type")
			}
			out = append(out, edge{t: f.Type, convs: c.fieldConversions(f), c: c, seg: c.property(f)})
		}
		if c.dir == descriptor.Serialization {
			for i := range t.Serialized {
				sm := &t.Serialized[i]
				if sm.Type == nil {
					return nil, errors.InvalidSchema(errors.PhaseCompile, childPath(path, c.serializedProperty(sm)), "serialized property has no type")
				}
				out = append(out, edge{t: sm.Type, convs: serializedConversions(sm), c: c, seg: c.serializedProperty(sm)})
			}
		}
		return out, nil
	}
	return nil, nil
}

func mappingKey(t *descriptor.Type) *descriptor.Type {
	if t.Key == nil {
		return descriptor.String
	}
	return t.Key
}

// compile returns the method of a node, from the cache, the methods
// produced earlier in this call, a recursive placeholder when the node is
// being built further up the stack, or by building it.
func (c *compiler) compile(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	if t == nil {
		return nil, errors.InvalidSchema(errors.PhaseCompile, path, "missing type")
	}
	key := c.nodeKey(t, convs)
	if m, ok := c.ctx.cache.Load(key); ok {
		return m, nil
	}
	st := c.state
	if m, ok := st.pending[key]; ok {
		return m, nil
	}
	if rec, ok := st.building[key]; ok {
		return rec, nil
	}

	st.depth++
	defer func() { st.depth-- }()
	if st.depth > c.opts.maxDepth() {
		return nil, errors.DepthExceeded(path, c.opts.maxDepth())
	}

	cyclic, err := c.isCyclic(t, convs, key, path)
	if err != nil {
		return nil, err
	}

	if !cyclic {
		m, err := c.build(t, convs, path)
		if err != nil {
			return nil, err
		}
		st.pending[key] = m
		return m, nil
	}

	rec := &recursiveMethod{key: key}
	st.building[key] = rec
	m, err := c.build(t, convs, path)
	delete(st.building, key)
	if err != nil {
		return nil, err
	}
	rec.set(m)
	st.pending[key] = m
	return m, nil
}

// publish moves the methods of a successful top-level call to the cache.
// Nothing is published when the call fails, so no cached method can hold
// a placeholder that was never set.
func (c *compiler) publish() {
	for key, m := range c.state.pending {
		c.ctx.cache.Store(key, m)
	}
	clear(c.state.pending)
}

func (c *compiler) build(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	r, err := c.resolve(t, convs, path)
	if err != nil {
		return nil, err
	}
	switch {
	case r.passThrough:
		return identityMethod{}, nil
	case len(r.convs) > 0:
		m, err := c.buildConversion(t, r.convs, path)
		if err != nil {
			return nil, err
		}
		return c.merge(t, m), nil
	case r.instance != nil:
		return c.compile(r.instance, convs, path)
	}

	if c.dir == descriptor.Serialization {
		return c.serializer(t, convs, path)
	}
	m, err := c.deserializer(t, convs, path)
	if err != nil {
		return nil, err
	}
	return c.merge(t, m), nil
}

// merge attaches the constraints and validators of t to a deserialization
// method. Record validators run inside the record method.
func (c *compiler) merge(t *descriptor.Type, m Method) Method {
	if c.dir == descriptor.Serialization || c.opts.skipValidation {
		return m
	}
	src := c.ctx.constraints
	var vs []descriptor.Validator
	if t.Kind != descriptor.KindRecord {
		vs = src.ValidatorsOf(t)
	}
	return validated(m, src.ConstraintsOf(t), vs)
}

func (c *compiler) buildConversion(t *descriptor.Type, convs []*descriptor.Conversion, path []string) (Method, error) {
	if c.dir == descriptor.Serialization {
		conv := convs[0]
		inner, err := c.forConversion(conv).compile(conv.Target, conv.SubConversions, path)
		if err != nil {
			return nil, err
		}
		return &conversionMethod{inner: inner, fn: conv.Converter, name: conv.String(), serialize: true}, nil
	}

	methods := make([]Method, len(convs))
	for i, conv := range convs {
		inner, err := c.forConversion(conv).compile(conv.Source, conv.SubConversions, path)
		if err != nil {
			return nil, err
		}
		methods[i] = &conversionMethod{inner: inner, fn: conv.Converter, name: conv.String(), goType: t.GoType}
	}
	if len(methods) == 1 {
		return methods[0], nil
	}
	return &orderedUnion{alternatives: methods}, nil
}
