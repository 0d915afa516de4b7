package codec

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// FieldsSet is implemented by struct values that track which fields were
// explicitly set. It drives ExcludeUnset for struct records; records
// represented as maps use key presence instead.
type FieldsSet interface {
	IsFieldSet(name string) bool
}

type recordField struct {
	method     Method
	def        *descriptor.Default
	pattern    *regexp.Regexp
	shape      *objectShape
	skip       descriptor.Skip
	name       string
	alias      string
	index      []int
	requiredBy []string
	kind       descriptor.FieldKind
	required   bool
	fallback   bool
}

// compileFields compiles the fields of a record taking part in the
// direction and checks the merged field invariants.
func (c *compiler) compileFields(t *descriptor.Type, path []string) ([]recordField, error) {
	if t.GoType != nil && t.GoType.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, path, t.GoType.String(), "struct")
	}

	// requiredBy maps a field to the properties whose presence requires it
	requiredBy := make(map[string][]string)
	for name, deps := range t.DependentRequired {
		f, ok := t.Field(name)
		if !ok {
			return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("dependent requirement on unknown field %q", name))
		}
		for _, dep := range deps {
			df, ok := t.Field(dep)
			if !ok {
				return nil, errors.InvalidSchema(errors.PhaseCompile, path, fmt.Sprintf("dependent requirement on unknown field %q", dep))
			}
			requiredBy[df.Name] = append(requiredBy[df.Name], c.property(&f))
		}
	}

	fields := make([]recordField, 0, len(t.Fields))
	additional := 0
	for i := range t.Fields {
		f := &t.Fields[i]
		if !c.includes(f) {
			continue
		}
		fpath := childPath(path, c.property(f))
		convs := c.fieldConversions(f)
		m, err := c.compile(f.Type, convs, fpath)
		if err != nil {
			return nil, err
		}

		rf := recordField{
			method:     m,
			def:        f.Default,
			pattern:    f.Pattern,
			skip:       f.Skip,
			name:       f.Name,
			alias:      c.property(f),
			index:      f.GoIndex,
			requiredBy: requiredBy[f.Name],
			kind:       f.Kind,
			required:   f.Required,
			fallback:   f.FallBackOnDefault || c.opts.FallBackOnDefault,
		}
		if t.GoType != nil && len(f.GoIndex) == 0 {
			return nil, errors.InvalidSchema(errors.PhaseCompile, fpath, "struct record field has no Go index")
		}

		if f.Kind.Merged() {
			s, ok, err := c.shape(f.Type, convs, fpath)
			if err != nil {
				return nil, err
			}
			if !ok || (f.Kind != descriptor.FieldFlattened && !s.open) {
				return nil, errors.NotObjectShaped(path, f.Name, f.Type.String())
			}
			rf.shape = s
		}
		switch f.Kind {
		case descriptor.FieldAdditional:
			additional++
			if additional > 1 {
				return nil, errors.InvalidSchema(errors.PhaseCompile, path, "record has more than one additional properties field")
			}
		case descriptor.FieldPattern:
			if f.Pattern == nil {
				return nil, errors.InvalidSchema(errors.PhaseCompile, fpath, "pattern properties field has no pattern")
			}
		}
		if len(f.Validators) > 0 && c.dir == descriptor.Deserialization && !c.opts.skipValidation {
			rf.method = validated(rf.method, nil, f.Validators)
		}
		fields = append(fields, rf)
	}
	return fields, nil
}

type recordDeserializer struct {
	goType     reflect.Type
	fields     []recordField
	validators []descriptor.Validator
	additional bool
	simple     bool
}

func (c *compiler) deserializeRecord(t *descriptor.Type, path []string) (Method, error) {
	fields, err := c.compileFields(t, path)
	if err != nil {
		return nil, err
	}
	m := &recordDeserializer{
		goType:     t.GoType,
		fields:     fields,
		additional: c.opts.AdditionalProperties,
	}
	if !c.opts.skipValidation {
		m.validators = c.ctx.constraints.ValidatorsOf(t)
	}

	m.simple = len(m.validators) == 0
	for _, f := range fields {
		if f.kind != descriptor.FieldNormal || !f.required || f.fallback {
			m.simple = false
		}
	}
	return m, nil
}

func (m *recordDeserializer) Kind() MethodKind { return MethodRecord }

func (m *recordDeserializer) convert(v any) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, typeError("object", v)
	}
	if m.simple {
		return m.convertSimple(obj)
	}
	return m.convertGeneral(obj)
}

// convertSimple handles records whose fields are all required plain fields.
func (m *recordDeserializer) convertSimple(obj map[string]any) (any, error) {
	values := make(map[string]any, len(m.fields))
	var verr *errors.ValidationError
	found := 0
	for i := range m.fields {
		f := &m.fields[i]
		raw, ok := obj[f.alias]
		if !ok {
			verr = errors.Merge(verr, errors.Nested(f.alias, errors.Invalid("missing property")))
			continue
		}
		found++
		out, err := f.method.convert(raw)
		if err != nil {
			verr = errors.Merge(verr, errors.Nested(f.alias, asValidation(err)))
			continue
		}
		values[f.name] = out
	}
	if !m.additional && found < len(obj) {
		consumed := make(map[string]bool, found)
		for i := range m.fields {
			consumed[m.fields[i].alias] = true
		}
		verr = errors.Merge(verr, unexpected(obj, consumed))
	}
	if verr != nil {
		return nil, verr
	}
	return m.build(values)
}

func (m *recordDeserializer) convertGeneral(obj map[string]any) (any, error) {
	values := make(map[string]any, len(m.fields))
	consumed := make(map[string]bool, len(obj))
	var verr *errors.ValidationError

	for i := range m.fields {
		f := &m.fields[i]
		if f.kind.Merged() {
			continue
		}
		consumed[f.alias] = true
		raw, ok := obj[f.alias]
		if !ok {
			switch {
			case f.required || requiredBy(obj, f.requiredBy):
				verr = errors.Merge(verr, errors.Nested(f.alias, errors.Invalid("missing property")))
			case f.def != nil:
				values[f.name] = f.def.Get()
			}
			continue
		}
		out, err := f.method.convert(raw)
		if err != nil {
			if f.fallback && f.def != nil {
				values[f.name] = f.def.Get()
				continue
			}
			verr = errors.Merge(verr, errors.Nested(f.alias, asValidation(err)))
			continue
		}
		values[f.name] = out
	}

	// closed flattened fields, then pattern fields, then open fields take
	// what is left
	for _, pass := range []func(*recordField) bool{
		func(f *recordField) bool { return f.kind == descriptor.FieldFlattened && !f.shape.open },
		func(f *recordField) bool { return f.kind == descriptor.FieldPattern },
		func(f *recordField) bool { return f.kind == descriptor.FieldFlattened && f.shape.open },
		func(f *recordField) bool { return f.kind == descriptor.FieldAdditional },
	} {
		for i := range m.fields {
			f := &m.fields[i]
			if !pass(f) {
				continue
			}
			sub := make(map[string]any)
			for k, raw := range obj {
				if consumed[k] {
					continue
				}
				if f.kind == descriptor.FieldPattern && !f.pattern.MatchString(k) {
					continue
				}
				if f.kind == descriptor.FieldFlattened && !f.shape.owns(k) {
					continue
				}
				sub[k] = raw
				consumed[k] = true
			}
			out, err := f.method.convert(sub)
			if err != nil {
				if f.fallback && f.def != nil {
					values[f.name] = f.def.Get()
					continue
				}
				verr = errors.Merge(verr, asValidation(err))
				continue
			}
			values[f.name] = out
		}
	}

	if !m.additional {
		verr = errors.Merge(verr, unexpected(obj, consumed))
	}

	if verr != nil {
		for _, val := range m.validators {
			if len(val.Dependencies) == 0 || val.Func == nil {
				continue
			}
			if !slices.ContainsFunc(val.Dependencies, func(dep string) bool { _, ok := values[dep]; return !ok }) {
				verr = errors.Merge(verr, validatorError(val.Func(values)))
			}
		}
		return nil, verr
	}
	return m.build(values)
}

func requiredBy(obj map[string]any, aliases []string) bool {
	for _, a := range aliases {
		if _, ok := obj[a]; ok {
			return true
		}
	}
	return false
}

func unexpected(obj map[string]any, consumed map[string]bool) *errors.ValidationError {
	var verr *errors.ValidationError
	for k := range obj {
		if !consumed[k] {
			verr = errors.Merge(verr, errors.Nested(k, errors.Invalid("unexpected property")))
		}
	}
	return verr
}

func (m *recordDeserializer) build(values map[string]any) (any, error) {
	var out any = values
	if m.goType != nil {
		rv := reflect.New(m.goType).Elem()
		var verr *errors.ValidationError
		for i := range m.fields {
			f := &m.fields[i]
			val, ok := values[f.name]
			if !ok {
				continue
			}
			slot := rv.FieldByIndex(f.index)
			av, err := assign(slot.Type(), val)
			if err != nil {
				verr = errors.Merge(verr, errors.Nested(f.alias, errors.Invalid(err.Error())))
				continue
			}
			slot.Set(av)
		}
		if verr != nil {
			return nil, verr
		}
		out = rv.Interface()
	}

	if verr := runValidators(m.validators, out); !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

// serializedField is a compiled computed property.
type serializedField struct {
	method Method
	get    func(any) (any, error)
	alias  string
}

type recordSerializer struct {
	goType          reflect.Type
	fields          []recordField
	serialized      []serializedField
	excludeUnset    bool
	excludeNone     bool
	excludeDefaults bool
	fallbackToAny   bool
}

func (c *compiler) serializeRecord(t *descriptor.Type, path []string) (Method, error) {
	fields, err := c.compileFields(t, path)
	if err != nil {
		return nil, err
	}
	serialized := make([]serializedField, 0, len(t.Serialized))
	for i := range t.Serialized {
		sm := &t.Serialized[i]
		alias := c.serializedProperty(sm)
		if sm.Type == nil || sm.Get == nil {
			return nil, errors.InvalidSchema(errors.PhaseCompile, childPath(path, alias), "serialized property needs a type and a getter")
		}
		m, err := c.compile(sm.Type, serializedConversions(sm), childPath(path, alias))
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, serializedField{method: m, get: sm.Get, alias: alias})
	}
	return &recordSerializer{
		goType:          t.GoType,
		fields:          fields,
		serialized:      serialized,
		excludeUnset:    c.opts.ExcludeUnset,
		excludeNone:     c.opts.ExcludeNone,
		excludeDefaults: c.opts.ExcludeDefaults,
		fallbackToAny:   c.opts.FallbackToAny,
	}, nil
}

func (m *recordSerializer) Kind() MethodKind { return MethodRecord }

func (m *recordSerializer) convert(v any) (any, error) {
	var rv reflect.Value
	var plain map[string]any
	set, _ := v.(FieldsSet)

	if m.goType != nil {
		rv = reflect.ValueOf(v)
		for rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
			rv = rv.Elem()
		}
		if !rv.IsValid() || rv.Type() != m.goType {
			return m.mismatch(v)
		}
		if set == nil && rv.CanAddr() {
			set, _ = rv.Addr().Interface().(FieldsSet)
		}
	} else {
		var ok bool
		if plain, ok = v.(map[string]any); !ok {
			return m.mismatch(v)
		}
	}

	out := make(map[string]any, len(m.fields))
	for i := range m.fields {
		f := &m.fields[i]
		var val any
		if plain != nil {
			var present bool
			if val, present = plain[f.name]; !present {
				if f.required && f.kind == descriptor.FieldNormal && !m.fallbackToAny {
					return nil, errors.FieldMissing(errors.PhaseSerialize, []string{f.alias}, f.name)
				}
				continue
			}
		} else {
			val = rv.FieldByIndex(f.index).Interface()
		}
		if m.skipped(f, val, set) || (f.kind.Merged() && isNil(val)) {
			continue
		}

		tv, err := f.method.convert(val)
		if err != nil {
			return nil, prefixPath(err, f.alias)
		}
		if !f.kind.Merged() {
			out[f.alias] = tv
			continue
		}
		merged, ok := tv.(map[string]any)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseSerialize, []string{f.alias}, fmt.Sprintf("%T", tv), "object")
		}
		for k, mv := range merged {
			out[k] = mv
		}
	}

	if len(m.serialized) > 0 {
		record := v
		if rv.IsValid() {
			record = rv.Interface()
		}
		for i := range m.serialized {
			sf := &m.serialized[i]
			val, err := sf.get(record)
			if err != nil {
				return nil, errors.New(errors.PhaseSerialize, errors.KindInvalidInput).
					Path(sf.alias).
					Cause(err).
					Build()
			}
			if m.excludeNone && isNil(val) {
				continue
			}
			tv, err := sf.method.convert(val)
			if err != nil {
				return nil, prefixPath(err, sf.alias)
			}
			out[sf.alias] = tv
		}
	}
	return out, nil
}

func (m *recordSerializer) skipped(f *recordField, val any, set FieldsSet) bool {
	if m.excludeUnset && set != nil && !set.IsFieldSet(f.name) {
		return true
	}
	if (m.excludeNone || f.skip.None) && isNil(val) {
		return true
	}
	if (m.excludeDefaults || f.skip.Default) && f.def != nil && reflect.DeepEqual(val, f.def.Get()) {
		return true
	}
	return f.skip.If != nil && f.skip.If(val)
}

func (m *recordSerializer) mismatch(v any) (any, error) {
	if m.fallbackToAny {
		return toTree(v), nil
	}
	expected := "object"
	if m.goType != nil {
		expected = m.goType.String()
	}
	return nil, errors.TypeMismatch(errors.PhaseSerialize, nil, fmt.Sprintf("%T", v), expected)
}

// prefixPath prepends seg to the path of a serialization error.
func prefixPath(err error, seg string) error {
	var e *errors.Error
	if errors.As(err, &e) {
		cp := *e
		cp.Path = append([]string{seg}, e.Path...)
		return &cp
	}
	return errors.Wrap(errors.PhaseSerialize, errors.KindInvalidInput, err, seg)
}
