package schemadoc

import (
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
)

// Document holds the named descriptors of a schema document.
type Document struct {
	types map[string]*descriptor.Type
	names []string
}

// Lookup returns the descriptor named name.
func (d *Document) Lookup(name string) (*descriptor.Type, error) {
	t, ok := d.types[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "type", name)
	}
	return t, nil
}

// Names lists the type names in document order.
func (d *Document) Names() []string {
	return slices.Clone(d.names)
}

// LoadFile reads and loads a schema document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read schema "+path, err)
	}
	return Load(data)
}

// Load parses a schema document. Names may be referenced before they are
// defined and may refer to themselves through containers.
func Load(data []byte) (*Document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Load("invalid schema document", err)
	}
	if doc.Types.Kind != yaml.MappingNode {
		return nil, errors.Load("schema document has no types mapping", nil)
	}

	l := &loader{
		doc:   &Document{types: make(map[string]*descriptor.Type)},
		defs:  make(map[string]*yaml.Node),
		state: make(map[string]fillState),
	}
	content := doc.Types.Content
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value
		if _, dup := l.defs[name]; dup {
			return nil, errors.InvalidSchema(errors.PhaseLoad, []string{name}, "duplicate type")
		}
		if _, builtin := builtins[name]; builtin {
			return nil, errors.InvalidSchema(errors.PhaseLoad, []string{name}, "type name shadows a builtin")
		}
		l.defs[name] = content[i+1]
		l.doc.types[name] = &descriptor.Type{}
		l.doc.names = append(l.doc.names, name)
	}

	for _, name := range l.doc.names {
		if err := l.fill(name); err != nil {
			return nil, err
		}
	}
	return l.doc, nil
}

type fillState uint8

const (
	unfilled fillState = iota
	filling
	filled
)

type loader struct {
	doc   *Document
	defs  map[string]*yaml.Node
	state map[string]fillState
}

// fill builds the definition of name into its placeholder.
func (l *loader) fill(name string) error {
	if l.state[name] != unfilled {
		return nil
	}
	l.state[name] = filling

	node := deref(l.defs[name])
	path := []string{name}
	var params []string
	scope := map[string]bool{}
	if node.Kind == yaml.MappingNode {
		if p := lookup(node, "params"); p != nil {
			if err := p.Decode(&params); err != nil {
				return errors.Load(fmt.Sprintf("type %s: invalid params", name), err)
			}
			for _, v := range params {
				scope[v] = true
			}
			node = without(node, "params")
		}
	}

	built, err := l.expr(node, scope, path)
	if err != nil {
		return err
	}
	if l.pending(built) {
		return errors.InvalidSchema(errors.PhaseLoad, path, "alias cycle")
	}

	ph := l.doc.types[name]
	*ph = *built
	ph.Name = name
	ph.Params = params
	l.state[name] = filled
	return nil
}

// pending reports whether t is a placeholder still being filled.
func (l *loader) pending(t *descriptor.Type) bool {
	for name, ph := range l.doc.types {
		if ph == t {
			return l.state[name] == filling
		}
	}
	return false
}

func (l *loader) named(name string, scope map[string]bool, path []string) (*descriptor.Type, error) {
	if scope[name] {
		return descriptor.Var(name), nil
	}
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	t, ok := l.doc.types[name]
	if !ok {
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Path(path...).
			Detail("unknown type %q", name).
			Build()
	}
	if err := l.fill(name); err != nil {
		return nil, err
	}
	return t, nil
}

// expr builds a type expression: a type name, or a mapping with one kind
// key (list, map, tuple, optional, union, enum, literal, record, ref, type)
// and optional constraint keys.
func (l *loader) expr(n *yaml.Node, scope map[string]bool, path []string) (*descriptor.Type, error) {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return l.named(n.Value, scope, path)
	case yaml.MappingNode:
	default:
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, "type expression must be a name or a mapping")
	}

	var kind string
	var body *yaml.Node
	hasConstraints := false
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		switch {
		case constraintKeys[key]:
			hasConstraints = true
		case kind != "":
			return nil, errors.InvalidSchema(errors.PhaseLoad, path, fmt.Sprintf("type expression has both %q and %q", kind, key))
		default:
			kind, body = key, n.Content[i+1]
		}
	}

	t, err := l.kind(kind, body, scope, path)
	if err != nil {
		return nil, err
	}
	if !hasConstraints {
		return t, nil
	}
	if l.pending(t) {
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, "alias cycle")
	}
	var spec constraintSpec
	if err := n.Decode(&spec); err != nil {
		return nil, errors.Load(fmt.Sprintf("invalid constraints at %v", path), err)
	}
	cs, err := spec.build()
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("invalid pattern at %v", path), err)
	}
	return t.WithConstraints(cs), nil
}

func (l *loader) kind(kind string, body *yaml.Node, scope map[string]bool, path []string) (*descriptor.Type, error) {
	switch kind {
	case "type":
		return l.expr(body, scope, path)
	case "list":
		elem, err := l.expr(body, scope, at(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return descriptor.Collection(elem), nil
	case "map":
		elem, err := l.expr(body, scope, at(path, "[value]"))
		if err != nil {
			return nil, err
		}
		return descriptor.Mapping(nil, elem), nil
	case "optional":
		inner, err := l.expr(body, scope, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Optional(inner), nil
	case "tuple":
		elems, err := l.list(body, scope, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Tuple(elems...), nil
	case "union":
		return l.union(body, scope, path)
	case "enum", "literal":
		var values []any
		if err := body.Decode(&values); err != nil {
			return nil, errors.Load(fmt.Sprintf("invalid %s values at %v", kind, path), err)
		}
		if kind == "literal" {
			return descriptor.Literal(values...), nil
		}
		ev := make([]descriptor.EnumValue, len(values))
		for i, v := range values {
			ev[i] = descriptor.EnumValue{Tree: v, Go: v}
		}
		return descriptor.Enum("", ev...), nil
	case "record":
		return l.record(body, scope, path)
	case "ref":
		return l.ref(body, scope, path)
	case "":
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, "type expression has no kind")
	default:
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, fmt.Sprintf("unknown type kind %q", kind))
	}
}

func (l *loader) list(n *yaml.Node, scope map[string]bool, path []string) ([]*descriptor.Type, error) {
	n = deref(n)
	if n.Kind != yaml.SequenceNode {
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, "expected a list of types")
	}
	out := make([]*descriptor.Type, len(n.Content))
	for i, item := range n.Content {
		t, err := l.expr(item, scope, at(path, fmt.Sprintf("[%d]", i)))
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (l *loader) union(body *yaml.Node, scope map[string]bool, path []string) (*descriptor.Type, error) {
	body = deref(body)
	if body.Kind == yaml.SequenceNode {
		alts, err := l.list(body, scope, path)
		if err != nil {
			return nil, err
		}
		return descriptor.Union(alts...), nil
	}

	var spec unionSpec
	if err := body.Decode(&spec); err != nil {
		return nil, errors.Load(fmt.Sprintf("invalid union at %v", path), err)
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i := range spec.Of {
		seq.Content = append(seq.Content, &spec.Of[i])
	}
	alts, err := l.list(seq, scope, path)
	if err != nil {
		return nil, err
	}
	t := descriptor.Union(alts...)
	if spec.Discriminator == "" {
		return t, nil
	}

	d := &descriptor.Discriminator{Property: spec.Discriminator}
	if len(spec.Mapping) > 0 {
		d.Mapping = make(map[string]int, len(spec.Mapping))
		for tag, name := range spec.Mapping {
			idx := slices.IndexFunc(spec.Of, func(n yaml.Node) bool { return n.Value == name })
			if idx < 0 {
				return nil, errors.InvalidSchema(errors.PhaseLoad, path, fmt.Sprintf("discriminator tag %q maps to %q which is not an alternative", tag, name))
			}
			d.Mapping[tag] = idx
		}
	}
	t.Discriminator = d
	return t, nil
}

func (l *loader) record(body *yaml.Node, scope map[string]bool, path []string) (*descriptor.Type, error) {
	var spec recordSpec
	if err := body.Decode(&spec); err != nil {
		return nil, errors.Load(fmt.Sprintf("invalid record at %v", path), err)
	}

	t := descriptor.Record("")
	t.DependentRequired = spec.DependentRequired
	for _, fs := range spec.Fields {
		fpath := at(path, fs.Name)
		if fs.Name == "" {
			return nil, errors.InvalidSchema(errors.PhaseLoad, path, "field without name")
		}
		kind, ok := fieldKinds[fs.Kind]
		if !ok {
			return nil, errors.InvalidSchema(errors.PhaseLoad, fpath, fmt.Sprintf("unknown field kind %q", fs.Kind))
		}
		ft, err := l.expr(&fs.Type, scope, fpath)
		if err != nil {
			return nil, err
		}

		f := descriptor.Field{
			Name:              fs.Name,
			Alias:             fs.Alias,
			Type:              ft,
			Kind:              kind,
			Required:          fs.Required,
			FallBackOnDefault: fs.Fallback,
			Skip:              descriptor.Skip{None: fs.SkipNone, Default: fs.SkipDefault},
		}
		if fs.Pattern != "" {
			if f.Pattern, err = regexp.Compile(fs.Pattern); err != nil {
				return nil, errors.Load(fmt.Sprintf("invalid pattern at %v", fpath), err)
			}
		}
		if fs.Default.Kind != 0 {
			var v any
			if err := fs.Default.Decode(&v); err != nil {
				return nil, errors.Load(fmt.Sprintf("invalid default at %v", fpath), err)
			}
			f.Default = descriptor.DefaultValue(v)
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

// ref builds a generic reference: {ref: Name, args: [...]}.
func (l *loader) ref(body *yaml.Node, scope map[string]bool, path []string) (*descriptor.Type, error) {
	body = deref(body)
	var origin *descriptor.Type
	var args []*descriptor.Type
	var err error
	switch body.Kind {
	case yaml.ScalarNode:
		origin, err = l.named(body.Value, scope, path)
	case yaml.SequenceNode:
		if len(body.Content) == 0 {
			return nil, errors.InvalidSchema(errors.PhaseLoad, path, "ref needs a type name")
		}
		if origin, err = l.named(body.Content[0].Value, scope, path); err != nil {
			return nil, err
		}
		rest := &yaml.Node{Kind: yaml.SequenceNode, Content: body.Content[1:]}
		args, err = l.list(rest, scope, path)
	default:
		return nil, errors.InvalidSchema(errors.PhaseLoad, path, "ref must be a name or [name, args...]")
	}
	if err != nil {
		return nil, err
	}
	return descriptor.Generic(origin, args...), nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return deref(n.Content[0])
	}
	return n
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func without(n *yaml.Node, key string) *yaml.Node {
	out := *n
	out.Content = nil
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value != key {
			out.Content = append(out.Content, n.Content[i], n.Content[i+1])
		}
	}
	return &out
}

func at(path []string, seg string) []string {
	return append(path[:len(path):len(path)], seg)
}
