package codec

import (
	"sync"

	"github.com/wippyai/typecodec/conversion"
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
	"go.uber.org/zap"
)

// Context owns the state shared by compilations: the conversion registry,
// the method cache, recursion verdicts and generic instantiations.
//
// Cached lookups are lock-free. A miss takes the context lock for the whole
// top-level compilation, covering both the recursion detection walk and the
// compile walk; nested compilation never re-locks.
type Context struct {
	registry    *conversion.Registry
	constraints ConstraintSource
	verdicts    map[string]bool
	resolutions map[string]*resolution
	instances   map[string]*descriptor.Type
	cache       Cache
	mu          sync.Mutex
}

// NewContext creates a context over registry, or over a fresh registry
// when nil. The context drops its caches whenever the registry changes.
func NewContext(registry *conversion.Registry) *Context {
	if registry == nil {
		registry = conversion.NewRegistry()
	}
	c := &Context{
		registry:    registry,
		constraints: DescriptorConstraints{},
		verdicts:    make(map[string]bool),
		resolutions: make(map[string]*resolution),
		instances:   make(map[string]*descriptor.Type),
	}
	registry.Subscribe(c)
	return c
}

// Registry returns the conversion registry.
func (c *Context) Registry() *conversion.Registry {
	return c.registry
}

// SetConstraintSource replaces the source of constraints and validators
// and drops every compiled method.
func (c *Context) SetConstraintSource(src ConstraintSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if src == nil {
		src = DescriptorConstraints{}
	}
	c.constraints = src
	c.resetLocked()
}

// OnRegistryEvent implements conversion.Observer.
func (c *Context) OnRegistryEvent(e conversion.Event) {
	Logger().Debug("registry changed, dropping compiled methods",
		zap.Uint64("version", e.Version),
		zap.Int("methods", c.cache.Len()))
	c.Reset()
}

// Reset drops compiled methods, recursion verdicts and instantiations.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Context) resetLocked() {
	c.cache.Reset()
	clear(c.verdicts)
	clear(c.resolutions)
	clear(c.instances)
}

// Close detaches the context from its registry.
func (c *Context) Close() {
	c.registry.Unsubscribe(c)
}

// Cache returns the method cache.
func (c *Context) Cache() *Cache {
	return &c.cache
}

// Compile compiles t for direction dir. Conversions in convs take
// precedence over registered conversions for t and, through collections,
// mappings, tuples, unions and generic references, for its children.
func (c *Context) Compile(dir descriptor.Direction, t *descriptor.Type, convs []*descriptor.Conversion, opts Options) (*Executable, error) {
	if t == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("type cannot be nil").
			Build()
	}
	if err := opts.check(); err != nil {
		return nil, err
	}

	root := c.newCompiler(dir, opts)
	key := root.nodeKey(t, convs)
	if m, ok := c.cache.Load(key); ok {
		return &Executable{method: m, typ: t, direction: dir}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.cache.GetOrCompile(key, func() (Method, error) {
		Logger().Debug("compiling",
			zap.Stringer("type", t),
			zap.Stringer("direction", dir))
		m, err := root.compile(t, convs, nil)
		if err != nil {
			return nil, err
		}
		root.publish()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return &Executable{method: m, typ: t, direction: dir}, nil
}

// CompileDeserializer compiles t for tree to value conversion.
func (c *Context) CompileDeserializer(t *descriptor.Type, opts Options) (*Executable, error) {
	return c.Compile(descriptor.Deserialization, t, nil, opts)
}

// CompileSerializer compiles t for value to tree conversion.
func (c *Context) CompileSerializer(t *descriptor.Type, opts Options) (*Executable, error) {
	return c.Compile(descriptor.Serialization, t, nil, opts)
}

// IsCyclic reports whether t is part of a cycle of the type graph walked
// when compiling it for dir with opts.
func (c *Context) IsCyclic(dir descriptor.Direction, t *descriptor.Type, opts Options) (bool, error) {
	if err := opts.check(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	root := c.newCompiler(dir, opts)
	return root.isCyclic(t, nil, root.nodeKey(t, nil), nil)
}

// instantiate expands a generic reference once per context.
func (c *Context) instantiate(ref *descriptor.Type, path []string) (*descriptor.Type, error) {
	key := ref.ID()
	if inst, ok := c.instances[key]; ok {
		return inst, nil
	}
	inst, err := descriptor.Instantiate(ref)
	if err != nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindInvalidSchema).
			Path(path...).
			Type(ref.String()).
			Cause(err).
			Build()
	}
	c.instances[key] = inst
	return inst, nil
}
