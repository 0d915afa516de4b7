package conversion

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
	"go.uber.org/zap"
)

// EventType identifies a registry change.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReset
)

// Event describes a registry change.
type Event struct {
	Conversion *descriptor.Conversion
	Version    uint64
	Type       EventType
	Direction  descriptor.Direction
}

// Observer is notified after every registry mutation.
type Observer interface {
	OnRegistryEvent(Event)
}

// Registry holds registered conversions indexed by the origin of the side
// matched against requests: the target for deserialization, the source for
// serialization.
type Registry struct {
	byDir     [2]map[string][]*descriptor.Conversion
	observers []Observer
	version   atomic.Uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.byDir[descriptor.Deserialization] = make(map[string][]*descriptor.Conversion)
	r.byDir[descriptor.Serialization] = make(map[string][]*descriptor.Conversion)
	return r
}

// Register adds conv for direction dir. Later registrations for the same
// origin are tried first.
func (r *Registry) Register(dir descriptor.Direction, conv *descriptor.Conversion) error {
	if err := check(conv); err != nil {
		return err
	}
	key := OriginKey(conv.Outer(dir))

	r.mu.Lock()
	r.byDir[dir][key] = append([]*descriptor.Conversion{conv}, r.byDir[dir][key]...)
	r.mu.Unlock()

	v := r.version.Add(1)
	Logger().Debug("conversion registered",
		zap.Stringer("conversion", conv),
		zap.Stringer("direction", dir),
		zap.Uint64("version", v))
	r.notify(Event{Type: EventRegistered, Direction: dir, Conversion: conv, Version: v})
	return nil
}

// RegisterFunc parses fn with ParseConverter and registers it between source and target.
func (r *Registry) RegisterFunc(dir descriptor.Direction, source, target *descriptor.Type, fn any) error {
	c, err := ParseConverter(fn)
	if err != nil {
		return err
	}
	return r.Register(dir, &descriptor.Conversion{
		Name:      c.Name,
		Source:    source,
		Target:    target,
		Converter: c.Func(),
	})
}

func check(conv *descriptor.Conversion) error {
	switch {
	case conv == nil:
		return errors.InvalidInput(errors.PhaseRegister, "conversion cannot be nil")
	case conv.Source == nil || conv.Target == nil:
		return errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("conversion %q needs both source and target", conv.Name))
	case conv.Converter == nil:
		return errors.InvalidInput(errors.PhaseRegister, fmt.Sprintf("conversion %s has no converter", conv))
	}
	return nil
}

// Candidates returns the conversions registered for the origin of t, most
// recent first, without unification.
func (r *Registry) Candidates(dir descriptor.Direction, t *descriptor.Type) []*descriptor.Conversion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byDir[dir][OriginKey(t)])
}

// Resolve returns the registered conversions applicable to t with their type
// variables substituted. It returns nil when nothing is registered for t and
// an error when candidates exist but none unifies.
func (r *Registry) Resolve(dir descriptor.Direction, t *descriptor.Type) ([]*descriptor.Conversion, error) {
	return Select(dir, t, r.Candidates(dir, t))
}

// Reset removes every registered conversion.
func (r *Registry) Reset() {
	r.mu.Lock()
	clear(r.byDir[descriptor.Deserialization])
	clear(r.byDir[descriptor.Serialization])
	r.mu.Unlock()

	v := r.version.Add(1)
	r.notify(Event{Type: EventReset, Version: v})
}

// Len returns the number of registered conversions in direction dir.
func (r *Registry) Len(dir descriptor.Direction) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, convs := range r.byDir[dir] {
		n += len(convs)
	}
	return n
}

// Version increases on every mutation.
func (r *Registry) Version() uint64 {
	return r.version.Load()
}

// Subscribe adds an observer for registry changes.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}

// OriginKey is the index key of t: the generic definition for generic
// references, the representation for primitives and Any, identity otherwise.
func OriginKey(t *descriptor.Type) string {
	switch t.Kind {
	case descriptor.KindGeneric:
		return fmt.Sprintf("%p", t.Origin)
	case descriptor.KindPrimitive:
		return "primitive:" + t.Primitive.String() + goTypeSuffix(t)
	case descriptor.KindAny:
		return "any" + goTypeSuffix(t)
	default:
		return t.ID()
	}
}

func goTypeSuffix(t *descriptor.Type) string {
	switch {
	case t.GoType == nil:
		return ""
	case t.GoType.Name() != "":
		return "@" + t.GoType.PkgPath() + "." + t.GoType.Name()
	default:
		return "@" + t.GoType.String()
	}
}

// Select unifies each candidate with t and substitutes the bound variables.
// Candidates that do not unify, or leave the inner side with unbound
// variables, are dropped; dropping all of them is a compile error.
func Select(dir descriptor.Direction, t *descriptor.Type, candidates []*descriptor.Conversion) ([]*descriptor.Conversion, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	out := make([]*descriptor.Conversion, 0, len(candidates))
	for _, c := range candidates {
		subst := descriptor.Substitution{}
		if !descriptor.Unify(c.Outer(dir), t, subst) {
			continue
		}
		resolved := c.Substitute(subst)
		if descriptor.HasVars(resolved.Inner(dir)) {
			continue
		}
		out = append(out, resolved)
	}
	if len(out) == 0 {
		return nil, errors.UnresolvedConversion(nil, t.String(), len(candidates))
	}
	return out, nil
}
