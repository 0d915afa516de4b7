package descriptor

import (
	"fmt"
	"slices"
)

// Substitution binds type variable names to types.
type Substitution map[string]*Type

// Unify matches pattern against concrete, binding the type variables of
// pattern in subst. It reports false when the two cannot denote the same
// type; subst may then hold partial bindings and should be discarded.
func Unify(pattern, concrete *Type, subst Substitution) bool {
	return unify(pattern, concrete, subst, 0)
}

func unify(pattern, concrete *Type, subst Substitution, depth int) bool {
	if depth > 64 {
		return false
	}
	if pattern == concrete {
		return true
	}
	if pattern == nil || concrete == nil {
		return false
	}

	if pattern.Kind == KindTypeVar {
		if bound, ok := subst[pattern.Var]; ok {
			return Same(bound, concrete) || (bound.Kind != KindTypeVar && unify(bound, concrete, Substitution{}, depth+1))
		}
		if len(pattern.Bound) > 0 && !slices.ContainsFunc(pattern.Bound, func(b *Type) bool { return Same(b, concrete) }) {
			return false
		}
		subst[pattern.Var] = concrete
		return true
	}

	if Same(pattern, concrete) {
		return true
	}
	if pattern.Kind != concrete.Kind {
		return false
	}

	switch pattern.Kind {
	case KindGeneric:
		if pattern.Origin != concrete.Origin || len(pattern.Args) != len(concrete.Args) {
			return false
		}
		for i := range pattern.Args {
			if !unify(pattern.Args[i], concrete.Args[i], subst, depth+1) {
				return false
			}
		}
		return true
	case KindCollection:
		return structural(pattern, concrete) && unify(pattern.Elem, concrete.Elem, subst, depth+1)
	case KindMapping:
		return structural(pattern, concrete) &&
			unify(pattern.Key, concrete.Key, subst, depth+1) &&
			unify(pattern.Elem, concrete.Elem, subst, depth+1)
	case KindTuple:
		return structural(pattern, concrete) && unifyAll(pattern.Elems, concrete.Elems, subst, depth)
	case KindUnion:
		return structural(pattern, concrete) && unifyAll(pattern.Alternatives, concrete.Alternatives, subst, depth)
	}
	return false
}

// structural reports whether two anonymous container types can be compared
// by shape rather than identity.
func structural(pattern, concrete *Type) bool {
	return pattern.GoType == concrete.GoType && pattern.Name == concrete.Name
}

func unifyAll(ps, cs []*Type, subst Substitution, depth int) bool {
	if len(ps) != len(cs) {
		return false
	}
	for i := range ps {
		if !unify(ps[i], cs[i], subst, depth+1) {
			return false
		}
	}
	return true
}

// HasVars reports whether a type variable is reachable from t without
// crossing a generic definition boundary.
func HasVars(t *Type) bool {
	return hasVars(t, map[*Type]bool{})
}

func hasVars(t *Type, seen map[*Type]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true
	switch t.Kind {
	case KindTypeVar:
		return true
	case KindGeneric:
		return slices.ContainsFunc(t.Args, func(a *Type) bool { return hasVars(a, seen) })
	}
	if hasVars(t.Elem, seen) || hasVars(t.Key, seen) {
		return true
	}
	for _, group := range [][]*Type{t.Elems, t.Alternatives} {
		if slices.ContainsFunc(group, func(e *Type) bool { return hasVars(e, seen) }) {
			return true
		}
	}
	for i := range t.Fields {
		if hasVars(t.Fields[i].Type, seen) {
			return true
		}
	}
	for i := range t.Serialized {
		if hasVars(t.Serialized[i].Type, seen) {
			return true
		}
	}
	return false
}

// Apply replaces the bound type variables of t. Nodes without variables are
// returned unchanged; cyclic graphs are copied once per node. Generic
// references keep their origin and have only their arguments substituted.
func Apply(t *Type, subst Substitution) *Type {
	if len(subst) == 0 || !HasVars(t) {
		return t
	}
	return apply(t, subst, map[*Type]*Type{})
}

func apply(t *Type, subst Substitution, memo map[*Type]*Type) *Type {
	if t == nil {
		return nil
	}
	if t.Kind == KindTypeVar {
		if bound, ok := subst[t.Var]; ok {
			return bound
		}
		return t
	}
	if done, ok := memo[t]; ok {
		return done
	}
	if !HasVars(t) {
		return t
	}

	c := t.Copy()
	memo[t] = c
	c.Elem = apply(t.Elem, subst, memo)
	c.Key = apply(t.Key, subst, memo)
	c.Elems = applyAll(t.Elems, subst, memo)
	c.Alternatives = applyAll(t.Alternatives, subst, memo)
	c.Args = applyAll(t.Args, subst, memo)
	if t.Fields != nil {
		c.Fields = make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			f.Type = apply(f.Type, subst, memo)
			c.Fields[i] = f
		}
	}
	if t.Serialized != nil {
		c.Serialized = make([]Serialized, len(t.Serialized))
		for i, sm := range t.Serialized {
			sm.Type = apply(sm.Type, subst, memo)
			c.Serialized[i] = sm
		}
	}
	return c
}

func applyAll(ts []*Type, subst Substitution, memo map[*Type]*Type) []*Type {
	if ts == nil {
		return nil
	}
	out := make([]*Type, len(ts))
	for i, e := range ts {
		out[i] = apply(e, subst, memo)
	}
	return out
}

// Instantiate expands a generic reference into a concrete type by binding
// the origin's parameters to the reference's arguments.
func Instantiate(ref *Type) (*Type, error) {
	if ref.Kind != KindGeneric {
		return ref, nil
	}
	def := ref.Origin
	if def == nil {
		return nil, fmt.Errorf("generic reference %s has no origin", ref)
	}
	if len(def.Params) != len(ref.Args) {
		return nil, fmt.Errorf("generic %s expects %d argument(s), got %d", def, len(def.Params), len(ref.Args))
	}

	subst := make(Substitution, len(def.Params))
	for i, p := range def.Params {
		subst[p] = ref.Args[i]
	}

	var inst *Type
	if HasVars(def) {
		inst = apply(def, subst, map[*Type]*Type{})
	} else {
		inst = def.Copy()
	}
	inst.Params = nil
	inst.Name = ref.String()
	if ref.GoType != nil {
		inst.GoType = ref.GoType
	}
	return inst, nil
}
