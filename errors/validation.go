package errors

import (
	"slices"
	"strings"
)

// ValidationError is a tree of failure messages keyed by value path.
// Messages belong to the node itself; Children hold failures of nested
// fields (by alias) and items (by index).
type ValidationError struct {
	Children map[string]*ValidationError
	Messages []string
}

// Entry is one flattened validation failure.
type Entry struct {
	Path     []string
	Messages []string
}

// Invalid creates a leaf validation error.
func Invalid(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// Nested creates a validation error with one child at key.
func Nested(key string, child *ValidationError) *ValidationError {
	return &ValidationError{Children: map[string]*ValidationError{key: child}}
}

// AtPath wraps child so it is reported under path.
func AtPath(child *ValidationError, path ...string) *ValidationError {
	for i := len(path) - 1; i >= 0; i-- {
		child = Nested(path[i], child)
	}
	return child
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	for i, entry := range e.Flatten() {
		if i > 0 {
			b.WriteString("; ")
		}
		if len(entry.Path) > 0 {
			b.WriteString(strings.Join(entry.Path, "."))
			b.WriteString(": ")
		}
		b.WriteString(strings.Join(entry.Messages, ", "))
	}
	if b.Len() == 0 {
		return "validation failed"
	}
	return b.String()
}

// Is matches any *ValidationError target.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Empty reports whether the tree holds no failures.
func (e *ValidationError) Empty() bool {
	return e == nil || (len(e.Messages) == 0 && len(e.Children) == 0)
}

// AddChild merges child into the subtree at key and returns e.
func (e *ValidationError) AddChild(key string, child *ValidationError) *ValidationError {
	if child.Empty() {
		return e
	}
	if e.Children == nil {
		e.Children = make(map[string]*ValidationError)
	}
	e.Children[key] = Merge(e.Children[key], child)
	return e
}

// Merge combines two trees. Nil operands are ignored and neither input is mutated.
func Merge(a, b *ValidationError) *ValidationError {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	out := &ValidationError{
		Messages: append(slices.Clone(a.Messages), b.Messages...),
	}
	for k, v := range a.Children {
		out.AddChild(k, v)
	}
	for k, v := range b.Children {
		out.AddChild(k, v)
	}
	return out
}

// At returns the subtree at path, or nil.
func (e *ValidationError) At(path ...string) *ValidationError {
	cur := e
	for _, key := range path {
		if cur == nil {
			return nil
		}
		cur = cur.Children[key]
	}
	return cur
}

// Flatten lists every node carrying messages, depth first with children in key order.
func (e *ValidationError) Flatten() []Entry {
	var out []Entry
	e.flatten(nil, &out)
	return out
}

func (e *ValidationError) flatten(prefix []string, out *[]Entry) {
	if e == nil {
		return
	}
	if len(e.Messages) > 0 {
		*out = append(*out, Entry{Path: slices.Clone(prefix), Messages: slices.Clone(e.Messages)})
	}
	keys := make([]string, 0, len(e.Children))
	for k := range e.Children {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		e.Children[k].flatten(append(prefix, k), out)
	}
}

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if As(err, &v) {
		return v, true
	}
	return nil, false
}
