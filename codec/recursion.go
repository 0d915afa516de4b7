package codec

import (
	"github.com/wippyai/typecodec/descriptor"
	"github.com/wippyai/typecodec/errors"
	"go.uber.org/zap"
)

// detector finds the cyclic nodes reachable from a root with Tarjan's
// strongly connected components walk. A node is cyclic when its component
// has more than one node or it has an edge to itself. Verdicts are kept
// local until the root walk finishes, then committed to the context.
type detector struct {
	index    map[string]int
	low      map[string]int
	onStack  map[string]bool
	cyclic   map[string]bool
	verdicts map[string]bool
	stack    []string
	next     int
	depth    int
	limit    int
}

func newDetector(limit int) *detector {
	return &detector{
		index:    make(map[string]int),
		low:      make(map[string]int),
		onStack:  make(map[string]bool),
		cyclic:   make(map[string]bool),
		verdicts: make(map[string]bool),
		limit:    limit,
	}
}

// isCyclic returns the verdict for a node, walking the graph from it when
// no verdict is known yet.
func (c *compiler) isCyclic(t *descriptor.Type, convs []*descriptor.Conversion, key string, path []string) (bool, error) {
	if v, ok := c.ctx.verdicts[key]; ok {
		return v, nil
	}

	d := newDetector(c.opts.maxDepth())
	if err := d.visit(c, t, convs, key, path); err != nil {
		return false, err
	}

	cyclic := 0
	for k, v := range d.verdicts {
		c.ctx.verdicts[k] = v
		if v {
			cyclic++
		}
	}
	Logger().Debug("recursion verdicts",
		zap.Stringer("type", t),
		zap.Int("nodes", len(d.verdicts)),
		zap.Int("cyclic", cyclic))
	return c.ctx.verdicts[key], nil
}

func (d *detector) visit(c *compiler, t *descriptor.Type, convs []*descriptor.Conversion, key string, path []string) error {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > d.limit {
		return errors.DepthExceeded(path, d.limit)
	}

	d.index[key] = d.next
	d.low[key] = d.next
	d.next++
	d.stack = append(d.stack, key)
	d.onStack[key] = true

	edges, err := c.edges(t, convs, path)
	if err != nil {
		return err
	}

	for _, e := range edges {
		ek := e.c.nodeKey(e.t, e.convs)
		if ek == key {
			d.cyclic[key] = true
			continue
		}
		if _, done := c.ctx.verdicts[ek]; done {
			continue
		}
		if _, seen := d.index[ek]; !seen {
			if err := d.visit(e.c, e.t, e.convs, ek, childPath(path, e.seg)); err != nil {
				return err
			}
			d.low[key] = min(d.low[key], d.low[ek])
		} else if d.onStack[ek] {
			d.low[key] = min(d.low[key], d.index[ek])
		}
	}

	if d.low[key] != d.index[key] {
		return nil
	}

	i := len(d.stack) - 1
	for d.stack[i] != key {
		i--
	}
	component := d.stack[i:]
	d.stack = d.stack[:i]
	for _, k := range component {
		d.onStack[k] = false
		d.verdicts[k] = len(component) > 1 || d.cyclic[k]
	}
	return nil
}
