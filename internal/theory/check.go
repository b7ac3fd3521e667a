package theory

import (
	"github.com/roach88/stembed/internal/model"
)

// Assignment is a partial map from FPO nodes to spacetime points.
type Assignment interface {
	PointOf(node string) (point string, ok bool)
}

// MapAssignment adapts a plain map to Assignment.
type MapAssignment map[string]string

// PointOf implements Assignment.
func (m MapAssignment) PointOf(node string) (string, bool) {
	p, ok := m[node]
	return p, ok
}

// Allows reports whether the partial assignment is admissible for impl in
// st. Edges with an unplaced endpoint are not constrained yet.
//
// Allows recomputes the implementation's edges on every call; hot loops
// should Prepare once and call Check.AllowsIndex.
func (t Theory) Allows(a Assignment, impl *model.Implementation, st *model.Spacetime) bool {
	c := t.Prepare(impl, st)
	nodes := impl.FPO().Order()
	assign := make([]int, nodes.Len())
	for i := range assign {
		assign[i] = -1
		p, ok := a.PointOf(nodes.At(i))
		if !ok {
			continue
		}
		idx, ok := st.Order().Index(p)
		if !ok {
			return false
		}
		assign[i] = idx
	}
	return c.AllowsIndex(assign)
}

type indexedEdge struct {
	edge     model.Edge
	from, to int
}

// Check is a theory bound to one implementation and spacetime, with edges
// resolved to node indices. It is read-only after Prepare.
type Check struct {
	th    Theory
	st    *model.Spacetime
	edges []indexedEdge
}

// Prepare resolves impl's effective edges against its FPO node indices.
// impl must have passed Validate.
func (t Theory) Prepare(impl *model.Implementation, st *model.Spacetime) *Check {
	nodes := impl.FPO().Order()
	edges := impl.Edges()
	c := &Check{th: t, st: st, edges: make([]indexedEdge, 0, len(edges))}
	for _, e := range edges {
		from, _ := nodes.Index(e.From)
		to, _ := nodes.Index(e.To)
		c.edges = append(c.edges, indexedEdge{edge: e, from: from, to: to})
	}
	return c
}

// Theory returns the bound theory.
func (c *Check) Theory() Theory { return c.th }

// AllowsIndex evaluates the rule over an index assignment: assign[n] is the
// spacetime point index hosting FPO node n, or -1 when n is unplaced.
func (c *Check) AllowsIndex(assign []int) bool {
	ord := c.st.Order()
	nonlocal := 0
	for _, e := range c.edges {
		p, q := assign[e.from], assign[e.to]
		if p < 0 || q < 0 {
			continue
		}
		if ord.PrecedesIndex(p, q) {
			continue
		}
		if !c.th.exception(c.th, e.edge, ord.At(p), ord.At(q), c.st) {
			return false
		}
		nonlocal++
		if c.th.maxNonlocal > 0 && nonlocal > c.th.maxNonlocal {
			return false
		}
	}
	return true
}
