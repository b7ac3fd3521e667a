package model

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/stembed/internal/order"
)

// Role is the part of an FPO a node belongs to.
type Role int

const (
	RoleUnknown Role = iota
	RoleInput
	RoleOutput
	RoleInternal
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Edge is a direct FPO relation with its kind.
//
// Resource is ResourceNone for an ordinary signaling edge. A correlation
// edge carries the resource that correlates its endpoints; theories may let
// such edges land on spacelike-separated points.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Resource Resource `json:"resource"`
}

// Correlated reports whether the edge is a correlation rather than a signal.
func (e Edge) Correlated() bool { return e.Resource != ResourceNone }

// FramedPartialOrder is a causal order over boundary inputs, boundary
// outputs and internal nodes.
//
// Inputs and outputs are added at construction and keep their declaration
// order. Internal nodes and edges are added incrementally; every mutation
// goes through the underlying order.Order so a rejected edge leaves the FPO
// unchanged.
type FramedPartialOrder struct {
	ord          *order.Order
	inputs       []string
	outputs      []string
	internal     []string
	roles        map[string]Role
	correlations map[order.Relation]Resource
}

// NewFramedPartialOrder creates an FPO with the given boundary nodes and no
// edges. Inputs and outputs share one namespace.
func NewFramedPartialOrder(inputs, outputs []string) (*FramedPartialOrder, error) {
	f := &FramedPartialOrder{
		ord:          order.New(),
		roles:        make(map[string]Role, len(inputs)+len(outputs)),
		correlations: make(map[order.Relation]Resource),
	}
	for _, id := range inputs {
		if err := f.ord.AddPoint(id); err != nil {
			return nil, fmt.Errorf("input %q: %w", id, err)
		}
		f.inputs = append(f.inputs, id)
		f.roles[id] = RoleInput
	}
	for _, id := range outputs {
		if err := f.ord.AddPoint(id); err != nil {
			return nil, fmt.Errorf("output %q: %w", id, err)
		}
		f.outputs = append(f.outputs, id)
		f.roles[id] = RoleOutput
	}
	return f, nil
}

// AddInternal adds an internal node and returns its ID.
func (f *FramedPartialOrder) AddInternal(label string) (string, error) {
	if err := f.ord.AddPoint(label); err != nil {
		return "", err
	}
	f.internal = append(f.internal, label)
	f.roles[label] = RoleInternal
	return label, nil
}

// AddOrder adds a signaling edge a -> b.
func (f *FramedPartialOrder) AddOrder(a, b string) error {
	return f.ord.AddRelation(a, b)
}

// AddCorrelation adds a -> b (if absent) and labels it as a correlation
// carried by the given resource. ResourceNone clears an existing label.
func (f *FramedPartialOrder) AddCorrelation(a, b string, r Resource) error {
	if err := f.ord.AddRelation(a, b); err != nil {
		return err
	}
	rel := order.Relation{From: a, To: b}
	if r == ResourceNone {
		delete(f.correlations, rel)
		return nil
	}
	f.correlations[rel] = r
	return nil
}

// Inputs returns the boundary inputs in declaration order.
func (f *FramedPartialOrder) Inputs() []string { return slices.Clone(f.inputs) }

// Outputs returns the boundary outputs in declaration order.
func (f *FramedPartialOrder) Outputs() []string { return slices.Clone(f.outputs) }

// Internal returns the internal nodes in insertion order.
func (f *FramedPartialOrder) Internal() []string { return slices.Clone(f.internal) }

// Nodes returns every node in insertion order (inputs, outputs, then
// internal nodes as added).
func (f *FramedPartialOrder) Nodes() []string { return f.ord.Points() }

// Len returns the total node count.
func (f *FramedPartialOrder) Len() int { return f.ord.Len() }

// Role returns the role of id, or RoleUnknown.
func (f *FramedPartialOrder) Role(id string) Role { return f.roles[id] }

// Edges returns every direct edge in insertion order with its explicit
// correlation label, if any.
func (f *FramedPartialOrder) Edges() []Edge {
	rels := f.ord.Relations()
	edges := make([]Edge, len(rels))
	for i, r := range rels {
		edges[i] = Edge{From: r.From, To: r.To, Resource: f.correlations[r]}
	}
	return edges
}

// Order exposes the underlying causal order for read-only queries.
// Callers must not mutate it.
func (f *FramedPartialOrder) Order() *order.Order { return f.ord }

// Precedes reports a <F b in the transitive closure.
func (f *FramedPartialOrder) Precedes(a, b string) bool { return f.ord.Precedes(a, b) }

// TopologicalOrder yields every node in a deterministic linearization.
func (f *FramedPartialOrder) TopologicalOrder() iter.Seq[string] {
	return f.ord.TopologicalOrder()
}

// Clone returns an independent deep copy.
func (f *FramedPartialOrder) Clone() *FramedPartialOrder {
	c := &FramedPartialOrder{
		ord:          f.ord.Clone(),
		inputs:       slices.Clone(f.inputs),
		outputs:      slices.Clone(f.outputs),
		internal:     slices.Clone(f.internal),
		roles:        make(map[string]Role, len(f.roles)),
		correlations: make(map[order.Relation]Resource, len(f.correlations)),
	}
	for k, v := range f.roles {
		c.roles[k] = v
	}
	for k, v := range f.correlations {
		c.correlations[k] = v
	}
	return c
}
