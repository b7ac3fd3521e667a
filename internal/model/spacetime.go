package model

import (
	"iter"

	"github.com/roach88/stembed/internal/order"
)

// Spacetime is a causal order over named points. Any point may host any
// FPO node. The solver treats a Spacetime as read-only.
type Spacetime struct {
	Name string
	ord  *order.Order
}

// NewSpacetime creates an empty spacetime.
func NewSpacetime(name string) *Spacetime {
	return &Spacetime{Name: name, ord: order.New()}
}

// AddPoint adds a point.
func (s *Spacetime) AddPoint(id string) error { return s.ord.AddPoint(id) }

// AddRelation records that a causally precedes b.
func (s *Spacetime) AddRelation(a, b string) error { return s.ord.AddRelation(a, b) }

// Points returns the points in insertion order.
func (s *Spacetime) Points() []string { return s.ord.Points() }

// Relations returns the direct relations in insertion order.
func (s *Spacetime) Relations() []order.Relation { return s.ord.Relations() }

// Len returns the number of points.
func (s *Spacetime) Len() int { return s.ord.Len() }

// Contains reports whether id is a point.
func (s *Spacetime) Contains(id string) bool { return s.ord.Contains(id) }

// Precedes reports whether a strictly precedes b.
func (s *Spacetime) Precedes(a, b string) bool { return s.ord.Precedes(a, b) }

// Leq reports a == b or a precedes b.
func (s *Spacetime) Leq(a, b string) bool { return s.ord.Leq(a, b) }

// Comparable reports whether a and b are causally related.
func (s *Spacetime) Comparable(a, b string) bool { return s.ord.Comparable(a, b) }

// Incomparable reports whether a and b are spacelike-separated.
func (s *Spacetime) Incomparable(a, b string) bool { return s.ord.Incomparable(a, b) }

// TopologicalOrder yields the points in a deterministic linearization.
func (s *Spacetime) TopologicalOrder() iter.Seq[string] { return s.ord.TopologicalOrder() }

// Order exposes the underlying causal order for index-based queries.
// Callers must not mutate it.
func (s *Spacetime) Order() *order.Order { return s.ord }

// Validate re-checks the spacetime as a whole: at least one point and an
// acyclic closure.
func (s *Spacetime) Validate() error {
	var probs problems
	if s.ord.Len() == 0 {
		probs.addf("spacetime has no points")
	}
	if err := s.ord.Validate(); err != nil {
		probs.addf("%v", err)
	}
	return probs.err(CodeInvalidSpacetime, s.Name)
}
