// Package theory decides which causal and correlation patterns a physical
// theory admits for a partial embedding.
//
// Theories form a closed set of variants (Kind) sharing one rule: every
// direct FPO edge whose endpoints are both placed must land on a strictly
// ordered pair of spacetime points, unless the theory's exception predicate
// permits the edge. The default exception lets a correlation edge land on
// spacelike-separated points when the theory permits the edge's resource.
//
// Permitted resources nest (classical ⊆ quantum ⊆ boxworld), so anything
// embeddable under a weaker theory is embeddable under a stronger one with
// default configuration.
//
// A Theory is an immutable value and safe for concurrent use.
package theory

import (
	"fmt"
	"strings"

	"github.com/roach88/stembed/internal/model"
)

// Kind selects a theory variant.
type Kind int

const (
	KindClassical Kind = iota
	KindQuantum
	KindBoxWorld
)

func (k Kind) String() string {
	switch k {
	case KindClassical:
		return "classical"
	case KindQuantum:
		return "quantum"
	case KindBoxWorld:
		return "boxworld"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kinds lists every variant from weakest to strongest.
var Kinds = []Kind{KindClassical, KindQuantum, KindBoxWorld}

// Exception decides whether an edge that does not land on strictly ordered
// points is still acceptable. p and q are the points hosting the edge's
// source and target.
type Exception func(th Theory, e model.Edge, p, q string, st *model.Spacetime) bool

// DefaultException accepts a correlation edge whose resource the theory
// permits when its endpoints are spacelike-separated.
func DefaultException(th Theory, e model.Edge, p, q string, st *model.Spacetime) bool {
	return e.Correlated() && th.Permits(e.Resource) && st.Incomparable(p, q)
}

// Theory is a stateless admissibility policy.
type Theory struct {
	kind        Kind
	maxNonlocal int
	exception   Exception
	custom      bool
}

// Option configures a Theory.
type Option func(*Theory)

// WithException replaces the exception predicate.
func WithException(fn Exception) Option {
	return func(t *Theory) {
		t.exception = fn
		t.custom = fn != nil
	}
}

// WithMaxNonlocal caps how many edges may rely on the exception within one
// assignment. Zero means unlimited.
func WithMaxNonlocal(n int) Option {
	return func(t *Theory) {
		if n >= 0 {
			t.maxNonlocal = n
		}
	}
}

// New creates a theory of the given kind.
func New(kind Kind, opts ...Option) Theory {
	t := Theory{kind: kind, exception: DefaultException}
	for _, opt := range opts {
		opt(&t)
	}
	if t.exception == nil {
		t.exception = DefaultException
	}
	return t
}

// Classical permits no correlated resources.
func Classical(opts ...Option) Theory { return New(KindClassical, opts...) }

// Quantum permits entangled resources.
func Quantum(opts ...Option) Theory { return New(KindQuantum, opts...) }

// BoxWorld permits entangled and general non-signaling resources.
func BoxWorld(opts ...Option) Theory { return New(KindBoxWorld, opts...) }

// Parse selects a theory by name (case-insensitive). "box" and
// "box-world" are accepted for BoxWorld.
func Parse(name string, opts ...Option) (Theory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "classical":
		return Classical(opts...), nil
	case "quantum":
		return Quantum(opts...), nil
	case "boxworld", "box-world", "box":
		return BoxWorld(opts...), nil
	default:
		return Theory{}, fmt.Errorf("unknown theory %q (want classical, quantum or boxworld)", name)
	}
}

// Kind returns the variant.
func (t Theory) Kind() Kind { return t.kind }

// Name returns the variant name used in flags, metrics and snapshots.
func (t Theory) Name() string { return t.kind.String() }

// DisplayName returns a human-readable name.
func (t Theory) DisplayName() string {
	switch t.kind {
	case KindClassical:
		return "Classical Theory"
	case KindQuantum:
		return "Quantum Theory"
	case KindBoxWorld:
		return "BoxWorld (supernonlocal)"
	default:
		return t.Name()
	}
}

// CustomException reports whether WithException replaced the default
// predicate. Such theories have no stable identity and are never memoized.
func (t Theory) CustomException() bool { return t.custom }

// MaxNonlocal returns the exception cap (0 = unlimited).
func (t Theory) MaxNonlocal() int { return t.maxNonlocal }

// Permits reports whether the theory can supply the resource.
func (t Theory) Permits(r model.Resource) bool {
	switch r {
	case model.ResourceNone:
		return true
	case model.ResourceEntangled:
		return t.kind >= KindQuantum
	case model.ResourceNonSignaling:
		return t.kind >= KindBoxWorld
	default:
		return false
	}
}

// Admits reports whether every component of impl can exist in this theory.
// When it cannot, the reason names the first offending component.
func (t Theory) Admits(impl *model.Implementation) (bool, string) {
	for _, c := range impl.Components() {
		need := c.EffectiveClass()
		if Kind(need) > t.kind {
			return false, fmt.Sprintf("component %q on node %q requires %s theory",
				c.Label, c.NodeID(), Kind(need))
		}
	}
	return true, ""
}
