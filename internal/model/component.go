package model

import "fmt"

// Class is the weakest theory able to host a component.
// Classes are ordered: classical < quantum < boxworld.
type Class int

const (
	ClassClassical Class = iota
	ClassQuantum
	ClassBoxWorld
)

var classNames = []string{"classical", "quantum", "boxworld"}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("class(%d)", int(c))
	}
	return classNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseClass parses a class name. The empty string is classical.
func ParseClass(s string) (Class, error) {
	if s == "" {
		return ClassClassical, nil
	}
	for i, n := range classNames {
		if n == s {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown component class %q", s)
}

// Resource marks a component (or an edge) as a correlated resource rather
// than a signaling dependency.
type Resource int

const (
	// ResourceNone is an ordinary signaling dependency.
	ResourceNone Resource = iota

	// ResourceEntangled is a quantum-correlated resource (e.g. a Bell pair).
	ResourceEntangled

	// ResourceNonSignaling is a general non-signaling correlation (e.g. a PR box).
	ResourceNonSignaling
)

var resourceNames = []string{"none", "entangled", "nonsignaling"}

func (r Resource) String() string {
	if r < 0 || int(r) >= len(resourceNames) {
		return fmt.Sprintf("resource(%d)", int(r))
	}
	return resourceNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r Resource) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ParseResource parses a resource name. The empty string is ResourceNone.
func ParseResource(s string) (Resource, error) {
	if s == "" {
		return ResourceNone, nil
	}
	for i, n := range resourceNames {
		if n == s {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", s)
}

// MinClass returns the weakest class able to provide the resource.
func (r Resource) MinClass() Class {
	switch r {
	case ResourceEntangled:
		return ClassQuantum
	case ResourceNonSignaling:
		return ClassBoxWorld
	default:
		return ClassClassical
	}
}

// Component labels one internal node of an implementation.
type Component struct {
	// Label names the operation (e.g. "H", "CZ", "Bell_source").
	Label string `json:"label"`

	// Node is the internal FPO node the component is attached to. When
	// empty, Label doubles as the node ID.
	Node string `json:"node"`

	Class       Class             `json:"class"`
	Resource    Resource          `json:"resource"`
	Measurement bool              `json:"measurement,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NodeID returns the node the component is attached to.
func (c Component) NodeID() string {
	if c.Node != "" {
		return c.Node
	}
	return c.Label
}

// EffectiveClass is the stronger of the declared class and the class its
// resource requires.
func (c Component) EffectiveClass() Class {
	return max(c.Class, c.Resource.MinClass())
}
