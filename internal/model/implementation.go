package model

import (
	"slices"
)

// Implementation is a Process realized by an FPO whose internal nodes carry
// Components.
//
// It is assembled incrementally and may be invalid until complete. Validate
// is the contract boundary: the solver calls it once at entry.
type Implementation struct {
	name       string
	process    *Process
	fpo        *FramedPartialOrder
	components []Component
}

// NewImplementation creates an implementation. Components are attached to
// the node named by Component.NodeID.
func NewImplementation(p *Process, fpo *FramedPartialOrder, components ...Component) *Implementation {
	impl := &Implementation{process: p, fpo: fpo}
	if p != nil {
		impl.name = p.Name()
	}
	impl.components = append(impl.components, components...)
	return impl
}

// SetName overrides the default name (the process name).
func (i *Implementation) SetName(name string) { i.name = name }

// Name returns the implementation name.
func (i *Implementation) Name() string { return i.name }

// Process returns the implemented process.
func (i *Implementation) Process() *Process { return i.process }

// FPO returns the framed partial order.
func (i *Implementation) FPO() *FramedPartialOrder { return i.fpo }

// AttachComponent attaches c to an internal node.
func (i *Implementation) AttachComponent(node string, c Component) {
	c.Node = node
	i.components = append(i.components, c)
}

// Components returns the attached components in attachment order.
func (i *Implementation) Components() []Component { return slices.Clone(i.components) }

// ComponentAt returns the component attached to node. With duplicate
// attachments (an invalid state) the first one wins.
func (i *Implementation) ComponentAt(node string) (Component, bool) {
	for _, c := range i.components {
		if c.NodeID() == node {
			return c, true
		}
	}
	return Component{}, false
}

// Edges returns the FPO's direct edges with their effective kind: the
// explicit correlation label when present, otherwise the resource of the
// component at the edge's source.
func (i *Implementation) Edges() []Edge {
	if i.fpo == nil {
		return nil
	}
	byNode := make(map[string]Resource, len(i.components))
	for _, c := range i.components {
		if _, ok := byNode[c.NodeID()]; !ok {
			byNode[c.NodeID()] = c.Resource
		}
	}
	edges := i.fpo.Edges()
	for k := range edges {
		if edges[k].Resource == ResourceNone {
			edges[k].Resource = byNode[edges[k].From]
		}
	}
	return edges
}

// Validate checks the implementation as a whole and reports every problem
// in one INVALID_IMPLEMENTATION error.
//
// Checked: boundary bijection with the process, exactly one component per
// internal node, no components on boundary or unknown nodes, acyclicity,
// and that no output or internal node precedes an input.
func (i *Implementation) Validate() error {
	var probs problems
	if i.process == nil {
		probs.addf("process is required")
	}
	if i.fpo == nil {
		probs.addf("framed partial order is required")
	}
	if len(probs) > 0 {
		return probs.err(CodeInvalidImplementation, i.name)
	}

	checkBoundary(&probs, "inputs", i.process.inputs, i.fpo.inputs)
	checkBoundary(&probs, "outputs", i.process.outputs, i.fpo.outputs)

	counts := make(map[string]int, len(i.components))
	for _, c := range i.components {
		node := c.NodeID()
		switch i.fpo.Role(node) {
		case RoleUnknown:
			probs.addf("component %q attached to unknown node %q", c.Label, node)
		case RoleInput, RoleOutput:
			probs.addf("component %q attached to boundary node %q", c.Label, node)
		default:
			counts[node]++
		}
	}
	for _, n := range i.fpo.internal {
		switch counts[n] {
		case 0:
			probs.addf("internal node %q has no component", n)
		case 1:
		default:
			probs.addf("internal node %q has %d components", n, counts[n])
		}
	}

	if err := i.fpo.ord.Validate(); err != nil {
		probs.addf("%v", err)
	} else {
		for _, in := range i.fpo.inputs {
			for _, out := range i.fpo.outputs {
				if i.fpo.Precedes(out, in) {
					probs.addf("output %q precedes input %q", out, in)
				}
			}
			for _, n := range i.fpo.internal {
				if i.fpo.Precedes(n, in) {
					probs.addf("internal node %q precedes input %q", n, in)
				}
			}
		}
	}

	return probs.err(CodeInvalidImplementation, i.name)
}

// checkBoundary verifies that FPO boundary nodes biject with process labels.
//
// Correspondence is by label when the two lists hold the same labels, and by
// position when they are disjoint. A partial overlap is ambiguous and
// reported as a mismatch.
func checkBoundary(probs *problems, kind string, process, fpo []string) {
	if len(process) != len(fpo) {
		probs.addf("%s: process declares %d, fpo has %d", kind, len(process), len(fpo))
		return
	}
	want := make(map[string]bool, len(process))
	for _, l := range process {
		want[l] = true
	}
	shared := 0
	for _, l := range fpo {
		if want[l] {
			shared++
		}
	}
	if shared != 0 && shared != len(fpo) {
		probs.addf("%s: fpo labels %v only partially match process labels %v", kind, fpo, process)
	}
}
