package model

import "slices"

// Process declares what must happen: a name and ordered boundary labels.
// It carries no causal structure of its own and is immutable once built.
type Process struct {
	name     string
	inputs   []string
	outputs  []string
	metadata map[string]string
}

// NewProcess validates and builds a Process.
//
// Labels must be non-empty and unique across inputs and outputs together,
// since both become nodes of the same framed partial order.
func NewProcess(name string, inputs, outputs []string) (*Process, error) {
	var probs problems
	if name == "" {
		probs.addf("name is required")
	}
	seen := make(map[string]string)
	check := func(kind string, labels []string) {
		for i, l := range labels {
			if l == "" {
				probs.addf("%s[%d] is empty", kind, i)
				continue
			}
			if prev, dup := seen[l]; dup {
				probs.addf("duplicate label %q in %s (already in %s)", l, kind, prev)
				continue
			}
			seen[l] = kind
		}
	}
	check("inputs", inputs)
	check("outputs", outputs)
	if err := probs.err(CodeInvalidProcess, name); err != nil {
		return nil, err
	}

	return &Process{
		name:    name,
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
	}, nil
}

// WithMetadata returns a copy of p carrying the given metadata.
func (p *Process) WithMetadata(md map[string]string) *Process {
	c := *p
	c.metadata = make(map[string]string, len(md))
	for k, v := range md {
		c.metadata[k] = v
	}
	return &c
}

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Inputs returns a copy of the input labels in declaration order.
func (p *Process) Inputs() []string { return slices.Clone(p.inputs) }

// Outputs returns a copy of the output labels in declaration order.
func (p *Process) Outputs() []string { return slices.Clone(p.outputs) }

// Metadata returns the metadata value for key.
func (p *Process) Metadata(key string) (string, bool) {
	v, ok := p.metadata[key]
	return v, ok
}
