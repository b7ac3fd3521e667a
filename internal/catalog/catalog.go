// Package catalog holds the built-in example processes, implementations and
// spacetimes used by the matrix command when no specs directory is given.
//
// Every constructor returns fresh values; callers may mutate them.
// Implementation names are unique across the catalog.
package catalog

import (
	"fmt"

	"github.com/roach88/stembed/internal/model"
)

// Implementations returns every catalog implementation in display order:
// PR box, Bell, CNOT, then the simple processes.
func Implementations() []*model.Implementation {
	var out []*model.Implementation
	out = append(out, PRBox()...)
	out = append(out, Bell()...)
	out = append(out, CNOT()...)
	out = append(out, Simple()...)
	return out
}

// Spacetimes returns every catalog spacetime.
func Spacetimes() []*model.Spacetime {
	return []*model.Spacetime{SimpleChain(), BellLike(), ParallelDiamond(), BellWithSource()}
}

// Implementation returns the catalog implementation with the given name.
func Implementation(name string) (*model.Implementation, bool) {
	for _, impl := range Implementations() {
		if impl.Name() == name {
			return impl, true
		}
	}
	return nil, false
}

// Spacetime returns the catalog spacetime with the given name.
func Spacetime(name string) (*model.Spacetime, bool) {
	for _, st := range Spacetimes() {
		if st.Name == name {
			return st, true
		}
	}
	return nil, false
}

// builder assembles one implementation. Catalog data is static, so any
// error is a programming mistake and panics.
type builder struct {
	impl *model.Implementation
	fpo  *model.FramedPartialOrder
}

func build(name string, p *model.Process) *builder {
	fpo, err := model.NewFramedPartialOrder(p.Inputs(), p.Outputs())
	must(err)
	impl := model.NewImplementation(p, fpo)
	impl.SetName(name)
	return &builder{impl: impl, fpo: fpo}
}

func (b *builder) node(id string, c model.Component) *builder {
	node, err := b.fpo.AddInternal(id)
	must(err)
	if c.Label == "" {
		c.Label = id
	}
	b.impl.AttachComponent(node, c)
	return b
}

func (b *builder) order(pairs ...[2]string) *builder {
	for _, p := range pairs {
		must(b.fpo.AddOrder(p[0], p[1]))
	}
	return b
}

func (b *builder) correlate(from, to string, r model.Resource) *builder {
	must(b.fpo.AddCorrelation(from, to, r))
	return b
}

func (b *builder) done() *model.Implementation {
	if err := b.impl.Validate(); err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return b.impl
}

// monolithic realizes p as a single box fed by every input and feeding
// every output.
func monolithic(name string, p *model.Process, c model.Component) *model.Implementation {
	b := build(name, p).node("box", c)
	for _, in := range p.Inputs() {
		b.order([2]string{in, "box"})
	}
	for _, out := range p.Outputs() {
		b.order([2]string{"box", out})
	}
	return b.done()
}

func mustProcess(name string, inputs, outputs []string) *model.Process {
	p, err := model.NewProcess(name, inputs, outputs)
	must(err)
	return p
}

func mustSpacetime(name string, points []string, relations ...[2]string) *model.Spacetime {
	st := model.NewSpacetime(name)
	for _, p := range points {
		must(st.AddPoint(p))
	}
	for _, r := range relations {
		must(st.AddRelation(r[0], r[1]))
	}
	must(st.Validate())
	return st
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
}
