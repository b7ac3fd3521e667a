package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/stembed/internal/model"
)

// CompileProcess parses a CUE value into a Process.
//
// The CUE value should be the process struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`process: bell: { inputs: ["a_in"], outputs: ["a_out"] }`)
//	p, err := CompileProcess(v.LookupPath(cue.ParsePath("process.bell")))
func CompileProcess(v cue.Value) (*model.Process, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	name := labelOf(v)

	inputs, err := stringList(v, "inputs", true)
	if err != nil {
		return nil, err
	}
	outputs, err := stringList(v, "outputs", true)
	if err != nil {
		return nil, err
	}

	p, err := model.NewProcess(name, inputs, outputs)
	if err != nil {
		return nil, modelError(err, ErrCodeInvalidProcess, "process."+name, v.Pos())
	}

	md, err := stringMap(v, "metadata")
	if err != nil {
		return nil, err
	}
	if len(md) > 0 {
		p = p.WithMetadata(md)
	}
	return p, nil
}

// CompileSpacetime parses a CUE value into a validated Spacetime.
//
// Shape: { points: [...string], relations?: [...[string, string]] }.
// Relations are generating pairs; the order is their transitive closure.
func CompileSpacetime(v cue.Value) (*model.Spacetime, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	name := labelOf(v)
	field := "spacetime." + name

	points, err := stringList(v, "points", true)
	if err != nil {
		return nil, err
	}
	relations, err := pairList(v, "relations")
	if err != nil {
		return nil, err
	}

	st := model.NewSpacetime(name)
	for _, p := range points {
		if err := st.AddPoint(p); err != nil {
			return nil, modelError(err, ErrCodeInvalidSpacetime, field, v.Pos())
		}
	}
	for _, r := range relations {
		if err := st.AddRelation(r[0], r[1]); err != nil {
			return nil, modelError(err, ErrCodeInvalidSpacetime, field, v.Pos())
		}
	}
	if err := st.Validate(); err != nil {
		return nil, modelError(err, ErrCodeInvalidSpacetime, field, v.Pos())
	}
	return st, nil
}

// CompileImplementation parses a CUE value into a validated Implementation.
// processes resolves the `process` reference.
//
// Shape:
//
//	{
//	    process:  string
//	    inputs?:  [...string]   // defaults to the process inputs
//	    outputs?: [...string]   // defaults to the process outputs
//	    internal?: [...{node: string, component?: string, class?: string,
//	                    resource?: string, measurement?: bool}]
//	    order?:        [...[string, string]]
//	    correlations?: [...{from: string, to: string, resource: string}]
//	}
func CompileImplementation(v cue.Value, processes map[string]*model.Process) (*model.Implementation, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	name := labelOf(v)
	field := "implementation." + name

	procVal := v.LookupPath(cue.ParsePath("process"))
	if !procVal.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeInvalidImplementation,
			Field:   field + ".process",
			Message: "process is required",
			Pos:     v.Pos(),
		}
	}
	procName, err := procVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	proc, ok := processes[procName]
	if !ok {
		return nil, &CompileError{
			Code:    ErrCodeUnknownProcess,
			Field:   field + ".process",
			Message: fmt.Sprintf("unknown process %q", procName),
			Pos:     procVal.Pos(),
		}
	}

	inputs, err := stringList(v, "inputs", false)
	if err != nil {
		return nil, err
	}
	if inputs == nil {
		inputs = proc.Inputs()
	}
	outputs, err := stringList(v, "outputs", false)
	if err != nil {
		return nil, err
	}
	if outputs == nil {
		outputs = proc.Outputs()
	}

	fpo, err := model.NewFramedPartialOrder(inputs, outputs)
	if err != nil {
		return nil, modelError(err, ErrCodeInvalidImplementation, field, v.Pos())
	}
	impl := model.NewImplementation(proc, fpo)
	impl.SetName(name)

	components, err := parseInternal(v)
	if err != nil {
		return nil, err
	}
	for _, c := range components {
		node, err := fpo.AddInternal(c.NodeID())
		if err != nil {
			return nil, modelError(err, ErrCodeInvalidImplementation, field, v.Pos())
		}
		impl.AttachComponent(node, c)
	}

	orderPairs, err := pairList(v, "order")
	if err != nil {
		return nil, err
	}
	for _, p := range orderPairs {
		if err := fpo.AddOrder(p[0], p[1]); err != nil {
			return nil, modelError(err, ErrCodeInvalidImplementation, field, v.Pos())
		}
	}

	if err := parseCorrelations(v, fpo, field); err != nil {
		return nil, err
	}

	if err := impl.Validate(); err != nil {
		return nil, modelError(err, ErrCodeInvalidImplementation, field, v.Pos())
	}
	return impl, nil
}

// parseInternal extracts internal node declarations in order.
func parseInternal(v cue.Value) ([]model.Component, error) {
	internalVal := v.LookupPath(cue.ParsePath("internal"))
	if !internalVal.Exists() {
		return nil, nil // internal nodes are optional
	}

	iter, err := internalVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var components []model.Component
	for iter.Next() {
		entry := iter.Value()

		node, err := requiredString(entry, "node", "internal.node")
		if err != nil {
			return nil, err
		}
		label, err := optionalString(entry, "component")
		if err != nil {
			return nil, err
		}
		if label == "" {
			label = node
		}

		c := model.Component{Label: label, Node: node}

		classStr, err := optionalString(entry, "class")
		if err != nil {
			return nil, err
		}
		if c.Class, err = model.ParseClass(classStr); err != nil {
			return nil, &CompileError{
				Code:    ErrCodeInvalidImplementation,
				Field:   "internal.class",
				Message: err.Error(),
				Pos:     entry.Pos(),
			}
		}

		resStr, err := optionalString(entry, "resource")
		if err != nil {
			return nil, err
		}
		if c.Resource, err = model.ParseResource(resStr); err != nil {
			return nil, &CompileError{
				Code:    ErrCodeInvalidImplementation,
				Field:   "internal.resource",
				Message: err.Error(),
				Pos:     entry.Pos(),
			}
		}

		measVal := entry.LookupPath(cue.ParsePath("measurement"))
		if measVal.Exists() {
			if c.Measurement, err = measVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		components = append(components, c)
	}
	return components, nil
}

// parseCorrelations labels FPO edges with the resource carrying them.
func parseCorrelations(v cue.Value, fpo *model.FramedPartialOrder, field string) error {
	corrVal := v.LookupPath(cue.ParsePath("correlations"))
	if !corrVal.Exists() {
		return nil
	}

	iter, err := corrVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		entry := iter.Value()
		from, err := requiredString(entry, "from", "correlations.from")
		if err != nil {
			return err
		}
		to, err := requiredString(entry, "to", "correlations.to")
		if err != nil {
			return err
		}
		resStr, err := requiredString(entry, "resource", "correlations.resource")
		if err != nil {
			return err
		}
		r, err := model.ParseResource(resStr)
		if err != nil {
			return &CompileError{
				Code:    ErrCodeInvalidImplementation,
				Field:   "correlations.resource",
				Message: err.Error(),
				Pos:     entry.Pos(),
			}
		}
		if err := fpo.AddCorrelation(from, to, r); err != nil {
			return modelError(err, ErrCodeInvalidImplementation, field, entry.Pos())
		}
	}
	return nil
}

// labelOf returns the last path selector, the definition's name.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	sel := labels[len(labels)-1]
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func requiredString(v cue.Value, name, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{
			Code:    ErrCodeGeneric,
			Field:   field,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// stringList reads a list of strings. A missing optional field yields nil.
func stringList(v cue.Value, name string, required bool) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		if required {
			return nil, &CompileError{
				Code:    ErrCodeGeneric,
				Field:   name,
				Message: name + " is required",
				Pos:     v.Pos(),
			}
		}
		return nil, nil
	}

	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// pairList reads a list of two-element string lists.
func pairList(v cue.Value, name string) ([][2]string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, nil
	}

	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var pairs [][2]string
	for iter.Next() {
		elem := iter.Value()
		inner, err := elem.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var pair []string
		for inner.Next() {
			s, err := inner.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			pair = append(pair, s)
		}
		if len(pair) != 2 {
			return nil, &CompileError{
				Code:    ErrCodeGeneric,
				Field:   name,
				Message: fmt.Sprintf("expected [from, to] pair, got %d elements", len(pair)),
				Pos:     elem.Pos(),
			}
		}
		pairs = append(pairs, [2]string{pair[0], pair[1]})
	}
	return pairs, nil
}

// stringMap reads an optional struct of string fields.
func stringMap(v cue.Value, name string) (map[string]string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out[iter.Label()] = s
	}
	return out, nil
}
