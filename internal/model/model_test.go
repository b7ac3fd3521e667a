package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stembed/internal/order"
)

// chain builds in -> f -> out with component "F" on f.
func chain(t *testing.T) *Implementation {
	t.Helper()
	p, err := NewProcess("chain", []string{"in"}, []string{"out"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"in"}, []string{"out"})
	require.NoError(t, err)
	_, err = fpo.AddInternal("f")
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("in", "f"))
	require.NoError(t, fpo.AddOrder("f", "out"))
	return NewImplementation(p, fpo, Component{Label: "F", Node: "f"})
}

func TestNewProcess(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		outputs []string
		wantErr string
	}{
		{name: "ok", inputs: []string{"a", "b"}, outputs: []string{"x"}},
		{name: "dup within", inputs: []string{"a", "a"}, wantErr: `duplicate label "a"`},
		{name: "dup across", inputs: []string{"a"}, outputs: []string{"a"}, wantErr: "already in inputs"},
		{name: "empty label", outputs: []string{""}, wantErr: "outputs[0] is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProcess(tt.name, tt.inputs, tt.outputs)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.inputs, p.Inputs())
				return
			}
			require.Error(t, err)
			assert.True(t, IsInvalidProcess(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProcess_Metadata(t *testing.T) {
	p, err := NewProcess("bell", []string{"a"}, []string{"x"})
	require.NoError(t, err)
	q := p.WithMetadata(map[string]string{"kind": "quantum"})

	v, ok := q.Metadata("kind")
	assert.True(t, ok)
	assert.Equal(t, "quantum", v)
	_, ok = p.Metadata("kind")
	assert.False(t, ok)
}

func TestParseClassAndResource(t *testing.T) {
	c, err := ParseClass("")
	require.NoError(t, err)
	assert.Equal(t, ClassClassical, c)
	c, err = ParseClass("boxworld")
	require.NoError(t, err)
	assert.Equal(t, ClassBoxWorld, c)
	_, err = ParseClass("magic")
	assert.Error(t, err)

	r, err := ParseResource("nonsignaling")
	require.NoError(t, err)
	assert.Equal(t, ResourceNonSignaling, r)
	_, err = ParseResource("telepathy")
	assert.Error(t, err)
}

func TestComponent_EffectiveClass(t *testing.T) {
	assert.Equal(t, ClassClassical, Component{Label: "f"}.EffectiveClass())
	assert.Equal(t, ClassQuantum, Component{Label: "bell", Resource: ResourceEntangled}.EffectiveClass())
	assert.Equal(t, ClassBoxWorld, Component{Label: "pr", Class: ClassQuantum, Resource: ResourceNonSignaling}.EffectiveClass())
	assert.Equal(t, ClassBoxWorld, Component{Label: "x", Class: ClassBoxWorld}.EffectiveClass())
}

func TestComponent_JSON(t *testing.T) {
	b, err := json.Marshal(Component{Label: "H", Node: "h1", Class: ClassQuantum})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"H","node":"h1","class":"quantum","resource":"none"}`, string(b))
}

func TestFPO_Construction(t *testing.T) {
	fpo, err := NewFramedPartialOrder([]string{"a", "b"}, []string{"x"})
	require.NoError(t, err)

	_, err = fpo.AddInternal("a")
	assert.True(t, order.IsDuplicateID(err))

	_, err = NewFramedPartialOrder([]string{"a"}, []string{"a"})
	assert.True(t, order.IsDuplicateID(err))

	_, err = fpo.AddInternal("m")
	require.NoError(t, err)
	assert.Equal(t, RoleInput, fpo.Role("a"))
	assert.Equal(t, RoleOutput, fpo.Role("x"))
	assert.Equal(t, RoleInternal, fpo.Role("m"))
	assert.Equal(t, RoleUnknown, fpo.Role("zz"))
	assert.Equal(t, []string{"a", "b", "x", "m"}, fpo.Nodes())

	require.NoError(t, fpo.AddOrder("a", "m"))
	require.NoError(t, fpo.AddOrder("m", "x"))
	assert.True(t, order.IsCycleViolation(fpo.AddOrder("x", "a")))
	assert.True(t, order.IsUnknownPoint(fpo.AddOrder("a", "nope")))
	assert.True(t, fpo.Precedes("a", "x"))
}

func TestFPO_Correlations(t *testing.T) {
	fpo, err := NewFramedPartialOrder([]string{"a"}, []string{"x", "y"})
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("a", "x"))
	require.NoError(t, fpo.AddCorrelation("a", "y", ResourceEntangled))
	// Relabeling an existing edge keeps a single relation.
	require.NoError(t, fpo.AddCorrelation("a", "x", ResourceNonSignaling))

	assert.Equal(t, []Edge{
		{From: "a", To: "x", Resource: ResourceNonSignaling},
		{From: "a", To: "y", Resource: ResourceEntangled},
	}, fpo.Edges())

	require.NoError(t, fpo.AddCorrelation("a", "x", ResourceNone))
	assert.False(t, fpo.Edges()[0].Correlated())
	assert.True(t, fpo.Edges()[1].Correlated())
}

func TestFPO_CloneIndependent(t *testing.T) {
	impl := chain(t)
	c := impl.FPO().Clone()
	_, err := c.AddInternal("g")
	require.NoError(t, err)
	require.NoError(t, c.AddCorrelation("in", "g", ResourceEntangled))

	assert.Equal(t, 3, impl.FPO().Len())
	assert.Len(t, impl.FPO().Edges(), 2)
	assert.Equal(t, RoleUnknown, impl.FPO().Role("g"))
	assert.Equal(t, []string{"f", "g"}, c.Internal())
}

func TestImplementation_ValidChain(t *testing.T) {
	impl := chain(t)
	require.NoError(t, impl.Validate())
	assert.Equal(t, "chain", impl.Name())

	c, ok := impl.ComponentAt("f")
	require.True(t, ok)
	assert.Equal(t, "F", c.Label)
}

func TestImplementation_PositionalBoundary(t *testing.T) {
	p, err := NewProcess("id", []string{"q_in"}, []string{"q_out"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"i0"}, []string{"o0"})
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("i0", "o0"))

	assert.NoError(t, NewImplementation(p, fpo).Validate())
}

func TestImplementation_ValidateReportsEverything(t *testing.T) {
	p, err := NewProcess("broken", []string{"a", "b"}, []string{"x"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"a", "z"}, []string{"x"})
	require.NoError(t, err)
	_, err = fpo.AddInternal("m")
	require.NoError(t, err)
	_, err = fpo.AddInternal("n")
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("x", "m"))
	require.NoError(t, fpo.AddOrder("m", "a"))

	impl := NewImplementation(p, fpo,
		Component{Label: "M"},
		Component{Label: "M2", Node: "m"},
		Component{Label: "X", Node: "x"},
		Component{Label: "Q", Node: "q"},
	)
	impl.AttachComponent("m", Component{Label: "M3"})

	err = impl.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidImplementation(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "broken", ve.Subject)
	msg := err.Error()
	assert.Contains(t, msg, "only partially match")
	assert.Contains(t, msg, `component "M" attached to unknown node "M"`)
	assert.Contains(t, msg, `attached to boundary node "x"`)
	assert.Contains(t, msg, `unknown node "q"`)
	assert.Contains(t, msg, `internal node "m" has 2 components`)
	assert.Contains(t, msg, `internal node "n" has no component`)
	assert.Contains(t, msg, `output "x" precedes input "a"`)
	assert.Contains(t, msg, `internal node "m" precedes input "a"`)
}

func TestImplementation_InternalBeforeInput(t *testing.T) {
	p, err := NewProcess("early", []string{"in"}, []string{"out"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"in"}, []string{"out"})
	require.NoError(t, err)
	_, err = fpo.AddInternal("k")
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("in", "out"))
	require.NoError(t, fpo.AddOrder("k", "in"))

	err = NewImplementation(p, fpo, Component{Label: "K", Node: "k"}).Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidImplementation(err))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{`internal node "k" precedes input "in"`}, ve.Problems)
}

func TestImplementation_BoundaryCountMismatch(t *testing.T) {
	p, err := NewProcess("p", []string{"a"}, []string{"x", "y"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"a"}, []string{"x"})
	require.NoError(t, err)

	err = NewImplementation(p, fpo).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outputs: process declares 2, fpo has 1")
}

func TestImplementation_MissingParts(t *testing.T) {
	err := NewImplementation(nil, nil).Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidImplementation(err))
	assert.Contains(t, err.Error(), "process is required")
	assert.Contains(t, err.Error(), "framed partial order is required")
	assert.Nil(t, NewImplementation(nil, nil).Edges())
}

func TestImplementation_EffectiveEdges(t *testing.T) {
	p, err := NewProcess("bell", []string{"a", "b"}, []string{"x", "y"})
	require.NoError(t, err)
	fpo, err := NewFramedPartialOrder([]string{"a", "b"}, []string{"x", "y"})
	require.NoError(t, err)
	_, err = fpo.AddInternal("src")
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("src", "x"))
	require.NoError(t, fpo.AddCorrelation("src", "y", ResourceNonSignaling))
	require.NoError(t, fpo.AddOrder("a", "x"))

	impl := NewImplementation(p, fpo)
	impl.AttachComponent("src", Component{Label: "Bell_source", Resource: ResourceEntangled})
	require.NoError(t, impl.Validate())

	assert.Equal(t, []Edge{
		{From: "src", To: "x", Resource: ResourceEntangled},
		{From: "src", To: "y", Resource: ResourceNonSignaling},
		{From: "a", To: "x", Resource: ResourceNone},
	}, impl.Edges())
}

func TestSpacetime(t *testing.T) {
	st := NewSpacetime("bell")
	for _, p := range []string{"A_in", "A_out", "B_in", "B_out"} {
		require.NoError(t, st.AddPoint(p))
	}
	require.NoError(t, st.AddRelation("A_in", "A_out"))
	require.NoError(t, st.AddRelation("B_in", "B_out"))
	require.NoError(t, st.Validate())

	assert.True(t, st.Precedes("A_in", "A_out"))
	assert.True(t, st.Incomparable("A_out", "B_out"))
	assert.True(t, st.Comparable("A_out", "A_in"))
	assert.True(t, st.Leq("B_in", "B_in"))
	assert.Equal(t, 4, st.Len())
	assert.Len(t, st.Relations(), 2)
	assert.True(t, order.IsCycleViolation(st.AddRelation("A_out", "A_in")))
}

func TestSpacetime_EmptyIsInvalid(t *testing.T) {
	err := NewSpacetime("void").Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidSpacetime(err))
	assert.False(t, IsInvalidImplementation(err))
	assert.Equal(t, "INVALID_SPACETIME: void: spacetime has no points", err.Error())
}
