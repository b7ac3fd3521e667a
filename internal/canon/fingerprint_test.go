package canon

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/theory"
)

func bell(t *testing.T, r model.Resource) *model.Implementation {
	t.Helper()
	p, err := model.NewProcess("bell", []string{"a", "b"}, []string{"x", "y"})
	require.NoError(t, err)
	fpo, err := model.NewFramedPartialOrder([]string{"a", "b"}, []string{"x", "y"})
	require.NoError(t, err)
	_, err = fpo.AddInternal("src")
	require.NoError(t, err)
	require.NoError(t, fpo.AddOrder("a", "x"))
	require.NoError(t, fpo.AddOrder("b", "y"))
	require.NoError(t, fpo.AddOrder("src", "x"))
	require.NoError(t, fpo.AddOrder("src", "y"))
	impl := model.NewImplementation(p, fpo)
	impl.AttachComponent("src", model.Component{Label: "source", Resource: r})
	return impl
}

func chainSpacetime(t *testing.T, name string) *model.Spacetime {
	t.Helper()
	st := model.NewSpacetime(name)
	for _, p := range []string{"A", "B", "C"} {
		require.NoError(t, st.AddPoint(p))
	}
	require.NoError(t, st.AddRelation("A", "B"))
	require.NoError(t, st.AddRelation("B", "C"))
	return st
}

func TestImplementationObject(t *testing.T) {
	got := string(MustMarshal(ImplementationObject(bell(t, model.ResourceEntangled))))
	assert.Equal(t,
		`{"components":[{"class":"classical","label":"source","measurement":false,"node":"src","resource":"entangled"}],`+
			`"edges":[{"from":"a","resource":"none","to":"x"},{"from":"b","resource":"none","to":"y"},`+
			`{"from":"src","resource":"entangled","to":"x"},{"from":"src","resource":"entangled","to":"y"}],`+
			`"inputs":["a","b"],"internal":["src"],"name":"bell","outputs":["x","y"],`+
			`"process":{"inputs":["a","b"],"name":"bell","outputs":["x","y"]}}`,
		got)
}

func TestSpacetimeObject(t *testing.T) {
	got := string(MustMarshal(SpacetimeObject(chainSpacetime(t, "chain"))))
	assert.Equal(t, `{"name":"chain","points":["A","B","C"],"relations":[["A","B"],["B","C"]]}`, got)
}

func TestFingerprints_DeterministicAndSensitive(t *testing.T) {
	a, err := ImplementationFingerprint(bell(t, model.ResourceEntangled))
	require.NoError(t, err)
	b, err := ImplementationFingerprint(bell(t, model.ResourceEntangled))
	require.NoError(t, err)
	c, err := ImplementationFingerprint(bell(t, model.ResourceNonSignaling))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)

	s1, err := SpacetimeFingerprint(chainSpacetime(t, "chain"))
	require.NoError(t, err)
	s2, err := SpacetimeFingerprint(chainSpacetime(t, "other"))
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestRequestFingerprint(t *testing.T) {
	impl := bell(t, model.ResourceEntangled)
	st := chainSpacetime(t, "chain")

	base, err := RequestFingerprint(impl, st, theory.Quantum(), nil)
	require.NoError(t, err)

	same, err := RequestFingerprint(impl, st, theory.Quantum(), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, base, same)

	for name, fn := range map[string]func() (string, error){
		"theory":       func() (string, error) { return RequestFingerprint(impl, st, theory.BoxWorld(), nil) },
		"max nonlocal": func() (string, error) { return RequestFingerprint(impl, st, theory.Quantum(theory.WithMaxNonlocal(1)), nil) },
		"pins":         func() (string, error) { return RequestFingerprint(impl, st, theory.Quantum(), map[string]string{"a": "A"}) },
	} {
		fp, err := fn()
		require.NoError(t, err, name)
		assert.NotEqual(t, base, fp, name)
	}

	custom := theory.Quantum(theory.WithException(theory.DefaultException))
	_, err = RequestFingerprint(impl, st, custom, nil)
	assert.ErrorIs(t, err, ErrNotFingerprintable)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainImplementation, data), hashWithDomain(DomainSpacetime, data))
	// The separator keeps "ab"+"c" and "a"+"bc" apart.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
