package order

import (
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOrder(t *testing.T, points []string, rels [][2]string) *Order {
	t.Helper()
	o := New()
	for _, p := range points {
		require.NoError(t, o.AddPoint(p))
	}
	for _, r := range rels {
		require.NoError(t, o.AddRelation(r[0], r[1]))
	}
	return o
}

func TestAddPoint_Duplicate(t *testing.T) {
	o := New()
	require.NoError(t, o.AddPoint("a"))

	err := o.AddPoint("a")
	require.Error(t, err)
	assert.True(t, IsDuplicateID(err))
	assert.Equal(t, 1, o.Len())
}

func TestAddPoint_Empty(t *testing.T) {
	err := New().AddPoint("")
	assert.True(t, IsUnknownPoint(err))
}

func TestAddRelation_UnknownPoint(t *testing.T) {
	o := mustOrder(t, []string{"a"}, nil)

	err := o.AddRelation("a", "b")
	require.Error(t, err)
	assert.True(t, IsUnknownPoint(err))
	assert.Contains(t, err.Error(), "UNKNOWN_POINT")

	err = o.AddRelation("z", "a")
	assert.True(t, IsUnknownPoint(err))
	assert.Empty(t, o.Relations())
}

func TestAddRelation_SelfLoop(t *testing.T) {
	o := mustOrder(t, []string{"a"}, nil)

	err := o.AddRelation("a", "a")
	assert.True(t, IsCycleViolation(err))
	assert.False(t, o.Precedes("a", "a"))
}

func TestAddRelation_CycleLeavesOrderUnchanged(t *testing.T) {
	o := mustOrder(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	before := o.Relations()

	err := o.AddRelation("c", "a")
	require.Error(t, err)
	assert.True(t, IsCycleViolation(err))
	assert.Equal(t, before, o.Relations())
	assert.True(t, o.Precedes("a", "c"))
	assert.False(t, o.Precedes("c", "a"))
	assert.NoError(t, o.Validate())
}

func TestAddRelation_DuplicateIsNoop(t *testing.T) {
	o := mustOrder(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	require.NoError(t, o.AddRelation("a", "b"))
	assert.Len(t, o.Relations(), 1)
	assert.Equal(t, []string{"a"}, o.Predecessors("b"))
}

func TestComparability(t *testing.T) {
	// Diamond: s -> l, s -> r, l -> e, r -> e
	o := mustOrder(t,
		[]string{"s", "l", "r", "e"},
		[][2]string{{"s", "l"}, {"s", "r"}, {"l", "e"}, {"r", "e"}},
	)

	assert.True(t, o.Precedes("s", "e"))
	assert.False(t, o.Precedes("e", "s"))
	assert.True(t, o.Leq("l", "l"))
	assert.False(t, o.Precedes("l", "l"))

	assert.True(t, o.Comparable("s", "e"))
	assert.True(t, o.Comparable("e", "s"))
	assert.True(t, o.Incomparable("l", "r"))
	assert.False(t, o.Incomparable("l", "e"))

	// Unknown IDs are neither comparable nor incomparable.
	assert.False(t, o.Precedes("s", "x"))
	assert.False(t, o.Incomparable("s", "x"))
}

func TestClosureStaysWarmAcrossMutations(t *testing.T) {
	o := mustOrder(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}})
	assert.True(t, o.Precedes("a", "b")) // warm the closure

	require.NoError(t, o.AddRelation("c", "d"))
	require.NoError(t, o.AddRelation("b", "c"))
	assert.True(t, o.Precedes("a", "d"))

	require.NoError(t, o.AddPoint("e"))
	require.NoError(t, o.AddRelation("d", "e"))
	assert.True(t, o.Precedes("a", "e"))
	assert.True(t, IsCycleViolation(o.AddRelation("e", "b")))
}

func TestTopologicalOrder(t *testing.T) {
	o := mustOrder(t,
		[]string{"out", "mid", "in", "side"},
		[][2]string{{"in", "mid"}, {"mid", "out"}},
	)

	got := slices.Collect(o.TopologicalOrder())
	// Ready nodes are picked by lowest insertion index, so "mid" (index 1)
	// and then "out" (index 0) win over "side" (index 3).
	assert.Equal(t, []string{"in", "mid", "out", "side"}, got)

	pos := make(map[string]int)
	for i, id := range got {
		pos[id] = i
	}
	for _, r := range o.Relations() {
		assert.Less(t, pos[r.From], pos[r.To])
	}
}

func TestTopologicalOrder_EarlyStop(t *testing.T) {
	o := mustOrder(t, []string{"a", "b", "c"}, nil)
	var seen []string
	for id := range o.TopologicalOrder() {
		seen = append(seen, id)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestClone_Independent(t *testing.T) {
	o := mustOrder(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	c := o.Clone()
	require.NoError(t, c.AddPoint("c"))
	require.NoError(t, c.AddRelation("b", "c"))

	assert.False(t, o.Contains("c"))
	assert.True(t, c.Precedes("a", "c"))
	assert.Equal(t, o.Points(), []string{"a", "b"})
}

// naiveReach computes reachability by DFS over the recorded relations.
func naiveReach(points []string, rels []Relation, from, to string) bool {
	adj := make(map[string][]string)
	for _, r := range rels {
		adj[r.From] = append(adj[r.From], r.To)
	}
	seen := make(map[string]bool)
	stack := append([]string(nil), adj[from]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, adj[n]...)
	}
	return false
}

// TestPrecedes_MatchesClosureProperty builds random orders, attempting
// arbitrary relations, and checks that Precedes always matches the
// transitive closure of the relations that were accepted, and that every
// rejected relation was a genuine cycle.
func TestPrecedes_MatchesClosureProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}

	for trial := 0; trial < 50; trial++ {
		o := New()
		for _, p := range points {
			require.NoError(t, o.AddPoint(p))
		}
		for k := 0; k < 20; k++ {
			a := points[rng.Intn(len(points))]
			b := points[rng.Intn(len(points))]
			before := o.Relations()
			err := o.AddRelation(a, b)
			if err != nil {
				require.True(t, IsCycleViolation(err))
				assert.True(t, a == b || naiveReach(points, before, b, a),
					"rejected %s->%s without a cycle", a, b)
				assert.Equal(t, before, o.Relations())
			}
			// Interleave queries so the incremental path is exercised.
			if k%3 == 0 {
				o.Precedes(a, b)
			}
		}

		rels := o.Relations()
		for _, a := range points {
			for _, b := range points {
				assert.Equal(t, naiveReach(points, rels, a, b), o.Precedes(a, b),
					"trial %d: precedes(%s,%s)", trial, a, b)
			}
		}
		require.NoError(t, o.Validate())
	}
}

func TestConcurrentQueriesOnColdClosure(t *testing.T) {
	o := mustOrder(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	require.NoError(t, o.AddPoint("d")) // invalidates the closure

	var wg sync.WaitGroup
	results := make([]bool, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.Precedes("a", "c") && o.Incomparable("a", "d")
		}()
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "goroutine %d", i)
	}
}
