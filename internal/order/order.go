package order

import (
	"iter"
	"sync"
)

// Relation is a direct precedence pair: From strictly precedes To.
type Relation struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Order is a finite strict partial order over string IDs.
//
// The zero value is not usable; call New. Queries are safe for concurrent
// use; mutations are not and must not overlap with queries.
type Order struct {
	ids   []string
	index map[string]int
	succ  [][]int // direct successors, in relation insertion order
	pred  [][]int // direct predecessors, in relation insertion order
	rels  []Relation

	// closure[i] has bit j set iff ids[i] strictly precedes ids[j].
	// nil means stale; rebuilt by closureRows under mu.
	mu      sync.Mutex
	closure []bitset
}

// New creates an empty order.
func New() *Order {
	return &Order{index: make(map[string]int)}
}

// AddPoint adds a new ID.
//
// Returns CodeDuplicateID if the ID is already present and CodeUnknownPoint
// for the empty ID.
func (o *Order) AddPoint(id string) error {
	if id == "" {
		return &Error{Code: CodeUnknownPoint, Op: "add_point", A: id}
	}
	if _, ok := o.index[id]; ok {
		return &Error{Code: CodeDuplicateID, Op: "add_point", A: id}
	}
	o.index[id] = len(o.ids)
	o.ids = append(o.ids, id)
	o.succ = append(o.succ, nil)
	o.pred = append(o.pred, nil)
	o.mu.Lock()
	o.closure = nil
	o.mu.Unlock()
	return nil
}

// AddRelation records that a strictly precedes b.
//
// Returns CodeUnknownPoint if either endpoint is missing and
// CodeCycleViolation if a == b or b already precedes a. Adding a relation
// that is already present directly is a no-op.
func (o *Order) AddRelation(a, b string) error {
	ia, okA := o.index[a]
	ib, okB := o.index[b]
	if !okA || !okB {
		return &Error{Code: CodeUnknownPoint, Op: "add_relation", A: a, B: b}
	}
	if ia == ib || o.reaches(ib, ia) {
		return &Error{Code: CodeCycleViolation, Op: "add_relation", A: a, B: b}
	}
	for _, s := range o.succ[ia] {
		if s == ib {
			return nil
		}
	}

	o.succ[ia] = append(o.succ[ia], ib)
	o.pred[ib] = append(o.pred[ib], ia)
	o.rels = append(o.rels, Relation{From: a, To: b})

	// Incremental update keeps the closure warm: everything that reaches a
	// (plus a itself) now reaches b and everything b reaches.
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closure != nil {
		add := o.closure[ib].clone()
		add.set(ib)
		for i := range o.ids {
			if i == ia || o.closure[i].has(ia) {
				o.closure[i].or(add)
			}
		}
	}
	return nil
}

// Contains reports whether id is present.
func (o *Order) Contains(id string) bool {
	_, ok := o.index[id]
	return ok
}

// Index returns the insertion index of id.
func (o *Order) Index(id string) (int, bool) {
	i, ok := o.index[id]
	return i, ok
}

// Len returns the number of IDs.
func (o *Order) Len() int { return len(o.ids) }

// Points returns a copy of all IDs in insertion order.
func (o *Order) Points() []string {
	out := make([]string, len(o.ids))
	copy(out, o.ids)
	return out
}

// At returns the ID at insertion index i.
func (o *Order) At(i int) string { return o.ids[i] }

// Relations returns a copy of the direct relations in insertion order.
func (o *Order) Relations() []Relation {
	out := make([]Relation, len(o.rels))
	copy(out, o.rels)
	return out
}

// Predecessors returns the direct predecessors of id in relation order.
func (o *Order) Predecessors(id string) []string {
	i, ok := o.index[id]
	if !ok {
		return nil
	}
	return o.names(o.pred[i])
}

// Successors returns the direct successors of id in relation order.
func (o *Order) Successors(id string) []string {
	i, ok := o.index[id]
	if !ok {
		return nil
	}
	return o.names(o.succ[i])
}

func (o *Order) names(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = o.ids[i]
	}
	return out
}

// Precedes reports whether a strictly precedes b in the transitive closure.
// Unknown IDs precede nothing.
func (o *Order) Precedes(a, b string) bool {
	ia, okA := o.index[a]
	ib, okB := o.index[b]
	if !okA || !okB {
		return false
	}
	return o.reaches(ia, ib)
}

// PrecedesIndex is Precedes over insertion indices. Used by the solver's hot
// loop to avoid map lookups.
func (o *Order) PrecedesIndex(i, j int) bool {
	return o.reaches(i, j)
}

// Leq reports whether a == b or a strictly precedes b.
func (o *Order) Leq(a, b string) bool {
	if a == b {
		return o.Contains(a)
	}
	return o.Precedes(a, b)
}

// Comparable reports whether a and b are related either way (or equal).
func (o *Order) Comparable(a, b string) bool {
	return o.Leq(a, b) || o.Leq(b, a)
}

// Incomparable reports whether two known IDs are unrelated. In spacetime
// terms: spacelike-separated.
func (o *Order) Incomparable(a, b string) bool {
	if !o.Contains(a) || !o.Contains(b) {
		return false
	}
	return !o.Comparable(a, b)
}

func (o *Order) reaches(i, j int) bool {
	return o.closureRows()[i].has(j)
}

// closureRows returns the closure, rebuilding it in reverse topological
// order when stale.
func (o *Order) closureRows() []bitset {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closure != nil {
		return o.closure
	}
	n := len(o.ids)
	closure := make([]bitset, n)
	for i := range closure {
		closure[i] = newBitset(n)
	}
	topo := o.topoIndices()
	for k := len(topo) - 1; k >= 0; k-- {
		i := topo[k]
		for _, s := range o.succ[i] {
			closure[i].set(s)
			closure[i].or(closure[s])
		}
	}
	o.closure = closure
	return closure
}

// TopologicalOrder yields every ID such that each ID comes after all of its
// predecessors. Ties are broken by insertion order, so the sequence is
// deterministic. The order must not be mutated while iterating.
func (o *Order) TopologicalOrder() iter.Seq[string] {
	return func(yield func(string) bool) {
		n := len(o.ids)
		indeg := make([]int, n)
		for i := range o.ids {
			indeg[i] = len(o.pred[i])
		}
		done := make([]bool, n)
		for emitted := 0; emitted < n; emitted++ {
			next := -1
			for i := 0; i < n; i++ {
				if !done[i] && indeg[i] == 0 {
					next = i
					break
				}
			}
			if next < 0 {
				return
			}
			done[next] = true
			for _, s := range o.succ[next] {
				indeg[s]--
			}
			if !yield(o.ids[next]) {
				return
			}
		}
	}
}

func (o *Order) topoIndices() []int {
	out := make([]int, 0, len(o.ids))
	for id := range o.TopologicalOrder() {
		out = append(out, o.index[id])
	}
	return out
}

// Validate re-checks acyclicity from the direct relations alone.
//
// Construction already guarantees this; callers at a contract boundary (the
// solver's entry) use it so a corrupted order is never searched.
func (o *Order) Validate() error {
	if got := len(o.topoIndices()); got != len(o.ids) {
		for i, id := range o.ids {
			for _, s := range o.succ[i] {
				if o.reachesDirect(s, i) {
					return &Error{Code: CodeCycleViolation, Op: "validate", A: id, B: o.ids[s]}
				}
			}
		}
		return &Error{Code: CodeCycleViolation, Op: "validate"}
	}
	return nil
}

// reachesDirect walks direct relations without the closure cache.
func (o *Order) reachesDirect(from, to int) bool {
	seen := make([]bool, len(o.ids))
	stack := []int{from}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if i == to {
			return true
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		stack = append(stack, o.succ[i]...)
	}
	return false
}

// Clone returns a deep copy sharing no mutable state with o.
func (o *Order) Clone() *Order {
	c := New()
	for _, id := range o.ids {
		_ = c.AddPoint(id)
	}
	for _, r := range o.rels {
		_ = c.AddRelation(r.From, r.To)
	}
	return c
}

type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return i/64 < len(b) && b[i/64]&(1<<(uint(i)%64)) != 0 }

func (b bitset) or(other bitset) {
	for k := range other {
		b[k] |= other[k]
	}
}

func (b bitset) clone() bitset {
	c := make(bitset, len(b))
	copy(c, b)
	return c
}
