package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/stembed/internal/order"
	"github.com/roach88/stembed/internal/theory"
)

// search is the state of one solve. Assignment state lives in flat arrays
// indexed by FPO node and spacetime point; the frame stack is cursor[0..depth].
type search struct {
	nodes *order.Order
	st    *order.Order
	check *theory.Check

	seq      []int  // node indices in topological order; depth d places seq[d]
	pinned   []int  // node -> pinned point, or -1
	reserved []bool // point is the target of some pin

	assign []int  // node -> point, or -1
	used   []bool // point hosts some node
	cursor []int  // next candidate point per depth

	stats Stats
}

func newSearch(req Request) (*search, error) {
	fpo := req.Implementation.FPO()
	pinned, err := validatePins(req.Pins, fpo, req.Spacetime)
	if err != nil {
		return nil, err
	}

	nodes := fpo.Order()
	st := req.Spacetime.Order()
	s := &search{
		nodes:    nodes,
		st:       st,
		check:    req.Theory.Prepare(req.Implementation, req.Spacetime),
		seq:      make([]int, 0, nodes.Len()),
		pinned:   pinned,
		reserved: make([]bool, st.Len()),
		assign:   make([]int, nodes.Len()),
		used:     make([]bool, st.Len()),
		cursor:   make([]int, nodes.Len()),
	}
	for id := range fpo.TopologicalOrder() {
		idx, _ := nodes.Index(id)
		s.seq = append(s.seq, idx)
	}
	for i := range s.assign {
		s.assign[i] = -1
	}
	for _, p := range pinned {
		if p >= 0 {
			s.reserved[p] = true
		}
	}
	return s, nil
}

// run drives the frame stack until a terminal state.
func (s *search) run(ctx context.Context, clock Clock, deadline time.Time, timeout time.Duration) Result {
	done := ctx.Done()
	n, p := len(s.seq), s.st.Len()
	depth := 0

	for {
		if depth == n {
			return Result{Status: StatusFound, Witness: s.witness(), Stats: s.stats}
		}
		if depth < 0 {
			return Result{Status: StatusExhausted, Stats: s.stats, Reason: "search space exhausted"}
		}

		node := s.seq[depth]
		s.release(node)

		placed := false
		for c := s.cursor[depth]; c < p; c++ {
			if s.used[c] {
				continue
			}
			if pin := s.pinned[node]; pin >= 0 {
				if c != pin {
					continue
				}
			} else if s.reserved[c] {
				continue
			}

			select {
			case <-done:
				return Result{Status: StatusTimedOut, Stats: s.stats, Reason: ctx.Err().Error()}
			default:
			}
			if !clock.Now().Before(deadline) {
				return Result{Status: StatusTimedOut, Stats: s.stats,
					Reason: fmt.Sprintf("no verdict within %s", timeout)}
			}
			s.stats.Expansions++

			if !s.compatible(depth, node, c) {
				continue
			}
			s.assign[node] = c
			s.used[c] = true
			s.stats.TheoryChecks++
			if !s.check.AllowsIndex(s.assign) {
				s.release(node)
				continue
			}

			s.cursor[depth] = c + 1
			depth++
			if depth < n {
				s.cursor[depth] = 0
			}
			placed = true
			break
		}

		if !placed {
			s.cursor[depth] = 0
			depth--
			s.stats.Backtracks++
		}
	}
}

// compatible reports whether placing node at point c keeps every
// FPO-comparable pair with an already placed node from being inverted.
func (s *search) compatible(depth, node, c int) bool {
	for _, u := range s.seq[:depth] {
		pu := s.assign[u]
		if s.nodes.PrecedesIndex(u, node) && s.st.PrecedesIndex(c, pu) {
			return false
		}
		if s.nodes.PrecedesIndex(node, u) && s.st.PrecedesIndex(pu, c) {
			return false
		}
	}
	return true
}

func (s *search) release(node int) {
	if p := s.assign[node]; p >= 0 {
		s.used[p] = false
		s.assign[node] = -1
	}
}

func (s *search) witness() Witness {
	w := make(Witness, len(s.assign))
	for node, p := range s.assign {
		w[s.nodes.At(node)] = s.st.At(p)
	}
	return w
}
