package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/theory"
)

// DefaultTimeout bounds a solve when the request sets no timeout.
const DefaultTimeout = 5 * time.Second

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Request is one embedding question.
type Request struct {
	Implementation *model.Implementation
	Spacetime      *model.Spacetime
	Theory         theory.Theory

	// Timeout bounds the search. Zero means DefaultTimeout.
	Timeout time.Duration

	// Pins fix FPO nodes to spacetime points before search.
	Pins map[string]string
}

// Solver runs embedding searches. It is safe for concurrent use; each
// Solve owns its own search state.
type Solver struct {
	clock  Clock
	logger *slog.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithClock sets the clock used for deadlines and Elapsed.
func WithClock(c Clock) Option {
	return func(s *Solver) {
		s.clock = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		s.logger = l
	}
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEmbeddable runs one solve with a default Solver and a background
// context.
func IsEmbeddable(impl *model.Implementation, st *model.Spacetime, th theory.Theory, timeout time.Duration) (Result, error) {
	return New().Solve(context.Background(), Request{
		Implementation: impl,
		Spacetime:      st,
		Theory:         th,
		Timeout:        timeout,
	})
}

// Solve decides whether req.Implementation embeds into req.Spacetime under
// req.Theory.
//
// Structural problems (invalid implementation, spacetime or pins) are
// returned as errors with no Result. Every other outcome, including timeout
// and cancellation, is a Result with a nil error.
func (s *Solver) Solve(ctx context.Context, req Request) (Result, error) {
	if req.Implementation == nil || req.Spacetime == nil {
		return Result{}, fmt.Errorf("solve: implementation and spacetime are required")
	}
	if err := req.Implementation.Validate(); err != nil {
		return Result{}, fmt.Errorf("solve: %w", err)
	}
	if err := req.Spacetime.Validate(); err != nil {
		return Result{}, fmt.Errorf("solve: %w", err)
	}

	ctx, span := startSolveSpan(ctx, req)
	defer span.End()

	sr, err := newSearch(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("solve: %w", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	start := s.clock.Now()
	deadline := start.Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	// The pigeonhole bound is decided before the theory is consulted.
	var res Result
	if n, p := req.Implementation.FPO().Len(), req.Spacetime.Len(); n > p {
		res = Result{
			Status: StatusExhausted,
			Reason: fmt.Sprintf("pigeonhole: %d nodes cannot map injectively into %d points", n, p),
		}
	} else if ok, reason := req.Theory.Admits(req.Implementation); !ok {
		res = Result{Status: StatusExhausted, Reason: reason}
	} else {
		res = sr.run(ctx, s.clock, deadline, timeout)
	}
	res.Stats.Elapsed = s.clock.Now().Sub(start)

	setSolveSpanResult(span, res)
	span.AddEvent("solve." + string(res.Status))
	recordSolveMetrics(req.Theory.Name(), res)

	s.logger.Debug("solve finished",
		"implementation", req.Implementation.Name(),
		"spacetime", req.Spacetime.Name,
		"theory", req.Theory.Name(),
		"status", res.Status,
		"expansions", res.Stats.Expansions,
		"backtracks", res.Stats.Backtracks,
		"elapsed", res.Stats.Elapsed,
	)
	return res, nil
}

// validatePins resolves pins to (node index -> point index). Pins are
// checked in sorted node order so the reported error is deterministic.
func validatePins(pins map[string]string, fpo *model.FramedPartialOrder, st *model.Spacetime) ([]int, error) {
	nodes := fpo.Order()
	pinned := make([]int, nodes.Len())
	for i := range pinned {
		pinned[i] = -1
	}
	if len(pins) == 0 {
		return pinned, nil
	}

	keys := make([]string, 0, len(pins))
	for k := range pins {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	owner := make(map[string]string, len(pins))
	for _, node := range keys {
		point := pins[node]
		ni, ok := nodes.Index(node)
		if !ok {
			return nil, &LocalisationError{Node: node, Point: point, Reason: "unknown node"}
		}
		pi, ok := st.Order().Index(point)
		if !ok {
			return nil, &LocalisationError{Node: node, Point: point, Reason: "unknown point"}
		}
		if prev, dup := owner[point]; dup {
			return nil, &LocalisationError{Node: node, Point: point,
				Reason: fmt.Sprintf("point already pinned to %q", prev)}
		}
		owner[point] = node
		pinned[ni] = pi
	}
	return pinned, nil
}
