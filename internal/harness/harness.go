package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/roach88/stembed/internal/batch"
	"github.com/roach88/stembed/internal/catalog"
	"github.com/roach88/stembed/internal/compiler"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/theory"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario       string       `json:"scenario"`
	Implementation string       `json:"implementation"`
	Spacetime      string       `json:"spacetime"`
	Theory         string       `json:"theory"`
	Solve          embed.Result `json:"solve"`
	RunID          string       `json:"run_id"`

	// Cached marks a verdict served from the runner's memo.
	Cached bool `json:"cached,omitempty"`

	Passed bool     `json:"passed"`
	Errors []string `json:"errors,omitempty"`
}

// AddError records a failed expectation.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Passed = false
}

// Option configures a scenario run.
type Option func(*config)

type config struct {
	clock  embed.Clock
	logger *slog.Logger
	runner *batch.Runner
}

// WithClock sets the solver clock, for deterministic timeout scenarios.
func WithClock(c embed.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithRunner solves through a shared runner, so scenarios that repeat a
// request are answered from its memo. WithClock does not reach a supplied
// runner's solver.
func WithRunner(r *batch.Runner) Option {
	return func(cfg *config) {
		cfg.runner = r
	}
}

// Run executes a scenario and evaluates its expectations.
//
// Errors are reserved for scenarios that cannot run (missing definitions,
// invalid specs, invalid pins); a wrong verdict is a failed Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	impl, st, err := resolve(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	th, err := theory.Parse(scenario.Theory, theory.WithMaxNonlocal(scenario.MaxNonlocal))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	runner := cfg.runner
	if runner == nil {
		solverOpts := []embed.Option{embed.WithLogger(cfg.logger)}
		if cfg.clock != nil {
			solverOpts = append(solverOpts, embed.WithClock(cfg.clock))
		}
		runner = batch.New(
			batch.WithSolver(embed.New(solverOpts...)),
			batch.WithTimeout(embed.DefaultTimeout),
			batch.WithParallelism(1),
			batch.WithLogger(cfg.logger),
		)
	}
	report, err := runner.Run(ctx, []batch.Job{{
		Implementation: impl,
		Spacetime:      st,
		Theory:         th,
		Pins:           scenario.Pin,
		Timeout:        scenario.Timeout,
	}})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	out := report.Outcomes[0]

	result := &Result{
		Scenario:       scenario.Name,
		Implementation: impl.Name(),
		Spacetime:      st.Name,
		Theory:         th.Name(),
		Solve:          out.Result,
		RunID:          report.RunID,
		Cached:         out.Cached,
		Passed:         true,
	}
	evaluate(result, scenario.Expect)

	cfg.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"status", out.Result.Status,
		"cached", out.Cached,
		"passed", result.Passed,
	)
	return result, nil
}

// evaluate checks the result against the expectation.
func evaluate(r *Result, exp Expect) {
	if string(r.Solve.Status) != exp.Status {
		r.AddError("status: expected %s, got %s", exp.Status, r.Solve.Status)
	}
	if exp.Witness != nil && !maps.Equal(exp.Witness, map[string]string(r.Solve.Witness)) {
		r.AddError("witness: expected %v, got %v", exp.Witness, map[string]string(r.Solve.Witness))
	}
	if exp.Reason != "" && !strings.Contains(r.Solve.Reason, exp.Reason) {
		r.AddError("reason: expected to contain %q, got %q", exp.Reason, r.Solve.Reason)
	}
}

// resolve finds the scenario's implementation and spacetime in its specs
// directory, or in the catalog when none is given.
func resolve(s *Scenario) (*model.Implementation, *model.Spacetime, error) {
	if s.Specs == "" {
		impl, ok := catalog.Implementation(s.Implementation)
		if !ok {
			return nil, nil, fmt.Errorf("implementation %q not in catalog", s.Implementation)
		}
		st, ok := catalog.Spacetime(s.Spacetime)
		if !ok {
			return nil, nil, fmt.Errorf("spacetime %q not in catalog", s.Spacetime)
		}
		return impl, st, nil
	}

	specs, errs := compiler.LoadDir(s.Specs, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, nil, fmt.Errorf("loading specs: %w", errs[0])
	}
	impl, ok := specs.Implementation(s.Implementation)
	if !ok {
		return nil, nil, fmt.Errorf("implementation %q not defined in %s", s.Implementation, s.Specs)
	}
	st, ok := specs.Spacetime(s.Spacetime)
	if !ok {
		return nil, nil, fmt.Errorf("spacetime %q not defined in %s", s.Spacetime, s.Specs)
	}
	return impl, st, nil
}
