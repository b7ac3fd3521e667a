package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/stembed/internal/canon"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/store"
	"github.com/roach88/stembed/internal/theory"
)

// DefaultParallelism is the number of concurrent solves.
const DefaultParallelism = 4

// DefaultTimeout bounds each solve in a batch.
const DefaultTimeout = 3 * time.Second

// Job is one solve in a batch.
type Job struct {
	Implementation *model.Implementation
	Spacetime      *model.Spacetime
	Theory         theory.Theory
	Pins           map[string]string

	// Timeout overrides the runner's per-solve timeout when positive.
	Timeout time.Duration
}

// Outcome is the result of one job.
type Outcome struct {
	Seq            int64        `json:"seq"`
	Implementation string       `json:"implementation"`
	Spacetime      string       `json:"spacetime"`
	Theory         string       `json:"theory"`
	Result         embed.Result `json:"result"`
	Cached         bool         `json:"cached,omitempty"`
}

// Report is the result of a batch, outcomes in job order.
type Report struct {
	RunID    string    `json:"run_id"`
	Outcomes []Outcome `json:"outcomes"`
}

// Counts tallies outcomes by status.
func (r Report) Counts() map[embed.Status]int {
	counts := make(map[embed.Status]int, 3)
	for _, o := range r.Outcomes {
		counts[o.Result.Status]++
	}
	return counts
}

// Matrix expands every implementation × spacetime × theory combination,
// implementation-major.
func Matrix(impls []*model.Implementation, sts []*model.Spacetime, theories []theory.Theory) []Job {
	jobs := make([]Job, 0, len(impls)*len(sts)*len(theories))
	for _, impl := range impls {
		for _, st := range sts {
			for _, th := range theories {
				jobs = append(jobs, Job{Implementation: impl, Spacetime: st, Theory: th})
			}
		}
	}
	return jobs
}

// Runner executes batches of jobs.
type Runner struct {
	solver      *embed.Solver
	store       *store.Store
	ids         RunIDGenerator
	clock       *Clock
	parallelism int
	timeout     time.Duration
	label       string
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallelism sets the concurrency limit. Values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.parallelism = n
		}
	}
}

// WithTimeout sets the per-solve timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithStore attaches a run log and memo.
func WithStore(s *store.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithRunIDGenerator sets the run ID source. Defaults to UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) {
		r.ids = g
	}
}

// WithClock sets the logical clock. Defaults to a fresh clock.
func WithClock(c *Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithSolver sets the solver. Defaults to embed.New with the runner's logger.
func WithSolver(s *embed.Solver) Option {
	return func(r *Runner) {
		r.solver = s
	}
}

// WithLabel tags logged runs.
func WithLabel(label string) Option {
	return func(r *Runner) {
		r.label = label
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		ids:         UUIDv7Generator{},
		clock:       NewClock(),
		parallelism: DefaultParallelism,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.solver == nil {
		r.solver = embed.New(embed.WithLogger(r.logger))
	}
	return r
}

// Run executes every job and returns outcomes in job order.
//
// A structural error in any job (invalid implementation, spacetime or pins)
// cancels the remaining solves and is returned. Timeouts are outcomes, not
// errors.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Report, error) {
	report := Report{RunID: r.ids.Generate(), Outcomes: make([]Outcome, len(jobs))}
	runSeq := r.clock.Next()

	if r.store != nil {
		if err := r.store.WriteRun(ctx, store.Run{ID: report.RunID, Seq: runSeq, Label: r.label}); err != nil {
			return Report{}, fmt.Errorf("run %s: %w", report.RunID, err)
		}
	}

	// Sequence numbers are assigned up front so they follow job order.
	for i, job := range jobs {
		report.Outcomes[i] = Outcome{
			Seq:            r.clock.Next(),
			Implementation: job.Implementation.Name(),
			Spacetime:      job.Spacetime.Name,
			Theory:         job.Theory.Name(),
		}
	}

	r.logger.Info("batch started",
		"run_id", report.RunID,
		"jobs", len(jobs),
		"parallelism", r.parallelism,
		"timeout", r.timeout,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i := range jobs {
		g.Go(func() error {
			out := &report.Outcomes[i]
			if err := r.runJob(gctx, report.RunID, jobs[i], out); err != nil {
				return fmt.Errorf("job %d (%s × %s × %s): %w",
					i, out.Implementation, out.Spacetime, out.Theory, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	counts := report.Counts()
	r.logger.Info("batch finished",
		"run_id", report.RunID,
		"found", counts[embed.StatusFound],
		"exhausted", counts[embed.StatusExhausted],
		"timed_out", counts[embed.StatusTimedOut],
	)
	return report, nil
}

// runJob solves one job (or answers it from the memo) and logs it.
func (r *Runner) runJob(ctx context.Context, runID string, job Job, out *Outcome) error {
	fp, err := canon.RequestFingerprint(job.Implementation, job.Spacetime, job.Theory, job.Pins)
	if err != nil && !errors.Is(err, canon.ErrNotFingerprintable) {
		return err
	}
	memoize := r.store != nil && err == nil

	if memoize {
		rec, ok, err := r.store.LookupDefinitive(ctx, fp)
		if err != nil {
			return err
		}
		if ok {
			out.Result = resultFromRecord(rec)
			out.Cached = true
			r.logger.Debug("memo hit", "seq", out.Seq, "request", fp)
			return r.log(ctx, runID, fp, *out)
		}
	}

	timeout := r.timeout
	if job.Timeout > 0 {
		timeout = job.Timeout
	}
	res, err := r.solver.Solve(ctx, embed.Request{
		Implementation: job.Implementation,
		Spacetime:      job.Spacetime,
		Theory:         job.Theory,
		Timeout:        timeout,
		Pins:           job.Pins,
	})
	if err != nil {
		return err
	}
	out.Result = res

	if r.store == nil {
		return nil
	}
	return r.log(ctx, runID, fp, *out)
}

func (r *Runner) log(ctx context.Context, runID, fp string, out Outcome) error {
	return r.store.WriteSolve(ctx, store.SolveRecord{
		RunID:          runID,
		Seq:            out.Seq,
		RequestFP:      fp,
		Implementation: out.Implementation,
		Spacetime:      out.Spacetime,
		Theory:         out.Theory,
		Status:         string(out.Result.Status),
		Witness:        out.Result.Witness,
		Expansions:     out.Result.Stats.Expansions,
		Backtracks:     out.Result.Stats.Backtracks,
		TheoryChecks:   out.Result.Stats.TheoryChecks,
		ElapsedNS:      int64(out.Result.Stats.Elapsed),
		Reason:         out.Result.Reason,
		Cached:         out.Cached,
	})
}

// resultFromRecord rebuilds a definitive Result. Elapsed is zero: nothing
// was searched.
func resultFromRecord(rec store.SolveRecord) embed.Result {
	return embed.Result{
		Status:  embed.Status(rec.Status),
		Witness: embed.Witness(rec.Witness),
		Stats: embed.Stats{
			Expansions:   rec.Expansions,
			Backtracks:   rec.Backtracks,
			TheoryChecks: rec.TheoryChecks,
		},
		Reason: rec.Reason,
	}
}
