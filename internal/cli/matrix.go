package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stembed/internal/batch"
	"github.com/roach88/stembed/internal/catalog"
	"github.com/roach88/stembed/internal/compiler"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/store"
	"github.com/roach88/stembed/internal/theory"
)

// MatrixOutput is the JSON payload of the matrix command: the run as read
// back from the run log, in job order.
type MatrixOutput struct {
	RunID  string              `json:"run_id"`
	Solves []store.SolveRecord `json:"solves"`
	Counts map[string]int      `json:"counts"`
}

// MatrixOptions holds flags for the matrix command.
type MatrixOptions struct {
	*RootOptions
	Specs    string // CUE definitions; empty means the built-in catalog
	Timeout  time.Duration
	Parallel int
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatrixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Solve every implementation × spacetime × theory combination",
		Long: `Run the embedding solver over every combination of implementation,
spacetime and theory, and print the verdicts as a table.

Definitions come from the built-in catalog (Bell, PR box, CNOT and simple
circuits) unless --specs names a CUE directory. Every verdict is logged to
an in-memory run store for the lifetime of the command, and the table is
read back from that log.

Examples:
  stembed matrix
  stembed matrix --parallel 8 --timeout 10s
  stembed matrix --specs ./specs --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Specs, "specs", "", "CUE definitions directory (default: built-in catalog)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", batch.DefaultTimeout, "time budget per solve")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", batch.DefaultParallelism, "concurrent solves")

	return cmd
}

func runMatrix(opts *MatrixOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Parallel < 1 {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric,
			fmt.Sprintf("--parallel must be at least 1, got %d", opts.Parallel))
	}

	impls, sts, err := matrixDefinitions(opts.Specs)
	if err != nil {
		code, message := describeLoadError(err)
		return formatter.Fail(ExitCommandError, code, message)
	}
	theories := make([]theory.Theory, len(theory.Kinds))
	for i, k := range theory.Kinds {
		theories[i] = theory.New(k)
	}
	jobs := batch.Matrix(impls, sts, theories)
	formatter.VerboseLog("Running %d solve(s) with parallelism %d", len(jobs), opts.Parallel)

	// The run log lives only as long as this command.
	st, err := store.OpenMemory()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open result store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	runner := batch.New(
		batch.WithParallelism(opts.Parallel),
		batch.WithTimeout(opts.Timeout),
		batch.WithStore(st),
		batch.WithLabel("matrix"),
		batch.WithLogger(logger),
	)
	report, err := runner.Run(cmd.Context(), jobs)
	if err != nil {
		return formatter.Fail(ExitCommandError, solveErrorCode(err), err.Error())
	}

	out, err := readMatrix(cmd.Context(), st, report.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run log", err)
	}
	if len(out.Solves) != len(jobs) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("run %s logged %d of %d solve(s)", report.RunID, len(out.Solves), len(jobs)))
	}

	if formatter.JSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: out, RunID: out.RunID})
	}
	return writeMatrixText(formatter, out)
}

// readMatrix loads a logged run and tallies it by status.
func readMatrix(ctx context.Context, st *store.Store, runID string) (MatrixOutput, error) {
	recs, err := st.ReadRun(ctx, runID)
	if err != nil {
		return MatrixOutput{}, err
	}
	counts := map[string]int{
		string(embed.StatusFound):     0,
		string(embed.StatusExhausted): 0,
		string(embed.StatusTimedOut):  0,
	}
	for _, rec := range recs {
		counts[rec.Status]++
	}
	return MatrixOutput{RunID: runID, Solves: recs, Counts: counts}, nil
}

// matrixDefinitions returns the catalog, or the definitions in specsDir.
func matrixDefinitions(specsDir string) ([]*model.Implementation, []*model.Spacetime, error) {
	if specsDir == "" {
		return catalog.Implementations(), catalog.Spacetimes(), nil
	}
	specs, errs := compiler.LoadDir(specsDir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, nil, errs[0]
	}
	return specs.Implementations, specs.Spacetimes, nil
}

func writeMatrixText(formatter *OutputFormatter, out MatrixOutput) error {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "IMPLEMENTATION\tSPACETIME\tTHEORY\tSTATUS\tDETAIL")
	for _, rec := range out.Solves {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.Implementation, rec.Spacetime, rec.Theory, rec.Status, solveDetail(rec))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%d solve(s): %d found, %d exhausted, %d timed out\n",
		len(out.Solves),
		out.Counts[string(embed.StatusFound)],
		out.Counts[string(embed.StatusExhausted)],
		out.Counts[string(embed.StatusTimedOut)])
	fmt.Fprintf(formatter.Writer, "run %s\n", out.RunID)
	return nil
}

// solveDetail renders the witness sorted by node, or the reason.
func solveDetail(rec store.SolveRecord) string {
	var detail string
	if rec.Status == string(embed.StatusFound) {
		pairs := make([]string, 0, len(rec.Witness))
		for _, node := range slices.Sorted(maps.Keys(rec.Witness)) {
			pairs = append(pairs, node+"="+rec.Witness[node])
		}
		detail = strings.Join(pairs, " ")
	} else {
		detail = rec.Reason
	}
	if rec.Cached {
		detail += " (cached)"
	}
	return detail
}
