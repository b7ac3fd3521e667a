package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stembed/internal/compiler"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/theory"
)

// ErrCodeInvalidPin reports a pin that names an unknown node or point, or
// breaks injectivity.
const ErrCodeInvalidPin = "E301"

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	Implementation string
	Spacetime      string
	Theory         string
	Timeout        time.Duration
	Pins           []string // node=point
	MaxNonlocal    int
}

// SolveOutput is the JSON payload of the solve command.
type SolveOutput struct {
	Implementation string       `json:"implementation"`
	Spacetime      string       `json:"spacetime"`
	Theory         string       `json:"theory"`
	Result         embed.Result `json:"result"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <specs-dir>",
		Short: "Decide whether one implementation embeds into a spacetime",
		Long: `Load CUE definitions and search for an embedding of an implementation
into a spacetime under a theory.

The verdict is found (with a witness), exhausted (with a reason) or
timed_out. Every verdict exits 0; only command errors exit non-zero.

Examples:
  stembed solve ./specs --impl bell_quantum_common_cause --spacetime bell_like --theory quantum
  stembed solve ./specs --impl direct_connection --spacetime simple_chain --theory classical --pin In=A
  stembed solve ./specs --impl fanout --spacetime parallel --theory classical --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Implementation, "impl", "", "implementation name (required)")
	cmd.Flags().StringVar(&opts.Spacetime, "spacetime", "", "spacetime name (required)")
	cmd.Flags().StringVar(&opts.Theory, "theory", "", "theory: classical, quantum or boxworld (required)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", embed.DefaultTimeout, "search time budget")
	cmd.Flags().StringArrayVar(&opts.Pins, "pin", nil, "fix a node to a point (node=point, repeatable)")
	cmd.Flags().IntVar(&opts.MaxNonlocal, "max-nonlocal", 0, "cap on edges using the nonlocal exception (0 = unlimited)")
	_ = cmd.MarkFlagRequired("impl")
	_ = cmd.MarkFlagRequired("spacetime")
	_ = cmd.MarkFlagRequired("theory")

	return cmd
}

func runSolve(opts *SolveOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	th, err := theory.Parse(opts.Theory, theory.WithMaxNonlocal(opts.MaxNonlocal))
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error())
	}
	pins, err := parsePins(opts.Pins)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidPin, err.Error())
	}

	specs, errs := compiler.LoadDir(specsDir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		code, message := describeLoadError(errs[0])
		return formatter.Fail(ExitCommandError, code, message)
	}
	impl, ok := specs.Implementation(opts.Implementation)
	if !ok {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeNotFound,
			fmt.Sprintf("implementation %q not defined in %s", opts.Implementation, specsDir))
	}
	st, ok := specs.Spacetime(opts.Spacetime)
	if !ok {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeNotFound,
			fmt.Sprintf("spacetime %q not defined in %s", opts.Spacetime, specsDir))
	}

	formatter.VerboseLog("Solving %s in %s under %s (timeout %s)", impl.Name(), st.Name, th.Name(), opts.Timeout)

	res, err := embed.New(embed.WithLogger(logger)).Solve(cmd.Context(), embed.Request{
		Implementation: impl,
		Spacetime:      st,
		Theory:         th,
		Timeout:        opts.Timeout,
		Pins:           pins,
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, solveErrorCode(err), err.Error())
	}

	out := SolveOutput{
		Implementation: impl.Name(),
		Spacetime:      st.Name,
		Theory:         th.Name(),
		Result:         res,
	}
	if formatter.JSON() {
		return formatter.Success(out)
	}
	writeSolveText(formatter, impl, out)
	return nil
}

// parsePins parses repeated node=point flags.
func parsePins(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	pins := make(map[string]string, len(raw))
	for _, p := range raw {
		node, point, ok := strings.Cut(p, "=")
		node, point = strings.TrimSpace(node), strings.TrimSpace(point)
		if !ok || node == "" || point == "" {
			return nil, fmt.Errorf("invalid pin %q: expected node=point", p)
		}
		if prev, dup := pins[node]; dup {
			return nil, fmt.Errorf("node %q pinned twice (%s and %s)", node, prev, point)
		}
		pins[node] = point
	}
	return pins, nil
}

// solveErrorCode maps a solver error to a CLI error code.
func solveErrorCode(err error) string {
	switch {
	case embed.IsInvalidLocalisation(err):
		return ErrCodeInvalidPin
	case model.IsInvalidProcess(err):
		return compiler.ErrCodeInvalidProcess
	case model.IsInvalidImplementation(err):
		return compiler.ErrCodeInvalidImplementation
	case model.IsInvalidSpacetime(err):
		return compiler.ErrCodeInvalidSpacetime
	default:
		return compiler.ErrCodeGeneric
	}
}

func writeSolveText(formatter *OutputFormatter, impl *model.Implementation, out SolveOutput) {
	w := formatter.Writer
	res := out.Result

	mark := "✗"
	if res.Embeddable() {
		mark = "✓"
	}
	fmt.Fprintf(w, "%s %s: %s in %s under %s\n", mark, res.Status, out.Implementation, out.Spacetime, out.Theory)

	if res.Embeddable() {
		fmt.Fprintln(w, "  witness:")
		// FPO node order keeps the listing stable.
		for _, node := range impl.FPO().Nodes() {
			fmt.Fprintf(w, "    %s -> %s\n", node, res.Witness[node])
		}
	}
	if res.Reason != "" {
		fmt.Fprintf(w, "  reason: %s\n", res.Reason)
	}
	fmt.Fprintf(w, "  expansions=%d backtracks=%d theory_checks=%d elapsed=%s\n",
		res.Stats.Expansions, res.Stats.Backtracks, res.Stats.TheoryChecks, res.Stats.Elapsed)
}
