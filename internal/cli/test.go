package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stembed/internal/batch"
	"github.com/roach88/stembed/internal/compiler"
	"github.com/roach88/stembed/internal/embed"
	"github.com/roach88/stembed/internal/harness"
	"github.com/roach88/stembed/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern on scenario names)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Status string   `json:"status,omitempty"`
	Pass   bool     `json:"pass"`
	Cached bool     `json:"cached,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Cached    int              `json:"cached"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against the embedding solver.

Each scenario names an implementation, a spacetime and a theory, from its
own CUE specs directory or from the built-in catalog, and states the
expected verdict.

Scenarios share one in-memory result memo: a scenario that repeats an
earlier definitive request (same structures, theory and pins) is answered
without searching again and reported as cached.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, malformed scenarios, etc.)

Examples:
  stembed test ./testdata/scenarios
  stembed test ./testdata/scenarios --filter "bell_*"
  stembed test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeNotFound,
			fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	scenarios, err := harness.LoadScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error())
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	if len(scenarios) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

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
		batch.WithStore(st),
		batch.WithTimeout(embed.DefaultTimeout),
		batch.WithParallelism(1),
		batch.WithLabel("test"),
		batch.WithLogger(logger),
	)

	for _, s := range scenarios {
		formatter.VerboseLog("Running scenario %s", s.Name)
		sr := runScenario(cmd, s, runner, logger)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		if sr.Cached {
			result.Cached++
		}
		if !formatter.JSON() {
			writeScenarioText(formatter, sr)
		}
	}

	if formatter.JSON() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintf(formatter.Writer, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Cached > 0 {
			fmt.Fprintf(formatter.Writer, "%d answered from memo\n", result.Cached)
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

// runScenario executes a single scenario through the shared runner.
func runScenario(cmd *cobra.Command, s *harness.Scenario, runner *batch.Runner, logger *slog.Logger) ScenarioResult {
	res, err := harness.Run(cmd.Context(), s, harness.WithRunner(runner), harness.WithLogger(logger))
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}
	return ScenarioResult{
		Name:   s.Name,
		Status: string(res.Solve.Status),
		Pass:   res.Passed,
		Cached: res.Cached,
		Errors: res.Errors,
	}
}

func writeScenarioText(formatter *OutputFormatter, sr ScenarioResult) {
	w := formatter.Writer
	if sr.Pass {
		if sr.Cached {
			fmt.Fprintf(w, "✓ %s (%s, cached)\n", sr.Name, sr.Status)
		} else {
			fmt.Fprintf(w, "✓ %s (%s)\n", sr.Name, sr.Status)
		}
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
