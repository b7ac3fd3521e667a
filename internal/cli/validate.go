package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stembed/internal/compiler"
)

// ValidationIssue is one problem found in a specs directory.
type ValidationIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid           bool              `json:"valid"`
	Files           int               `json:"files"`
	Processes       int               `json:"processes"`
	Implementations int               `json:"implementations"`
	Spacetimes      int               `json:"spacetimes"`
	Errors          []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate CUE process, implementation and spacetime definitions",
		Long: `Compile every CUE definition in a directory and report all problems.

Processes, implementations and spacetimes are checked for structural
validity: boundary agreement, acyclic orders, components on internal
nodes and known process references.

Exit codes:
  0 - All definitions valid
  1 - One or more definitions invalid
  2 - Command error (directory missing, no CUE files, CUE load failure)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	specs, errs := compiler.LoadDir(specsDir, compiler.LoadModeCollectAll)
	if specs == nil {
		// Directory-level failures are command errors
		code, message := describeLoadError(errs[0])
		return formatter.Fail(ExitCommandError, code, message)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", specs.FileCount, specsDir)

	result := ValidationResult{
		Valid:           len(errs) == 0,
		Files:           specs.FileCount,
		Processes:       len(specs.Processes),
		Implementations: len(specs.Implementations),
		Spacetimes:      len(specs.Spacetimes),
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, toIssue(err))
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// describeLoadError returns the code and message of a compiler error.
func describeLoadError(err error) (string, string) {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Code, ce.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

func toIssue(err error) ValidationIssue {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return ValidationIssue{Code: compiler.ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: ce.Code, Field: ce.Field, Message: ce.Message}
	if ce.Pos.IsValid() {
		issue.File = ce.Pos.Filename()
		issue.Line = ce.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All specs valid")
	fmt.Fprintf(formatter.Writer, "  %d process(es), %d implementation(s), %d spacetime(s) in %d file(s)\n",
		result.Processes, result.Implementations, result.Spacetimes, result.Files)
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	return failure
}
