package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph.cue>",
		Short: "Check a graph document without producing output",
		Long: `Validate a CUE graph document and report every diagnostic.

All analysis passes run to completion, so a single validate reports
every violation in the graph at once rather than the first one found.

Exit codes:
  0 - Graph is valid
  1 - Graph has diagnostics
  2 - Command error (file not found, malformed CUE)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, graphPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, _, err := compileGraph(graphPath)
	if err != nil {
		if diags, ok := diagnosticsOf(err); ok {
			return outputValidateFailure(formatter, diags)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeLoadFailed, exitErr.Error(), nil)
			return exitErr
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	formatter.VerboseLog("program %s hashes to %s", prog.Name, prog.Hash)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", graphPath)
	return nil
}

func outputValidateFailure(formatter *OutputFormatter, diags compiler.ErrorList) error {
	if formatter.Format == "json" {
		_ = formatter.Success(ValidationResult{Valid: false, Diagnostics: diags})
		return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", len(diags)))
	}

	fmt.Fprintf(formatter.Writer, "✗ %d diagnostic(s)\n\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(formatter.Writer, "  %s\n", d.Error())
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d diagnostic(s)", len(diags)))
}
