package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/compiler"
	"github.com/kinetic-lang/kinetic/internal/ir"
	"github.com/kinetic-lang/kinetic/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path for the canonical program
	Database string // optional archive database
}

// CompileSummary describes one successful compilation.
type CompileSummary struct {
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	GraphHash string `json:"graph_hash"`
	Exprs     int    `json:"exprs"`
	Slots     int    `json:"slots"`
	Passes    int    `json:"passes"`
	Steps     int    `json:"steps"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph.cue>",
		Short: "Compile a graph document to a canonical program",
		Long: `Compile a CUE graph document to its canonical program form.

The compiler resolves block types, inserts adapters, checks the time
topology, and lowers the graph to an expression table with an ordered
frame schedule. The program is content-addressed: the reported hash
identifies the compiled output exactly.

Examples:
  kinetic compile ./graphs/ring.cue
  kinetic compile ./graphs/ring.cue -o ring.program.json
  kinetic compile ./graphs/ring.cue --db ./kinetic.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the canonical program JSON to a file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the program in a SQLite database")

	return cmd
}

func runCompile(opts *CompileOptions, graphPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, graphHash, err := compileGraph(graphPath)
	if err != nil {
		if diags, ok := diagnosticsOf(err); ok {
			return outputDiagnostics(formatter, diags)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeLoadFailed, exitErr.Error(), nil)
			return exitErr
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	formatter.VerboseLog("compiled %s: %d expr(s), %d step(s)", prog.Name, len(prog.Exprs), len(prog.Schedule))

	if opts.Output != "" {
		if err := writeProgramFile(prog, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	if opts.Database != "" {
		if err := archiveProgram(cmd.Context(), opts.Database, prog, graphHash); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "archiving program", err)
		}
	}

	summary := CompileSummary{
		Name:      prog.Name,
		Hash:      prog.Hash,
		GraphHash: graphHash,
		Exprs:     len(prog.Exprs),
		Slots:     len(prog.Slots),
		Passes:    len(prog.Passes),
		Steps:     len(prog.Schedule),
	}
	return outputCompileSuccess(formatter, summary, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, summary CompileSummary, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %s\n", summary.Name)
	fmt.Fprintf(formatter.Writer, "  program: %s\n", summary.Hash)
	fmt.Fprintf(formatter.Writer, "  graph:   %s\n", summary.GraphHash)
	fmt.Fprintf(formatter.Writer, "  %d expr(s), %d slot(s), %d pass(es), %d step(s)\n",
		summary.Exprs, summary.Slots, summary.Passes, summary.Steps)
	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical program to %s\n", outputFile)
	}
	return nil
}

// outputDiagnostics prints every compile diagnostic and returns a failure
// exit error. Diagnostics are graph authoring errors, not command errors.
func outputDiagnostics(formatter *OutputFormatter, diags compiler.ErrorList) error {
	if formatter.Format == "json" {
		first := diags[0]
		_ = formatter.Error(first.Code, first.Message, diags)
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d diagnostic(s)", len(diags)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, d := range diags {
		fmt.Fprintf(formatter.Writer, "  %s\n", d.Error())
	}
	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d diagnostic(s)", len(diags)))
}

// writeProgramFile writes the program's canonical byte form, the same form
// the archive stores and hashes.
func writeProgramFile(prog *ir.Program, path string) error {
	data, err := ir.MarshalProgram(prog)
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// archiveProgram stores the compiled program in the archive database.
func archiveProgram(ctx context.Context, dbPath string, prog *ir.Program, graphHash string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteProgram(ctx, prog, graphHash)
}
