package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario name filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestSummary holds the overall test result.
type TestSummary struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario conformance tests",
		Long: `Run every YAML scenario in a directory through the conformance harness.

Each scenario names its own graph document, scripts a frame sequence
with optional channel staging, and asserts over the executed traces.
Built-in runtime invariants are checked on every scenario.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found)

Examples:
  kinetic test ./scenarios
  kinetic test ./scenarios --filter "ring_*"
  kinetic test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob")

	return cmd
}

func runScenarios(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to scan scenarios", err)
	}
	if len(files) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(TestSummary{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	summary := TestSummary{}
	for _, path := range files {
		result := runOneScenario(opts, path, formatter)
		if result == nil {
			continue // filtered out
		}
		summary.Scenarios = append(summary.Scenarios, *result)
		summary.Total++
		if result.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n",
			summary.Passed, summary.Failed, summary.Total)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}

func runOneScenario(opts *TestOptions, path string, formatter *OutputFormatter) *ScenarioResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		name := filepath.Base(path)
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "✗ %s\n    %v\n", name, err)
		}
		return &ScenarioResult{Name: name, Pass: false, Errors: []string{err.Error()}}
	}

	if opts.Filter != "" {
		matched, matchErr := filepath.Match(opts.Filter, scenario.Name)
		if matchErr != nil || !matched {
			return nil
		}
	}

	formatter.VerboseLog("running scenario %s (%s)", scenario.Name, path)
	result, err := harness.Run(scenario)
	if err != nil {
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "✗ %s\n    %v\n", scenario.Name, err)
		}
		return &ScenarioResult{Name: scenario.Name, Pass: false, Errors: []string{err.Error()}}
	}

	if formatter.Format != "json" {
		if result.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s (%d frame(s))\n", scenario.Name, len(result.Frames))
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", scenario.Name)
			for _, msg := range result.Errors {
				fmt.Fprintf(formatter.Writer, "    %s\n", msg)
			}
		}
	}
	return &ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
}

// findScenarioFiles returns every .yaml/.yml file directly under dir, in
// stable name order.
func findScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
