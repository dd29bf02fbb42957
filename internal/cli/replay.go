package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
}

// ReplaySummary is the JSON form of a replay verification.
type ReplaySummary struct {
	Session       string             `json:"session"`
	ProgramHash   string             `json:"program_hash"`
	FramesChecked int                `json:"frames_checked"`
	Verified      bool               `json:"verified"`
	Divergences   []DivergenceRecord `json:"divergences,omitempty"`
}

// DivergenceRecord is one frame whose re-executed trace differs.
type DivergenceRecord struct {
	Seq      int64   `json:"seq"`
	AbsMs    float64 `json:"abs_ms"`
	Archived string  `json:"archived"`
	Replayed string  `json:"replayed"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute an archived session and verify its trace",
		Long: `Re-execute an archived session frame by frame and compare trace hashes.

A deterministic program reproduces its archived trace exactly. Sessions
that depended on live channel input will diverge on the affected frames,
because channel values are not archived.

Exit codes:
  0 - Every frame matched the archive
  1 - One or more frames diverged
  2 - Command error (database or session not found)

Examples:
  kinetic replay --db ./kinetic.db --session demo-1
  kinetic replay --db ./kinetic.db --session demo-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to replay (required)")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := st.ReplaySession(ctx, opts.Session)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	summary := ReplaySummary{
		Session:       result.Session,
		ProgramHash:   result.ProgramHash,
		FramesChecked: result.FramesChecked,
		Verified:      result.Verified(),
	}
	for _, d := range result.Divergences {
		summary.Divergences = append(summary.Divergences, DivergenceRecord{
			Seq:      d.Seq,
			AbsMs:    d.AbsMs,
			Archived: d.Archived,
			Replayed: d.Replayed,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, summary)
	}

	if !summary.Verified {
		return NewExitError(ExitFailure, fmt.Sprintf("%d frame(s) diverged", len(summary.Divergences)))
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, summary ReplaySummary) {
	if summary.Verified {
		fmt.Fprintf(formatter.Writer, "✓ Replay verified: %d frame(s) matched\n", summary.FramesChecked)
		fmt.Fprintf(formatter.Writer, "  session: %s\n", summary.Session)
		fmt.Fprintf(formatter.Writer, "  program: %s\n", summary.ProgramHash)
		return
	}

	fmt.Fprintf(formatter.Writer, "✗ Replay diverged on %d of %d frame(s)\n",
		len(summary.Divergences), summary.FramesChecked)
	for _, d := range summary.Divergences {
		fmt.Fprintf(formatter.Writer, "  frame %d (%.3fms):\n    archived %s\n    replayed %s\n",
			d.Seq, d.AbsMs, d.Archived, d.Replayed)
	}
}
