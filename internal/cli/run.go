package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/engine"
	"github.com/kinetic-lang/kinetic/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames   int
	FPS      float64
	Database string
	Session  string

	// TokenGenerator overrides the session token generator (for testing).
	// If nil, defaults to UUIDv7Generator unless --session pins a token.
	TokenGenerator engine.TokenGenerator
}

// RunSummary describes one completed run.
type RunSummary struct {
	Session     string `json:"session"`
	ProgramHash string `json:"program_hash"`
	Frames      int    `json:"frames"`
	LastTrace   string `json:"last_trace"`
	Archived    bool   `json:"archived"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <graph.cue>",
		Short: "Execute a graph for a fixed number of frames",
		Long: `Compile a graph document and execute it frame by frame.

Frames are driven at evenly spaced timeline positions derived from the
--fps flag. With --db, the program, session, and per-frame trace hashes
are archived for later trace inspection and replay verification.

Examples:
  kinetic run ./graphs/ring.cue --frames 240
  kinetic run ./graphs/ring.cue --db ./kinetic.db --session demo-1
  kinetic run ./graphs/ring.cue --fps 30 --frames 30 --db ./kinetic.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 120, "number of frames to execute")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 60, "frame rate used to derive timeline positions")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in a SQLite database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "fixed session token (default: generated)")

	return cmd
}

func runGraph(opts *RunOptions, graphPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	if opts.Frames < 1 {
		return NewExitError(ExitCommandError, "--frames must be at least 1")
	}
	if opts.FPS <= 0 {
		return NewExitError(ExitCommandError, "--fps must be positive")
	}

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
		_ = formatter.Error(ErrCodeCompileFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to compile graph", err)
	}
	log.Info("program compiled", "name", prog.Name, "hash", prog.Hash)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
	}

	sessOpts := []engine.SessionOption{engine.WithLogger(log)}
	switch {
	case opts.TokenGenerator != nil:
		sessOpts = append(sessOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	case opts.Session != "":
		sessOpts = append(sessOpts, engine.WithTokenGenerator(engine.NewFixedGenerator(opts.Session)))
	}
	sess := engine.NewSession(prog, sessOpts...)
	log.Info("session started", "token", sess.Token(), "frames", opts.Frames, "fps", opts.FPS)

	if st != nil {
		if err := st.WriteProgram(ctx, prog, graphHash); err != nil {
			return WrapExitError(ExitCommandError, "failed to archive program", err)
		}
		if err := st.WriteSession(ctx, sess.Token(), prog.Hash); err != nil {
			return WrapExitError(ExitCommandError, "failed to archive session", err)
		}
	}

	frameMs := 1000 / opts.FPS
	recs := make([]store.FrameRecord, 0, opts.Frames)
	lastTrace := ""
	for i := 0; i < opts.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return WrapExitError(ExitCommandError, "run interrupted", err)
		}

		frame, err := sess.ExecuteFrame(float64(i) * frameMs)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("frame %d failed", i), err)
		}
		hash, err := frame.TraceHash()
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("frame %d trace", i), err)
		}
		lastTrace = hash
		if st != nil {
			recs = append(recs, store.FrameRecord{
				Session:   sess.Token(),
				Seq:       frame.Seq,
				AbsMs:     frame.Time.AbsMs,
				TraceHash: hash,
			})
		}
	}

	if st != nil {
		if err := st.WriteFrames(ctx, recs); err != nil {
			return WrapExitError(ExitCommandError, "failed to archive frames", err)
		}
		log.Info("frames archived", "count", len(recs))
	}

	summary := RunSummary{
		Session:     sess.Token(),
		ProgramHash: prog.Hash,
		Frames:      opts.Frames,
		LastTrace:   lastTrace,
		Archived:    st != nil,
	}
	return outputRunSuccess(formatter, summary)
}

func outputRunSuccess(formatter *OutputFormatter, summary RunSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Executed %d frame(s)\n", summary.Frames)
	fmt.Fprintf(formatter.Writer, "  session: %s\n", summary.Session)
	fmt.Fprintf(formatter.Writer, "  program: %s\n", summary.ProgramHash)
	fmt.Fprintf(formatter.Writer, "  last trace: %s\n", summary.LastTrace)
	if summary.Archived {
		fmt.Fprintln(formatter.Writer, "  archived for trace/replay")
	}
	return nil
}
