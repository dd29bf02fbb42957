package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinetic-lang/kinetic/internal/queryir"
	"github.com/kinetic-lang/kinetic/internal/querysql"
	"github.com/kinetic-lang/kinetic/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	FromSeq  int64
	ToSeq    int64
	Limit    int
}

// TraceSummary holds the archived trace of one session.
type TraceSummary struct {
	Session     string            `json:"session"`
	ProgramHash string            `json:"program_hash"`
	Frames      []TraceFrameEntry `json:"frames"`
	Total       int               `json:"total"`
}

// TraceFrameEntry is one archived frame.
type TraceFrameEntry struct {
	Seq       int64   `json:"seq"`
	AbsMs     float64 `json:"abs_ms"`
	TraceHash string  `json:"trace_hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Dump the archived trace of a session",
		Long: `Print the archived per-frame trace hashes of a session.

Each line is one frame: sequence number, absolute timeline position,
and the content hash of the frame's canonical trace. Sequence-range
flags narrow the listing without loading the whole session.

Examples:
  kinetic trace --db ./kinetic.db --session demo-1
  kinetic trace --db ./kinetic.db --session demo-1 --from-seq 100 --to-seq 200
  kinetic trace --db ./kinetic.db --session demo-1 --limit 10 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to dump (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().Int64Var(&opts.FromSeq, "from-seq", 0, "first frame sequence to include")
	cmd.Flags().Int64Var(&opts.ToSeq, "to-seq", 0, "last frame sequence to include (0 = unbounded)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most N frames (0 = all)")

	return cmd
}

func runTraceCmd(opts *TraceOptions, cmd *cobra.Command) error {
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

	programHash, err := st.ReadSessionProgram(ctx, opts.Session)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("session not found: %s", opts.Session), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
		}
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	frames, err := queryFrames(ctx, st, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read frames", err)
	}

	total := len(frames)
	if opts.Limit > 0 && opts.Limit < len(frames) {
		frames = frames[:opts.Limit]
	}

	summary := TraceSummary{
		Session:     opts.Session,
		ProgramHash: programHash,
		Total:       total,
		Frames:      frames,
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "session %s (program %s): %d frame(s)\n", summary.Session, summary.ProgramHash, summary.Total)
	for _, f := range summary.Frames {
		fmt.Fprintf(formatter.Writer, "  %6d  %10.3fms  %s\n", f.Seq, f.AbsMs, f.TraceHash)
	}
	if len(summary.Frames) < summary.Total {
		fmt.Fprintf(formatter.Writer, "  ... %d more\n", summary.Total-len(summary.Frames))
	}
	return nil
}

// queryFrames lists archived frames through the archive query layer: the
// session filter and optional sequence bounds compile to one parameterized
// scan with a stable order.
func queryFrames(ctx context.Context, st *store.Store, opts *TraceOptions) ([]TraceFrameEntry, error) {
	preds := []queryir.Predicate{
		queryir.Eq{Column: "session_token", Value: opts.Session},
	}
	if opts.FromSeq > 0 || opts.ToSeq > 0 {
		r := queryir.Range{Column: "seq"}
		if opts.FromSeq > 0 {
			r.Min = opts.FromSeq
		}
		if opts.ToSeq > 0 {
			r.Max = opts.ToSeq
		}
		preds = append(preds, r)
	}

	sql, params, err := querysql.Compile(queryir.Scan{
		Table:   queryir.TableFrames,
		Columns: []string{"seq", "abs_ms", "trace_hash"},
		Filter:  queryir.And{Predicates: preds},
	})
	if err != nil {
		return nil, err
	}

	rows, err := st.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []TraceFrameEntry
	for rows.Next() {
		var f TraceFrameEntry
		if err := rows.Scan(&f.Seq, &f.AbsMs, &f.TraceHash); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
