package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinetic-lang/kinetic/internal/engine"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kinetic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testProgram builds a small deterministic program: one state slot
// accumulating +1 per frame.
func testProgram(t *testing.T, name string) *ir.Program {
	t.Helper()
	sig := ir.Signal(ir.PayloadScalar, ir.UnitNone)
	prog := &ir.Program{
		Name: name,
		Time: ir.TimeModel{Kind: ir.TimeInfinite},
		Exprs: []ir.Expr{
			{Kind: ir.ExprStateRead, Type: sig, Slot: 0},
			{Kind: ir.ExprConst, Type: sig, Const: []float64{1}},
			{Kind: ir.ExprApply, Type: sig, Fn: ir.FnAdd, Args: []ir.ExprID{0, 1}},
		},
		Slots: []ir.SlotMeta{{
			ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 1,
			ContinuityKey: "acc/acc", Init: []float64{0},
		}},
		Schedule: []ir.Step{
			{Kind: ir.StepWriteSlot, Slot: 0, Expr: 2},
			{Kind: ir.StepCommitState, Slot: 0},
		},
	}
	hash, err := ir.ProgramHash(prog)
	require.NoError(t, err)
	prog.Hash = hash
	return prog
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinetic.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, s2.Close())
}

func TestWriteProgram_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t, "counter")

	require.NoError(t, s.WriteProgram(ctx, prog, "graph-hash-1"))

	got, err := s.ReadProgram(ctx, prog.Hash)
	require.NoError(t, err)
	assert.Equal(t, prog.Hash, got.Hash)
	assert.Equal(t, prog.Name, got.Name)
	assert.Equal(t, prog.Exprs, got.Exprs)
	assert.Equal(t, prog.Slots, got.Slots)
	assert.Equal(t, prog.Schedule, got.Schedule)
}

func TestWriteProgram_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t, "counter")

	require.NoError(t, s.WriteProgram(ctx, prog, "graph-hash-1"))
	require.NoError(t, s.WriteProgram(ctx, prog, "graph-hash-1"))

	recs, err := s.ListPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, "counter", recs[0].Name)
	assert.Equal(t, "graph-hash-1", recs[0].GraphHash)
	assert.Equal(t, ir.IRVersion, recs[0].IRVersion)
}

func TestReadProgram_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadProgram(context.Background(), "no-such-hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadProgram_RefusesStaleIRVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (hash, name, graph_hash, ir_version, engine_version, body)
		VALUES ('stale-hash', 'old', 'g', ?, '0.0.1', '{}')
	`, ir.IRVersion+1)
	require.NoError(t, err)

	_, err = s.ReadProgram(ctx, "stale-hash")
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestWriteSession_RequiresProgram(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.WriteSession(ctx, "tok-1", "missing-program")
	assert.Error(t, err, "foreign key enforcement rejects unknown programs")
}

func TestWriteFrame_IdempotentOnSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t, "counter")
	require.NoError(t, s.WriteProgram(ctx, prog, "g"))
	require.NoError(t, s.WriteSession(ctx, "tok-1", prog.Hash))

	rec := FrameRecord{Session: "tok-1", Seq: 1, AbsMs: 16, TraceHash: "h1"}
	require.NoError(t, s.WriteFrame(ctx, rec))

	// Re-recording the same seq with a different hash is ignored.
	rec.TraceHash = "h2"
	require.NoError(t, s.WriteFrame(ctx, rec))

	frames, err := s.ReadFrames(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "h1", frames[0].TraceHash)
}

func TestWriteFrames_BatchOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t, "counter")
	require.NoError(t, s.WriteProgram(ctx, prog, "g"))
	require.NoError(t, s.WriteSession(ctx, "tok-1", prog.Hash))

	batch := []FrameRecord{
		{Session: "tok-1", Seq: 2, AbsMs: 32, TraceHash: "h2"},
		{Session: "tok-1", Seq: 1, AbsMs: 16, TraceHash: "h1"},
		{Session: "tok-1", Seq: 3, AbsMs: 48, TraceHash: "h3"},
	}
	require.NoError(t, s.WriteFrames(ctx, batch))

	frames, err := s.ReadFrames(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, int64(1), frames[0].Seq)
	assert.Equal(t, int64(3), frames[2].Seq)

	last, err := s.LastFrameSeq(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)
}

// archiveRun executes n frames of prog and archives session plus traces.
func archiveRun(t *testing.T, s *Store, prog *ir.Program, n int) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WriteProgram(ctx, prog, "g"))

	sess := engine.NewSession(prog,
		engine.WithTokenGenerator(engine.NewFixedGenerator("run-1")))
	require.NoError(t, s.WriteSession(ctx, sess.Token(), prog.Hash))

	for i := 1; i <= n; i++ {
		frame, err := sess.ExecuteFrame(float64(i) * 16)
		require.NoError(t, err)
		hash, err := frame.TraceHash()
		require.NoError(t, err)
		require.NoError(t, s.WriteFrame(ctx, FrameRecord{
			Session:   sess.Token(),
			Seq:       frame.Seq,
			AbsMs:     float64(i) * 16,
			TraceHash: hash,
		}))
	}
	return sess.Token()
}

func TestReplaySession_Verifies(t *testing.T) {
	s := openTestStore(t)
	prog := testProgram(t, "counter")
	token := archiveRun(t, s, prog, 5)

	result, err := s.ReplaySession(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, result.Verified())
	assert.Equal(t, 5, result.FramesChecked)
	assert.Equal(t, prog.Hash, result.ProgramHash)
}

func TestReplaySession_DetectsTamperedTrace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	prog := testProgram(t, "counter")
	token := archiveRun(t, s, prog, 3)

	_, err := s.db.ExecContext(ctx, `
		UPDATE frames SET trace_hash = 'tampered' WHERE session_token = ? AND seq = 2
	`, token)
	require.NoError(t, err)

	result, err := s.ReplaySession(ctx, token)
	require.NoError(t, err)
	assert.False(t, result.Verified())
	require.Len(t, result.Divergences, 1)
	assert.Equal(t, int64(2), result.Divergences[0].Seq)
	assert.Equal(t, "tampered", result.Divergences[0].Archived)
}

func TestReplaySession_UnknownSession(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReplaySession(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
