package store

import (
	"context"
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// WriteProgram archives a compiled program under its content hash.
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - the same compile
// archived twice is a no-op, which is safe because identical hashes mean
// byte-identical canonical bodies.
//
// graphHash is the content hash of the authored document the program was
// compiled from; it links the archive back to sources.
func (s *Store) WriteProgram(ctx context.Context, prog *ir.Program, graphHash string) error {
	body, err := ir.MarshalProgram(prog)
	if err != nil {
		return fmt.Errorf("write program: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO programs
		(hash, name, graph_hash, ir_version, engine_version, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		prog.Hash,
		prog.Name,
		graphHash,
		ir.IRVersion,
		ir.EngineVersion,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("write program: %w", err)
	}

	return nil
}

// WriteSession records a runtime session and the program it executes.
// Idempotent on token. The program must already be archived (foreign key
// constraint).
func (s *Store) WriteSession(ctx context.Context, token, programHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, program_hash)
		VALUES (?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, programHash)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// FrameRecord is one archived frame trace.
type FrameRecord struct {
	Session   string
	Seq       int64
	AbsMs     float64
	TraceHash string
}

// WriteFrame records one frame's trace hash. Idempotent on (session, seq):
// a crashed run re-recording frames it already traced is silently ignored.
// The session must already be recorded (foreign key constraint).
func (s *Store) WriteFrame(ctx context.Context, rec FrameRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (session_token, seq, abs_ms, trace_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_token, seq) DO NOTHING
	`,
		rec.Session,
		rec.Seq,
		rec.AbsMs,
		rec.TraceHash,
	)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteFrames records a batch of frame traces in one transaction.
func (s *Store) WriteFrames(ctx context.Context, recs []FrameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frames: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, rec := range recs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO frames (session_token, seq, abs_ms, trace_hash)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(session_token, seq) DO NOTHING
		`,
			rec.Session,
			rec.Seq,
			rec.AbsMs,
			rec.TraceHash,
		)
		if err != nil {
			return fmt.Errorf("write frames: seq %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frames: commit: %w", err)
	}
	return nil
}
