package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStaleRecord is returned when an archived program was written by an
// incompatible IR version and cannot be safely deserialized.
var ErrStaleRecord = errors.New("archived record has incompatible IR version")

// ProgramRecord is the archive metadata of one compiled program.
type ProgramRecord struct {
	Hash          string
	Name          string
	GraphHash     string
	IRVersion     int
	EngineVersion string
	CreatedAt     string
}

// ReadProgram loads an archived program by content hash. Programs written
// by an incompatible IR version return ErrStaleRecord rather than a
// half-deserialized result.
func (s *Store) ReadProgram(ctx context.Context, hash string) (*ir.Program, error) {
	var (
		body      string
		irVersion int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT body, ir_version FROM programs WHERE hash = ?
	`, hash).Scan(&body, &irVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read program %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", hash, err)
	}

	if irVersion != ir.IRVersion {
		return nil, fmt.Errorf("read program %s: stored v%d, runtime v%d: %w",
			hash, irVersion, ir.IRVersion, ErrStaleRecord)
	}

	var prog ir.Program
	if err := json.Unmarshal([]byte(body), &prog); err != nil {
		return nil, fmt.Errorf("read program %s: %w", hash, err)
	}
	prog.Hash = hash
	return &prog, nil
}

// ListPrograms returns archive metadata for every stored program, newest
// first.
func (s *Store) ListPrograms(ctx context.Context) ([]ProgramRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash, name, graph_hash, ir_version, engine_version, created_at
		FROM programs
		ORDER BY created_at DESC, hash
	`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var recs []ProgramRecord
	for rows.Next() {
		var rec ProgramRecord
		if err := rows.Scan(&rec.Hash, &rec.Name, &rec.GraphHash,
			&rec.IRVersion, &rec.EngineVersion, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list programs: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return recs, nil
}

// ReadSessionProgram returns the program hash a session executed.
func (s *Store) ReadSessionProgram(ctx context.Context, token string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT program_hash FROM sessions WHERE token = ?
	`, token).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read session %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read session %s: %w", token, err)
	}
	return hash, nil
}

// ReadFrames returns a session's archived frame traces in sequence order.
func (s *Store) ReadFrames(ctx context.Context, token string) ([]FrameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_token, seq, abs_ms, trace_hash
		FROM frames
		WHERE session_token = ?
		ORDER BY seq
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	defer rows.Close()

	var recs []FrameRecord
	for rows.Next() {
		var rec FrameRecord
		if err := rows.Scan(&rec.Session, &rec.Seq, &rec.AbsMs, &rec.TraceHash); err != nil {
			return nil, fmt.Errorf("read frames: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return recs, nil
}

// LastFrameSeq returns the highest archived frame sequence for a session,
// or 0 when the session has no frames.
func (s *Store) LastFrameSeq(ctx context.Context, token string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM frames WHERE session_token = ?
	`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last frame seq: %w", err)
	}
	return seq.Int64, nil
}
