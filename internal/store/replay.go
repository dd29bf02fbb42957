package store

import (
	"context"
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/engine"
)

// Divergence is one frame whose re-executed trace hash differs from the
// archive.
type Divergence struct {
	Seq      int64
	AbsMs    float64
	Archived string
	Replayed string
}

// ReplayResult summarizes a deterministic re-execution of an archived
// session.
type ReplayResult struct {
	Session       string
	ProgramHash   string
	FramesChecked int
	Divergences   []Divergence
}

// Verified reports whether every replayed frame matched its archive.
func (r ReplayResult) Verified() bool {
	return len(r.Divergences) == 0
}

// ReplaySession re-executes an archived session frame by frame and
// compares trace hashes. Frames are driven at their archived absolute
// times with the frame clock resumed from the archive, so a deterministic
// program reproduces its trace exactly.
//
// External channel values are not archived; sessions that depended on
// live channel input will report divergences on the affected frames.
func (s *Store) ReplaySession(ctx context.Context, token string) (ReplayResult, error) {
	result := ReplayResult{Session: token}

	hash, err := s.ReadSessionProgram(ctx, token)
	if err != nil {
		return result, fmt.Errorf("replay session: %w", err)
	}
	result.ProgramHash = hash

	prog, err := s.ReadProgram(ctx, hash)
	if err != nil {
		return result, fmt.Errorf("replay session: %w", err)
	}

	recs, err := s.ReadFrames(ctx, token)
	if err != nil {
		return result, fmt.Errorf("replay session: %w", err)
	}
	if len(recs) == 0 {
		return result, nil
	}

	sess := engine.NewSession(prog,
		engine.WithTokenGenerator(engine.NewFixedGenerator("replay-"+token)),
		engine.WithClock(engine.NewClockAt(recs[0].Seq-1)))

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("replay session: %w", err)
		}

		frame, err := sess.ExecuteFrame(rec.AbsMs)
		if err != nil {
			return result, fmt.Errorf("replay session: frame %d: %w", rec.Seq, err)
		}
		if frame.Seq != rec.Seq {
			return result, fmt.Errorf("replay session: frame sequence skew: archived %d, replayed %d",
				rec.Seq, frame.Seq)
		}

		replayed, err := frame.TraceHash()
		if err != nil {
			return result, fmt.Errorf("replay session: frame %d: %w", rec.Seq, err)
		}

		result.FramesChecked++
		if replayed != rec.TraceHash {
			result.Divergences = append(result.Divergences, Divergence{
				Seq:      rec.Seq,
				AbsMs:    rec.AbsMs,
				Archived: rec.TraceHash,
				Replayed: replayed,
			})
		}
	}

	return result, nil
}
