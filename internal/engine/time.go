package engine

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// EffectiveTime is the fully resolved time context for one frame. Every
// time read in the expression table resolves against one of these fields,
// so two frames with equal EffectiveTime and equal inputs render
// identically.
type EffectiveTime struct {
	// AbsMs is the caller-supplied absolute timeline position.
	AbsMs float64

	// DeltaMs is the elapsed time since the previous frame, clamped to be
	// non-negative. Zero on the first frame and whenever the timeline
	// jumps backward.
	DeltaMs float64

	// Phase is the normalized position within the cycle or duration, in
	// [0, 1). Always zero under an infinite model.
	Phase float64

	// Progress is the normalized position within a finite duration,
	// clamped to [0, 1]. Always zero under cyclic and infinite models.
	Progress float64

	// Wrap is 1 on the frame where the cyclic phase dropped below the
	// previous frame's phase, 0 otherwise.
	Wrap float64

	// Energy counts observed wraps. It only ever grows, so downstream
	// expressions can use it as a monotonic per-cycle accumulator.
	Energy float64
}

// WrapState tracks cyclic-time history across frames. The zero value is
// ready for the first frame.
type WrapState struct {
	prevAbs   float64
	prevPhase float64
	energy    float64
	started   bool
}

// ResolveTime maps an absolute timeline position onto the program's time
// model, updating ws with this frame's observations. Wrap detection
// compares the current phase against the previous frame's phase: any
// phase drop fires the pulse, whether the timeline stepped past a period
// boundary or jumped backward. Non-monotonic positions only clamp DeltaMs.
func ResolveTime(absMs float64, model ir.TimeModel, ws *WrapState) EffectiveTime {
	t := EffectiveTime{AbsMs: absMs}

	if ws.started {
		if d := absMs - ws.prevAbs; d > 0 {
			t.DeltaMs = d
		}
	}

	switch model.Kind {
	case ir.TimeFinite:
		if model.DurationMs > 0 {
			t.Progress = math.Min(math.Max(absMs/model.DurationMs, 0), 1)
		}
		t.Phase = t.Progress
	case ir.TimeCyclic:
		if model.PeriodMs > 0 {
			local := math.Mod(absMs, model.PeriodMs)
			if local < 0 {
				local += model.PeriodMs
			}
			t.Phase = local / model.PeriodMs
			if ws.started && t.Phase < ws.prevPhase {
				t.Wrap = 1
				ws.energy++
			}
		}
	case ir.TimeInfinite:
		// Absolute and delta only.
	}

	t.Energy = ws.energy
	ws.prevAbs = absMs
	ws.prevPhase = t.Phase
	ws.started = true
	return t
}

// read resolves a single time-read expression against the frame context.
func (t EffectiveTime) read(field ir.TimeField) float64 {
	switch field {
	case ir.TimeAbsolute:
		return t.AbsMs
	case ir.TimeDelta:
		return t.DeltaMs
	case ir.TimePhase:
		return t.Phase
	case ir.TimeProgress:
		return t.Progress
	case ir.TimeWrap:
		return t.Wrap
	case ir.TimeEnergy:
		return t.Energy
	}
	return 0
}
