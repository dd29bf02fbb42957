package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

func TestResolveTime_CyclicWrap(t *testing.T) {
	model := ir.TimeModel{Kind: ir.TimeCyclic, PeriodMs: 1000}
	var ws WrapState

	t0 := ResolveTime(0, model, &ws)
	assert.Equal(t, 0.0, t0.DeltaMs, "first frame has no delta")
	assert.Equal(t, 0.0, t0.Wrap)
	assert.Equal(t, 0.0, t0.Energy)

	t1 := ResolveTime(950, model, &ws)
	assert.Equal(t, 950.0, t1.DeltaMs)
	assert.InDelta(t, 0.95, t1.Phase, 1e-12)
	assert.Equal(t, 0.0, t1.Wrap)

	t2 := ResolveTime(1050, model, &ws)
	assert.InDelta(t, 0.05, t2.Phase, 1e-12)
	assert.Equal(t, 1.0, t2.Wrap, "phase dropped while time advanced")
	assert.Equal(t, 1.0, t2.Energy)

	t3 := ResolveTime(1100, model, &ws)
	assert.Equal(t, 0.0, t3.Wrap, "wrap pulse lasts one frame")
	assert.Equal(t, 1.0, t3.Energy, "energy persists after the pulse")
}

func TestResolveTime_BackwardJumpStillWraps(t *testing.T) {
	model := ir.TimeModel{Kind: ir.TimeCyclic, PeriodMs: 1000}
	var ws WrapState

	ResolveTime(950, model, &ws)
	back := ResolveTime(50, model, &ws)

	assert.Equal(t, 0.0, back.DeltaMs, "backward jumps clamp delta to zero")
	assert.InDelta(t, 0.05, back.Phase, 1e-12)
	assert.Equal(t, 1.0, back.Wrap, "any phase drop fires the pulse")
	assert.Equal(t, 1.0, back.Energy)
}

func TestResolveTime_FiniteClamps(t *testing.T) {
	model := ir.TimeModel{Kind: ir.TimeFinite, DurationMs: 2000}
	var ws WrapState

	mid := ResolveTime(500, model, &ws)
	assert.InDelta(t, 0.25, mid.Progress, 1e-12)
	assert.InDelta(t, 0.25, mid.Phase, 1e-12)

	past := ResolveTime(2500, model, &ws)
	assert.Equal(t, 1.0, past.Progress, "progress clamps at the end")
	assert.Equal(t, 0.0, past.Wrap)
}

func TestResolveTime_InfiniteIsBare(t *testing.T) {
	model := ir.TimeModel{Kind: ir.TimeInfinite}
	var ws WrapState

	ResolveTime(100, model, &ws)
	tt := ResolveTime(116, model, &ws)

	assert.Equal(t, 116.0, tt.AbsMs)
	assert.Equal(t, 16.0, tt.DeltaMs)
	assert.Equal(t, 0.0, tt.Phase)
	assert.Equal(t, 0.0, tt.Progress)
}

func TestEffectiveTime_Read(t *testing.T) {
	tt := EffectiveTime{
		AbsMs:    1234,
		DeltaMs:  16,
		Phase:    0.25,
		Progress: 0.5,
		Wrap:     1,
		Energy:   3,
	}

	tests := []struct {
		field ir.TimeField
		want  float64
	}{
		{ir.TimeAbsolute, 1234},
		{ir.TimeDelta, 16},
		{ir.TimePhase, 0.25},
		{ir.TimeProgress, 0.5},
		{ir.TimeWrap, 1},
		{ir.TimeEnergy, 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tt.read(tc.field), string(tc.field))
	}
}
