package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

func slotProg(slots ...ir.SlotMeta) *ir.Program {
	return &ir.Program{Slots: slots}
}

func TestRuntimeState_InitAndDelay(t *testing.T) {
	meta := ir.SlotMeta{
		ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 1,
		ContinuityKey: "acc/acc", Init: []float64{5},
	}
	s := NewRuntimeState(slotProg(meta))

	assert.Equal(t, [4]float64{5}, s.ReadCommitted(meta, 0))

	s.Write(meta, 0, [4]float64{9})
	assert.Equal(t, [4]float64{5}, s.ReadCommitted(meta, 0),
		"reads observe the previous commit, not same-frame writes")

	s.Commit(meta)
	assert.Equal(t, [4]float64{9}, s.ReadCommitted(meta, 0))
}

func TestRuntimeState_PerElementInit(t *testing.T) {
	meta := ir.SlotMeta{
		ID: 0, Class: ir.ClassNumeric, Stride: 2, ElemCount: 3,
		ContinuityKey: "field/vel", Init: []float64{1, -1},
	}
	s := NewRuntimeState(slotProg(meta))

	for elem := 0; elem < 3; elem++ {
		assert.Equal(t, [4]float64{1, -1}, s.ReadCommitted(meta, elem))
	}
}

func TestRuntimeState_RemapCarriesByKey(t *testing.T) {
	oldMeta := ir.SlotMeta{
		ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 4,
		ContinuityKey: "field/energy", Init: []float64{0},
	}
	s := NewRuntimeState(slotProg(oldMeta))
	for elem := 0; elem < 4; elem++ {
		s.Write(oldMeta, elem, [4]float64{float64(elem + 1)})
	}
	s.Commit(oldMeta)

	// Grown instance keeps old elements and default-initializes the rest.
	grown := ir.SlotMeta{
		ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 6,
		ContinuityKey: "field/energy", Init: []float64{-1},
	}
	next := s.Remap(slotProg(grown))

	for elem := 0; elem < 4; elem++ {
		assert.Equal(t, [4]float64{float64(elem + 1)}, next.ReadCommitted(grown, elem))
	}
	assert.Equal(t, [4]float64{-1}, next.ReadCommitted(grown, 4))
	assert.Equal(t, [4]float64{-1}, next.ReadCommitted(grown, 5))
}

func TestRuntimeState_RemapDropsOnMismatch(t *testing.T) {
	oldMeta := ir.SlotMeta{
		ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 1,
		ContinuityKey: "acc/acc", Init: []float64{0},
	}
	s := NewRuntimeState(slotProg(oldMeta))
	s.Write(oldMeta, 0, [4]float64{7})
	s.Commit(oldMeta)

	tests := []struct {
		name string
		meta ir.SlotMeta
	}{
		{"different key", ir.SlotMeta{
			ID: 0, Class: ir.ClassNumeric, Stride: 1, ElemCount: 1,
			ContinuityKey: "other/acc", Init: []float64{3},
		}},
		{"different stride", ir.SlotMeta{
			ID: 0, Class: ir.ClassNumeric, Stride: 2, ElemCount: 1,
			ContinuityKey: "acc/acc", Init: []float64{3, 3},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next := s.Remap(slotProg(tc.meta))
			got := next.ReadCommitted(tc.meta, 0)
			assert.Equal(t, 3.0, got[0], "mismatched slots restart from Init")
		})
	}
}
