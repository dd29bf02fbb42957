package engine

import "github.com/kinetic-lang/kinetic/internal/ir"

// RuntimeState holds the numeric value store in two copies. Writes during
// a frame land in current; state reads always resolve against committed,
// so stateful blocks observe the previous frame's value regardless of step
// order. Commit steps promote slots one at a time at the end of the frame.
type RuntimeState struct {
	slots     []ir.SlotMeta
	current   []float64
	committed []float64
}

// NewRuntimeState allocates stores for prog and fills every slot with its
// declared initial value in both copies.
func NewRuntimeState(prog *ir.Program) *RuntimeState {
	s := &RuntimeState{
		slots:     prog.Slots,
		current:   make([]float64, prog.StoreSize()),
		committed: make([]float64, prog.StoreSize()),
	}
	for _, meta := range prog.Slots {
		s.initSlot(meta)
	}
	return s
}

// initSlot writes the slot's Init pattern into both stores. A nil Init
// leaves the zero fill in place.
func (s *RuntimeState) initSlot(meta ir.SlotMeta) {
	if meta.Class != ir.ClassNumeric || len(meta.Init) == 0 {
		return
	}
	for elem := 0; elem < meta.ElemCount; elem++ {
		off := meta.Offset + elem*meta.Stride
		copy(s.current[off:off+meta.Stride], meta.Init)
		copy(s.committed[off:off+meta.Stride], meta.Init)
	}
}

// Write stores one element's components into the current store.
func (s *RuntimeState) Write(meta ir.SlotMeta, elem int, v [4]float64) {
	off := meta.Offset + elem*meta.Stride
	copy(s.current[off:off+meta.Stride], v[:meta.Stride])
}

// ReadCommitted returns one element's components from the committed store.
func (s *RuntimeState) ReadCommitted(meta ir.SlotMeta, elem int) [4]float64 {
	var v [4]float64
	off := meta.Offset + elem*meta.Stride
	copy(v[:meta.Stride], s.committed[off:off+meta.Stride])
	return v
}

// Commit promotes a slot's current span into the committed store.
func (s *RuntimeState) Commit(meta ir.SlotMeta) {
	off, span := meta.Offset, meta.Span()
	copy(s.committed[off:off+span], s.current[off:off+span])
}

// Remap builds the state for a swapped-in program, carrying values over
// wherever continuity keys and strides match. Elements beyond the old
// count, and slots with no surviving counterpart, start from their Init
// pattern. Only committed values carry over; the first frame after a swap
// rebuilds current from scratch anyway.
func (s *RuntimeState) Remap(prog *ir.Program) *RuntimeState {
	next := NewRuntimeState(prog)

	old := make(map[string]ir.SlotMeta, len(s.slots))
	for _, meta := range s.slots {
		old[meta.ContinuityKey] = meta
	}

	for _, meta := range prog.Slots {
		prev, ok := old[meta.ContinuityKey]
		if !ok || prev.Stride != meta.Stride || meta.Class != ir.ClassNumeric {
			continue
		}
		carry := meta.ElemCount
		if prev.ElemCount < carry {
			carry = prev.ElemCount
		}
		for elem := 0; elem < carry; elem++ {
			src := prev.Offset + elem*prev.Stride
			dst := meta.Offset + elem*meta.Stride
			copy(next.committed[dst:dst+meta.Stride], s.committed[src:src+meta.Stride])
			copy(next.current[dst:dst+meta.Stride], s.committed[src:src+meta.Stride])
		}
	}
	return next
}
