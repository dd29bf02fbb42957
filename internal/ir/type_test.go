package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_Stride(t *testing.T) {
	tests := []struct {
		payload Payload
		stride  int
	}{
		{PayloadScalar, 1},
		{PayloadBool, 1},
		{PayloadShape, 1},
		{PayloadVec2, 2},
		{PayloadVec3, 3},
		{PayloadVec4, 4},
		{PayloadColor, 4},
		{PayloadAny, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.payload), func(t *testing.T) {
			assert.Equal(t, tt.stride, tt.payload.Stride())
		})
	}
}

func TestPayload_Class(t *testing.T) {
	assert.Equal(t, ClassNumeric, PayloadScalar.Class())
	assert.Equal(t, ClassNumeric, PayloadColor.Class())
	assert.Equal(t, ClassNumeric, PayloadBool.Class())
	assert.Equal(t, ClassShape, PayloadShape.Class())
}

func TestCanonicalType_Kind(t *testing.T) {
	sig := Signal(PayloadScalar, UnitNone)
	assert.Equal(t, KindSignal, sig.Kind())

	fld := Field(PayloadVec3, UnitPixels, 1)
	assert.Equal(t, KindField, fld.Kind())

	ev := Event()
	assert.Equal(t, KindEvent, ev.Kind())
}

func TestCanonicalType_Kind_EventBeforeField(t *testing.T) {
	// Temporality dominates cardinality: a discrete many-valued extent is
	// an event, not a field.
	weird := CanonicalType{
		Payload: PayloadBool,
		Unit:    UnitNone,
		Extent: Extent{
			Cardinality: CardinalityAxis{Many: true, Instance: 1},
			Temporality: TemporalityAxis{Discrete: true},
		},
	}
	assert.Equal(t, KindEvent, weird.Kind())
}

func TestCanonicalType_Kind_Unresolved(t *testing.T) {
	withVar := Signal(PayloadScalar, UnitNone)
	withVar.Extent.Cardinality.Var = 3
	assert.Equal(t, KindUnresolved, withVar.Kind())

	generic := Signal(PayloadAny, UnitNone)
	assert.Equal(t, KindUnresolved, generic.Kind())
}

func TestCanonicalType_RequireAndTry(t *testing.T) {
	sig := Signal(PayloadScalar, UnitNone)

	require.NoError(t, sig.RequireSignal())
	assert.True(t, sig.TrySignal())

	err := sig.RequireField()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected field")
	assert.False(t, sig.TryField())

	err = sig.RequireEvent()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected event")
	assert.False(t, sig.TryEvent())
}

func TestCanonicalType_Validate(t *testing.T) {
	assert.NoError(t, Signal(PayloadVec2, UnitPixels).Validate())
	assert.NoError(t, Field(PayloadColor, UnitNone, 2).Validate())
	assert.NoError(t, Event().Validate())

	// Event invariant: payload must be bool, unit none.
	badEvent := Event()
	badEvent.Payload = PayloadScalar
	assert.Error(t, badEvent.Validate())

	// Field invariant: instance reference required.
	badField := Field(PayloadScalar, UnitNone, 0)
	assert.Error(t, badField.Validate())

	// Unresolved axes are never valid.
	unresolved := Signal(PayloadScalar, UnitNone)
	unresolved.Extent.Binding.Var = 1
	assert.Error(t, unresolved.Validate())
}

func TestExtent_Resolved(t *testing.T) {
	var e Extent
	assert.True(t, e.Resolved(), "zero extent is fully instantiated")

	e.Perspective.Var = 7
	assert.False(t, e.Resolved())
}

func TestSlotMeta_Span(t *testing.T) {
	s := SlotMeta{Stride: 3, ElemCount: 16}
	assert.Equal(t, 48, s.Span())
}

func TestProgram_StoreSize(t *testing.T) {
	p := &Program{
		Slots: []SlotMeta{
			{ID: 0, Class: ClassNumeric, Stride: 1, ElemCount: 1, Offset: 0},
			{ID: 1, Class: ClassNumeric, Stride: 3, ElemCount: 4, Offset: 1},
			{ID: 2, Class: ClassShape, Stride: 1, ElemCount: 8, Offset: 0},
		},
	}
	// Shape-class slot must not affect numeric store size.
	assert.Equal(t, 13, p.StoreSize())
}
