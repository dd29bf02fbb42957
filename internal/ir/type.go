package ir

import "fmt"

// Payload identifies the component layout of a value.
type Payload string

const (
	PayloadScalar Payload = "scalar"
	PayloadBool   Payload = "bool"
	PayloadVec2   Payload = "vec2"
	PayloadVec3   Payload = "vec3"
	PayloadVec4   Payload = "vec4"
	PayloadColor  Payload = "color"
	PayloadShape  Payload = "shape"

	// PayloadAny marks a payload-generic port awaiting resolution during
	// normalization. It must never appear in a compiled Program.
	PayloadAny Payload = "any"
)

// Stride returns the component count implied by a payload kind.
// This is the ONLY place stride is computed - all downstream consumers
// (slot allocation, buffer formats, render passes) read it from here.
func (p Payload) Stride() int {
	switch p {
	case PayloadScalar, PayloadBool, PayloadShape:
		return 1
	case PayloadVec2:
		return 2
	case PayloadVec3:
		return 3
	case PayloadVec4, PayloadColor:
		return 4
	default:
		return 0
	}
}

// StorageClass identifies which runtime value store holds a payload.
type StorageClass string

const (
	ClassNumeric StorageClass = "numeric"
	ClassShape   StorageClass = "shape"
	ClassObject  StorageClass = "object"
)

// Class returns the storage class implied by a payload kind.
// Like Stride, this is derived exactly once and never re-derived downstream.
func (p Payload) Class() StorageClass {
	switch p {
	case PayloadShape:
		return ClassShape
	case PayloadScalar, PayloadBool, PayloadVec2, PayloadVec3, PayloadVec4, PayloadColor:
		return ClassNumeric
	default:
		return ClassObject
	}
}

// Unit identifies the measurement unit of a value.
type Unit string

const (
	UnitNone         Unit = "none"
	UnitMilliseconds Unit = "ms"
	UnitRadians      Unit = "rad"
	UnitNormalized   Unit = "norm" // 0..1 phase / fraction
	UnitPixels       Unit = "px"
)

// TypeVar identifies an unresolved axis variable during inference.
// Zero means "instantiated" - a resolved axis always has Var == 0.
type TypeVar uint32

// CardinalityAxis is the one-vs-many axis of an extent.
// Exactly one of two cases: a type variable (Var != 0) or an instantiated
// value (Var == 0, Many + Instance meaningful).
type CardinalityAxis struct {
	Var      TypeVar    `json:"var,omitempty"`
	Many     bool       `json:"many,omitempty"`
	Instance InstanceID `json:"instance,omitempty"` // meaningful iff Many
}

// Resolved reports whether the axis holds an instantiated value.
func (a CardinalityAxis) Resolved() bool { return a.Var == 0 }

// TemporalityAxis is the continuous-vs-discrete axis of an extent.
type TemporalityAxis struct {
	Var      TypeVar `json:"var,omitempty"`
	Discrete bool    `json:"discrete,omitempty"`
}

// Resolved reports whether the axis holds an instantiated value.
func (a TemporalityAxis) Resolved() bool { return a.Var == 0 }

// TagAxis is a generic instantiated-or-variable string axis, used for the
// binding, perspective, and branch axes. An empty Value is the neutral tag.
type TagAxis struct {
	Var   TypeVar `json:"var,omitempty"`
	Value string  `json:"value,omitempty"`
}

// Resolved reports whether the axis holds an instantiated value.
func (a TagAxis) Resolved() bool { return a.Var == 0 }

// Extent classifies a value along five axes. Each axis is either a type
// variable (inference placeholder) or an instantiated value. The runtime
// never sees an extent with unresolved variables.
type Extent struct {
	Cardinality CardinalityAxis `json:"cardinality"`
	Temporality TemporalityAxis `json:"temporality"`
	Binding     TagAxis         `json:"binding"`
	Perspective TagAxis         `json:"perspective"`
	Branch      TagAxis         `json:"branch"`
}

// Resolved reports whether every axis is instantiated.
func (e Extent) Resolved() bool {
	return e.Cardinality.Resolved() && e.Temporality.Resolved() &&
		e.Binding.Resolved() && e.Perspective.Resolved() && e.Branch.Resolved()
}

// Kind is the derived classification of a CanonicalType.
type Kind string

const (
	KindSignal     Kind = "signal"
	KindField      Kind = "field"
	KindEvent      Kind = "event"
	KindUnresolved Kind = "unresolved"
)

// CanonicalType is the single type representation used throughout the
// compiler and runtime.
//
// INVARIANTS (enforced by Validate, relied on everywhere):
//   - event:  payload=bool, unit=none, temporality=discrete
//   - field:  cardinality=many, temporality=continuous
//   - signal: cardinality=one, temporality=continuous
type CanonicalType struct {
	Payload Payload `json:"payload"`
	Unit    Unit    `json:"unit"`
	Extent  Extent  `json:"extent"`
}

// Signal constructs a fully-instantiated signal type.
func Signal(p Payload, u Unit) CanonicalType {
	return CanonicalType{Payload: p, Unit: u}
}

// Field constructs a fully-instantiated field type over an instance.
func Field(p Payload, u Unit, inst InstanceID) CanonicalType {
	return CanonicalType{
		Payload: p,
		Unit:    u,
		Extent: Extent{
			Cardinality: CardinalityAxis{Many: true, Instance: inst},
		},
	}
}

// Event constructs the event type. Events are always bool-payload,
// unit-none, discrete occurrences.
func Event() CanonicalType {
	return CanonicalType{
		Payload: PayloadBool,
		Unit:    UnitNone,
		Extent:  Extent{Temporality: TemporalityAxis{Discrete: true}},
	}
}

// Kind derives the value kind from the extent axes alone.
//
// Temporality dominates cardinality: an event is checked BEFORE a field, so
// a discrete many-valued extent still classifies as event. Unresolved axes
// yield KindUnresolved; callers in the compiler must resolve first.
func (t CanonicalType) Kind() Kind {
	if !t.Extent.Resolved() || t.Payload == PayloadAny {
		return KindUnresolved
	}
	if t.Extent.Temporality.Discrete {
		return KindEvent
	}
	if t.Extent.Cardinality.Many {
		return KindField
	}
	return KindSignal
}

// RequireSignal asserts the type is a signal and returns a descriptive error
// otherwise. Call sites that tolerate mismatch use TrySignal instead; there is
// deliberately no single function with varying null-vs-error behavior.
func (t CanonicalType) RequireSignal() error {
	if k := t.Kind(); k != KindSignal {
		return fmt.Errorf("expected signal, got %s (payload=%s)", k, t.Payload)
	}
	return nil
}

// RequireField asserts the type is a field.
func (t CanonicalType) RequireField() error {
	if k := t.Kind(); k != KindField {
		return fmt.Errorf("expected field, got %s (payload=%s)", k, t.Payload)
	}
	return nil
}

// RequireEvent asserts the type is an event.
func (t CanonicalType) RequireEvent() error {
	if k := t.Kind(); k != KindEvent {
		return fmt.Errorf("expected event, got %s (payload=%s)", k, t.Payload)
	}
	return nil
}

// TrySignal reports whether the type is a signal. Never errors.
func (t CanonicalType) TrySignal() bool { return t.Kind() == KindSignal }

// TryField reports whether the type is a field. Never errors.
func (t CanonicalType) TryField() bool { return t.Kind() == KindField }

// TryEvent reports whether the type is an event. Never errors.
func (t CanonicalType) TryEvent() bool { return t.Kind() == KindEvent }

// Validate checks the kind invariants on a fully-resolved type.
func (t CanonicalType) Validate() error {
	switch t.Kind() {
	case KindUnresolved:
		return fmt.Errorf("type contains unresolved axes (payload=%s)", t.Payload)
	case KindEvent:
		if t.Payload != PayloadBool || t.Unit != UnitNone {
			return fmt.Errorf("event type must be bool/none, got %s/%s", t.Payload, t.Unit)
		}
	case KindField:
		if t.Extent.Cardinality.Instance == 0 {
			return fmt.Errorf("field type missing instance reference")
		}
	}
	return nil
}

// Equal reports full structural equality of two types.
func (t CanonicalType) Equal(o CanonicalType) bool { return t == o }

// SamePayload reports whether two types agree on payload and unit.
func (t CanonicalType) SamePayload(o CanonicalType) bool {
	return t.Payload == o.Payload && t.Unit == o.Unit
}
