package ir

// ExprID indexes into a Program's expression table. Expressions form a
// directed acyclic table: every operand of expression i has an index < i.
// The zero-value InvalidExpr is never a valid reference.
type ExprID int32

// InvalidExpr marks an unset expression reference.
const InvalidExpr ExprID = -1

// ExprKind enumerates the closed set of IR expression node kinds.
type ExprKind string

const (
	// ExprConst is an inline constant (one value per payload component).
	ExprConst ExprKind = "const"

	// ExprExternalRead reads a named external channel's committed value.
	ExprExternalRead ExprKind = "external_read"

	// ExprIntrinsic is a per-instance intrinsic (lane index, normalized
	// position, deterministic hash noise) over a declared Instance.
	ExprIntrinsic ExprKind = "intrinsic"

	// ExprApply applies a pure function to previously-defined expressions.
	ExprApply ExprKind = "apply"

	// ExprStateRead reads the value a state slot held at the END of the
	// previous frame. Same-frame writes are never observed (one-frame delay).
	ExprStateRead ExprKind = "state_read"

	// ExprTimeRead reads one field of the frame's resolved EffectiveTime.
	ExprTimeRead ExprKind = "time_read"
)

// IntrinsicKind enumerates per-instance intrinsics.
type IntrinsicKind string

const (
	// IntrinsicIndex is the element's lane index as a scalar (0, 1, 2, ...).
	IntrinsicIndex IntrinsicKind = "index"

	// IntrinsicNormalized is the lane index scaled to [0,1): index/count.
	IntrinsicNormalized IntrinsicKind = "normalized"

	// IntrinsicHash is a deterministic per-lane pseudo-random scalar in [0,1),
	// derived from the lane index alone so replays are identical.
	IntrinsicHash IntrinsicKind = "hash"
)

// TimeField enumerates the canonical time reads derived from the global
// time model.
type TimeField string

const (
	TimeAbsolute TimeField = "absolute_ms"
	TimeDelta    TimeField = "delta_ms"
	TimePhase    TimeField = "phase"
	TimeProgress TimeField = "progress"
	TimeWrap     TimeField = "wrap_pulse"
	TimeEnergy   TimeField = "energy"
)

// PureFunc names a pure function applied by ExprApply. The set is closed;
// the compiler rejects unknown names or wrong arities (UnknownPureFunc).
type PureFunc string

const (
	FnAdd   PureFunc = "add"
	FnSub   PureFunc = "sub"
	FnMul   PureFunc = "mul"
	FnDiv   PureFunc = "div"
	FnMin   PureFunc = "min"
	FnMax   PureFunc = "max"
	FnNeg   PureFunc = "neg"
	FnAbs   PureFunc = "abs"
	FnFract PureFunc = "fract"
	FnSin   PureFunc = "sin"
	FnCos   PureFunc = "cos"
	FnSaw   PureFunc = "saw"
	FnPulse PureFunc = "pulse" // pulse(phase, width) -> 0/1
	FnMix   PureFunc = "mix"   // mix(a, b, t)
	FnClamp PureFunc = "clamp" // clamp(x, lo, hi)
	FnScale PureFunc = "scale" // scale(vec, scalar)
	FnVec   PureFunc = "vec"   // pack scalars into components
	FnGate  PureFunc = "gate"  // gate(x, event) -> x when event else 0
	FnAvg   PureFunc = "avg"
	FnFirst PureFunc = "first"
	FnLast  PureFunc = "last"
)

// pureFuncArity maps each pure function to its required argument count.
// -1 means variadic (at least one argument).
var pureFuncArity = map[PureFunc]int{
	FnAdd: -1, FnSub: 2, FnMul: -1, FnDiv: 2,
	FnMin: -1, FnMax: -1, FnNeg: 1, FnAbs: 1,
	FnFract: 1, FnSin: 1, FnCos: 1, FnSaw: 1,
	FnPulse: 2, FnMix: 3, FnClamp: 3, FnScale: 2,
	FnVec: -1, FnGate: 2, FnAvg: -1, FnFirst: -1, FnLast: -1,
}

// FuncArity returns (arity, true) for a known pure function. Arity -1 means
// variadic with at least one argument.
func FuncArity(fn PureFunc) (int, bool) {
	a, ok := pureFuncArity[fn]
	return a, ok
}

// Expr is one node of the expression table. Kind selects which fields are
// meaningful; every node carries its own fully-resolved CanonicalType.
type Expr struct {
	Kind ExprKind      `json:"kind"`
	Type CanonicalType `json:"type"`

	// ExprConst: one value per payload component (len == stride).
	Const []float64 `json:"const,omitempty"`

	// ExprExternalRead: channel name.
	Channel string `json:"channel,omitempty"`

	// ExprIntrinsic: intrinsic kind over an instance.
	Intrinsic IntrinsicKind `json:"intrinsic,omitempty"`
	Instance  InstanceID    `json:"instance,omitempty"`

	// ExprApply: pure function over prior expression indices.
	Fn   PureFunc `json:"fn,omitempty"`
	Args []ExprID `json:"args,omitempty"`

	// ExprStateRead: slot holding committed previous-frame state.
	Slot SlotID `json:"slot,omitempty"`

	// ExprTimeRead: which derived time quantity to read.
	Time TimeField `json:"time,omitempty"`
}

// OperandsBelow reports whether every operand index is below limit.
// The compiler checks this when appending nodes to preserve the DAG
// table invariant.
func (e Expr) OperandsBelow(limit ExprID) bool {
	for _, a := range e.Args {
		if a < 0 || a >= limit {
			return false
		}
	}
	return true
}
