package engine

import (
	"math"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// evaluator computes expression values for one frame. Values are carried
// as four-component lanes regardless of payload stride; consumers copy
// only the stride they declare, so unused components are never observed.
//
// Lane-independent expressions (signals and events) are memoized with a
// frame stamp: an entry is valid only when its stamp equals the current
// frame sequence. The memo backing belongs to the session and persists
// across frames; stale entries are skipped by the stamp comparison, never
// cleared.
type evaluator struct {
	prog  *ir.Program
	state *RuntimeState
	chans *Channels
	time  EffectiveTime
	frame int64

	memo []memoEntry
}

type memoEntry struct {
	stamp int64
	val   [4]float64
}

// newMemo sizes a memo table for one program. Frame sequences start at 1,
// so the zero stamp never matches a live frame.
func newMemo(prog *ir.Program) []memoEntry {
	return make([]memoEntry, len(prog.Exprs))
}

func newEvaluator(prog *ir.Program, state *RuntimeState, chans *Channels, t EffectiveTime, frame int64, memo []memoEntry) *evaluator {
	return &evaluator{
		prog:  prog,
		state: state,
		chans: chans,
		time:  t,
		frame: frame,
		memo:  memo,
	}
}

// evalSignal evaluates a lane-independent expression.
func (ev *evaluator) evalSignal(id ir.ExprID) ([4]float64, error) {
	return ev.evalLane(id, 0)
}

// evalLane evaluates an expression for one element lane. Signal operands
// broadcast their single value across every lane.
func (ev *evaluator) evalLane(id ir.ExprID, lane int) ([4]float64, error) {
	if id < 0 || int(id) >= len(ev.prog.Exprs) {
		return [4]float64{}, NewMissingExpressionError(ev.frame, int32(id))
	}
	e := &ev.prog.Exprs[id]

	laneFree := !e.Type.Extent.Cardinality.Many
	if laneFree {
		if m := &ev.memo[id]; m.stamp == ev.frame {
			return m.val, nil
		}
		lane = 0
	}

	v, err := ev.compute(e, lane)
	if err != nil {
		return [4]float64{}, err
	}
	if laneFree {
		ev.memo[id] = memoEntry{stamp: ev.frame, val: v}
	}
	return v, nil
}

func (ev *evaluator) compute(e *ir.Expr, lane int) ([4]float64, error) {
	switch e.Kind {
	case ir.ExprConst:
		var v [4]float64
		copy(v[:], e.Const)
		return v, nil

	case ir.ExprExternalRead:
		return ev.chans.Get(e.Channel), nil

	case ir.ExprIntrinsic:
		inst, err := ev.prog.InstanceByID(e.Instance)
		if err != nil {
			return [4]float64{}, err
		}
		var v [4]float64
		switch e.Intrinsic {
		case ir.IntrinsicIndex:
			v[0] = float64(lane)
		case ir.IntrinsicNormalized:
			if inst.Count > 0 {
				v[0] = float64(lane) / float64(inst.Count)
			}
		case ir.IntrinsicHash:
			v[0] = hash01(lane)
		}
		return v, nil

	case ir.ExprStateRead:
		meta, err := ev.prog.SlotByID(e.Slot)
		if err != nil {
			return [4]float64{}, err
		}
		elem := 0
		if meta.ElemCount > 1 {
			elem = lane
		}
		return ev.state.ReadCommitted(meta, elem), nil

	case ir.ExprTimeRead:
		var v [4]float64
		v[0] = ev.time.read(e.Time)
		return v, nil

	case ir.ExprApply:
		return ev.apply(e, lane)
	}
	return [4]float64{}, NewMissingExpressionError(ev.frame, -1)
}

func (ev *evaluator) apply(e *ir.Expr, lane int) ([4]float64, error) {
	// A lane-independent apply over a field operand is a reduction: the
	// single field argument folds across its instance's lanes.
	if !e.Type.Extent.Cardinality.Many && len(e.Args) == 1 {
		if arg := &ev.prog.Exprs[e.Args[0]]; arg.Type.Extent.Cardinality.Many {
			return ev.reduce(e.Fn, e.Args[0], arg.Type.Extent.Cardinality.Instance)
		}
	}

	args := make([][4]float64, len(e.Args))
	for i, a := range e.Args {
		v, err := ev.evalLane(a, lane)
		if err != nil {
			return [4]float64{}, err
		}
		args[i] = v
	}
	return applyFn(e.Fn, args), nil
}

// reduce folds a field expression across every lane of its instance.
func (ev *evaluator) reduce(fn ir.PureFunc, arg ir.ExprID, instance ir.InstanceID) ([4]float64, error) {
	inst, err := ev.prog.InstanceByID(instance)
	if err != nil {
		return [4]float64{}, err
	}
	if inst.Count == 0 {
		return [4]float64{}, nil
	}

	switch fn {
	case ir.FnFirst:
		return ev.evalLane(arg, 0)
	case ir.FnLast:
		return ev.evalLane(arg, inst.Count-1)
	}

	acc, err := ev.evalLane(arg, 0)
	if err != nil {
		return [4]float64{}, err
	}
	for lane := 1; lane < inst.Count; lane++ {
		v, err := ev.evalLane(arg, lane)
		if err != nil {
			return [4]float64{}, err
		}
		acc = applyFn(foldFn(fn), [][4]float64{acc, v})
	}
	if fn == ir.FnAvg {
		n := float64(inst.Count)
		for i := range acc {
			acc[i] /= n
		}
	}
	return acc, nil
}

// foldFn maps a reduction to its pairwise fold step. Averaging folds with
// add and divides once at the end.
func foldFn(fn ir.PureFunc) ir.PureFunc {
	if fn == ir.FnAvg {
		return ir.FnAdd
	}
	return fn
}

// applyFn computes one pure function over already-evaluated operands.
// Arities were checked at compile time.
func applyFn(fn ir.PureFunc, args [][4]float64) [4]float64 {
	var out [4]float64
	switch fn {
	case ir.FnAdd, ir.FnAvg:
		for _, a := range args {
			for i := range out {
				out[i] += a[i]
			}
		}
		if fn == ir.FnAvg && len(args) > 1 {
			n := float64(len(args))
			for i := range out {
				out[i] /= n
			}
		}
	case ir.FnSub:
		for i := range out {
			out[i] = args[0][i] - args[1][i]
		}
	case ir.FnMul:
		out = args[0]
		for _, a := range args[1:] {
			for i := range out {
				out[i] *= a[i]
			}
		}
	case ir.FnDiv:
		for i := range out {
			if args[1][i] != 0 {
				out[i] = args[0][i] / args[1][i]
			}
		}
	case ir.FnMin:
		out = args[0]
		for _, a := range args[1:] {
			for i := range out {
				out[i] = math.Min(out[i], a[i])
			}
		}
	case ir.FnMax:
		out = args[0]
		for _, a := range args[1:] {
			for i := range out {
				out[i] = math.Max(out[i], a[i])
			}
		}
	case ir.FnNeg:
		for i := range out {
			out[i] = -args[0][i]
		}
	case ir.FnAbs:
		for i := range out {
			out[i] = math.Abs(args[0][i])
		}
	case ir.FnFract:
		for i := range out {
			out[i] = fract(args[0][i])
		}
	case ir.FnSin:
		for i := range out {
			out[i] = math.Sin(args[0][i])
		}
	case ir.FnCos:
		for i := range out {
			out[i] = math.Cos(args[0][i])
		}
	case ir.FnSaw:
		for i := range out {
			out[i] = 2*fract(args[0][i]) - 1
		}
	case ir.FnPulse:
		if args[0][0] < args[1][0] {
			out[0] = 1
		}
	case ir.FnMix:
		t := args[2][0]
		for i := range out {
			out[i] = args[0][i] + (args[1][i]-args[0][i])*t
		}
	case ir.FnClamp:
		lo, hi := args[1][0], args[2][0]
		for i := range out {
			out[i] = math.Min(math.Max(args[0][i], lo), hi)
		}
	case ir.FnScale:
		s := args[1][0]
		for i := range out {
			out[i] = args[0][i] * s
		}
	case ir.FnVec:
		for i := 0; i < len(args) && i < len(out); i++ {
			out[i] = args[i][0]
		}
	case ir.FnGate:
		if args[1][0] != 0 {
			out = args[0]
		}
	case ir.FnFirst:
		out = args[0]
	case ir.FnLast:
		out = args[len(args)-1]
	}
	return out
}

// fract returns x minus its floor, always in [0, 1).
func fract(x float64) float64 {
	return x - math.Floor(x)
}

// hash01 derives a deterministic pseudo-random scalar in [0,1) from a lane
// index. Replays and recompiles must observe identical values, so the hash
// depends on the lane alone.
func hash01(lane int) float64 {
	x := uint32(lane)
	x = (x ^ 61) ^ (x >> 16)
	x *= 9
	x ^= x >> 4
	x *= 0x27d4eb2d
	x ^= x >> 15
	return float64(x) / float64(1<<32)
}
