package engine

import (
	"fmt"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// RenderPass is one assembled draw call: per-element position and color
// buffers plus either a per-element size buffer or a uniform size.
type RenderPass struct {
	Name  string
	Count int

	Positions *Buffer
	Colors    *Buffer

	// Sizes is nil when the pass uses a uniform size.
	Sizes       *Buffer
	SizeUniform float64
}

// Frame is the complete output of one ExecuteFrame call. Its buffers come
// from the session pool and are valid until the next ExecuteFrame.
type Frame struct {
	Seq         int64
	Time        EffectiveTime
	ProgramHash string
	Passes      []RenderPass
}

// ExecuteFrame runs the program schedule once at the given absolute time.
// It adopts any pending program swap first, then commits staged channels,
// resolves time, and walks the schedule in order. Errors are program
// defects and leave the session unusable for the failed frame only;
// committed state is whatever the completed commit steps promoted.
func (s *Session) ExecuteFrame(absMs float64) (*Frame, error) {
	prog := s.adoptPending()
	s.pool.ReleaseAll()
	s.chans.Commit()

	seq := s.clock.Next()
	t := ResolveTime(absMs, prog.Time, &s.wrap)
	ev := newEvaluator(prog, s.state, s.chans, t, seq, s.memo)

	frame := &Frame{Seq: seq, Time: t, ProgramHash: prog.Hash}
	mats := make(map[ir.MatID]*Buffer, len(prog.Materializations))

	for _, step := range prog.Schedule {
		switch step.Kind {
		case ir.StepWriteSlot:
			if err := s.writeSlot(ev, prog, step); err != nil {
				return nil, err
			}

		case ir.StepMaterializeField:
			if int(step.Mat) < 0 || int(step.Mat) >= len(prog.Materializations) {
				return nil, fmt.Errorf("unknown materialization id %d", step.Mat)
			}
			mat := prog.Materializations[step.Mat]
			buf, err := ev.materialize(mat, s.pool)
			if err != nil {
				return nil, err
			}
			mats[mat.ID] = buf

		case ir.StepRenderPass:
			if int(step.Pass) < 0 || int(step.Pass) >= len(prog.Passes) {
				return nil, fmt.Errorf("unknown render pass id %d", step.Pass)
			}
			pass, err := s.assemblePass(prog, prog.Passes[step.Pass], mats, seq)
			if err != nil {
				return nil, err
			}
			frame.Passes = append(frame.Passes, pass)

		case ir.StepCommitState:
			meta, err := prog.SlotByID(step.Slot)
			if err != nil {
				return nil, err
			}
			s.state.Commit(meta)

		default:
			return nil, NewUnknownStepError(seq, string(step.Kind))
		}
	}

	s.log.Debug("frame executed",
		"session", s.token,
		"seq", seq,
		"abs_ms", absMs,
		"passes", len(frame.Passes))
	return frame, nil
}

// writeSlot evaluates a write step's expression and stores it. Per-element
// slots evaluate once per lane; signal slots evaluate once.
func (s *Session) writeSlot(ev *evaluator, prog *ir.Program, step ir.Step) error {
	meta, err := prog.SlotByID(step.Slot)
	if err != nil {
		return err
	}
	if int(step.Expr) < 0 || int(step.Expr) >= len(prog.Exprs) {
		return NewMissingExpressionError(ev.frame, int32(step.Expr))
	}
	if stride := prog.Exprs[step.Expr].Type.Payload.Stride(); stride != meta.Stride {
		return NewStrideMismatchError(ev.frame, int32(step.Expr), stride, meta.Stride)
	}

	if meta.ElemCount == 1 {
		v, err := ev.evalSignal(step.Expr)
		if err != nil {
			return err
		}
		s.state.Write(meta, 0, v)
		return nil
	}
	for lane := 0; lane < meta.ElemCount; lane++ {
		v, err := ev.evalLane(step.Expr, lane)
		if err != nil {
			return err
		}
		s.state.Write(meta, lane, v)
	}
	return nil
}

// assemblePass gathers a pass's buffers from this frame's materializations.
func (s *Session) assemblePass(prog *ir.Program, spec ir.RenderPassSpec, mats map[ir.MatID]*Buffer, seq int64) (RenderPass, error) {
	inst, err := prog.InstanceByID(spec.Instance)
	if err != nil {
		return RenderPass{}, err
	}
	pass := RenderPass{
		Name:        spec.Name,
		Count:       inst.Count,
		SizeUniform: spec.SizeUniform,
	}

	if pass.Positions = mats[spec.Position]; pass.Positions == nil {
		return RenderPass{}, NewMissingBufferError(seq, int32(spec.Position))
	}
	if pass.Colors = mats[spec.Color]; pass.Colors == nil {
		return RenderPass{}, NewMissingBufferError(seq, int32(spec.Color))
	}
	if spec.SizeMat >= 0 {
		if pass.Sizes = mats[spec.SizeMat]; pass.Sizes == nil {
			return RenderPass{}, NewMissingBufferError(seq, int32(spec.SizeMat))
		}
		pass.SizeUniform = 0
	}
	return pass, nil
}
