package ir

import "fmt"

// InstanceID references a declared Instance. IDs are 1-based; 0 is "none".
type InstanceID uint32

// Instance is a declared population of elements sharing a domain type and
// layout. Created once per block invocation that needs per-element data;
// owned by the Program and referenced by index everywhere else - never
// duplicated into field types.
type Instance struct {
	ID     InstanceID `json:"id"`
	Domain string     `json:"domain"` // e.g. "particles", "strokes"
	Count  int        `json:"count"`
	Layout string     `json:"layout"` // e.g. "linear", "grid", "ring"
}

// SlotID indexes into a Program's SlotMeta table.
type SlotID int32

// InvalidSlot marks an unset slot reference.
const InvalidSlot SlotID = -1

// SlotMeta describes one allocated slot in the runtime value store.
//
// A slot is allocated exactly once, at the moment its owning value is first
// declared, directly from the value's CanonicalType: Stride comes from the
// payload, Class from the storage class, ElemCount from the instance count
// (1 for signals). Offsets within a class never overlap.
type SlotMeta struct {
	ID        SlotID       `json:"id"`
	Class     StorageClass `json:"class"`
	Stride    int          `json:"stride"`
	ElemCount int          `json:"elem_count"`
	Offset    int          `json:"offset"`

	// ContinuityKey identifies the slot stably across recompiles
	// (owning block id + request name). Used to remap per-element state
	// when instance counts change between Programs.
	ContinuityKey string `json:"continuity_key"`

	// Init holds the default-initialized value for one element
	// (len == Stride). New elements introduced by a recompile start here.
	Init []float64 `json:"init,omitempty"`
}

// Span returns the total number of store cells the slot occupies.
func (s SlotMeta) Span() int { return s.Stride * s.ElemCount }

// SlotOrigin records, for introspection only, which block port a slot
// belongs to. The debug UI reads this mapping; nothing in compilation or
// execution branches on it.
type SlotOrigin struct {
	Slot  SlotID `json:"slot"`
	Block string `json:"block"`
	Port  string `json:"port"`
}

// MatID indexes into a Program's materialization table.
type MatID int32

// Materialization describes one field-to-buffer fill: evaluate Expr
// lane-wise over Instance and write Stride components per lane.
type Materialization struct {
	ID       MatID      `json:"id"`
	Instance InstanceID `json:"instance"`
	Expr     ExprID     `json:"expr"`
	Stride   int        `json:"stride"`
}

// PassID indexes into a Program's render pass table.
type PassID int32

// RenderPassSpec names the buffers a render pass assembles. Position and
// Color reference materializations; size is either uniform or a per-element
// materialization (SizeMat >= 0 wins).
type RenderPassSpec struct {
	ID          PassID     `json:"id"`
	Name        string     `json:"name"`
	Instance    InstanceID `json:"instance"`
	Position    MatID      `json:"position"`
	Color       MatID      `json:"color"`
	SizeMat     MatID      `json:"size_mat"` // -1 when uniform
	SizeUniform float64    `json:"size_uniform,omitempty"`
}

// StepKind enumerates schedule step kinds.
type StepKind string

const (
	// StepWriteSlot evaluates an expression and writes it into the current
	// value store at the step's slot.
	StepWriteSlot StepKind = "write_slot"

	// StepMaterializeField fills a pooled buffer from a field expression.
	StepMaterializeField StepKind = "materialize"

	// StepRenderPass assembles a render pass from materialized buffers.
	StepRenderPass StepKind = "render_pass"

	// StepCommitState promotes a slot's current value to the committed
	// store. Commit steps run at the very end of the frame so state reads
	// during the frame observe the previous frame's value.
	StepCommitState StepKind = "commit_state"
)

// Step is one schedule operation. Kind selects the meaningful fields.
type Step struct {
	Kind StepKind `json:"kind"`

	// StepWriteSlot / StepCommitState.
	Slot SlotID `json:"slot,omitempty"`
	Expr ExprID `json:"expr,omitempty"`

	// EventDependent marks writes whose expression transitively depends on
	// a discrete (event) value; such writes are scheduled after all
	// event-independent writes.
	EventDependent bool `json:"event_dependent,omitempty"`

	// StepMaterializeField.
	Mat MatID `json:"mat,omitempty"`

	// StepRenderPass.
	Pass PassID `json:"pass,omitempty"`
}

// TimeModelKind enumerates the global time topologies.
type TimeModelKind string

const (
	TimeFinite   TimeModelKind = "finite"
	TimeCyclic   TimeModelKind = "cyclic"
	TimeInfinite TimeModelKind = "infinite"
)

// TimeModel is the single global time model supplied by the graph's
// time-root block.
type TimeModel struct {
	Kind       TimeModelKind `json:"kind"`
	DurationMs float64       `json:"duration_ms,omitempty"` // finite
	PeriodMs   float64       `json:"period_ms,omitempty"`   // cyclic
}

// Program is the immutable product of a successful compile: the full
// expression table, declared instances, slot layout, materializations,
// render passes, and the ordered schedule. The engine never mutates it;
// recompiles produce a fresh Program that is swapped in atomically.
type Program struct {
	Name             string            `json:"name"`
	Exprs            []Expr            `json:"exprs"`
	Instances        []Instance        `json:"instances"`
	Slots            []SlotMeta        `json:"slots"`
	Materializations []Materialization `json:"materializations"`
	Passes           []RenderPassSpec  `json:"passes"`
	Schedule         []Step            `json:"schedule"`
	Time             TimeModel         `json:"time"`

	// SlotOrigins is the read-only introspection map, ordered by slot id.
	SlotOrigins []SlotOrigin `json:"slot_origins"`

	// Hash is the content hash of everything above (see ProgramHash).
	// Excluded from its own computation.
	Hash string `json:"-"`
}

// InstanceByID resolves an instance reference. IDs are 1-based.
func (p *Program) InstanceByID(id InstanceID) (Instance, error) {
	idx := int(id) - 1
	if idx < 0 || idx >= len(p.Instances) {
		return Instance{}, fmt.Errorf("unknown instance id %d", id)
	}
	return p.Instances[idx], nil
}

// SlotByID resolves a slot reference.
func (p *Program) SlotByID(id SlotID) (SlotMeta, error) {
	if id < 0 || int(id) >= len(p.Slots) {
		return SlotMeta{}, fmt.Errorf("unknown slot id %d", id)
	}
	return p.Slots[int(id)], nil
}

// StoreSize returns the number of cells the numeric value store needs.
func (p *Program) StoreSize() int {
	size := 0
	for _, s := range p.Slots {
		if s.Class != ClassNumeric {
			continue
		}
		if end := s.Offset + s.Span(); end > size {
			size = end
		}
	}
	return size
}
