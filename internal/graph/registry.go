package graph

import (
	"fmt"
	"sort"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// CombinePolicy says how multiple writers into one input port are combined.
// "last" and "first" are meaningful only because the writer list is sorted
// by the deterministic edge ordering key, never by insertion order.
type CombinePolicy string

const (
	CombineError CombinePolicy = "error" // multi-writer is a diagnostic
	CombineSum   CombinePolicy = "sum"
	CombineAvg   CombinePolicy = "avg"
	CombineMin   CombinePolicy = "min"
	CombineMax   CombinePolicy = "max"
	CombineFirst CombinePolicy = "first"
	CombineLast  CombinePolicy = "last"
)

// PortSpec declares one input or output port of a block type.
type PortSpec struct {
	Name string
	Type ir.CanonicalType // may contain PayloadAny or axis variables

	// Default, when non-nil, is materialized as a synthetic constant source
	// for unconnected inputs during normalization. Inputs without a default
	// must be wired or compilation fails.
	Default ir.Value

	// Optional input ports may stay unconnected without a default; they are
	// then simply absent from LowerInput.Inputs.
	Optional bool

	// Combine is the multi-writer policy for input ports.
	// Zero value means CombineError.
	Combine CombinePolicy
}

// SlotRequest asks the orchestrator to allocate one slot. The slot id the
// request receives is LowerInput.NextSlot + its index in the request list.
//
// State slots inside feedback cycles cannot name their write expression at
// lowering time: the writer lowers before its own input resolves (the cycle
// is cut at the state boundary). Such slots declare a deferred update
// instead - Update(state_read, <UpdatePort input>) - which the orchestrator
// materializes after every block has lowered.
type SlotRequest struct {
	// Name is joined with the block id into the slot's continuity key.
	Name string

	Type      ir.CanonicalType
	ElemCount int       // 1 for signal state
	Init      []float64 // per-element default (len == stride); nil = zeros

	// WriteExpr, when valid (>= 0), is written into the slot every frame.
	// Mutually exclusive with Update/UpdatePort.
	WriteExpr ir.ExprID

	// Update + UpdatePort declare a deferred write:
	// new value = Update(ReadExpr, resolved input at UpdatePort).
	Update     ir.PureFunc
	UpdatePort string

	// ReadExpr is the ExprStateRead node the block emitted over this slot.
	ReadExpr ir.ExprID

	// Commit requests a commit-state step at frame end, making the slot a
	// one-frame-delayed state cell readable via ExprStateRead.
	Commit bool

	// Port names the owning output port for introspection ("" when internal).
	Port string
}

// StepRequestKind enumerates effects blocks may request beyond slot writes.
type StepRequestKind string

const (
	StepMaterialize StepRequestKind = "materialize"
	StepRender      StepRequestKind = "render_pass"
)

// StepRequest describes a materialization or render-pass effect.
// Materializations receive ids starting at LowerInput.NextMat, in request
// order, so a render request in the same result can reference them.
type StepRequest struct {
	Kind StepRequestKind

	// StepMaterialize.
	Expr     ir.ExprID
	Instance ir.InstanceID

	// StepRender.
	Name        string
	Position    ir.MatID
	Color       ir.MatID
	SizeMat     ir.MatID // ir.MatID(-1) when uniform
	SizeUniform float64
}

// InstanceDecl declares a population of elements. Instances are declared
// during normalization (typing needs their ids before lowering runs), not
// from LowerResult.
type InstanceDecl struct {
	Domain string
	Count  int
	Layout string
}

// LowerInput is everything a block's Lower function may read. All fields are
// resolved before lowering; Lower must be pure in them.
type LowerInput struct {
	BlockID string
	Params  ir.Dict

	// Payload is the resolved payload for payload-generic block types.
	Payload ir.Payload

	// Inputs maps input port names to resolved value references. Every
	// declared input is present after normalization and linking, EXCEPT
	// inputs cut at a state boundary, which are absent and must be consumed
	// through a deferred SlotRequest update instead.
	Inputs     map[string]ir.ExprID
	InputTypes map[string]ir.CanonicalType

	// Instance is the block's instance context: its own declared instance,
	// or the one inferred from field-typed inputs (0 when neither applies).
	Instance      ir.InstanceID
	InstanceCount int

	// Base is the expression id the first emitted expr will receive;
	// NextSlot and NextMat likewise pre-assign effect ids so lowering can
	// reference its own requests without mutating shared state.
	Base     ir.ExprID
	NextSlot ir.SlotID
	NextMat  ir.MatID
}

// LowerResult is the effects description a Lower function returns. The
// orchestrator applies it; lowering itself mutates nothing.
type LowerResult struct {
	Exprs   []ir.Expr
	Outputs map[string]ir.ExprID // output port name -> absolute expr id
	Slots   []SlotRequest
	Steps   []StepRequest
}

// LowerFunc is the pure lowering contract every block type supplies.
type LowerFunc func(in LowerInput) (LowerResult, error)

// BlockSpec is a block type's full registry entry.
type BlockSpec struct {
	Type    string
	Inputs  []PortSpec
	Outputs []PortSpec

	// TimeRoot marks the block that supplies the global time model.
	// Exactly one time-root block must exist per graph.
	TimeRoot bool

	// TimeModel derives the global time model from the time-root block's
	// parameters. Consulted only when TimeRoot is set; nil means infinite.
	TimeModel func(params ir.Dict) (ir.TimeModel, error)

	// StateBoundary explicitly permits the block to break a same-frame
	// dependency cycle by reading previous-frame state. Never inferred.
	StateBoundary bool

	// GenericPayload marks the block's "any"-payload ports for resolution
	// from edge context during normalization.
	GenericPayload bool

	// DeclareInstance, when non-nil, makes each invocation of this block
	// type declare one Instance. Called once per block during normalization
	// so field types can reference the instance id before lowering.
	DeclareInstance func(params ir.Dict) (InstanceDecl, error)

	// OutputTypes, when non-nil, overrides declared output port types from
	// block parameters (e.g. a channel reader whose "discrete" parameter
	// turns its output into an event). Ports absent from the returned map
	// keep their declared types; a nil map means no overrides.
	OutputTypes func(params ir.Dict) (map[string]ir.CanonicalType, error)

	Lower LowerFunc
}

// Input returns the named input port spec.
func (s *BlockSpec) Input(name string) (PortSpec, bool) {
	for _, p := range s.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Output returns the named output port spec.
func (s *BlockSpec) Output(name string) (PortSpec, bool) {
	for _, p := range s.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Registry maps block type tags to their specs. The compiler treats entries
// as opaque contracts; the block library registers them at startup.
type Registry struct {
	specs map[string]*BlockSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*BlockSpec)}
}

// Register adds a block spec. Duplicate type tags are a programming error.
func (r *Registry) Register(spec *BlockSpec) error {
	if spec.Type == "" {
		return fmt.Errorf("block spec missing type tag")
	}
	if spec.Lower == nil {
		return fmt.Errorf("block spec %q missing lower function", spec.Type)
	}
	if _, exists := r.specs[spec.Type]; exists {
		return fmt.Errorf("duplicate block type %q", spec.Type)
	}
	r.specs[spec.Type] = spec
	return nil
}

// MustRegister panics on registration failure. For package-level block
// library initialization only.
func (r *Registry) MustRegister(spec *BlockSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Lookup returns the spec for a type tag.
func (r *Registry) Lookup(typeTag string) (*BlockSpec, bool) {
	spec, ok := r.specs[typeTag]
	return spec, ok
}

// Types returns all registered type tags in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.specs))
	for t := range r.specs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
