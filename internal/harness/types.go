package harness

import "github.com/kinetic-lang/kinetic/internal/ir"

// FrameTrace is the preserved output of one executed frame. Live frame
// buffers are recycled by the session pool, so the harness keeps the
// canonical snapshot instead of the frame itself.
type FrameTrace struct {
	Seq      int64   `json:"seq"`
	AtMs     float64 `json:"at_ms"`
	Hash     string  `json:"hash"`
	Snapshot ir.Dict `json:"snapshot"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and built-in invariant held.
	Pass bool

	// ProgramHash identifies the compiled program the scenario ran.
	ProgramHash string

	// Frames holds one trace per scripted frame, in execution order.
	Frames []FrameTrace

	// Errors lists assertion failures. Empty when Pass is true.
	Errors []string
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
