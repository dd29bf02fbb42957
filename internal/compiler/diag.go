package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Diagnostic codes (E200-E299). The set is closed: every compile failure
// maps to exactly one of these.
const (
	// Normalization errors (E200-E209)
	ErrUnknownBlockType     = "E200" // block type not in the registry
	ErrUnresolvablePortType = "E201" // port type still generic after inference
	ErrIneligibleDefault    = "E202" // default cannot be materialized for the port
	ErrNoConversionPath     = "E203" // no adapter between source and destination types
	ErrDanglingReference    = "E204" // edge targets a non-existent endpoint or unresolvable writer

	// Topology errors (E210-E219)
	ErrIllegalCycle      = "E210" // feedback loop without a state boundary
	ErrMissingTimeRoot   = "E211" // no time-root block in the graph
	ErrMultipleTimeRoots = "E212" // more than one time-root block

	// Lowering errors (E220-E229)
	ErrUnknownPureFunc     = "E220" // unregistered pure function or arity mismatch
	ErrReservedChannelType = "E221" // external read of a reserved channel name
	ErrBadParam            = "E222" // malformed block parameter
)

// Diagnostic is one compile-time violation, attributed to a block (and
// optionally a port) of the source graph.
type Diagnostic struct {
	Code    string `json:"code"`
	Block   string `json:"block,omitempty"`
	Port    string `json:"port,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	switch {
	case d.Block != "" && d.Port != "":
		return fmt.Sprintf("[%s] %s.%s: %s", d.Code, d.Block, d.Port, d.Message)
	case d.Block != "":
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Block, d.Message)
	default:
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
}

// ErrorList is the complete set of diagnostics from one compile. Compilation
// never fails fast: every pass appends everything it finds and the caller
// receives the whole list at once.
type ErrorList []Diagnostic

// Error implements the error interface.
func (l ErrorList) Error() string {
	if len(l) == 0 {
		return "no diagnostics"
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("%d diagnostic(s):\n  %s", len(l), strings.Join(msgs, "\n  "))
}

// Sort orders diagnostics deterministically: by block, then port, then code,
// then message. Compile output must not depend on pass-internal iteration.
func (l ErrorList) Sort() {
	sort.Slice(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
}

// HasCode reports whether any diagnostic carries the given code.
func (l ErrorList) HasCode(code string) bool {
	for _, d := range l {
		if d.Code == code {
			return true
		}
	}
	return false
}

// diagnostics accumulates violations across passes.
type diagnostics struct {
	list ErrorList
}

func (d *diagnostics) add(code, block, port, format string, args ...any) {
	d.list = append(d.list, Diagnostic{
		Code:    code,
		Block:   block,
		Port:    port,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *diagnostics) empty() bool { return len(d.list) == 0 }
