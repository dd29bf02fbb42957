package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/kinetic-lang/kinetic/internal/blocks"
	"github.com/kinetic-lang/kinetic/internal/compiler"
	"github.com/kinetic-lang/kinetic/internal/graph"
	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Error code constants, unified across all CLI commands. Compile-time
// diagnostics keep their own E2xx codes from the compiler.
const (
	ErrCodeGeneric       = "E001" // generic/unknown error
	ErrCodeNotFound      = "E002" // path not found
	ErrCodeLoadFailed    = "E003" // graph document failed to load
	ErrCodeCompileFailed = "E004" // graph failed compilation
	ErrCodeWriteFailed   = "E005" // file write error
	ErrCodeStoreFailed   = "E006" // archive database error
)

// compileGraph loads a CUE graph document and compiles it against the
// builtin block registry. The returned graph hash identifies the source
// document; the program's own hash identifies the compiled output.
func compileGraph(path string) (*ir.Program, string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, "", NewExitError(ExitCommandError, fmt.Sprintf("graph file not found: %s", path))
	}

	doc, err := graph.LoadFile(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to load graph", err)
	}

	graphHash, err := ir.GraphHash(doc.Canonical())
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to hash graph document", err)
	}

	prog, err := compiler.Compile(doc, blocks.DefaultRegistry())
	if err != nil {
		return nil, graphHash, err
	}
	return prog, graphHash, nil
}

// diagnosticsOf unpacks a compile error into its diagnostic list, when the
// failure was graph violations rather than an internal error.
func diagnosticsOf(err error) (compiler.ErrorList, bool) {
	var list compiler.ErrorList
	if errors.As(err, &list) {
		return list, true
	}
	return nil, false
}
