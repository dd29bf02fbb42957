package engine

import (
	"errors"
	"fmt"
)

// RuntimeErrorCode classifies frame execution failures. Every code here is
// a program defect: a well-formed compiled program never trips them, so a
// frame loop treats any RuntimeError as fatal rather than retryable.
type RuntimeErrorCode string

const (
	// CodeMissingExpression indicates a step or operand referenced an
	// expression index outside the program's expression table.
	CodeMissingExpression RuntimeErrorCode = "MISSING_EXPRESSION"

	// CodeStrideMismatch indicates a materialization or slot write produced
	// a value whose component count disagrees with the declared stride.
	CodeStrideMismatch RuntimeErrorCode = "STRIDE_MISMATCH"

	// CodeUnknownStep indicates a schedule step whose kind the executor
	// does not recognize.
	CodeUnknownStep RuntimeErrorCode = "UNKNOWN_STEP"

	// CodeMissingBuffer indicates a render pass referenced a materialization
	// that no earlier step produced this frame.
	CodeMissingBuffer RuntimeErrorCode = "MISSING_BUFFER"
)

// RuntimeError carries enough context to locate the defect in the compiled
// program without re-running the frame.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string

	// Frame is the sequence number of the frame that failed.
	Frame int64

	// Expr is the offending expression index, or -1 when not applicable.
	Expr int32
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (frame %d)", e.Code, e.Message, e.Frame)
}

// NewMissingExpressionError reports an out-of-range expression reference.
func NewMissingExpressionError(frame int64, expr int32) *RuntimeError {
	return &RuntimeError{
		Code:    CodeMissingExpression,
		Message: fmt.Sprintf("expression %d is not in the program table", expr),
		Frame:   frame,
		Expr:    expr,
	}
}

// NewStrideMismatchError reports a value whose width disagrees with the
// destination stride.
func NewStrideMismatchError(frame int64, expr int32, got, want int) *RuntimeError {
	return &RuntimeError{
		Code:    CodeStrideMismatch,
		Message: fmt.Sprintf("value has %d components, destination expects %d", got, want),
		Frame:   frame,
		Expr:    expr,
	}
}

// NewUnknownStepError reports a schedule step of an unrecognized kind.
func NewUnknownStepError(frame int64, kind string) *RuntimeError {
	return &RuntimeError{
		Code:    CodeUnknownStep,
		Message: fmt.Sprintf("schedule step kind %q is not executable", kind),
		Frame:   frame,
		Expr:    -1,
	}
}

// NewMissingBufferError reports a render pass input that was never
// materialized.
func NewMissingBufferError(frame int64, mat int32) *RuntimeError {
	return &RuntimeError{
		Code:    CodeMissingBuffer,
		Message: fmt.Sprintf("materialization %d produced no buffer this frame", mat),
		Frame:   frame,
		Expr:    -1,
	}
}

// IsRuntimeError reports whether err is a RuntimeError of the given code.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == code
}
