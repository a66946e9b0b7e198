package evaluator

import (
	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

// RuntimeError represents a runtime error during program execution.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Is matches any RuntimeError carrying the same code, so callers can test
// against the sentinels with errors.Is.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Code == e.Code
}

// Diagnostic converts the error into a diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

// Sentinels for errors.Is.
var (
	ErrType                = &RuntimeError{Code: diagnostics.EType, Message: "type error"}
	ErrUndefinedVariable   = &RuntimeError{Code: diagnostics.EUndefined, Message: "undefined variable"}
	ErrRedeclaration       = &RuntimeError{Code: diagnostics.ERedeclaration, Message: "redeclaration"}
	ErrImmutableAssignment = &RuntimeError{Code: diagnostics.EImmutable, Message: "assignment to constant"}
	ErrArithmetic          = &RuntimeError{Code: diagnostics.EArithmetic, Message: "arithmetic error"}
	ErrIO                  = &RuntimeError{Code: diagnostics.EIO, Message: "i/o error"}
)

func runtimeErr(code, msg string, span ast.Span) *RuntimeError {
	return &RuntimeError{Code: code, Message: msg, Span: &span}
}
