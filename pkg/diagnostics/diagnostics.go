// Package diagnostics defines PrintScript diagnostic types for lex/parse/runtime errors and lint findings.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/printscript-lang/printscript/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex           = "E_LEX"
	EParse         = "E_PARSE"
	EType          = "E_TYPE"
	EUndefined     = "E_UNDEFINED"
	ERedeclaration = "E_REDECLARATION"
	EImmutable     = "E_IMMUTABLE"
	EArithmetic    = "E_ARITHMETIC"
	EIO            = "E_IO"
	EConfig        = "E_CONFIG"

	LNaming       = "L_NAMING"
	LPrintArg     = "L_PRINT_ARG"
	LReadInputArg = "L_READ_INPUT_ARG"
	LUnused       = "L_UNUSED"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic represents a lex, parse, runtime or lint diagnostic.
type Diagnostic struct {
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Span     *ast.Span `json:"span,omitempty"`
	Severity Severity  `json:"severity"`
	Hint     string    `json:"hint,omitempty"`
}

// MakeDiag creates a new error-severity Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Message:  message,
		Span:     span,
		Severity: SeverityError,
		Hint:     hint,
	}
}

// MakeWarning creates a new warning-severity Diagnostic.
func MakeWarning(code, message string, span *ast.Span, hint string) Diagnostic {
	d := MakeDiag(code, message, span, hint)
	d.Severity = SeverityWarning
	return d
}

// Location renders the diagnostic position as file:line:col.
func (d Diagnostic) Location() string {
	if d.Span == nil {
		return "<unknown>"
	}
	return d.Span.String()
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	sev := d.Severity
	if sev == "" {
		sev = SeverityError
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", sev, d.Code, d.Message, d.Location())
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		if diags == nil {
			diags = []Diagnostic{}
		}
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
