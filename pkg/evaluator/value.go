package evaluator

import (
	"strconv"

	"github.com/printscript-lang/printscript/pkg/ast"
)

// Value is the interface for all runtime values.
type Value interface {
	value() // sealed marker
}

// Number is a numeric value. All numbers are float64.
type Number struct {
	Value float64
}

func (Number) value() {}

// String is a string value.
type String struct {
	Value string
}

func (String) value() {}

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// Text renders v the way println prints it: numbers in their shortest
// decimal form, strings unquoted, booleans as true or false.
func Text(v Value) string {
	switch val := v.(type) {
	case Number:
		f := val.Value
		if f == 0 {
			f = 0 // drops the sign of -0
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case String:
		return val.Value
	case Bool:
		return strconv.FormatBool(val.Value)
	default:
		return ""
	}
}

// TypeOf returns the declared-type name matching v.
func TypeOf(v Value) ast.TypeName {
	switch v.(type) {
	case Number:
		return ast.TypeNumber
	case String:
		return ast.TypeString
	case Bool:
		return ast.TypeBoolean
	default:
		return ast.TypeNone
	}
}

// Equal reports whether two values of the same type are equal.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	}
	return false
}
