// Package dialect selects the language version a source file is processed under.
package dialect

import "strings"

// Dialect identifies a versioned variant of the language.
type Dialect int

const (
	// V10 is the baseline dialect.
	V10 Dialect = iota
	// V11 adds conditionals, blocks, boolean literals and readInput.
	V11
)

// Select maps a version string to a dialect.
// Unrecognized or empty versions fall back to V10.
func Select(version string) Dialect {
	if strings.HasPrefix(strings.TrimSpace(version), "1.1") {
		return V11
	}
	return V10
}

func (d Dialect) String() string {
	switch d {
	case V11:
		return "1.1"
	default:
		return "1.0"
	}
}

// HasControlFlow reports whether if/else blocks are available.
func (d Dialect) HasControlFlow() bool { return d >= V11 }

// HasInput reports whether readInput is available.
func (d Dialect) HasInput() bool { return d >= V11 }

// HasBooleans reports whether the boolean type and literals are available.
func (d Dialect) HasBooleans() bool { return d >= V11 }
