// Package config holds the formatter and analyzer option records and turns
// YAML or JSON configuration files into them.
//
// Configuration files in the wild spell the same option many ways
// (snake_case, camelCase, kebab-case test-kit keys). Each option lists its
// accepted spellings in a fixed order; unknown keys are ignored and a value
// of the wrong type is an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

// Format is the formatter style configuration.
type Format struct {
	SpaceBeforeColon      bool `yaml:"space_before_colon" json:"spaceBeforeColon"`
	SpaceAfterColon       bool `yaml:"space_after_colon" json:"spaceAfterColon"`
	SpaceAroundAssignment bool `yaml:"space_around_assignment" json:"spaceAroundAssignment"`
	SpaceInsideParens     bool `yaml:"space_inside_parens" json:"spaceInsideParens"`
	IndentSize            int  `yaml:"indent_size" json:"indentSize"`
	BraceOnSameLine       bool `yaml:"brace_on_same_line" json:"braceOnSameLine"`
	LineBreaksBeforePrint int  `yaml:"line_breaks_before_print" json:"lineBreaksBeforePrint"`
}

// DefaultFormat returns the canonical style: `let x: number = 5;`.
func DefaultFormat() Format {
	return Format{
		SpaceBeforeColon:      false,
		SpaceAfterColon:       true,
		SpaceAroundAssignment: true,
		SpaceInsideParens:     false,
		IndentSize:            2,
		BraceOnSameLine:       true,
		LineBreaksBeforePrint: 0,
	}
}

// NamingStyle is an identifier naming convention.
type NamingStyle string

const (
	CamelCase NamingStyle = "camelCase"
	SnakeCase NamingStyle = "snake_case"
)

// Analyzer is the linter check configuration.
type Analyzer struct {
	NamingEnabled        bool        `yaml:"naming_enabled" json:"namingEnabled"`
	Naming               NamingStyle `yaml:"naming" json:"naming"`
	PrintlnRestriction   bool        `yaml:"println_restriction" json:"printlnRestriction"`
	ReadInputRestriction bool        `yaml:"read_input_restriction" json:"readInputRestriction"`
	UnusedVariables      bool        `yaml:"unused_variables" json:"unusedVariables"`
	MaxDiagnostics       int         `yaml:"max_diagnostics" json:"maxDiagnostics"` // <= 0 means unlimited
	WarningsEnabled      bool        `yaml:"warnings_enabled" json:"warningsEnabled"`
	StrictMode           bool        `yaml:"strict_mode" json:"strictMode"`
}

// DefaultAnalyzer returns the default check set.
func DefaultAnalyzer() Analyzer {
	return Analyzer{
		NamingEnabled:        true,
		Naming:               CamelCase,
		PrintlnRestriction:   true,
		ReadInputRestriction: true,
		UnusedVariables:      false,
		MaxDiagnostics:       100,
		WarningsEnabled:      true,
		StrictMode:           false,
	}
}

// Error reports an unusable configuration value.
type Error struct {
	Source  string
	Key     string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Source != "" {
		b.WriteString(" " + e.Source)
	}
	if e.Key != "" {
		b.WriteString(": " + e.Key)
	}
	b.WriteString(": " + e.Message)
	return b.String()
}

// Diagnostic converts the error into an E_CONFIG diagnostic.
func (e *Error) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EConfig, e.Error(), nil, "")
}

// ParseFormat decodes a YAML or JSON document into a Format, starting from
// the defaults.
func ParseFormat(data []byte) (Format, error) {
	m, err := decodeMap(data)
	if err != nil {
		return Format{}, err
	}
	return FormatFromMap(m)
}

// ParseAnalyzer decodes a YAML or JSON document into an Analyzer, starting
// from the defaults.
func ParseAnalyzer(data []byte) (Analyzer, error) {
	m, err := decodeMap(data)
	if err != nil {
		return Analyzer{}, err
	}
	return AnalyzerFromMap(m)
}

// decodeMap decodes a document whose top level is a mapping. JSON is valid
// YAML, so one decoder serves both.
func decodeMap(data []byte) (map[string]any, error) {
	m := map[string]any{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, &Error{Message: fmt.Sprintf("parse: %v", err)}
	}
	return m, nil
}

// --- key translation ---

type formatOption struct {
	keys  []string
	apply func(f *Format, v any) error
}

var formatOptions = []formatOption{
	{
		keys:  []string{"space_before_colon", "spaceBeforeColon", "enforce-spacing-before-colon-in-declaration"},
		apply: func(f *Format, v any) error { return setBool(&f.SpaceBeforeColon, v) },
	},
	{
		keys:  []string{"space_after_colon", "spaceAfterColon", "enforce-spacing-after-colon-in-declaration"},
		apply: func(f *Format, v any) error { return setBool(&f.SpaceAfterColon, v) },
	},
	{
		keys: []string{
			"space_around_assignment", "spaceAroundAssignment",
			"space_around_equals", "spaceAroundEquals", "enforce-spacing-around-equals",
			"space_before_equal", "spaceBeforeEqual", "space_after_equal", "spaceAfterEqual",
		},
		apply: func(f *Format, v any) error { return setBool(&f.SpaceAroundAssignment, v) },
	},
	{
		// Only turns assignment spacing off; colon spacing is a separate option.
		keys: []string{"enforce-no-spacing-around-equals"},
		apply: func(f *Format, v any) error {
			var no bool
			if err := setBool(&no, v); err != nil {
				return err
			}
			f.SpaceAroundAssignment = !no
			return nil
		},
	},
	{
		keys:  []string{"space_inside_parens", "spaceInsideParens", "space_inside_parentheses"},
		apply: func(f *Format, v any) error { return setBool(&f.SpaceInsideParens, v) },
	},
	{
		keys:  []string{"indent_size", "indentSize", "indent-inside-if", "indent_inside_if"},
		apply: func(f *Format, v any) error { return setNonNegative(&f.IndentSize, v) },
	},
	{
		keys:  []string{"brace_on_same_line", "braceOnSameLine", "if-brace-same-line"},
		apply: func(f *Format, v any) error { return setBool(&f.BraceOnSameLine, v) },
	},
	{
		keys: []string{"if-brace-below-line"},
		apply: func(f *Format, v any) error {
			var below bool
			if err := setBool(&below, v); err != nil {
				return err
			}
			f.BraceOnSameLine = !below
			return nil
		},
	},
	{
		keys: []string{
			"line_breaks_before_print", "lineBreaksBeforePrint",
			"newline_before_print", "newlinesBeforePrint", "line-breaks-after-println",
		},
		apply: func(f *Format, v any) error { return setNonNegative(&f.LineBreaksBeforePrint, v) },
	},
	{
		// Statements are always written one per line; the key is accepted
		// and type-checked only.
		keys: []string{"mandatory-line-break-after-statement", "mandatory_line_break_after_statement",
			"mandatoryLineBreakAfterStatement"},
		apply: func(_ *Format, v any) error {
			var on bool
			return setBool(&on, v)
		},
	},
	{
		// Single spaces between all tokens.
		keys: []string{"mandatory-single-space-separation"},
		apply: func(f *Format, v any) error {
			var on bool
			if err := setBool(&on, v); err != nil {
				return err
			}
			if on {
				f.SpaceBeforeColon = true
				f.SpaceAfterColon = true
				f.SpaceAroundAssignment = true
			}
			return nil
		},
	},
}

// FormatFromMap applies every recognized key of m to the default Format.
func FormatFromMap(m map[string]any) (Format, error) {
	f := DefaultFormat()
	for _, opt := range formatOptions {
		for _, key := range opt.keys {
			v, ok := m[key]
			if !ok || v == nil {
				continue
			}
			if err := opt.apply(&f, v); err != nil {
				return Format{}, &Error{Key: key, Message: err.Error()}
			}
		}
	}
	return f, nil
}

type analyzerOption struct {
	keys  []string
	apply func(a *Analyzer, v any) error
}

var analyzerOptions = []analyzerOption{
	{
		keys:  []string{"identifier_format", "identifierFormat", "identifierFormatString", "naming"},
		apply: applyIdentifierFormat,
	},
	{
		keys:  []string{"printlnRestrictions", "println_restrictions"},
		apply: func(a *Analyzer, v any) error { return applyRestriction(&a.PrintlnRestriction, v) },
	},
	{
		keys: []string{"mandatory-variable-or-literal-in-println", "mandatory_variable_or_literal_in_println",
			"println_restriction", "printlnRestriction"},
		apply: func(a *Analyzer, v any) error { return setBool(&a.PrintlnRestriction, v) },
	},
	{
		keys:  []string{"readInputRestrictions", "read_input_restrictions"},
		apply: func(a *Analyzer, v any) error { return applyRestriction(&a.ReadInputRestriction, v) },
	},
	{
		keys: []string{"mandatory-variable-or-literal-in-readInput", "mandatory_variable_or_literal_in_readInput",
			"mandatory_variable_or_literal_in_read_input", "read_input_check_enabled", "read-input-check-enabled",
			"readInputCheckEnabled", "read_input_restriction", "readInputRestriction"},
		apply: func(a *Analyzer, v any) error { return setBool(&a.ReadInputRestriction, v) },
	},
	{
		keys:  []string{"unused_variables", "unusedVariables", "unused-variables"},
		apply: func(a *Analyzer, v any) error { return setBool(&a.UnusedVariables, v) },
	},
	{
		keys:  []string{"maxErrors", "max_errors", "max_diagnostics", "maxDiagnostics"},
		apply: func(a *Analyzer, v any) error { return setInt(&a.MaxDiagnostics, v) },
	},
	{
		keys:  []string{"enableWarnings", "enable_warnings", "warnings_enabled"},
		apply: func(a *Analyzer, v any) error { return setBool(&a.WarningsEnabled, v) },
	},
	{
		keys:  []string{"strictMode", "strict_mode"},
		apply: func(a *Analyzer, v any) error { return setBool(&a.StrictMode, v) },
	},
}

// AnalyzerFromMap applies every recognized key of m to the default Analyzer.
func AnalyzerFromMap(m map[string]any) (Analyzer, error) {
	a := DefaultAnalyzer()
	for _, opt := range analyzerOptions {
		for _, key := range opt.keys {
			v, ok := m[key]
			if !ok || v == nil {
				continue
			}
			if err := opt.apply(&a, v); err != nil {
				return Analyzer{}, &Error{Key: key, Message: err.Error()}
			}
		}
	}
	return a, nil
}

// applyIdentifierFormat accepts "camel case" style strings or an
// {enabled, format} object.
func applyIdentifierFormat(a *Analyzer, v any) error {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" || strings.EqualFold(strings.TrimSpace(val), "off") {
			a.NamingEnabled = false
			return nil
		}
		style, err := ParseNamingStyle(val)
		if err != nil {
			return err
		}
		a.NamingEnabled = true
		a.Naming = style
		return nil
	case map[string]any:
		if e, ok := val["enabled"]; ok {
			if err := setBool(&a.NamingEnabled, e); err != nil {
				return fmt.Errorf("enabled: %w", err)
			}
		}
		if f, ok := val["format"]; ok {
			s, ok := f.(string)
			if !ok {
				return fmt.Errorf("format: expected a string, got %T", f)
			}
			style, err := ParseNamingStyle(s)
			if err != nil {
				return err
			}
			a.Naming = style
		}
		return nil
	default:
		return fmt.Errorf("expected a string or an object, got %T", v)
	}
}

// applyRestriction accepts a bool or an {enabled, allowOnlyIdentifiersAndLiterals} object;
// the allow-only flag is also read in its snake_case and kebab spellings.
func applyRestriction(dst *bool, v any) error {
	switch val := v.(type) {
	case bool:
		*dst = val
		return nil
	case map[string]any:
		enabled := true
		if e, ok := val["enabled"]; ok {
			if err := setBool(&enabled, e); err != nil {
				return fmt.Errorf("enabled: %w", err)
			}
		}
		only := true
		for _, key := range []string{"allowOnlyIdentifiersAndLiterals", "allow_only_identifiers_and_literals",
			"mandatory-variable-or-literal-in-println"} {
			o, ok := val[key]
			if !ok {
				continue
			}
			if err := setBool(&only, o); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		*dst = enabled && only
		return nil
	default:
		return fmt.Errorf("expected a boolean or an object, got %T", v)
	}
}

// ParseNamingStyle recognizes the common spellings of camel and snake case.
func ParseNamingStyle(s string) (NamingStyle, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.TrimSuffix(norm, "()")
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)
	switch norm {
	case "camelcase", "camel":
		return CamelCase, nil
	case "snakecase", "snake":
		return SnakeCase, nil
	}
	return "", fmt.Errorf("unknown naming style %q", s)
}

func setBool(dst *bool, v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("expected a boolean, got %T", v)
	}
	*dst = b
	return nil
}

func setInt(dst *int, v any) error {
	switch n := v.(type) {
	case int:
		*dst = n
		return nil
	case int64:
		*dst = int(n)
		return nil
	case uint64:
		*dst = int(n)
		return nil
	case float64:
		if n != math.Trunc(n) {
			return fmt.Errorf("expected an integer, got %v", n)
		}
		*dst = int(n)
		return nil
	}
	return fmt.Errorf("expected an integer, got %T", v)
}

func setNonNegative(dst *int, v any) error {
	var n int
	if err := setInt(&n, v); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	*dst = n
	return nil
}
