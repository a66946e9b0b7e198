package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

func mustParseFormat(t *testing.T, doc string) config.Format {
	t.Helper()
	f, err := config.ParseFormat([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func mustParseAnalyzer(t *testing.T, doc string) config.Analyzer {
	t.Helper()
	a, err := config.ParseAnalyzer([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestDefaults(t *testing.T) {
	f := mustParseFormat(t, "")
	if f != config.DefaultFormat() {
		t.Errorf("empty document should give defaults, got %+v", f)
	}
	a := mustParseAnalyzer(t, "{}")
	if a != config.DefaultAnalyzer() {
		t.Errorf("empty object should give defaults, got %+v", a)
	}
	if a.MaxDiagnostics != 100 {
		t.Errorf("max diagnostics default = %d", a.MaxDiagnostics)
	}
}

func TestFormatAliases(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(config.Format) bool
	}{
		{"snake", `space_before_colon: true`, func(f config.Format) bool { return f.SpaceBeforeColon }},
		{"camel json", `{"spaceBeforeColon": true}`, func(f config.Format) bool { return f.SpaceBeforeColon }},
		{"kebab", `{"enforce-spacing-before-colon-in-declaration": true}`, func(f config.Format) bool { return f.SpaceBeforeColon }},
		{"after colon off", `{"enforce-spacing-after-colon-in-declaration": false}`, func(f config.Format) bool { return !f.SpaceAfterColon }},
		{"equals off", `{"enforce-spacing-around-equals": false}`, func(f config.Format) bool { return !f.SpaceAroundAssignment }},
		{"indent", `{"indent-inside-if": 4}`, func(f config.Format) bool { return f.IndentSize == 4 }},
		{"brace below", `{"if-brace-below-line": true}`, func(f config.Format) bool { return !f.BraceOnSameLine }},
		{"brace same", `if-brace-same-line: false`, func(f config.Format) bool { return !f.BraceOnSameLine }},
		{"print breaks", `{"line-breaks-after-println": 2}`, func(f config.Format) bool { return f.LineBreaksBeforePrint == 2 }},
		{"newline before print", `newline_before_print: 1`, func(f config.Format) bool { return f.LineBreaksBeforePrint == 1 }},
		{"parens", `space_inside_parens: true`, func(f config.Format) bool { return f.SpaceInsideParens }},
		{"json float int", `{"indentSize": 3.0}`, func(f config.Format) bool { return f.IndentSize == 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParseFormat(t, tt.doc)
			if !tt.check(f) {
				t.Errorf("unexpected config %+v", f)
			}
		})
	}
}

// Turning assignment spacing off leaves colon spacing alone.
func TestNoSpacingAroundEqualsIsIndependent(t *testing.T) {
	f := mustParseFormat(t, `{"enforce-no-spacing-around-equals": true}`)
	if f.SpaceAroundAssignment {
		t.Error("assignment spacing should be off")
	}
	if !f.SpaceAfterColon || f.SpaceBeforeColon {
		t.Errorf("colon spacing changed: %+v", f)
	}
}

func TestSingleSpaceSeparation(t *testing.T) {
	f := mustParseFormat(t, `{"mandatory-single-space-separation": true}`)
	if !f.SpaceBeforeColon || !f.SpaceAfterColon || !f.SpaceAroundAssignment {
		t.Errorf("unexpected config %+v", f)
	}
}

func TestMandatoryLineBreakAfterStatement(t *testing.T) {
	f := mustParseFormat(t, `{"mandatory-line-break-after-statement": true}`)
	if f != config.DefaultFormat() {
		t.Errorf("statements are always one per line; got %+v", f)
	}
	if _, err := config.ParseFormat([]byte(`{"mandatory-line-break-after-statement": "yes"}`)); err == nil {
		t.Error("expected a type error for a non-boolean value")
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	f := mustParseFormat(t, `{"somethingElse": 12, "space_before_colon": true}`)
	if !f.SpaceBeforeColon {
		t.Error("known key should still apply")
	}
}

func TestFormatTypeErrors(t *testing.T) {
	docs := []string{
		`space_before_colon: "yes"`,
		`indent_size: "two"`,
		`indent_size: -1`,
		`indent_size: 1.5`,
		`[1, 2]`,
		`{unclosed`,
	}
	for _, doc := range docs {
		_, err := config.ParseFormat([]byte(doc))
		var ce *config.Error
		if !errors.As(err, &ce) {
			t.Errorf("%q: expected *config.Error, got %v", doc, err)
			continue
		}
		if ce.Diagnostic().Code != diagnostics.EConfig {
			t.Errorf("%q: wrong code %s", doc, ce.Diagnostic().Code)
		}
	}
}

func TestIdentifierFormat(t *testing.T) {
	tests := []struct {
		doc     string
		enabled bool
		style   config.NamingStyle
	}{
		{`{"identifier_format": "camel case"}`, true, config.CamelCase},
		{`{"identifier_format": "snake case"}`, true, config.SnakeCase},
		{`{"identifier_format": "SNAKE_CASE"}`, true, config.SnakeCase},
		{`{"identifier_format": "snake-case"}`, true, config.SnakeCase},
		{`{"identifierFormat": {"enabled": true, "format": "snake_case"}}`, true, config.SnakeCase},
		{`{"identifierFormat": {"enabled": false}}`, false, config.CamelCase},
		{`{"identifier_format": "off"}`, false, config.CamelCase},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			a := mustParseAnalyzer(t, tt.doc)
			if a.NamingEnabled != tt.enabled || a.Naming != tt.style {
				t.Errorf("got enabled=%v style=%s", a.NamingEnabled, a.Naming)
			}
		})
	}
}

func TestUnknownNamingStyle(t *testing.T) {
	if _, err := config.ParseAnalyzer([]byte(`identifier_format: kebab`)); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestPrintlnRestriction(t *testing.T) {
	a := mustParseAnalyzer(t, `{"mandatory-variable-or-literal-in-println": false}`)
	if a.PrintlnRestriction {
		t.Error("flat flag should disable the check")
	}
	a = mustParseAnalyzer(t, `{"printlnRestrictions": {"enabled": true, "allowOnlyIdentifiersAndLiterals": true}}`)
	if !a.PrintlnRestriction {
		t.Error("object form should enable the check")
	}
	a = mustParseAnalyzer(t, `{"println_restrictions": {"allowOnlyIdentifiersAndLiterals": true}}`)
	if !a.PrintlnRestriction {
		t.Error("object without enabled should default to enabled")
	}
	for _, key := range []string{
		"allowOnlyIdentifiersAndLiterals",
		"allow_only_identifiers_and_literals",
		"mandatory-variable-or-literal-in-println",
	} {
		doc := `{"printlnRestrictions": {"enabled": true, "` + key + `": false}}`
		if a := mustParseAnalyzer(t, doc); a.PrintlnRestriction {
			t.Errorf("%s: allowing expressions should disable the restriction", key)
		}
	}
	if _, err := config.ParseAnalyzer([]byte(`{"printlnRestrictions": {"allow_only_identifiers_and_literals": "no"}}`)); err == nil {
		t.Error("expected a type error for a non-boolean allow-only flag")
	}
}

func TestReadInputRestrictionAliases(t *testing.T) {
	for _, key := range []string{
		"mandatory-variable-or-literal-in-readInput",
		"mandatory_variable_or_literal_in_readInput",
		"read_input_check_enabled",
		"read-input-check-enabled",
		"readInputCheckEnabled",
		"readInputRestriction",
	} {
		a := mustParseAnalyzer(t, `{"`+key+`": false}`)
		if a.ReadInputRestriction {
			t.Errorf("%s: should disable the readInput check", key)
		}
		if !a.PrintlnRestriction {
			t.Errorf("%s: should leave the println check alone", key)
		}
	}
	a := mustParseAnalyzer(t, `{"readInputRestrictions": {"enabled": false}}`)
	if a.ReadInputRestriction {
		t.Error("object form should disable the readInput check")
	}
}

func TestAnalyzerFlags(t *testing.T) {
	a := mustParseAnalyzer(t, `
maxErrors: 5
enableWarnings: false
strict_mode: true
unused_variables: true
read-input-check-enabled: false
`)
	if a.MaxDiagnostics != 5 || a.WarningsEnabled || !a.StrictMode || !a.UnusedVariables || a.ReadInputRestriction {
		t.Errorf("unexpected config %+v", a)
	}
}

func TestParseNamingStyle(t *testing.T) {
	for _, s := range []string{"camelCase", "camel", "CAMEL_CASE", "camelcase()"} {
		if st, err := config.ParseNamingStyle(s); err != nil || st != config.CamelCase {
			t.Errorf("%q: got %v, %v", s, st, err)
		}
	}
}

func TestLoadProject(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	p, err := config.LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Path != "" || p.Version != "1.0" {
		t.Errorf("expected defaults, got %+v", p)
	}

	userDir := filepath.Join(home, ".printscript")
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatal(err)
	}
	userCfg := "version: \"1.1\"\nformat:\n  indent_size: 8\n"
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = config.LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p.Version != "1.1" || p.Format.IndentSize != 8 {
		t.Errorf("expected user config, got %+v", p)
	}

	projectCfg := "format:\n  space_before_colon: true\nlint:\n  identifier_format: snake case\n"
	if err := os.WriteFile(filepath.Join(dir, config.ProjectFileName), []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = config.LoadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Format.SpaceBeforeColon || p.Format.IndentSize != 2 || p.Analyzer.Naming != config.SnakeCase {
		t.Errorf("project config should win and not merge with user config: %+v", p)
	}
	if p.Version != "1.0" {
		t.Errorf("version = %q", p.Version)
	}
}

func TestLoadProjectErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	write := func(content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, config.ProjectFileName), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("colour: blue\n")
	if _, err := config.LoadProject(dir); err == nil {
		t.Error("unknown top-level section should be rejected")
	}

	write("lint:\n  maxErrors: lots\n")
	_, err := config.LoadProject(dir)
	var ce *config.Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *config.Error, got %v", err)
	}
	if ce.Key != "lint.maxErrors" {
		t.Errorf("key = %q", ce.Key)
	}
}

func TestLoadStandaloneFiles(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "fmt.json")
	if err := os.WriteFile(fp, []byte(`{"enforce-spacing-before-colon-in-declaration": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := config.LoadFormatFile(fp)
	if err != nil || !f.SpaceBeforeColon {
		t.Errorf("got %+v, %v", f, err)
	}

	if _, err := config.LoadAnalyzerFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
