package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/printscript-lang/printscript/internal/testutil"
	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/evaluator"
	"github.com/printscript-lang/printscript/pkg/runtime"
)

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, scenarioDir := range dirs {
		scenarioDir := scenarioDir
		t.Run(filepath.Base(scenarioDir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(scenarioDir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}

			source, filename, err := testutil.ReadProgramFile(scenarioDir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			out := &outcome{}
			rt := buildTestRuntime(t, scenario, out)

			switch scenario.Cmd[0] {
			case "run":
				runScenario(rt, source, filename, out)
			case "check":
				checkScenario(rt, source, filename, out)
			case "fmt":
				fmtScenario(rt, source, filename, out)
			case "lint":
				lintScenario(rt, source, filename, out)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
			checkExpectations(t, scenario, out)
		})
	}
}

// outcome is what a scenario command produced.
type outcome struct {
	exitCode int
	stdout   strings.Builder
	stderr   string
	diags    []diagnostics.Diagnostic
}

func (o *outcome) Write(text string) error {
	o.stdout.WriteString(text)
	o.stdout.WriteString("\n")
	return nil
}

func (o *outcome) fail(code int, diags []diagnostics.Diagnostic) {
	o.exitCode = code
	o.diags = diags
	o.stderr = diagnostics.FormatDiagnostics(diags, true)
}

func buildTestRuntime(t *testing.T, scenario *testutil.Scenario, out *outcome) *runtime.Runtime {
	t.Helper()

	format, err := config.FormatFromMap(scenario.Format)
	if err != nil {
		t.Fatalf("bad format config: %v", err)
	}
	lint, err := config.AnalyzerFromMap(scenario.Lint)
	if err != nil {
		t.Fatalf("bad lint config: %v", err)
	}

	pending := append([]string(nil), scenario.Stdin...)
	input := evaluator.InputFunc(func(prompt string) (string, error) {
		out.stdout.WriteString(prompt)
		if len(pending) == 0 {
			return "", errors.New("no more input")
		}
		line := pending[0]
		pending = pending[1:]
		return line, nil
	})

	version := scenario.Version
	if version == "" {
		version = "1.0"
	}
	return runtime.New(
		runtime.WithVersion(version),
		runtime.WithFormatConfig(format),
		runtime.WithAnalyzerConfig(lint),
		runtime.WithOutput(out),
		runtime.WithInput(input),
		runtime.WithRunID("test"),
	)
}

func runScenario(rt *runtime.Runtime, source, filename string, out *outcome) {
	err := rt.Run(source, filename)
	if err == nil {
		return
	}
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		out.fail(2, de.Diagnostics)
		return
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		out.fail(exitCodeForError(re.Code), []diagnostics.Diagnostic{re.Diagnostic()})
		return
	}
	out.fail(4, []diagnostics.Diagnostic{diagnostics.MakeDiag("", err.Error(), nil, "")})
}

func checkScenario(rt *runtime.Runtime, source, filename string, out *outcome) {
	if diags := rt.Validate(source, filename); len(diags) > 0 {
		out.fail(2, diags)
	}
}

func fmtScenario(rt *runtime.Runtime, source, filename string, out *outcome) {
	formatted, err := rt.Format(source, filename)
	if err != nil {
		runScenario(rt, source, filename, out)
		return
	}
	out.stdout.WriteString(formatted)
}

func lintScenario(rt *runtime.Runtime, source, filename string, out *outcome) {
	diags, err := rt.Lint(source, filename)
	if err != nil {
		runScenario(rt, source, filename, out)
		return
	}
	out.diags = diags
	out.stdout.WriteString(diagnostics.FormatDiagnostics(diags, true))
	if diagnostics.HasErrors(diags) {
		out.exitCode = 1
	}
}

func exitCodeForError(code string) int {
	switch code {
	case diagnostics.EIO:
		return 5
	default:
		return 4
	}
}

func checkExpectations(t *testing.T, scenario *testutil.Scenario, out *outcome) {
	t.Helper()
	expect := scenario.Expect

	if out.exitCode != expect.ExitCode {
		t.Errorf("exit code: got %d, want %d (stderr: %s)", out.exitCode, expect.ExitCode, out.stderr)
	}

	stdout := out.stdout.String()
	if expect.Stdout != nil && stdout != *expect.Stdout {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", stdout, *expect.Stdout)
	}
	if expect.StdoutContains != "" && !strings.Contains(stdout, expect.StdoutContains) {
		t.Errorf("stdout should contain %q, got: %s", expect.StdoutContains, stdout)
	}
	if expect.StderrContains != "" && !strings.Contains(out.stderr, expect.StderrContains) {
		t.Errorf("stderr should contain %q, got: %s", expect.StderrContains, out.stderr)
	}

	if expect.DiagnosticCount != nil && len(out.diags) != *expect.DiagnosticCount {
		t.Errorf("diagnostic count: got %d, want %d: %v", len(out.diags), *expect.DiagnosticCount, out.diags)
	}
	if len(expect.Diagnostics) > 0 {
		checkDiagnostics(t, expect.Diagnostics, out.diags)
	}
}

func checkDiagnostics(t *testing.T, expected []map[string]any, diags []diagnostics.Diagnostic) {
	t.Helper()

	actual, _ := toJSONValue(t, diags).([]any)
	for i, want := range expected {
		if i >= len(actual) {
			t.Errorf("missing diagnostic at index %d: %v", i, want)
			continue
		}
		if !isSubset(toJSONValue(t, want), actual[i]) {
			t.Errorf("diagnostic[%d] mismatch:\n  expected subset: %v\n  got: %v", i, want, actual[i])
		}
	}
}

// toJSONValue round-trips v through encoding/json so YAML integers and
// JSON numbers compare equal.
func toJSONValue(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %v: %v", v, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("failed to unmarshal %s: %v", b, err)
	}
	return out
}

// isSubset checks if expected is a subset of actual (for JSON comparison).
func isSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists {
				return false
			}
			if !isSubset(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok {
			return false
		}
		if len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !isSubset(ev, a[i]) {
				return false
			}
		}
		return true

	default:
		return fmt.Sprint(expected) == fmt.Sprint(actual)
	}
}
