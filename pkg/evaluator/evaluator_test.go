package evaluator_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/dialect"
	"github.com/printscript-lang/printscript/pkg/evaluator"
	"github.com/printscript-lang/printscript/pkg/parser"
)

// --- helpers ---

type capture struct {
	lines []string
}

func (c *capture) Write(text string) error {
	c.lines = append(c.lines, text)
	return nil
}

type scriptedInput struct {
	answers []string
	prompts []string
}

func (s *scriptedInput) Read(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", errors.New("no more input")
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

// runWith parses 1.1 source and executes it with custom ExecOptions.
func runWith(t *testing.T, src string, opts evaluator.ExecOptions) error {
	t.Helper()
	prog, diags := parser.ParseSource(src, "test.ps", dialect.V11)
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	return evaluator.Execute(prog, opts)
}

// run executes src and returns everything printed.
func run(t *testing.T, src string) ([]string, error) {
	t.Helper()
	out := &capture{}
	err := runWith(t, src, evaluator.ExecOptions{Output: out})
	return out.lines, err
}

// mustRun is like run but also fails on runtime errors.
func mustRun(t *testing.T, src string) []string {
	t.Helper()
	lines, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return lines
}

// expectOutput asserts the printed lines.
func expectOutput(t *testing.T, src string, expected ...string) {
	t.Helper()
	got := mustRun(t, src)
	if strings.Join(got, "\n") != strings.Join(expected, "\n") {
		t.Errorf("output = %q, want %q", got, expected)
	}
}

// expectRuntimeError asserts the error is a RuntimeError matching sentinel.
func expectRuntimeError(t *testing.T, err error, sentinel error) *evaluator.RuntimeError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected runtime error %v, got nil", sentinel)
	}
	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error code = %q, want %v (message: %s)", rtErr.Code, sentinel, rtErr.Message)
	}
	if rtErr.Span == nil {
		t.Error("runtime error should carry a span")
	}
	return rtErr
}

// --- 1. Literals and printing ---

func TestPrint_Literals(t *testing.T) {
	expectOutput(t, `println(42); println(2.5); println("hi"); println('single'); println(true);`,
		"42", "2.5", "hi", "single", "true")
}

func TestPrint_Variable(t *testing.T) {
	expectOutput(t, `let x: number = 5; println(x);`, "5")
}

func TestPrint_OncePerStatement(t *testing.T) {
	lines := mustRun(t, `let s: string = "a"; println(s); println(s);`)
	if len(lines) != 2 {
		t.Errorf("expected 2 writes, got %d", len(lines))
	}
}

func TestPrint_NoSink(t *testing.T) {
	if err := runWith(t, `println(1);`, evaluator.ExecOptions{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPrint_SinkError(t *testing.T) {
	sink := evaluator.PrintFunc(func(string) error { return errors.New("closed") })
	err := runWith(t, `println(1);`, evaluator.ExecOptions{Output: sink})
	expectRuntimeError(t, err, evaluator.ErrIO)
}

func TestWriterSink(t *testing.T) {
	var b strings.Builder
	err := runWith(t, `println("a"); println(1 + 1);`, evaluator.ExecOptions{Output: evaluator.WriterSink(&b)})
	if err != nil {
		t.Fatal(err)
	}
	if b.String() != "a\n2\n" {
		t.Errorf("got %q", b.String())
	}
}

// --- 2. Arithmetic ---

func TestArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"5 - 8", "-3"},
		{"3 * 4", "12"},
		{"7 / 2", "3.5"},
		{"1 / 3", "0.3333333333333333"},
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 - 4 - 3", "3"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"0 * (0 - 1)", "0"},
		{"\"z=\" + 0 / (0 - 5)", "z=0"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expectOutput(t, fmt.Sprintf("println(%s);", tt.expr), tt.want)
		})
	}
}

func TestArithmetic_DivisionByZero(t *testing.T) {
	_, err := run(t, `println(1 / 0);`)
	expectRuntimeError(t, err, evaluator.ErrArithmetic)
}

func TestArithmetic_NonNumeric(t *testing.T) {
	for _, src := range []string{`println("a" - 1);`, `println(true * 2);`, `println(1 / "x");`} {
		_, err := run(t, src)
		expectRuntimeError(t, err, evaluator.ErrType)
	}
}

// --- 3. Concatenation ---

func TestConcat(t *testing.T) {
	expectOutput(t, `println("a" + 1);`, "a1")
	expectOutput(t, `println(1 + "a");`, "1a")
	expectOutput(t, `println("x" + "y");`, "xy")
	expectOutput(t, `println("n=" + 2.5);`, "n=2.5")
	expectOutput(t, `println("flag " + true);`, "flag true")
}

func TestConcat_BoolNumber(t *testing.T) {
	_, err := run(t, `println(true + 1);`)
	expectRuntimeError(t, err, evaluator.ErrType)
}

// --- 4. Comparison ---

func TestComparison(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 < 2", "true"},
		{"2 > 3", "false"},
		{"2 >= 2", "true"},
		{"3 <= 2", "false"},
		{"1 == 1", "true"},
		{"1 != 1", "false"},
		{`"a" < "b"`, "true"},
		{`"a" == "a"`, "true"},
		{"true == false", "false"},
		{"true != false", "true"},
		{"1 + 1 == 2", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expectOutput(t, fmt.Sprintf("println(%s);", tt.expr), tt.want)
		})
	}
}

func TestComparison_Incompatible(t *testing.T) {
	for _, src := range []string{`println(1 == "1");`, `println(1 < "2");`, `println(true > false);`} {
		_, err := run(t, src)
		expectRuntimeError(t, err, evaluator.ErrType)
	}
}

// --- 5. Declarations and assignment ---

func TestDecl_TypeMismatch(t *testing.T) {
	_, err := run(t, `let x: number = "five";`)
	expectRuntimeError(t, err, evaluator.ErrType)
}

func TestDecl_Redeclaration(t *testing.T) {
	_, err := run(t, `let x: number = 1; let x: number = 2;`)
	rt := expectRuntimeError(t, err, evaluator.ErrRedeclaration)
	if rt.Span.StartCol != 24 {
		t.Errorf("error should point at the second name, got col %d", rt.Span.StartCol)
	}
}

func TestDecl_Uninitialized(t *testing.T) {
	_, err := run(t, `let x: number; println(x);`)
	rt := expectRuntimeError(t, err, evaluator.ErrUndefinedVariable)
	if !strings.Contains(rt.Message, "not initialized") {
		t.Errorf("got %q", rt.Message)
	}
	expectOutput(t, `let x: number; x = 3; println(x);`, "3")
}

func TestAssign_Overwrites(t *testing.T) {
	expectOutput(t, `let x: number = 1; x = x + 1; println(x);`, "2")
}

func TestAssign_TypeChecked(t *testing.T) {
	_, err := run(t, `let x: number = 1; x = "one";`)
	expectRuntimeError(t, err, evaluator.ErrType)
}

func TestAssign_UntypedAcceptsAnything(t *testing.T) {
	expectOutput(t, `let x = 1; x = "one"; println(x);`, "one")
}

func TestAssign_Undefined(t *testing.T) {
	_, err := run(t, `y = 1;`)
	expectRuntimeError(t, err, evaluator.ErrUndefinedVariable)
}

func TestAssign_Constant(t *testing.T) {
	for _, value := range []string{`"bye"`, "1", "true"} {
		lines, err := run(t, fmt.Sprintf(`const y: string = "hi"; y = %s;`, value))
		expectRuntimeError(t, err, evaluator.ErrImmutableAssignment)
		if len(lines) != 0 {
			t.Errorf("expected no output, got %q", lines)
		}
	}
}

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, `println(unknown);`)
	rt := expectRuntimeError(t, err, evaluator.ErrUndefinedVariable)
	if !strings.Contains(rt.Message, "unknown") {
		t.Errorf("message should name the variable: %q", rt.Message)
	}
}

func TestFirstErrorAborts(t *testing.T) {
	lines, err := run(t, `println("before"); println(1 / 0); println("after");`)
	expectRuntimeError(t, err, evaluator.ErrArithmetic)
	if strings.Join(lines, ",") != "before" {
		t.Errorf("output before the failure must remain, nothing after: %q", lines)
	}
}

// --- 6. Conditionals ---

func TestIf_Branches(t *testing.T) {
	src := `let n: number = %s;
if (n > 5) {
  println("big");
} else {
  println("small");
}`
	expectOutput(t, fmt.Sprintf(src, "10"), "big")
	expectOutput(t, fmt.Sprintf(src, "1"), "small")
}

func TestIf_NoElse(t *testing.T) {
	expectOutput(t, `if (false) { println("no"); } println("yes");`, "yes")
}

func TestIf_ConditionMustBeBoolean(t *testing.T) {
	_, err := run(t, `if (1) { println("x"); }`)
	expectRuntimeError(t, err, evaluator.ErrType)
}

func TestIf_ChildScope(t *testing.T) {
	src := `let x: number = 1;
if (true) {
  let x: string = "inner";
  println(x);
  let y: number = 2;
}
println(x);`
	expectOutput(t, src, "inner", "1")

	_, err := run(t, `if (true) { let y: number = 2; } println(y);`)
	expectRuntimeError(t, err, evaluator.ErrUndefinedVariable)
}

func TestIf_AssignsOuterBinding(t *testing.T) {
	expectOutput(t, `let x: number = 1; if (true) { x = 5; } println(x);`, "5")
}

// --- 7. readInput ---

func TestReadInput(t *testing.T) {
	in := &scriptedInput{answers: []string{"Ada"}}
	out := &capture{}
	err := runWith(t, `let name: string = readInput("Name: "); println("hi " + name);`,
		evaluator.ExecOptions{Output: out, Input: in})
	if err != nil {
		t.Fatal(err)
	}
	if len(in.prompts) != 1 || in.prompts[0] != "Name: " {
		t.Errorf("prompts = %q", in.prompts)
	}
	if out.lines[0] != "hi Ada" {
		t.Errorf("got %q", out.lines)
	}
}

func TestReadInput_TypedConversion(t *testing.T) {
	in := &scriptedInput{answers: []string{"41", "true"}}
	out := &capture{}
	err := runWith(t, `let n: number = readInput("n"); let b: boolean = readInput("b"); println(n + 1); println(b);`,
		evaluator.ExecOptions{Output: out, Input: in})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(out.lines, ",") != "42,true" {
		t.Errorf("got %q", out.lines)
	}
}

func TestReadInput_BadConversion(t *testing.T) {
	in := &scriptedInput{answers: []string{"many"}}
	err := runWith(t, `let n: number = readInput("n");`, evaluator.ExecOptions{Input: in})
	expectRuntimeError(t, err, evaluator.ErrType)
}

func TestReadInput_NoSource(t *testing.T) {
	err := runWith(t, `let s: string = readInput("x");`, evaluator.ExecOptions{})
	expectRuntimeError(t, err, evaluator.ErrIO)
}

func TestReadInput_SourceError(t *testing.T) {
	err := runWith(t, `let s: string = readInput("x");`, evaluator.ExecOptions{Input: &scriptedInput{}})
	expectRuntimeError(t, err, evaluator.ErrIO)
}

// --- 8. Sessions and tracing ---

func TestSession_Persistent(t *testing.T) {
	out := &capture{}
	s := evaluator.NewSession(evaluator.ExecOptions{Output: out})
	for _, src := range []string{`let x: number = 2;`, `x = x * 10;`, `println(x);`} {
		prog, diags := parser.ParseSource(src, "repl", dialect.V10)
		if len(diags) > 0 {
			t.Fatal(diags)
		}
		if err := s.Run(prog); err != nil {
			t.Fatal(err)
		}
	}
	if len(out.lines) != 1 || out.lines[0] != "20" {
		t.Errorf("got %q", out.lines)
	}
	if !s.Env().Has("x") {
		t.Error("x should live in the session scope")
	}
}

func TestTrace(t *testing.T) {
	var events []evaluator.TraceEventType
	opts := evaluator.ExecOptions{
		RunID: "r1",
		Trace: func(ev evaluator.TraceEvent) {
			if ev.RunID != "r1" {
				t.Errorf("run id = %q", ev.RunID)
			}
			events = append(events, ev.Event)
		},
	}
	if err := runWith(t, `if (true) { println(1); }`, opts); err != nil {
		t.Fatal(err)
	}
	want := []evaluator.TraceEventType{
		evaluator.TraceRunStart,
		evaluator.TraceStmtStart,
		evaluator.TraceScopePush,
		evaluator.TraceStmtStart,
		evaluator.TracePrint,
		evaluator.TraceStmtEnd,
		evaluator.TraceScopePop,
		evaluator.TraceStmtEnd,
		evaluator.TraceRunEnd,
	}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Errorf("events = %v\nwant     %v", events, want)
	}
}

func TestRuntimeErrorDiagnostic(t *testing.T) {
	_, err := run(t, `println(1 / 0);`)
	var rt *evaluator.RuntimeError
	if !errors.As(err, &rt) {
		t.Fatal("expected RuntimeError")
	}
	d := rt.Diagnostic()
	if d.Code != diagnostics.EArithmetic || d.Span == nil {
		t.Errorf("unexpected diagnostic %+v", d)
	}
}
