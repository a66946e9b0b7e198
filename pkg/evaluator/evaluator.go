// Package evaluator implements the PrintScript tree-walking interpreter.
package evaluator

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

// PrintSink receives the text of every println, once per statement.
type PrintSink interface {
	Write(text string) error
}

// InputSource answers readInput calls. Read blocks until a line is available.
type InputSource interface {
	Read(prompt string) (string, error)
}

// PrintFunc adapts a function to PrintSink.
type PrintFunc func(text string) error

func (f PrintFunc) Write(text string) error { return f(text) }

// InputFunc adapts a function to InputSource.
type InputFunc func(prompt string) (string, error)

func (f InputFunc) Read(prompt string) (string, error) { return f(prompt) }

// WriterSink prints each value on its own line of w.
func WriterSink(w io.Writer) PrintSink {
	return PrintFunc(func(text string) error {
		_, err := io.WriteString(w, text+"\n")
		return err
	})
}

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceStmtStart TraceEventType = "stmt_start"
	TraceStmtEnd   TraceEventType = "stmt_end"
	TracePrint     TraceEventType = "print"
	TraceReadInput TraceEventType = "read_input"
	TraceScopePush TraceEventType = "scope_push"
	TraceScopePop  TraceEventType = "scope_pop"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Output PrintSink
	Input  InputSource
	Trace  func(event TraceEvent)
	RunID  string
}

type evaluator struct {
	opts ExecOptions
	env  *Env
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// Execute runs program in a fresh root scope. The first runtime error stops
// execution; output already written stays written.
func Execute(program *ast.Program, opts ExecOptions) error {
	return NewSession(opts).Run(program)
}

// Session keeps one root scope across several programs, as a REPL does.
type Session struct {
	ev *evaluator
}

// NewSession creates a session with an empty root scope.
func NewSession(opts ExecOptions) *Session {
	return &Session{ev: &evaluator{opts: opts, env: NewEnv(nil)}}
}

// Env exposes the session's root scope.
func (s *Session) Env() *Env {
	return s.ev.env
}

// Run executes program against the session's root scope. Bindings made
// before a failing statement remain.
func (s *Session) Run(program *ast.Program) error {
	ev := s.ev
	span := program.Span
	ev.emit(TraceRunStart, &span, map[string]string{"statements": strconv.Itoa(len(program.Statements))})
	err := ev.executeBlock(program.Statements, ev.env)
	data := map[string]string{"ok": strconv.FormatBool(err == nil)}
	if err != nil {
		data["error"] = err.Error()
	}
	ev.emit(TraceRunEnd, &span, data)
	return err
}

func (ev *evaluator) executeBlock(stmts []ast.Stmt, env *Env) error {
	for _, stmt := range stmts {
		span := stmt.NodeSpan()
		ev.emit(TraceStmtStart, &span, map[string]string{"kind": stmt.Kind()})

		var err error
		switch s := stmt.(type) {
		case *ast.VarDecl:
			err = ev.execDecl(s, env)
		case *ast.AssignStmt:
			err = ev.execAssign(s, env)
		case *ast.PrintStmt:
			err = ev.execPrint(s, env)
		case *ast.ExprStmt:
			_, err = ev.evalExpr(s.Expr, env)
		case *ast.IfStmt:
			err = ev.execIf(s, env)
		default:
			err = runtimeErr(diagnostics.EType, fmt.Sprintf("unsupported statement %s", stmt.Kind()), span)
		}
		if err != nil {
			return err
		}

		ev.emit(TraceStmtEnd, &span, nil)
	}
	return nil
}

func (ev *evaluator) execDecl(s *ast.VarDecl, env *Env) error {
	var val Value
	if s.Init != nil {
		v, err := ev.evalExpr(s.Init, env)
		if err != nil {
			return err
		}
		val, err = ev.conform(v, s.Type, s.Init, s.Name)
		if err != nil {
			return err
		}
	}
	if env.HasLocal(s.Name) {
		return runtimeErr(diagnostics.ERedeclaration,
			fmt.Sprintf("variable '%s' is already declared in this scope", s.Name), s.NameSpan)
	}
	env.Declare(s.Name, val, s.Modifier == ast.ModConst, s.Type)
	return nil
}

func (ev *evaluator) execAssign(s *ast.AssignStmt, env *Env) error {
	name := s.Target.Name
	b := env.lookup(name)
	if b == nil {
		return runtimeErr(diagnostics.EUndefined, fmt.Sprintf("undefined variable '%s'", name), s.Target.Span)
	}
	if b.constant {
		return runtimeErr(diagnostics.EImmutable, fmt.Sprintf("cannot assign to constant '%s'", name), s.Span)
	}
	v, err := ev.evalExpr(s.Value, env)
	if err != nil {
		return err
	}
	v, err = ev.conform(v, b.declared, s.Value, name)
	if err != nil {
		return err
	}
	b.value = v
	b.initialized = true
	return nil
}

// conform checks v against a declared type. Text read by readInput is
// converted when the declared type asks for a number or a boolean.
func (ev *evaluator) conform(v Value, declared ast.TypeName, src ast.Expr, name string) (Value, error) {
	if declared == ast.TypeNone || TypeOf(v) == declared {
		return v, nil
	}
	if _, fromInput := src.(*ast.ReadInputExpr); fromInput {
		text := Text(v)
		switch declared {
		case ast.TypeNumber:
			if n, err := strconv.ParseFloat(text, 64); err == nil {
				return NewNumber(n), nil
			}
		case ast.TypeBoolean:
			if b, err := strconv.ParseBool(text); err == nil {
				return NewBool(b), nil
			}
		}
		return nil, runtimeErr(diagnostics.EType,
			fmt.Sprintf("input %q is not a valid %s for '%s'", text, declared, name), src.NodeSpan())
	}
	return nil, runtimeErr(diagnostics.EType,
		fmt.Sprintf("cannot use %s value as %s for '%s'", TypeOf(v), declared, name), src.NodeSpan())
}

func (ev *evaluator) execPrint(s *ast.PrintStmt, env *Env) error {
	v, err := ev.evalExpr(s.Arg, env)
	if err != nil {
		return err
	}
	text := Text(v)
	span := s.Span
	ev.emit(TracePrint, &span, map[string]string{"text": text})
	if ev.opts.Output == nil {
		return nil
	}
	if err := ev.opts.Output.Write(text); err != nil {
		return runtimeErr(diagnostics.EIO, fmt.Sprintf("print failed: %v", err), s.Span)
	}
	return nil
}

func (ev *evaluator) execIf(s *ast.IfStmt, env *Env) error {
	cond, err := ev.evalExpr(s.Cond, env)
	if err != nil {
		return err
	}
	b, ok := cond.(Bool)
	if !ok {
		return runtimeErr(diagnostics.EType,
			fmt.Sprintf("condition must be boolean, got %s", TypeOf(cond)), s.Cond.NodeSpan())
	}
	branch := s.Then
	if !b.Value {
		branch = s.Else
	}
	if branch == nil {
		return nil
	}

	span := branch.Span
	ev.emit(TraceScopePush, &span, nil)
	err = ev.executeBlock(branch.Statements, env.Child())
	ev.emit(TraceScopePop, &span, nil)
	return err
}

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return NewNumber(e.Value), nil
	case *ast.StringLiteral:
		return NewString(e.Value), nil
	case *ast.BoolLiteral:
		return NewBool(e.Value), nil
	case *ast.Identifier:
		return ev.evalIdent(e, env)
	case *ast.BinaryExpr:
		return ev.evalBinaryOp(e, env)
	case *ast.ReadInputExpr:
		return ev.evalReadInput(e, env)
	default:
		return nil, runtimeErr(diagnostics.EType, fmt.Sprintf("unsupported expression %s", expr.Kind()), expr.NodeSpan())
	}
}

func (ev *evaluator) evalIdent(e *ast.Identifier, env *Env) (Value, error) {
	b := env.lookup(e.Name)
	if b == nil {
		return nil, runtimeErr(diagnostics.EUndefined, fmt.Sprintf("undefined variable '%s'", e.Name), e.Span)
	}
	if !b.initialized {
		return nil, runtimeErr(diagnostics.EUndefined, fmt.Sprintf("variable '%s' is not initialized", e.Name), e.Span)
	}
	return b.value, nil
}

func (ev *evaluator) evalReadInput(e *ast.ReadInputExpr, env *Env) (Value, error) {
	p, err := ev.evalExpr(e.Prompt, env)
	if err != nil {
		return nil, err
	}
	prompt := Text(p)
	if ev.opts.Input == nil {
		return nil, runtimeErr(diagnostics.EIO, "readInput: no input source", e.Span)
	}
	line, err := ev.opts.Input.Read(prompt)
	if err != nil {
		return nil, runtimeErr(diagnostics.EIO, fmt.Sprintf("readInput: %v", err), e.Span)
	}
	span := e.Span
	ev.emit(TraceReadInput, &span, map[string]string{"prompt": prompt})
	return NewString(line), nil
}

func (ev *evaluator) evalBinaryOp(e *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	span := e.Span

	switch e.Op {
	case ast.OpAdd:
		lNum, lOk := left.(Number)
		rNum, rOk := right.(Number)
		if lOk && rOk {
			return NewNumber(lNum.Value + rNum.Value), nil
		}
		_, lStr := left.(String)
		_, rStr := right.(String)
		if lStr || rStr {
			return NewString(Text(left) + Text(right)), nil
		}
		return nil, runtimeErr(diagnostics.EType,
			fmt.Sprintf("operator '+' cannot combine %s and %s", TypeOf(left), TypeOf(right)), span)

	case ast.OpSub, ast.OpMul, ast.OpDiv:
		lNum, lOk := left.(Number)
		rNum, rOk := right.(Number)
		if !lOk || !rOk {
			return nil, runtimeErr(diagnostics.EType,
				fmt.Sprintf("operator '%s' requires two numbers, got %s and %s", e.Op, TypeOf(left), TypeOf(right)), span)
		}
		switch e.Op {
		case ast.OpSub:
			return NewNumber(lNum.Value - rNum.Value), nil
		case ast.OpMul:
			return NewNumber(lNum.Value * rNum.Value), nil
		default:
			if rNum.Value == 0 {
				return nil, runtimeErr(diagnostics.EArithmetic, "division by zero", span)
			}
			return NewNumber(lNum.Value / rNum.Value), nil
		}

	case ast.OpEqEq, ast.OpNeq:
		if TypeOf(left) != TypeOf(right) {
			return nil, runtimeErr(diagnostics.EType,
				fmt.Sprintf("operator '%s' cannot compare %s and %s", e.Op, TypeOf(left), TypeOf(right)), span)
		}
		eq := Equal(left, right)
		if e.Op == ast.OpNeq {
			eq = !eq
		}
		return NewBool(eq), nil

	case ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq:
		if lNum, ok := left.(Number); ok {
			if rNum, ok := right.(Number); ok {
				return NewBool(compare(e.Op, cmpFloat(lNum.Value, rNum.Value))), nil
			}
		}
		if lStr, ok := left.(String); ok {
			if rStr, ok := right.(String); ok {
				return NewBool(compare(e.Op, cmpString(lStr.Value, rStr.Value))), nil
			}
		}
		return nil, runtimeErr(diagnostics.EType,
			fmt.Sprintf("operator '%s' requires two numbers or two strings, got %s and %s", e.Op, TypeOf(left), TypeOf(right)), span)
	}

	return nil, runtimeErr(diagnostics.EType, fmt.Sprintf("unknown operator '%s'", e.Op), span)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compare(op ast.BinaryOp, c int) bool {
	switch op {
	case ast.OpGt:
		return c > 0
	case ast.OpLt:
		return c < 0
	case ast.OpGtEq:
		return c >= 0
	default:
		return c <= 0
	}
}
