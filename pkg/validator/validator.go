// Package validator implements static semantic validation of PrintScript
// programs. It reports, without running the program, the errors execution
// would be certain to hit: undefined and redeclared variables, assignments
// to constants and type mismatches between statically known types.
package validator

import (
	"fmt"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

type binding struct {
	typ      ast.TypeName // TypeNone when untyped
	constant bool
}

type scope struct {
	bindings map[string]binding
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]binding), parent: parent}
}

func (s *scope) lookup(name string) (binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.bindings[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (s *scope) add(name string, b binding) {
	s.bindings[name] = b
}

func (s *scope) hasLocal(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate performs semantic analysis on a program and returns diagnostics
// in source order.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	v.validateStatements(program.Statements, newScope(nil))
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Init != nil {
			v.conform(s.Name, s.Type, v.validateExpr(s.Init, sc), s.Init)
		}
		if sc.hasLocal(s.Name) {
			v.addDiag(diagnostics.ERedeclaration,
				fmt.Sprintf("variable '%s' is already declared in this scope", s.Name), s.NameSpan)
			return
		}
		sc.add(s.Name, binding{typ: s.Type, constant: s.Modifier == ast.ModConst})

	case *ast.AssignStmt:
		name := s.Target.Name
		b, ok := sc.lookup(name)
		if !ok {
			v.addDiag(diagnostics.EUndefined, fmt.Sprintf("undefined variable '%s'", name), s.Target.Span)
			v.validateExpr(s.Value, sc)
			return
		}
		if b.constant {
			v.addDiag(diagnostics.EImmutable, fmt.Sprintf("cannot assign to constant '%s'", name), s.Span)
		}
		v.conform(name, b.typ, v.validateExpr(s.Value, sc), s.Value)

	case *ast.PrintStmt:
		v.validateExpr(s.Arg, sc)

	case *ast.ExprStmt:
		v.validateExpr(s.Expr, sc)

	case *ast.IfStmt:
		if t := v.validateExpr(s.Cond, sc); t != ast.TypeNone && t != ast.TypeBoolean {
			v.addDiag(diagnostics.EType, fmt.Sprintf("condition must be boolean, got %s", t), s.Cond.NodeSpan())
		}
		v.validateStatements(s.Then.Statements, newScope(sc))
		if s.Else != nil {
			v.validateStatements(s.Else.Statements, newScope(sc))
		}
	}
}

// conform reports a value of static type got stored in a variable declared
// as want. readInput results are converted at run time and never conflict.
func (v *validator) conform(name string, want, got ast.TypeName, src ast.Expr) {
	if want == ast.TypeNone || got == ast.TypeNone || want == got {
		return
	}
	v.addDiag(diagnostics.EType,
		fmt.Sprintf("cannot use %s value as %s for '%s'", got, want, name), src.NodeSpan())
}

// validateExpr checks expr and returns its static type, or TypeNone when
// the type is only known at run time.
func (v *validator) validateExpr(expr ast.Expr, sc *scope) ast.TypeName {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return ast.TypeNumber
	case *ast.StringLiteral:
		return ast.TypeString
	case *ast.BoolLiteral:
		return ast.TypeBoolean

	case *ast.Identifier:
		b, ok := sc.lookup(e.Name)
		if !ok {
			v.addDiag(diagnostics.EUndefined, fmt.Sprintf("undefined variable '%s'", e.Name), e.Span)
			return ast.TypeNone
		}
		return b.typ

	case *ast.ReadInputExpr:
		v.validateExpr(e.Prompt, sc)
		return ast.TypeNone

	case *ast.BinaryExpr:
		return v.validateBinary(e, sc)
	}
	return ast.TypeNone
}

func (v *validator) validateBinary(e *ast.BinaryExpr, sc *scope) ast.TypeName {
	left := v.validateExpr(e.Left, sc)
	right := v.validateExpr(e.Right, sc)
	known := left != ast.TypeNone && right != ast.TypeNone

	switch e.Op {
	case ast.OpAdd:
		if left == ast.TypeString || right == ast.TypeString {
			return ast.TypeString
		}
		if !known {
			return ast.TypeNone
		}
		if left != ast.TypeNumber || right != ast.TypeNumber {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("operator '+' cannot combine %s and %s", left, right), e.Span)
			return ast.TypeNone
		}
		return ast.TypeNumber

	case ast.OpSub, ast.OpMul, ast.OpDiv:
		if (left != ast.TypeNone && left != ast.TypeNumber) || (right != ast.TypeNone && right != ast.TypeNumber) {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("operator '%s' requires two numbers, got %s and %s", e.Op, typeText(left), typeText(right)), e.Span)
		}
		if lit, ok := e.Right.(*ast.NumberLiteral); ok && e.Op == ast.OpDiv && lit.Value == 0 {
			v.addDiag(diagnostics.EArithmetic, "division by zero", e.Span)
		}
		return ast.TypeNumber

	case ast.OpEqEq, ast.OpNeq:
		if known && left != right {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("operator '%s' cannot compare %s and %s", e.Op, left, right), e.Span)
		}
		return ast.TypeBoolean

	default:
		if known && (left != right || left == ast.TypeBoolean) {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("operator '%s' requires two numbers or two strings, got %s and %s", e.Op, left, right), e.Span)
		}
		return ast.TypeBoolean
	}
}

func typeText(t ast.TypeName) string {
	if t == ast.TypeNone {
		return "unknown"
	}
	return string(t)
}
