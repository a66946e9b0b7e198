// Package formatter implements the PrintScript source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/config"
)

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpEqEq: 1, ast.OpNeq: 1,
	ast.OpGt: 1, ast.OpLt: 1, ast.OpGtEq: 1, ast.OpLtEq: 1,
	ast.OpAdd: 2, ast.OpSub: 2,
	ast.OpMul: 3, ast.OpDiv: 3,
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	bin, ok := child.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	childPrec := precedence[bin.Op]
	parentPrec := precedence[parentOp]
	if childPrec < parentPrec {
		return true
	}
	// Operators are left-associative: same precedence on the right keeps its parens
	if childPrec == parentPrec && isRight {
		return true
	}
	return false
}

type printer struct {
	cfg config.Format
}

// Format renders a program back to source text under cfg. The result never
// ends in a line break, and formatting it again yields the same text.
func Format(program *ast.Program, cfg config.Format) string {
	p := printer{cfg: cfg}
	var b strings.Builder
	p.writeStmts(&b, program.Statements, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (p printer) indent(depth int) string {
	return strings.Repeat(" ", p.cfg.IndentSize*depth)
}

// writeStmts separates consecutive statements with one line break, or with
// the configured extra blank lines before a println.
func (p printer) writeStmts(b *strings.Builder, stmts []ast.Stmt, depth int) {
	for i, s := range stmts {
		if i > 0 {
			b.WriteString("\n")
			if _, isPrint := s.(*ast.PrintStmt); isPrint {
				b.WriteString(strings.Repeat("\n", p.cfg.LineBreaksBeforePrint))
			}
		}
		b.WriteString(p.indent(depth))
		p.writeStmt(b, s, depth)
	}
}

func (p printer) writeStmt(b *strings.Builder, s ast.Stmt, depth int) {
	switch stmt := s.(type) {
	case *ast.VarDecl:
		b.WriteString(string(stmt.Modifier) + " " + stmt.Name)
		if stmt.Type != ast.TypeNone {
			b.WriteString(p.colon() + string(stmt.Type))
		}
		if stmt.Init != nil {
			b.WriteString(p.assign() + p.expr(stmt.Init))
		}
		b.WriteString(";")
	case *ast.AssignStmt:
		b.WriteString(stmt.Target.Name + p.assign() + p.expr(stmt.Value) + ";")
	case *ast.PrintStmt:
		b.WriteString("println" + p.parens(p.expr(stmt.Arg)) + ";")
	case *ast.ExprStmt:
		b.WriteString(p.expr(stmt.Expr) + ";")
	case *ast.IfStmt:
		b.WriteString("if " + p.parens(p.expr(stmt.Cond)))
		p.writeBlock(b, stmt.Then, depth)
		if stmt.Else != nil {
			if p.cfg.BraceOnSameLine {
				b.WriteString(" else")
			} else {
				b.WriteString("\n" + p.indent(depth) + "else")
			}
			p.writeBlock(b, stmt.Else, depth)
		}
	}
}

func (p printer) writeBlock(b *strings.Builder, block *ast.Block, depth int) {
	if p.cfg.BraceOnSameLine {
		b.WriteString(" {")
	} else {
		b.WriteString("\n" + p.indent(depth) + "{")
	}
	if len(block.Statements) > 0 {
		b.WriteString("\n")
		p.writeStmts(b, block.Statements, depth+1)
	}
	b.WriteString("\n" + p.indent(depth) + "}")
}

func (p printer) colon() string {
	s := ":"
	if p.cfg.SpaceBeforeColon {
		s = " " + s
	}
	if p.cfg.SpaceAfterColon {
		s += " "
	}
	return s
}

func (p printer) assign() string {
	if p.cfg.SpaceAroundAssignment {
		return " = "
	}
	return "="
}

func (p printer) parens(inner string) string {
	if p.cfg.SpaceInsideParens {
		return "( " + inner + " )"
	}
	return "(" + inner + ")"
}

func (p printer) expr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumberLiteral:
		if expr.Raw != "" {
			return expr.Raw
		}
		return strconv.FormatFloat(expr.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		if expr.Raw != "" {
			return expr.Raw
		}
		return strconv.Quote(expr.Value)
	case *ast.BoolLiteral:
		return strconv.FormatBool(expr.Value)
	case *ast.Identifier:
		return expr.Name
	case *ast.ReadInputExpr:
		return "readInput" + p.parens(p.expr(expr.Prompt))
	case *ast.BinaryExpr:
		leftStr := p.expr(expr.Left)
		rightStr := p.expr(expr.Right)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = p.parens(leftStr)
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = p.parens(rightStr)
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	}
	return ""
}
