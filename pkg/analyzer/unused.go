package analyzer

import (
	"fmt"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

type declInfo struct {
	name string
	span ast.Span
	used bool
}

type scope struct {
	decls  []*declInfo
	byName map[string]*declInfo
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{byName: make(map[string]*declInfo), parent: parent}
}

func (s *scope) add(d *declInfo) {
	s.decls = append(s.decls, d)
	s.byName[d.name] = d
}

// markUsed flags the innermost declaration of name as read.
func (s *scope) markUsed(name string) {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.byName[name]; ok {
			d.used = true
			return
		}
	}
}

// unusedCheck reports variables that are declared but never read. An
// assignment alone does not count as a use.
type unusedCheck struct{}

func (unusedCheck) Name() string { return "unused-variable" }

func (unusedCheck) Enabled(cfg config.Analyzer) bool { return cfg.UnusedVariables }

func (c unusedCheck) Run(program *ast.Program, _ config.Analyzer, report func(diagnostics.Diagnostic)) {
	c.block(program.Statements, newScope(nil), report)
}

func (c unusedCheck) block(stmts []ast.Stmt, sc *scope, report func(diagnostics.Diagnostic)) {
	for _, s := range stmts {
		switch stmt := s.(type) {
		case *ast.VarDecl:
			c.reads(stmt.Init, sc)
			sc.add(&declInfo{name: stmt.Name, span: stmt.NameSpan})
		case *ast.AssignStmt:
			c.reads(stmt.Value, sc)
		case *ast.PrintStmt:
			c.reads(stmt.Arg, sc)
		case *ast.ExprStmt:
			c.reads(stmt.Expr, sc)
		case *ast.IfStmt:
			c.reads(stmt.Cond, sc)
			c.block(stmt.Then.Statements, newScope(sc), report)
			if stmt.Else != nil {
				c.block(stmt.Else.Statements, newScope(sc), report)
			}
		}
	}
	for _, d := range sc.decls {
		if !d.used {
			report(diagnostics.MakeWarning(diagnostics.LUnused,
				fmt.Sprintf("variable '%s' is declared but never used", d.name),
				spanPtr(d.span), ""))
		}
	}
}

func (c unusedCheck) reads(e ast.Expr, sc *scope) {
	walkExpr(e, func(e ast.Expr) {
		if id, ok := e.(*ast.Identifier); ok {
			sc.markUsed(id.Name)
		}
	})
}
