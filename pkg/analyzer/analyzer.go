// Package analyzer implements the PrintScript linter.
//
// Each check walks the whole program and reports findings as diagnostics;
// style violations never make Analyze fail. After all checks have run the
// severity policy is applied (warnings dropped or promoted to errors) and
// the list is truncated to the configured maximum.
package analyzer

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
)

// Check is one independently enabled lint rule.
type Check interface {
	Name() string
	Enabled(cfg config.Analyzer) bool
	Run(program *ast.Program, cfg config.Analyzer, report func(diagnostics.Diagnostic))
}

// Checks returns every available check, in reporting order.
func Checks() []Check {
	return []Check{
		namingCheck{},
		printArgCheck{},
		readInputArgCheck{},
		unusedCheck{},
	}
}

// Analyze runs the enabled checks over program.
func Analyze(program *ast.Program, cfg config.Analyzer) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	report := func(d diagnostics.Diagnostic) {
		diags = append(diags, d)
	}
	for _, c := range Checks() {
		if c.Enabled(cfg) {
			c.Run(program, cfg, report)
		}
	}

	sort.SliceStable(diags, func(i, j int) bool {
		return before(diags[i].Span, diags[j].Span)
	})
	return applyPolicy(diags, cfg)
}

// applyPolicy drops or promotes warnings, then caps the list. The cap
// bounds output only; every check has already walked the full program.
func applyPolicy(diags []diagnostics.Diagnostic, cfg config.Analyzer) []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityWarning {
			if cfg.StrictMode {
				d.Severity = diagnostics.SeverityError
			} else if !cfg.WarningsEnabled {
				continue
			}
		}
		out = append(out, d)
	}
	if cfg.MaxDiagnostics > 0 && len(out) > cfg.MaxDiagnostics {
		out = out[:cfg.MaxDiagnostics]
	}
	return out
}

func before(a, b *ast.Span) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	return a.StartCol < b.StartCol
}

func spanPtr(s ast.Span) *ast.Span { return &s }

// --- naming ---

var namingPatterns = map[config.NamingStyle]*regexp.Regexp{
	config.CamelCase: regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`),
	config.SnakeCase: regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`),
}

type namingCheck struct{}

func (namingCheck) Name() string { return "naming" }

func (namingCheck) Enabled(cfg config.Analyzer) bool { return cfg.NamingEnabled }

func (namingCheck) Run(program *ast.Program, cfg config.Analyzer, report func(diagnostics.Diagnostic)) {
	style := cfg.Naming
	if style == "" {
		style = config.CamelCase
	}
	re := namingPatterns[style]
	if re == nil {
		return
	}
	walkStmts(program.Statements, func(s ast.Stmt) {
		decl, ok := s.(*ast.VarDecl)
		if !ok || re.MatchString(decl.Name) {
			return
		}
		report(diagnostics.MakeWarning(diagnostics.LNaming,
			fmt.Sprintf("identifier '%s' does not follow %s", decl.Name, style),
			spanPtr(decl.NameSpan), ""))
	}, nil)
}

// --- println argument ---

type printArgCheck struct{}

func (printArgCheck) Name() string { return "println-argument" }

func (printArgCheck) Enabled(cfg config.Analyzer) bool { return cfg.PrintlnRestriction }

func (printArgCheck) Run(program *ast.Program, _ config.Analyzer, report func(diagnostics.Diagnostic)) {
	walkStmts(program.Statements, func(s ast.Stmt) {
		ps, ok := s.(*ast.PrintStmt)
		if !ok || isSimple(ps.Arg) {
			return
		}
		report(diagnostics.MakeDiag(diagnostics.LPrintArg,
			"println argument must be a literal or an identifier",
			spanPtr(ps.Arg.NodeSpan()), "assign the expression to a variable first"))
	}, nil)
}

// --- readInput argument ---

type readInputArgCheck struct{}

func (readInputArgCheck) Name() string { return "readInput-argument" }

func (readInputArgCheck) Enabled(cfg config.Analyzer) bool { return cfg.ReadInputRestriction }

func (readInputArgCheck) Run(program *ast.Program, _ config.Analyzer, report func(diagnostics.Diagnostic)) {
	walkStmts(program.Statements, nil, func(e ast.Expr) {
		ri, ok := e.(*ast.ReadInputExpr)
		if !ok || isSimple(ri.Prompt) {
			return
		}
		report(diagnostics.MakeDiag(diagnostics.LReadInputArg,
			"readInput argument must be a literal or an identifier",
			spanPtr(ri.Prompt.NodeSpan()), "assign the prompt to a variable first"))
	})
}

func isSimple(e ast.Expr) bool {
	switch e.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.Identifier:
		return true
	}
	return false
}

// --- walking ---

// walkStmts visits every statement and expression in source order. Either
// callback may be nil.
func walkStmts(stmts []ast.Stmt, onStmt func(ast.Stmt), onExpr func(ast.Expr)) {
	for _, s := range stmts {
		if onStmt != nil {
			onStmt(s)
		}
		switch stmt := s.(type) {
		case *ast.VarDecl:
			walkExpr(stmt.Init, onExpr)
		case *ast.AssignStmt:
			walkExpr(stmt.Value, onExpr)
		case *ast.PrintStmt:
			walkExpr(stmt.Arg, onExpr)
		case *ast.ExprStmt:
			walkExpr(stmt.Expr, onExpr)
		case *ast.IfStmt:
			walkExpr(stmt.Cond, onExpr)
			walkStmts(stmt.Then.Statements, onStmt, onExpr)
			if stmt.Else != nil {
				walkStmts(stmt.Else.Statements, onStmt, onExpr)
			}
		}
	}
}

func walkExpr(e ast.Expr, onExpr func(ast.Expr)) {
	if e == nil || onExpr == nil {
		return
	}
	onExpr(e)
	switch expr := e.(type) {
	case *ast.BinaryExpr:
		walkExpr(expr.Left, onExpr)
		walkExpr(expr.Right, onExpr)
	case *ast.ReadInputExpr:
		walkExpr(expr.Prompt, onExpr)
	}
}
