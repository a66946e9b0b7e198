// Package parser implements the PrintScript parser.
//
// Parsing is ordered rule matching. At each cursor position the statement
// rules of the active dialect are consulted in priority order (print,
// declaration, assignment, conditional, expression); the first rule whose
// matcher reports success has its extent handed to the rule's builder,
// which constructs the AST node by recursive descent. There is no error
// recovery: the first position no rule can claim ends the parse.
package parser

import (
	"fmt"
	"strconv"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/dialect"
	"github.com/printscript-lang/printscript/pkg/lexer"
)

// ParseError wraps a diagnostic for parse errors.
type ParseError struct {
	Diag   diagnostics.Diagnostic
	Offset int
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

func newParseError(msg string, span ast.Span) *ParseError {
	s := span
	return &ParseError{
		Diag:   diagnostics.MakeDiag(diagnostics.EParse, msg, &s, ""),
		Offset: span.Offset,
	}
}

// ParseSource tokenizes source and parses it into an AST.
func ParseSource(source, filename string, d dialect.Dialect) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename, d)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	prog, err := Parse(tokens, d)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			return nil, []diagnostics.Diagnostic{pe.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")}
	}
	return prog, nil
}

// Parse turns a token sequence, as produced by lexer.Tokenize, into a
// program. The sequence must end with TokEOF.
func Parse(tokens []lexer.Token, d dialect.Dialect) (*ast.Program, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		return nil, newParseError("token sequence is not terminated", tokenSpanOrZero(tokens))
	}
	m := &RuleMatcher{rules: StatementRules(d)}
	stmts, err := m.statements(tokens)
	if err != nil {
		return nil, err
	}
	return &ast.Program{
		Span:       spanFromTo(tokens[0].Span, tokens[len(tokens)-1].Span),
		Statements: stmts,
	}, nil
}

// RuleMatcher applies an ordered rule list to a token sequence.
type RuleMatcher struct {
	rules []Rule
}

// NewRuleMatcher returns a matcher over the statement rules of d.
func NewRuleMatcher(d dialect.Dialect) *RuleMatcher {
	return &RuleMatcher{rules: StatementRules(d)}
}

// Match consults the rules at pos and returns the winning rule together with
// its outcome. When no rule succeeds, the returned outcome is the most
// informative failure: the one that got furthest past pos.
func (m *RuleMatcher) Match(tokens []lexer.Token, pos int) (*Rule, Outcome) {
	var best Outcome
	found := false
	for i := range m.rules {
		o := m.rules[i].Match(tokens, pos)
		if o.Success {
			return &m.rules[i], o
		}
		if o.Pos > pos && (!found || o.Pos > best.Pos) {
			best = o
			found = true
		}
	}
	if !found {
		return nil, failure(pos, "unexpected %s, expected a statement", describe(tokens[pos]))
	}
	return nil, best
}

func (m *RuleMatcher) statements(tokens []lexer.Token) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	pos := 0
	for tokens[pos].Type != lexer.TokEOF {
		rule, o := m.Match(tokens, pos)
		if rule == nil {
			return nil, newParseError(o.Message, tokenSpan(tokens, o.Pos))
		}
		b := newBuilder(m, tokens[pos:o.Next])
		stmt := rule.Build(b)
		if b.err != nil {
			return nil, b.err
		}
		if b.current().Type != lexer.TokEOF {
			tok := b.current()
			return nil, newParseError(fmt.Sprintf("unexpected %s in %s statement", describe(tok), rule.Name), tok.Span)
		}
		stmts = append(stmts, stmt)
		pos = o.Next
	}
	return stmts, nil
}

// builder constructs one statement from the token extent a rule matched.
// The extent is closed with a synthetic EOF token.
type builder struct {
	m      *RuleMatcher
	tokens []lexer.Token
	pos    int
	err    *ParseError
}

func newBuilder(m *RuleMatcher, extent []lexer.Token) *builder {
	tokens := make([]lexer.Token, len(extent), len(extent)+1)
	copy(tokens, extent)
	last := extent[len(extent)-1].Span
	eof := ast.Span{
		File: last.File, Offset: last.Offset + (last.EndCol - last.StartCol),
		StartLine: last.EndLine, StartCol: last.EndCol, EndLine: last.EndLine, EndCol: last.EndCol,
	}
	tokens = append(tokens, lexer.Token{Type: lexer.TokEOF, Span: eof})
	return &builder{m: m, tokens: tokens}
}

func (b *builder) current() lexer.Token {
	if b.pos >= len(b.tokens) {
		return b.tokens[len(b.tokens)-1]
	}
	return b.tokens[b.pos]
}

func (b *builder) peek() lexer.TokenType {
	return b.current().Type
}

func (b *builder) advance() lexer.Token {
	tok := b.current()
	if b.pos < len(b.tokens)-1 {
		b.pos++
	}
	return tok
}

func (b *builder) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := b.current()
	if tok.Type != typ {
		b.fail(fmt.Sprintf("expected %s, got %s", typ, describe(tok)), tok.Span)
		return tok, false
	}
	return b.advance(), true
}

// fail records the first error only.
func (b *builder) fail(msg string, span ast.Span) {
	if b.err == nil {
		b.err = newParseError(msg, span)
	}
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		Offset:    start.Offset,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func tokenSpanOrZero(tokens []lexer.Token) ast.Span {
	if len(tokens) == 0 {
		return ast.Span{}
	}
	return tokens[len(tokens)-1].Span
}

// --- Statements ---

func (b *builder) buildPrint() ast.Stmt {
	start := b.advance() // consume 'println'
	if _, ok := b.expect(lexer.TokLParen); !ok {
		return nil
	}
	arg := b.parseExpr()
	if arg == nil {
		return nil
	}
	if _, ok := b.expect(lexer.TokRParen); !ok {
		return nil
	}
	end, ok := b.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.PrintStmt{Span: spanFromTo(start.Span, end.Span), Arg: arg}
}

func (b *builder) buildDeclaration() ast.Stmt {
	start := b.advance() // consume modifier
	nameTok, ok := b.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	decl := &ast.VarDecl{
		Modifier: ast.Modifier(start.Value),
		Name:     nameTok.Value,
		NameSpan: nameTok.Span,
	}

	if b.peek() == lexer.TokColon {
		b.advance()
		switch tok := b.advance(); tok.Type {
		case lexer.TokNumberType:
			decl.Type = ast.TypeNumber
		case lexer.TokStringType:
			decl.Type = ast.TypeString
		case lexer.TokBooleanType:
			decl.Type = ast.TypeBoolean
		default:
			b.fail(fmt.Sprintf("expected a type after ':', got %s", describe(tok)), tok.Span)
			return nil
		}
	}

	if b.peek() == lexer.TokEquals {
		b.advance()
		decl.Init = b.parseExpr()
		if decl.Init == nil {
			return nil
		}
	} else if decl.Modifier == ast.ModConst {
		tok := b.current()
		b.fail(fmt.Sprintf("const declaration of '%s' requires an initializer", decl.Name), tok.Span)
		return nil
	}

	end, ok := b.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	decl.Span = spanFromTo(start.Span, end.Span)
	return decl
}

func (b *builder) buildAssignment() ast.Stmt {
	nameTok := b.advance()
	b.advance() // consume '='
	value := b.parseExpr()
	if value == nil {
		return nil
	}
	end, ok := b.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.AssignStmt{
		Span:   spanFromTo(nameTok.Span, end.Span),
		Target: &ast.Identifier{Span: nameTok.Span, Name: nameTok.Value},
		Value:  value,
	}
}

func (b *builder) buildExprStmt() ast.Stmt {
	start := b.current()
	expr := b.parseExpr()
	if expr == nil {
		return nil
	}
	end, ok := b.expect(lexer.TokSemicolon)
	if !ok {
		return nil
	}
	return &ast.ExprStmt{Span: spanFromTo(start.Span, end.Span), Expr: expr}
}

func (b *builder) buildConditional() ast.Stmt {
	start := b.advance() // consume 'if'
	if _, ok := b.expect(lexer.TokLParen); !ok {
		return nil
	}
	cond := b.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := b.expect(lexer.TokRParen); !ok {
		return nil
	}
	then := b.parseBlock()
	if then == nil {
		return nil
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	end := then.Span
	if b.peek() == lexer.TokElse {
		b.advance()
		stmt.Else = b.parseBlock()
		if stmt.Else == nil {
			return nil
		}
		end = stmt.Else.Span
	}
	stmt.Span = spanFromTo(start.Span, end)
	return stmt
}

// parseBlock parses { statements } by running the rule matcher over the
// brace-delimited body.
func (b *builder) parseBlock() *ast.Block {
	open, ok := b.expect(lexer.TokLBrace)
	if !ok {
		return nil
	}
	bodyStart := b.pos
	depth := 1
	for depth > 0 {
		switch b.peek() {
		case lexer.TokLBrace:
			depth++
		case lexer.TokRBrace:
			depth--
		case lexer.TokEOF:
			b.fail("expected '}' to close block", open.Span)
			return nil
		}
		if depth > 0 {
			b.advance()
		}
	}
	bodyEnd := b.pos
	closeTok := b.advance()

	body := make([]lexer.Token, 0, bodyEnd-bodyStart+1)
	body = append(body, b.tokens[bodyStart:bodyEnd]...)
	body = append(body, lexer.Token{Type: lexer.TokEOF, Span: closeTok.Span})

	stmts, err := b.m.statements(body)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			b.err = pe
		} else {
			b.fail(err.Error(), open.Span)
		}
		return nil
	}
	return &ast.Block{Span: spanFromTo(open.Span, closeTok.Span), Statements: stmts}
}

// --- Expressions ---
//
// Precedence, loosest first: comparison, additive, multiplicative, primary.

func (b *builder) parseExpr() ast.Expr {
	return b.parseComparison()
}

func (b *builder) parseComparison() ast.Expr {
	left := b.parseAdditive()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch b.peek() {
		case lexer.TokGt:
			op = ast.OpGt
		case lexer.TokLt:
			op = ast.OpLt
		case lexer.TokGtEq:
			op = ast.OpGtEq
		case lexer.TokLtEq:
			op = ast.OpLtEq
		case lexer.TokEqEq:
			op = ast.OpEqEq
		case lexer.TokBangEq:
			op = ast.OpNeq
		default:
			return left
		}
		b.advance()
		right := b.parseAdditive()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (b *builder) parseAdditive() ast.Expr {
	left := b.parseMultiplicative()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch b.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left
		}
		b.advance()
		right := b.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (b *builder) parseMultiplicative() ast.Expr {
	left := b.parsePrimary()
	if left == nil {
		return nil
	}

	for {
		var op ast.BinaryOp
		switch b.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		default:
			return left
		}
		b.advance()
		right := b.parsePrimary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (b *builder) parsePrimary() ast.Expr {
	switch b.peek() {
	case lexer.TokLParen:
		b.advance()
		expr := b.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := b.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokNumberLit:
		tok := b.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			b.fail(fmt.Sprintf("invalid number literal '%s'", tok.Value), tok.Span)
			return nil
		}
		return &ast.NumberLiteral{Span: tok.Span, Value: val, Raw: tok.Value}

	case lexer.TokStringLit:
		tok := b.advance()
		return &ast.StringLiteral{Span: tok.Span, Value: lexer.Unquote(tok.Value), Raw: tok.Value}

	case lexer.TokBoolLit:
		tok := b.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: tok.Value == "true"}

	case lexer.TokIdent:
		tok := b.advance()
		return &ast.Identifier{Span: tok.Span, Name: tok.Value}

	case lexer.TokReadInput:
		start := b.advance()
		if _, ok := b.expect(lexer.TokLParen); !ok {
			return nil
		}
		prompt := b.parseExpr()
		if prompt == nil {
			return nil
		}
		end, ok := b.expect(lexer.TokRParen)
		if !ok {
			return nil
		}
		return &ast.ReadInputExpr{Span: spanFromTo(start.Span, end.Span), Prompt: prompt}

	default:
		tok := b.current()
		b.fail(fmt.Sprintf("unexpected %s, expected an expression", describe(tok)), tok.Span)
		return nil
	}
}
