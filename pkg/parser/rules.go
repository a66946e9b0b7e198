package parser

import (
	"fmt"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/dialect"
	"github.com/printscript-lang/printscript/pkg/lexer"
)

// Outcome is the result of matching one statement rule at a cursor
// position. On success Next is the index of the first token after the
// statement; on failure Pos and Message locate the problem.
type Outcome struct {
	Success bool
	Next    int
	Pos     int
	Message string
}

// Consumed is the number of tokens a successful match covers.
func (o Outcome) Consumed(start int) int { return o.Next - start }

func success(next int) Outcome { return Outcome{Success: true, Next: next} }

func failure(pos int, format string, args ...any) Outcome {
	return Outcome{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Rule is one statement rule: Match recognizes the token extent of a
// statement and Build turns exactly that extent into an AST node.
type Rule struct {
	Name  string
	Match func(tokens []lexer.Token, pos int) Outcome
	Build func(b *builder) ast.Stmt
}

// StatementRules returns the ordered statement rules of d. Rules are
// consulted top to bottom; the first successful match wins.
func StatementRules(d dialect.Dialect) []Rule {
	rules := []Rule{
		{Name: "print", Match: matchPrint, Build: (*builder).buildPrint},
		{Name: "declaration", Match: matchDeclaration, Build: (*builder).buildDeclaration},
		{Name: "assignment", Match: matchAssignment, Build: (*builder).buildAssignment},
	}
	if d.HasControlFlow() {
		rules = append(rules, Rule{Name: "conditional", Match: matchConditional, Build: (*builder).buildConditional})
	}
	rules = append(rules, Rule{Name: "expression", Match: matchExpression, Build: (*builder).buildExprStmt})
	return rules
}

func matchPrint(tokens []lexer.Token, pos int) Outcome {
	if tokens[pos].Type != lexer.TokPrintln {
		return failure(pos, "expected 'println'")
	}
	return simpleStatement(tokens, pos)
}

func matchDeclaration(tokens []lexer.Token, pos int) Outcome {
	if tokens[pos].Type != lexer.TokModifier {
		return failure(pos, "expected a declaration")
	}
	return simpleStatement(tokens, pos)
}

func matchAssignment(tokens []lexer.Token, pos int) Outcome {
	if tokens[pos].Type != lexer.TokIdent {
		return failure(pos, "expected an identifier")
	}
	if tokens[pos+1].Type != lexer.TokEquals {
		return failure(pos+1, "expected '=' after '%s'", tokens[pos].Value)
	}
	return simpleStatement(tokens, pos)
}

func matchExpression(tokens []lexer.Token, pos int) Outcome {
	if !startsExpression(tokens[pos].Type) {
		return failure(pos, "expected an expression")
	}
	return simpleStatement(tokens, pos)
}

// matchConditional recognizes if (cond) { ... } [else { ... }] by balancing
// parentheses and braces. Statement bodies are matched later by the builder.
func matchConditional(tokens []lexer.Token, pos int) Outcome {
	if tokens[pos].Type != lexer.TokIf {
		return failure(pos, "expected 'if'")
	}
	i := pos + 1
	if tokens[i].Type != lexer.TokLParen {
		return failure(i, "expected '(' after 'if', got %s", describe(tokens[i]))
	}
	i, o := balanced(tokens, i, lexer.TokLParen, lexer.TokRParen)
	if !o.Success {
		return o
	}
	if tokens[i].Type != lexer.TokLBrace {
		return failure(i, "expected '{' after condition, got %s", describe(tokens[i]))
	}
	i, o = balanced(tokens, i, lexer.TokLBrace, lexer.TokRBrace)
	if !o.Success {
		return o
	}
	if tokens[i].Type == lexer.TokElse {
		i++
		if tokens[i].Type != lexer.TokLBrace {
			return failure(i, "expected '{' after 'else', got %s", describe(tokens[i]))
		}
		i, o = balanced(tokens, i, lexer.TokLBrace, lexer.TokRBrace)
		if !o.Success {
			return o
		}
	}
	return success(i)
}

// simpleStatement extends a statement to its terminating ';' at parenthesis
// depth zero. Braces never appear inside a simple statement.
func simpleStatement(tokens []lexer.Token, pos int) Outcome {
	depth := 0
	for i := pos; i < len(tokens); i++ {
		switch tokens[i].Type {
		case lexer.TokLParen:
			depth++
		case lexer.TokRParen:
			depth--
			if depth < 0 {
				return failure(i, "unexpected ')'")
			}
		case lexer.TokSemicolon:
			if depth == 0 {
				return success(i + 1)
			}
		case lexer.TokLBrace, lexer.TokRBrace, lexer.TokEOF:
			return failure(i, "expected ';', got %s", describe(tokens[i]))
		}
	}
	return failure(len(tokens)-1, "expected ';'")
}

// balanced returns the index just past the closer matching the opener at
// tokens[pos].
func balanced(tokens []lexer.Token, pos int, open, close lexer.TokenType) (int, Outcome) {
	depth := 0
	for i := pos; i < len(tokens); i++ {
		switch tokens[i].Type {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i + 1, success(i + 1)
			}
		case lexer.TokEOF:
			return i, failure(i, "expected %s to close %s", close, describe(tokens[pos]))
		}
	}
	return len(tokens) - 1, failure(len(tokens)-1, "expected %s", close)
}

func startsExpression(t lexer.TokenType) bool {
	switch t {
	case lexer.TokNumberLit, lexer.TokStringLit, lexer.TokBoolLit,
		lexer.TokIdent, lexer.TokLParen, lexer.TokReadInput:
		return true
	}
	return false
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// span of the token at index i, for failures reported by matchers
func tokenSpan(tokens []lexer.Token, i int) ast.Span {
	if i >= len(tokens) {
		i = len(tokens) - 1
	}
	return tokens[i].Span
}
