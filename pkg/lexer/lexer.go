// Package lexer implements the PrintScript tokenizer.
//
// Tokenization is driven by an ordered rule table. At every offset the rules
// are tried top to bottom and the first one matching a non-empty prefix wins;
// there is no backtracking across rules. The table ordering is part of the
// contract:
//
//   - ignorable rules (whitespace, newlines, comments) come first
//   - keywords come before the identifier rule
//   - multi-character operators come before single-character ones
//   - literal rules come before the identifier rule
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/dialect"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Ignorable
	TokWhitespace TokenType = iota
	TokNewline
	TokComment

	// Keywords
	TokPrintln
	TokModifier    // const, let, var
	TokNumberType  // number
	TokStringType  // string
	TokBooleanType // boolean (1.1)
	TokIf          // 1.1
	TokElse        // 1.1
	TokReadInput   // 1.1

	// Literals
	TokNumberLit
	TokStringLit
	TokBoolLit // 1.1

	// Identifiers
	TokIdent

	// Punctuation
	TokColon     // :
	TokSemicolon // ;
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // { (1.1)
	TokRBrace    // } (1.1)

	// Assignment
	TokEquals // =

	// Comparison operators
	TokEqEq   // ==
	TokBangEq // !=
	TokLtEq   // <=
	TokGtEq   // >=
	TokLt     // <
	TokGt     // >

	// Arithmetic operators
	TokPlus  // +
	TokMinus // -
	TokStar  // *
	TokSlash // /

	// Special
	TokEOF
)

// Class is the coarse token category: keyword, punctuation, operator,
// assignment, literal, identifier or ignorable.
type Class string

const (
	ClassIgnorable   Class = "ignorable"
	ClassKeyword     Class = "keyword"
	ClassPunctuation Class = "punctuation"
	ClassOperator    Class = "operator"
	ClassAssignment  Class = "assignment"
	ClassLiteral     Class = "literal"
	ClassIdentifier  Class = "identifier"
	ClassEOF         Class = "eof"
)

// Class returns the category of t.
func (t TokenType) Class() Class {
	switch {
	case t <= TokComment:
		return ClassIgnorable
	case t <= TokReadInput:
		return ClassKeyword
	case t <= TokBoolLit:
		return ClassLiteral
	case t == TokIdent:
		return ClassIdentifier
	case t <= TokRBrace:
		return ClassPunctuation
	case t == TokEquals:
		return ClassAssignment
	case t <= TokSlash:
		return ClassOperator
	default:
		return ClassEOF
	}
}

var tokenNames = map[TokenType]string{
	TokWhitespace:  "whitespace",
	TokNewline:     "newline",
	TokComment:     "comment",
	TokPrintln:     "'println'",
	TokModifier:    "modifier",
	TokNumberType:  "'number'",
	TokStringType:  "'string'",
	TokBooleanType: "'boolean'",
	TokIf:          "'if'",
	TokElse:        "'else'",
	TokReadInput:   "'readInput'",
	TokNumberLit:   "number literal",
	TokStringLit:   "string literal",
	TokBoolLit:     "boolean literal",
	TokIdent:       "identifier",
	TokColon:       "':'",
	TokSemicolon:   "';'",
	TokLParen:      "'('",
	TokRParen:      "')'",
	TokLBrace:      "'{'",
	TokRBrace:      "'}'",
	TokEquals:      "'='",
	TokEqEq:        "'=='",
	TokBangEq:      "'!='",
	TokLtEq:        "'<='",
	TokGtEq:        "'>='",
	TokLt:          "'<'",
	TokGt:          "'>'",
	TokPlus:        "'+'",
	TokMinus:       "'-'",
	TokStar:        "'*'",
	TokSlash:       "'/'",
	TokEOF:         "end of file",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token. Value is the lexeme exactly as it
// appears in the source.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

// Offset is the byte offset of the token in the source.
func (t Token) Offset() int { return t.Span.Offset }

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag   diagnostics.Diagnostic
	Offset int
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) scanner {
	return scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

// consume advances over n bytes, keeping line and column in step.
func (s *scanner) consume(n int) {
	for i := 0; i < n; i++ {
		if s.source[s.pos] == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.pos++
	}
}

func (s *scanner) span(startPos, startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		Offset:    startPos,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) lexError(msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, Offset: s.pos, StartLine: s.line, StartCol: s.col, EndLine: s.line, EndCol: s.col + 1},
		"",
	)
	return &LexError{Diag: diag, Offset: s.pos}
}

// Stream produces tokens lazily. It holds no state shared with a parser and
// can be rewound with Reset.
type Stream struct {
	rules []Rule
	s     scanner
	done  bool
}

// NewStream creates a token stream over source using the rule table of d.
func NewStream(source, filename string, d dialect.Dialect) *Stream {
	return &Stream{rules: Rules(d), s: newScanner(source, filename)}
}

// Reset rewinds the stream to the start of the source.
func (st *Stream) Reset() {
	st.s = newScanner(st.s.source, st.s.filename)
	st.done = false
}

// NextRaw returns the next rule match, ignorable ones included. At end of
// input it returns TokEOF on every call.
func (st *Stream) NextRaw() (Token, error) {
	s := &st.s
	if s.atEnd() {
		st.done = true
		return Token{Type: TokEOF, Span: s.span(s.pos, s.line, s.col)}, nil
	}

	rest := s.source[s.pos:]
	for _, rule := range st.rules {
		n := rule.match(rest)
		if n == 0 {
			continue
		}
		startPos, startLine, startCol := s.pos, s.line, s.col
		lexeme := rest[:n]
		s.consume(n)
		return Token{Type: rule.Type, Value: lexeme, Span: s.span(startPos, startLine, startCol)}, nil
	}

	switch ch := rest[0]; ch {
	case '"', '\'':
		return Token{}, s.lexError("unterminated string literal")
	default:
		return Token{}, s.lexError(fmt.Sprintf("unexpected character %q", firstRune(rest)))
	}
}

// Next returns the next significant token, skipping ignorable matches.
func (st *Stream) Next() (Token, error) {
	for {
		tok, err := st.NextRaw()
		if err != nil {
			return Token{}, err
		}
		if tok.Type.Class() != ClassIgnorable {
			return tok, nil
		}
	}
}

// Done reports whether the stream has reached end of input.
func (st *Stream) Done() bool { return st.done }

// Tokenize breaks source code into a slice of significant tokens, terminated
// by a single TokEOF.
func Tokenize(source, filename string, d dialect.Dialect) ([]Token, error) {
	st := NewStream(source, filename, d)
	var tokens []Token

	for {
		tok, err := st.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Unquote decodes a string literal lexeme, quotes included.
func Unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	body := lexeme[1 : len(lexeme)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var buf strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			buf.WriteByte(ch)
			continue
		}
		i++
		switch esc := body[i]; esc {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		default:
			buf.WriteByte(esc)
		}
	}
	return buf.String()
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
