package lexer

import (
	"regexp"

	"github.com/printscript-lang/printscript/pkg/dialect"
)

// Rule is one entry of the lexical rule table.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Type    TokenType
}

// Ignorable reports whether matches of this rule are dropped before parsing.
func (r Rule) Ignorable() bool { return r.Type.Class() == ClassIgnorable }

// match returns the length of the rule's match at the start of s, or 0.
func (r Rule) match(s string) int {
	loc := r.Pattern.FindStringIndex(s)
	if loc == nil || loc[0] != 0 {
		return 0
	}
	return loc[1]
}

func rule(name, pattern string, typ TokenType) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(`^(?:` + pattern + `)`), Type: typ}
}

func keyword(word string, typ TokenType) Rule {
	return rule(word, word+`\b`, typ)
}

func literal(text string, typ TokenType) Rule {
	return rule(text, regexp.QuoteMeta(text), typ)
}

// Rules returns a freshly built rule table for d, in priority order.
// The 1.1 table is the 1.0 table with extra keyword, literal and punctuation
// rules spliced in; the relative order of the 1.0 rules is unchanged.
func Rules(d dialect.Dialect) []Rule {
	var rules []Rule

	// Ignorable
	rules = append(rules,
		rule("whitespace", `[ \t]+`, TokWhitespace),
		rule("newline", `(?:\r?\n)+`, TokNewline),
		rule("comment", `//[^\n]*`, TokComment),
	)

	// Keywords
	rules = append(rules,
		keyword("println", TokPrintln),
		keyword("number", TokNumberType),
		keyword("string", TokStringType),
		rule("modifier", `(?:const|let|var)\b`, TokModifier),
	)
	if d.HasBooleans() {
		rules = append(rules, keyword("boolean", TokBooleanType))
	}
	if d.HasControlFlow() {
		rules = append(rules,
			keyword("if", TokIf),
			keyword("else", TokElse),
		)
	}
	if d.HasInput() {
		rules = append(rules, keyword("readInput", TokReadInput))
	}
	if d.HasBooleans() {
		rules = append(rules, rule("bool", `(?:true|false)\b`, TokBoolLit))
	}

	// Punctuation
	rules = append(rules,
		literal(":", TokColon),
		literal(";", TokSemicolon),
		literal("(", TokLParen),
		literal(")", TokRParen),
	)
	if d.HasControlFlow() {
		rules = append(rules,
			literal("{", TokLBrace),
			literal("}", TokRBrace),
		)
	}

	// Operators, multi-char before single-char
	rules = append(rules,
		literal("==", TokEqEq),
		literal("!=", TokBangEq),
		literal("<=", TokLtEq),
		literal(">=", TokGtEq),
		literal("=", TokEquals),
		literal("+", TokPlus),
		literal("-", TokMinus),
		literal("*", TokStar),
		literal("/", TokSlash),
		literal("<", TokLt),
		literal(">", TokGt),
	)

	// Literals
	rules = append(rules,
		rule("string", `"(?:[^"\\\n]|\\.)*"`, TokStringLit),
		rule("string", `'(?:[^'\\\n]|\\.)*'`, TokStringLit),
		rule("number", `[0-9]+(?:\.[0-9]+)?`, TokNumberLit),
	)

	// Identifier
	rules = append(rules, rule("identifier", `[A-Za-z_][A-Za-z_0-9]*`, TokIdent))

	return rules
}
