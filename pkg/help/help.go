// Package help holds the CLI quick reference and its topics.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/printscript-lang/printscript/pkg/analyzer"
)

// QUICKREF is printed by `printscript help` without a topic.
const QUICKREF = `PrintScript quick reference (language 1.0, 1.1)

  let x: number = 5;          declaration (const | let | var)
  x = x + 1;                  assignment
  println(x);                 print one value per line
  if (x > 1) { } else { }     conditional (1.1)
  readInput("prompt")         read a line of input (1.1)

Commands: run, fmt, lint, check, repl, help
Topics:   syntax, types, dialects, format, lint, errors, examples

Run 'printscript help <topic>' for details.`

// TopicList is the display order of the help topics.
var TopicList = []string{"syntax", "types", "dialects", "format", "lint", "errors", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `Statements end with ';'.
  const|let|var name[: type][ = expr];   const needs an initializer
  name = expr;
  println(expr);
  expr;
  if (cond) { ... } [else { ... }]        1.1 only
Expressions, loosest first:
  == != < > <= >=
  + -
  * /
  literals, identifiers, (expr), readInput(expr)
Comments run from // to the end of the line.`,

	"types": `number   64-bit float; printed in its shortest form (5, 2.5)
string   "double" or 'single' quoted, escapes \n \t \r \" \'
boolean  true | false (1.1)
'+' with a string operand concatenates the text of the other operand.
'==' and '!=' compare values of the same type.
Ordering comparisons take two numbers or two strings.
Declared types are checked on declaration and assignment.
readInput converts its text when the variable is declared number or boolean.`,

	"dialects": `1.0  declarations, assignment, println, arithmetic, comparison
1.1  1.0 plus boolean, if/else blocks and readInput
Select with --version or the 'version' key of .printscript.yaml.
Any version not starting with 1.1 means 1.0.`,

	"format": `printscript fmt [--write|--check] [--config FILE] FILE
Options (YAML or JSON):
  space_before_colon         let x : number        default false
  space_after_colon          let x: number         default true
  space_around_assignment    x = 1                 default true
  space_inside_parens        println( x )          default false
  indent_size                spaces per block      default 2
  brace_on_same_line         if (x) {              default true
  line_breaks_before_print   blank lines before a println, default 0`,

	"lint": `printscript lint [--config FILE] FILE
Options (YAML or JSON):
  identifier_format          "camel case" | "snake case" | {enabled, format}
  mandatory-variable-or-literal-in-println    default true
  mandatory-variable-or-literal-in-readInput  default true
  unused_variables           default false
  maxErrors                  default 100, 0 for no limit
  enableWarnings             default true
  strictMode                 warnings become errors`,

	"errors": `E_LEX           no lexical rule matches
E_PARSE         no statement rule matches
E_TYPE          value of the wrong type
E_UNDEFINED     variable not declared or not initialized
E_REDECLARATION name declared twice in one scope
E_IMMUTABLE     assignment to a const
E_ARITHMETIC    division by zero
E_IO            input or output failed
E_CONFIG        configuration value unusable
Exit codes: 0 ok, 1 lint or format check failed, 2 syntax error,
3 configuration error, 4 runtime error, 5 I/O error.`,

	"examples": `const greeting: string = "Hello";
let name: string = readInput("Name: ");
println(greeting + ", " + name);

let total: number = 0;
total = total + 2.5 * 4;
if (total > 5) {
  println("big");
} else {
  println("small");
}`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[q]; ok {
		return q, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if q != "" && strings.HasPrefix(name, q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q (topics: %s)", query, strings.Join(TopicList, ", "))
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
	}
}

// CheckIndex lists the analyzer checks.
func CheckIndex() string {
	var names []string
	for _, c := range analyzer.Checks() {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	fmt.Fprintf(&b, "Total: %d checks", len(names))
	return b.String()
}
