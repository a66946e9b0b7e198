package lexer

import (
	"strings"
	"testing"

	"github.com/printscript-lang/printscript/pkg/dialect"
)

// FuzzTokenize feeds random inputs to the lexer to catch panics and checks
// that every successful tokenization accounts for every input byte.
func FuzzTokenize(f *testing.F) {
	seeds := []string{
		`let x: number = 5;`,
		`const s: string = "hi";`,
		`println(x + 1);`,
		`if (true) { println("a"); } else { println('b'); }`,
		`let n: number = readInput("n?");`,
		`== != <= >= = + - * / < >`,
		`// comment only`,
		``,
		"\t\n\r",
		`"unterminated`,
		`'`,
		`@#$^&`,
		`\x00`,
		`1.2.3`,
		`let aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa = 1;`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		for _, d := range []dialect.Dialect{dialect.V10, dialect.V11} {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Tokenize panicked on input %q: %v", input, r)
					}
				}()
				st := NewStream(input, "fuzz.ps", d)
				var b strings.Builder
				for {
					tok, err := st.NextRaw()
					if err != nil {
						return
					}
					if tok.Type == TokEOF {
						break
					}
					b.WriteString(tok.Value)
				}
				if b.String() != input {
					t.Fatalf("lexemes lost characters for %q", input)
				}
			}()
		}
	})
}
