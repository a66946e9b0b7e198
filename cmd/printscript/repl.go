package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/printscript-lang/printscript/pkg/dialect"
	"github.com/printscript-lang/printscript/pkg/evaluator"
	"github.com/printscript-lang/printscript/pkg/lexer"
	"github.com/printscript-lang/printscript/pkg/runtime"
)

const (
	historyFile = ".printscript_history"
	promptMain  = "ps> "
	promptCont  = "... "
)

func (a *app) cmdRepl(args []string) int {
	var c common
	fs := a.flagSet("repl", &c)
	if _, err := parseArgs(fs, args); err != nil {
		return exitFail
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	input := evaluator.InputFunc(func(prompt string) (string, error) {
		return ln.Prompt(prompt)
	})
	rt, code := a.setup(&c, ".",
		runtime.WithOutput(evaluator.WriterSink(a.stdout)),
		runtime.WithInput(input),
		runtime.WithRunID("repl"),
	)
	if code != exitOK {
		return code
	}

	fmt.Fprintf(a.stdout, "PrintScript %s. Type :quit to exit.\n", rt.Dialect())
	session := rt.NewSession("<repl>")
	for {
		src, ok := readSnippet(ln, rt.Dialect())
		if !ok {
			fmt.Fprintln(a.stdout)
			return exitOK
		}
		trimmed := strings.TrimSpace(src)
		switch {
		case trimmed == "":
			continue
		case trimmed == ":quit":
			return exitOK
		case strings.HasPrefix(trimmed, ":"):
			fmt.Fprintln(a.stdout, "unknown command. Type :quit to exit.")
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if err := session.Eval(src); err != nil {
			a.reportRunError(err, true)
		}
	}
}

// readSnippet reads lines until braces balance. It reports false at end of
// input.
func readSnippet(ln *liner.State, d dialect.Dialect) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String(), d) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src has more '{' than '}' tokens.
func incomplete(src string, d dialect.Dialect) bool {
	tokens, err := lexer.Tokenize(src, "<repl>", d)
	if err != nil {
		return false
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.TokLBrace:
			depth++
		case lexer.TokRBrace:
			depth--
		}
	}
	return depth > 0
}
