// Command printscript is the PrintScript CLI entry point.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/gommon/color"
	"github.com/sirupsen/logrus"

	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/evaluator"
	"github.com/printscript-lang/printscript/pkg/help"
	"github.com/printscript-lang/printscript/pkg/runtime"
)

const cliVersion = "0.3.0"

var errStdinConsumed = errors.New("stdin holds the program source; run the program from a file to use readInput")

// Exit codes.
const (
	exitOK      = 0
	exitFail    = 1
	exitSyntax  = 2
	exitConfig  = 3
	exitRuntime = 4
	exitIO      = 5
)

const usage = `usage: printscript <command> [options]
commands: run, check, fmt, lint, repl, help, version`

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(os.Args[1:]))
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	color  *color.Color
}

func (a *app) run(args []string) int {
	a.color = color.New()
	a.color.SetOutput(a.stderr)

	if len(args) < 1 {
		fmt.Fprintln(a.stderr, usage)
		return exitFail
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return a.cmdRun(args[1:])
	case "check":
		return a.cmdCheck(args[1:])
	case "fmt":
		return a.cmdFmt(args[1:])
	case "lint":
		return a.cmdLint(args[1:])
	case "repl":
		return a.cmdRepl(args[1:])
	case "help", "--help", "-h":
		return a.cmdHelp(args[1:])
	case "version", "--version":
		fmt.Fprintf(a.stdout, "printscript %s (language 1.0, 1.1)\n", cliVersion)
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n%s\n", cmd, usage)
		return exitFail
	}
}

// common holds the options shared by the file commands.
type common struct {
	version    string
	configPath string
	pretty     bool
	noColor    bool
	verbose    bool
	trace      bool
	syntaxOnly bool
}

func (a *app) flagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&c.version, "version", "", "language version (1.0 or 1.1)")
	fs.StringVar(&c.configPath, "config", "", "configuration file (YAML or JSON)")
	fs.BoolVar(&c.pretty, "pretty", false, "human-readable diagnostics")
	fs.BoolVar(&c.noColor, "no-color", false, "disable coloured output")
	fs.BoolVar(&c.verbose, "verbose", false, "log pipeline phases to stderr")
	fs.BoolVar(&c.trace, "trace", false, "log execution events to stderr")
	return fs
}

// parseArgs parses flags that may appear before or after positional
// arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// setup loads the project configuration next to file and builds a runtime.
func (a *app) setup(c *common, file string, extra ...runtime.Option) (*runtime.Runtime, int) {
	if c.noColor {
		a.color.Disable()
	}

	dir := "."
	if file != "-" {
		dir = filepath.Dir(file)
	}
	project, err := config.LoadProject(dir)
	if err != nil {
		return nil, a.configFailure(err, c.pretty)
	}
	opts := []runtime.Option{runtime.WithProject(project), runtime.WithLogger(a.logger(c))}
	if c.version != "" {
		opts = append(opts, runtime.WithVersion(c.version))
	}
	return runtime.New(append(opts, extra...)...), exitOK
}

func (a *app) logger(c *common) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(a.stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: c.noColor})
	switch {
	case c.trace:
		l.SetLevel(logrus.TraceLevel)
	case c.verbose:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

func (a *app) cmdRun(args []string) int {
	var c common
	fs := a.flagSet("run", &c)
	files, err := parseArgs(fs, args)
	if err != nil {
		return exitFail
	}
	if len(files) != 1 {
		fmt.Fprintln(a.stderr, "usage: printscript run <file|-> [--version V] [--pretty] [--verbose]")
		fmt.Fprintln(a.stderr, "readInput reads stdin, so it is unavailable when the program itself comes from stdin (-)")
		return exitFail
	}

	source, filename, code := a.readSource(files[0], c.pretty)
	if code != exitOK {
		return code
	}

	var input evaluator.InputSource = newLineInput(a.stdin, a.stdout)
	if files[0] == "-" {
		input = evaluator.InputFunc(func(string) (string, error) {
			return "", errStdinConsumed
		})
	}
	rt, code := a.setup(&c, files[0],
		runtime.WithOutput(evaluator.WriterSink(a.stdout)),
		runtime.WithInput(input),
	)
	if code != exitOK {
		return code
	}
	return a.reportRunError(rt.Run(source, filename), c.pretty)
}

func (a *app) reportRunError(err error, pretty bool) int {
	if err == nil {
		return exitOK
	}
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		a.printDiags(de.Diagnostics, pretty)
		return exitSyntax
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		a.printDiags([]diagnostics.Diagnostic{re.Diagnostic()}, pretty)
		if re.Code == diagnostics.EIO {
			return exitIO
		}
		return exitRuntime
	}
	fmt.Fprintln(a.stderr, a.color.Red(err.Error()))
	return exitRuntime
}

func (a *app) cmdCheck(args []string) int {
	var c common
	fs := a.flagSet("check", &c)
	fs.BoolVar(&c.syntaxOnly, "syntax-only", false, "skip semantic validation")
	files, err := parseArgs(fs, args)
	if err != nil {
		return exitFail
	}
	if len(files) != 1 {
		fmt.Fprintln(a.stderr, "usage: printscript check <file> [--version V] [--syntax-only] [--pretty]")
		return exitFail
	}

	source, filename, code := a.readSource(files[0], c.pretty)
	if code != exitOK {
		return code
	}
	rt, code := a.setup(&c, files[0])
	if code != exitOK {
		return code
	}

	var diags []diagnostics.Diagnostic
	if c.syntaxOnly {
		diags = rt.Check(source, filename)
	} else {
		diags = rt.Validate(source, filename)
	}
	if len(diags) > 0 {
		a.printDiags(diags, c.pretty)
		return exitSyntax
	}
	if c.pretty {
		fmt.Fprintln(a.stdout, "No errors found.")
	} else {
		fmt.Fprintln(a.stdout, "[]")
	}
	return exitOK
}

func (a *app) cmdFmt(args []string) int {
	var c common
	fs := a.flagSet("fmt", &c)
	write := fs.Bool("write", false, "rewrite the file in place")
	check := fs.Bool("check", false, "exit 1 if the file would change")
	files, err := parseArgs(fs, args)
	if err != nil {
		return exitFail
	}
	if len(files) != 1 {
		fmt.Fprintln(a.stderr, "usage: printscript fmt <file> [--write|--check] [--config FILE]")
		return exitFail
	}
	file := files[0]

	source, filename, code := a.readSource(file, c.pretty)
	if code != exitOK {
		return code
	}

	var extra []runtime.Option
	if c.configPath != "" {
		cfg, err := config.LoadFormatFile(c.configPath)
		if err != nil {
			return a.configFailure(err, c.pretty)
		}
		extra = append(extra, runtime.WithFormatConfig(cfg))
	}
	rt, code := a.setup(&c, file, extra...)
	if code != exitOK {
		return code
	}

	formatted, err := rt.Format(source, filename)
	if err != nil {
		return a.reportRunError(err, c.pretty)
	}

	if strings.Contains(source, "//") {
		fmt.Fprintln(a.stderr, a.color.Yellow("warning: comments are not preserved by the formatter"))
	}

	out := formatted + "\n"
	switch {
	case *check:
		if out != source {
			fmt.Fprintf(a.stderr, "%s: would reformat\n", filename)
			return exitFail
		}
	case *write && file != "-":
		if err := os.WriteFile(file, []byte(out), 0644); err != nil {
			fmt.Fprintf(a.stderr, "error writing file: %s\n", err)
			return exitIO
		}
	default:
		fmt.Fprint(a.stdout, out)
	}
	return exitOK
}

func (a *app) cmdLint(args []string) int {
	var c common
	fs := a.flagSet("lint", &c)
	files, err := parseArgs(fs, args)
	if err != nil {
		return exitFail
	}
	if len(files) != 1 {
		fmt.Fprintln(a.stderr, "usage: printscript lint <file> [--config FILE] [--pretty]")
		return exitFail
	}

	source, filename, code := a.readSource(files[0], c.pretty)
	if code != exitOK {
		return code
	}

	var extra []runtime.Option
	if c.configPath != "" {
		cfg, err := config.LoadAnalyzerFile(c.configPath)
		if err != nil {
			return a.configFailure(err, c.pretty)
		}
		extra = append(extra, runtime.WithAnalyzerConfig(cfg))
	}
	rt, code := a.setup(&c, files[0], extra...)
	if code != exitOK {
		return code
	}

	diags, err := rt.Lint(source, filename)
	if err != nil {
		return a.reportRunError(err, c.pretty)
	}
	if len(diags) == 0 {
		if c.pretty {
			fmt.Fprintln(a.stdout, "No problems found.")
		} else {
			fmt.Fprintln(a.stdout, "[]")
		}
		return exitOK
	}
	if c.pretty {
		fmt.Fprintln(a.stdout, a.renderDiags(diags))
	} else {
		fmt.Fprintln(a.stdout, diagnostics.FormatDiagnostics(diags, false))
	}
	if diagnostics.HasErrors(diags) {
		return exitFail
	}
	return exitOK
}

func (a *app) cmdHelp(args []string) int {
	checks := false
	topic := ""
	for _, arg := range args {
		if arg == "--checks" {
			checks = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if checks {
		fmt.Fprintln(a.stdout, help.CheckIndex())
		return exitOK
	}
	if topic == "" {
		fmt.Fprintln(a.stdout, help.QUICKREF)
		return exitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFail
	}
	fmt.Fprintln(a.stdout, content)
	return exitOK
}

func (a *app) readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			fmt.Fprintf(a.stderr, "error reading stdin: %s\n", err)
			return "", "", exitIO
		}
		return string(data), "<stdin>", exitOK
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		a.printDiags([]diagnostics.Diagnostic{diag}, pretty)
		return "", "", exitIO
	}
	return string(source), file, exitOK
}

func (a *app) configFailure(err error, pretty bool) int {
	var ce *config.Error
	if errors.As(err, &ce) {
		a.printDiags([]diagnostics.Diagnostic{ce.Diagnostic()}, pretty)
	} else {
		a.printDiags([]diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")}, pretty)
	}
	return exitConfig
}

func (a *app) printDiags(diags []diagnostics.Diagnostic, pretty bool) {
	if !pretty {
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, false))
		return
	}
	fmt.Fprintln(a.stderr, a.renderDiags(diags))
}

func (a *app) renderDiags(diags []diagnostics.Diagnostic) string {
	parts := make([]string, len(diags))
	for i, d := range diags {
		text := diagnostics.FormatDiagnostic(d, true)
		if d.Severity == diagnostics.SeverityWarning {
			parts[i] = a.color.Yellow(text)
		} else {
			parts[i] = a.color.Red(text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// lineInput serves readInput from a line-oriented reader, echoing the
// prompt to out.
type lineInput struct {
	r   *bufio.Reader
	out io.Writer
}

func newLineInput(r io.Reader, out io.Writer) *lineInput {
	return &lineInput{r: bufio.NewReader(r), out: out}
}

func (in *lineInput) Read(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(in.out, prompt)
	}
	line, err := in.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
