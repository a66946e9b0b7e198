// Package runtime provides the top-level PrintScript orchestrator: version
// selection, tokenizing, parsing, and dispatch to the interpreter, the
// formatter or the analyzer.
package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/printscript-lang/printscript/pkg/analyzer"
	"github.com/printscript-lang/printscript/pkg/ast"
	"github.com/printscript-lang/printscript/pkg/config"
	"github.com/printscript-lang/printscript/pkg/diagnostics"
	"github.com/printscript-lang/printscript/pkg/dialect"
	"github.com/printscript-lang/printscript/pkg/evaluator"
	"github.com/printscript-lang/printscript/pkg/formatter"
	"github.com/printscript-lang/printscript/pkg/lexer"
	"github.com/printscript-lang/printscript/pkg/parser"
	"github.com/printscript-lang/printscript/pkg/validator"
)

// Runtime wires together all PrintScript components.
type Runtime struct {
	version  string
	dialect  dialect.Dialect
	format   config.Format
	analyzer config.Analyzer
	output   evaluator.PrintSink
	input    evaluator.InputSource
	logger   *logrus.Logger
	runID    string
	trace    func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithVersion selects the language version. Unknown versions mean 1.0.
func WithVersion(version string) Option {
	return func(rt *Runtime) {
		rt.version = version
		rt.dialect = dialect.Select(version)
	}
}

// WithProject applies a resolved project configuration.
func WithProject(p config.Project) Option {
	return func(rt *Runtime) {
		WithVersion(p.Version)(rt)
		rt.format = p.Format
		rt.analyzer = p.Analyzer
	}
}

// WithFormatConfig sets the formatter style.
func WithFormatConfig(cfg config.Format) Option {
	return func(rt *Runtime) {
		rt.format = cfg
	}
}

// WithAnalyzerConfig sets the analyzer checks.
func WithAnalyzerConfig(cfg config.Analyzer) Option {
	return func(rt *Runtime) {
		rt.analyzer = cfg
	}
}

// WithOutput sets where println writes.
func WithOutput(sink evaluator.PrintSink) Option {
	return func(rt *Runtime) {
		rt.output = sink
	}
}

// WithInput sets what answers readInput.
func WithInput(src evaluator.InputSource) Option {
	return func(rt *Runtime) {
		rt.input = src
	}
}

// WithLogger sets the logger. Phases log at Debug, trace events at Trace.
func WithLogger(l *logrus.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default the version is 1.0, configs are the defaults, and logging is
// discarded.
func New(opts ...Option) *Runtime {
	silent := logrus.New()
	silent.SetOutput(io.Discard)
	silent.SetLevel(logrus.WarnLevel)

	rt := &Runtime{
		version:  "1.0",
		dialect:  dialect.V10,
		format:   config.DefaultFormat(),
		analyzer: config.DefaultAnalyzer(),
		logger:   silent,
		runID:    "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Version returns the configured version string.
func (rt *Runtime) Version() string {
	return rt.version
}

// Dialect returns the selected language dialect.
func (rt *Runtime) Dialect() dialect.Dialect {
	return rt.dialect
}

func (rt *Runtime) log(filename, phase string) *logrus.Entry {
	return rt.logger.WithFields(logrus.Fields{
		"file":    filename,
		"version": rt.dialect.String(),
		"phase":   phase,
	})
}

// Parse tokenizes and parses source. Failures are returned as a
// *DiagnosticError holding one E_LEX or E_PARSE diagnostic.
func (rt *Runtime) Parse(source, filename string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source, filename, rt.dialect)
	if err != nil {
		rt.log(filename, "lex").WithError(err).Debug("tokenize failed")
		if le, ok := err.(*lexer.LexError); ok {
			return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{le.Diag}}
		}
		return nil, err
	}
	rt.log(filename, "lex").WithField("tokens", len(tokens)).Debug("tokenized")

	program, err := parser.Parse(tokens, rt.dialect)
	if err != nil {
		rt.log(filename, "parse").WithError(err).Debug("parse failed")
		if pe, ok := err.(*parser.ParseError); ok {
			return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{pe.Diag}}
		}
		return nil, err
	}
	rt.log(filename, "parse").WithField("statements", len(program.Statements)).Debug("parsed")
	return program, nil
}

// Run parses and executes a program. Runtime failures are returned as
// *evaluator.RuntimeError; output written before the failure stays written.
func (rt *Runtime) Run(source, filename string) error {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return err
	}
	err = evaluator.Execute(program, rt.execOptions(filename))
	entry := rt.log(filename, "run")
	if err != nil {
		entry.WithError(err).Debug("execution failed")
		return err
	}
	entry.Debug("executed")
	return nil
}

// Check parses a program without executing it and returns any syntax
// diagnostics.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	_, err := rt.Parse(source, filename)
	return syntaxDiagnostics(err)
}

func syntaxDiagnostics(err error) []diagnostics.Diagnostic {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DiagnosticError); ok {
		return de.Diagnostics
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")}
}

// Validate parses a program and, when it is syntactically valid, reports
// the semantic errors found without running it.
func (rt *Runtime) Validate(source, filename string) []diagnostics.Diagnostic {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return syntaxDiagnostics(err)
	}
	diags := validator.Validate(program)
	rt.log(filename, "validate").WithField("diagnostics", len(diags)).Debug("validated")
	return diags
}

// Lint parses a program and runs the analyzer over it.
func (rt *Runtime) Lint(source, filename string) ([]diagnostics.Diagnostic, error) {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	diags := analyzer.Analyze(program, rt.analyzer)
	rt.log(filename, "lint").WithField("diagnostics", len(diags)).Debug("analyzed")
	return diags, nil
}

// Format parses and formats a program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, err := rt.Parse(source, filename)
	if err != nil {
		return "", err
	}
	out := formatter.Format(program, rt.format)
	rt.log(filename, "format").WithField("bytes", len(out)).Debug("formatted")
	return out, nil
}

// Session executes successive snippets against one persistent scope.
type Session struct {
	rt       *Runtime
	session  *evaluator.Session
	filename string
}

// NewSession starts an interactive session.
func (rt *Runtime) NewSession(filename string) *Session {
	return &Session{
		rt:       rt,
		session:  evaluator.NewSession(rt.execOptions(filename)),
		filename: filename,
	}
}

// Eval parses and executes one snippet. Declarations made by earlier
// snippets remain visible.
func (s *Session) Eval(source string) error {
	program, err := s.rt.Parse(source, s.filename)
	if err != nil {
		return err
	}
	return s.session.Run(program)
}

// execOptions constructs evaluator options from the runtime's configuration.
// Trace events are only produced when the logger is at Trace level or a
// trace callback is set.
func (rt *Runtime) execOptions(filename string) evaluator.ExecOptions {
	opts := evaluator.ExecOptions{
		Output: rt.output,
		Input:  rt.input,
		RunID:  rt.runID,
	}
	logTrace := rt.logger.IsLevelEnabled(logrus.TraceLevel)
	if !logTrace && rt.trace == nil {
		return opts
	}
	opts.Trace = func(ev evaluator.TraceEvent) {
		if logTrace {
			entry := rt.log(filename, "run").WithField("event", string(ev.Event))
			if ev.Span != nil {
				entry = entry.WithField("at", ev.Span.String())
			}
			for k, v := range ev.Data {
				entry = entry.WithField(k, v)
			}
			entry.Trace("trace")
		}
		if rt.trace != nil {
			rt.trace(ev)
		}
	}
	return opts
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
