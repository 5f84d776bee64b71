// Package mila provides a public API for embedding the Mila interpreter.
//
//	res := mila.Run(source, mila.Options{Filename: "hello.mil"})
//	if res.Failed() {
//		fmt.Fprintln(os.Stderr, res.Errors()[0])
//	}
//
// A Session keeps its bindings between calls, which is what the REPL uses.
package mila

import (
	"bufio"
	"io"
	"os"

	"github.com/sambeau/mila/pkg/mila/ast"
	"github.com/sambeau/mila/pkg/mila/errors"
	"github.com/sambeau/mila/pkg/mila/evaluator"
	"github.com/sambeau/mila/pkg/mila/lexer"
	"github.com/sambeau/mila/pkg/mila/parser"
)

// Options configures a Run or a Session. Zero values select the process
// streams and the default call depth.
type Options struct {
	Filename string
	Stdout   Logger
	Stderr   Logger
	Stdin    io.Reader
	MaxDepth int
}

func (o Options) runtime() *evaluator.Runtime {
	rt := evaluator.NewRuntime()
	if o.Stdout != nil {
		rt.Stdout = o.Stdout
	}
	if o.Stderr != nil {
		rt.Stderr = o.Stderr
	}
	if o.Stdin != nil {
		if br, ok := o.Stdin.(*bufio.Reader); ok {
			rt.Stdin = br
		} else {
			rt.Stdin = bufio.NewReader(o.Stdin)
		}
	}
	if o.MaxDepth > 0 {
		rt.MaxDepth = o.MaxDepth
	}
	rt.Filename = o.Filename
	return rt
}

// Result is what running a program produced.
type Result struct {
	// Value is the value of the last statement, or nil.
	Value evaluator.Object
	// ParseErrors is non-empty when the program did not parse; nothing ran.
	ParseErrors []*errors.MilaError
	// RuntimeError is set when evaluation failed.
	RuntimeError *errors.MilaError
	// Exited is set when the program called exit; Code holds its argument.
	Exited bool
	Code   int
	// Source is the program text, kept so callers can quote error lines.
	Source string
}

// Failed reports whether parsing or evaluation failed.
func (r *Result) Failed() bool {
	return len(r.ParseErrors) > 0 || r.RuntimeError != nil
}

// Errors returns the parse errors, or the runtime error, as
// "file:line:col: message" strings.
func (r *Result) Errors() []string {
	if len(r.ParseErrors) > 0 {
		msgs := make([]string, len(r.ParseErrors))
		for i, err := range r.ParseErrors {
			msgs[i] = err.Location() + ": " + err.Message
		}
		return msgs
	}
	if r.RuntimeError != nil {
		return []string{r.RuntimeError.Location() + ": " + r.RuntimeError.Message}
	}
	return nil
}

// Status maps the result to a process exit status.
func (r *Result) Status() int {
	switch {
	case r.Exited:
		return r.Code
	case r.Failed():
		return 1
	default:
		return 0
	}
}

// Parse parses source. filename is used in error locations.
func Parse(source, filename string) (*ast.Program, []*errors.MilaError) {
	p := parser.New(lexer.NewWithFilename(source, filename))
	program := p.ParseProgram()
	return program, p.StructuredErrors()
}

// Run parses and evaluates source in a fresh environment.
func Run(source string, opts Options) *Result {
	return NewSession(opts).Eval(source)
}

// RunFile reads and runs the file at path.
func RunFile(path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if opts.Filename == "" {
		opts.Filename = path
	}
	return Run(string(data), opts), nil
}

// Session evaluates successive sources in one environment.
type Session struct {
	opts Options
	env  *evaluator.Environment
}

// NewSession creates a session with an empty global scope.
func NewSession(opts Options) *Session {
	return &Session{
		opts: opts,
		env:  evaluator.NewEnvironmentWithRuntime(opts.runtime()),
	}
}

// Env exposes the global scope.
func (s *Session) Env() *evaluator.Environment {
	return s.env
}

// Reset drops every binding but keeps the runtime.
func (s *Session) Reset() {
	s.env = evaluator.NewEnvironmentWithRuntime(s.env.Runtime)
}

// Eval parses and evaluates source. Parse errors stop evaluation.
func (s *Session) Eval(source string) *Result {
	program, errs := Parse(source, s.opts.Filename)
	if len(errs) > 0 {
		return &Result{ParseErrors: errs, Source: source}
	}
	res := s.EvalProgram(program)
	res.Source = source
	return res
}

// EvalProgram evaluates an already parsed program.
func (s *Session) EvalProgram(program *ast.Program) *Result {
	out := evaluator.Eval(program, s.env)

	res := &Result{}
	switch out.Flow {
	case evaluator.Failed:
		res.RuntimeError = out.Err().ToMilaError()
	case evaluator.Exited:
		res.Exited = true
		res.Code = out.Code
	default:
		res.Value = out.Value
	}
	return res
}
