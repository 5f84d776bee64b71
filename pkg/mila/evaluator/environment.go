package evaluator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// DefaultMaxDepth is the call depth limit used when none is configured.
const DefaultMaxDepth = 10000

// Logger interface for puts/putsln style output
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// writerLogger writes space separated values to an io.Writer
type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, joinLogValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, joinLogValues(values))
}

func joinLogValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

// NewWriterLogger returns a logger that writes to w.
func NewWriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = NewWriterLogger(os.Stdout)

// DefaultErrorLogger is the default stderr logger
var DefaultErrorLogger Logger = NewWriterLogger(os.Stderr)

// Runtime is the state shared by every scope of one run.
type Runtime struct {
	Stdout   Logger
	Stderr   Logger
	Stdin    *bufio.Reader
	MaxDepth int
	Filename string

	depth int
}

// NewRuntime returns a runtime wired to the process streams.
func NewRuntime() *Runtime {
	return &Runtime{
		Stdout:   DefaultLogger,
		Stderr:   DefaultErrorLogger,
		Stdin:    bufio.NewReader(os.Stdin),
		MaxDepth: DefaultMaxDepth,
	}
}

// Depth returns the current call depth.
func (r *Runtime) Depth() int { return r.depth }

type binding struct {
	value   Object
	mutable bool
}

// Environment is one lexical scope.
type Environment struct {
	store   map[string]*binding
	outer   *Environment
	Runtime *Runtime
}

// NewEnvironment creates a global scope with a fresh runtime.
func NewEnvironment() *Environment {
	return NewEnvironmentWithRuntime(NewRuntime())
}

// NewEnvironmentWithRuntime creates a global scope sharing rt.
func NewEnvironmentWithRuntime(rt *Runtime) *Environment {
	return &Environment{store: make(map[string]*binding), Runtime: rt}
}

// NewEnclosedEnvironment creates a child scope of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironmentWithRuntime(outer.Runtime)
	env.outer = outer
	return env
}

// Get looks name up from the innermost scope outward.
func (e *Environment) Get(name string) (Object, bool) {
	if b := e.lookup(name); b != nil {
		return b.value, true
	}
	return nil, false
}

func (e *Environment) lookup(name string) *binding {
	for env := e; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			return b
		}
	}
	return nil
}

// Set binds name immutably. See Define.
func (e *Environment) Set(name string, val Object) Object {
	return e.Define(name, val, false)
}

// Define binds name to val. If name is bound in an outer scope and not in
// this one, the outer binding's value is updated in place and it keeps its
// own mutability; otherwise the binding is created or overwritten here. It
// returns the previous value, or nil.
func (e *Environment) Define(name string, val Object, mutable bool) Object {
	if b, ok := e.store[name]; ok {
		prev := b.value
		e.store[name] = &binding{value: val, mutable: mutable}
		return prev
	}

	for env := e.outer; env != nil; env = env.outer {
		if b, ok := env.store[name]; ok {
			prev := b.value
			b.value = val
			return prev
		}
	}

	e.store[name] = &binding{value: val, mutable: mutable}
	return nil
}

// bindLocal binds name in this scope only, shadowing any outer binding.
func (e *Environment) bindLocal(name string, val Object, mutable bool) {
	e.store[name] = &binding{value: val, mutable: mutable}
}

var (
	errUnbound   = errors.New("unbound name")
	errImmutable = errors.New("immutable binding")
)

// Assign updates an existing mutable binding wherever it lives.
func (e *Environment) Assign(name string, val Object) error {
	b := e.lookup(name)
	if b == nil {
		return fmt.Errorf("%w: %s", errUnbound, name)
	}
	if !b.mutable {
		return fmt.Errorf("%w: %s", errImmutable, name)
	}
	b.value = val
	return nil
}

// IsMutable reports whether name resolves to a var binding.
func (e *Environment) IsMutable(name string) bool {
	b := e.lookup(name)
	return b != nil && b.mutable
}

// Names lists the bindings of the outermost scope, sorted.
func (e *Environment) Names() []string {
	root := e
	for root.outer != nil {
		root = root.outer
	}
	names := make([]string, 0, len(root.store))
	for name := range root.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllIdentifiers returns every name visible from this scope, builtins
// included. Used for "did you mean" hints.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var result []string

	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}

	for name := range builtins {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}
