package mila

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/mila/pkg/mila/evaluator"
)

// Logger receives the output of puts, putsln, eputs and eputsln.
type Logger = evaluator.Logger

// StdoutLogger returns a logger that writes to stdout (default for CLI/REPL)
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

// StderrLogger returns a logger that writes to stderr
func StderrLogger() Logger {
	return evaluator.DefaultErrorLogger
}

// WriterLogger returns a logger that writes to w
func WriterLogger(w io.Writer) Logger {
	return evaluator.NewWriterLogger(w)
}

// BufferedLogger captures output as lines. Text written without a newline
// stays pending until the next LogLine.
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	pending strings.Builder
}

// NewBufferedLogger creates an empty buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending.WriteString(joinValues(values))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.pending.String()+joinValues(values))
	l.pending.Reset()
}

// String returns everything captured, newline terminated per line, with
// any pending text at the end.
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(l.pending.String())
	return sb.String()
}

// Lines returns a copy of the completed lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Reset discards everything captured
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.pending.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return nullLogger{}
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
