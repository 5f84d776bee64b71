// Package repl implements the interactive Mila shell.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/mila/pkg/mila/evaluator"
	"github.com/sambeau/mila/pkg/mila/help"
	"github.com/sambeau/mila/pkg/mila/history"
	"github.com/sambeau/mila/pkg/mila/lexer"
	"github.com/sambeau/mila/pkg/mila/mila"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

// historyLines is how many past entries are offered for ↑ navigation.
const historyLines = 500

// Options configures a REPL session.
type Options struct {
	Version  string
	Prompt   string // defaults to PROMPT
	Banner   bool
	MaxDepth int
	// History persists input between sessions. When nil, a flat file in
	// the temp dir is used instead.
	History *history.Store
	// Stderr receives eputs/eputsln output; defaults to the REPL's out.
	Stderr io.Writer
}

// lineReader is the part of liner the loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// Start runs the REPL until exit, quit, Ctrl+D or an exit() call. It
// returns the status the process should end with.
//
// When in is the process's stdin, input goes through liner for line
// editing, history and tab completion; any other reader is read line by
// line.
func Start(in io.Reader, out io.Writer, opts Options) int {
	if opts.Prompt == "" {
		opts.Prompt = PROMPT
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = out
	}

	ctx := context.Background()

	var reader lineReader
	var stdin *bufio.Reader
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		reader = newLinerReader(ctx, opts.History)
		stdin = bufio.NewReader(os.Stdin)
	} else {
		stdin = bufio.NewReader(in)
		reader = &plainReader{in: stdin, out: out}
	}
	defer reader.Close()

	session := mila.NewSession(mila.Options{
		Stdout:   mila.WriterLogger(out),
		Stderr:   mila.WriterLogger(stderr),
		Stdin:    stdin,
		MaxDepth: opts.MaxDepth,
	})

	if lr, ok := reader.(*linerReader); ok {
		lr.state.SetCompleter(func(line string) []string {
			return filterCompletions(line, session.Env().Names())
		})
	}

	if opts.Banner {
		printBanner(out, opts.Version)
	}

	var inputBuffer strings.Builder

	for {
		currentPrompt := opts.Prompt
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := reader.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				// Ctrl+D - exit
				fmt.Fprintln(out, "\nGoodbye!")
				return 0
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			return 1
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return 0
		}

		// Handle REPL commands (start with :)
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, session, out)
			continue
		}

		// Skip empty lines when no input buffered
		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}
		inputBuffer.Reset()

		reader.AppendHistory(fullInput)
		if opts.History != nil {
			if err := opts.History.AddLine(ctx, fullInput); err != nil {
				fmt.Fprintf(stderr, "[WARN] %v\n", err)
			}
		}

		res := session.Eval(fullInput)
		if res.Exited {
			return res.Code
		}
		printResult(out, res)
	}
}

func printBanner(out io.Writer, version string) {
	if version != "" {
		fmt.Fprintf(out, "Mila %s\n", version)
	} else {
		fmt.Fprintln(out, "Mila")
	}
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")
}

// printResult prints errors as ERROR lines and values in their inspected
// form. Statements without a value print nothing.
func printResult(out io.Writer, res *mila.Result) {
	for _, err := range res.ParseErrors {
		fmt.Fprintf(out, "ERROR: %s\n", err.String())
	}
	if res.RuntimeError != nil {
		fmt.Fprintf(out, "ERROR: %s\n", res.RuntimeError.String())
	}
	if res.Value != nil {
		fmt.Fprintln(out, res.Value.Inspect())
	}
}

// handleReplCommand handles REPL meta-commands that start with ':'
func handleReplCommand(cmd string, session *mila.Session, out io.Writer) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?      Show this help")
		fmt.Fprintln(out, "  :env               Show variables in scope")
		fmt.Fprintln(out, "  :clear             Clear all user variables")
		fmt.Fprintln(out, "  :describe TOPIC    Describe a type, builtin or operator list")
		fmt.Fprintln(out, "  exit, quit         Exit the REPL")

	case ":env":
		printEnvironment(session.Env(), out)

	case ":clear":
		session.Reset()
		fmt.Fprintln(out, "Environment cleared")

	case ":describe", ":d":
		if arg == "" {
			arg = "types"
		}
		result, err := help.DescribeTopic(arg)
		if err != nil {
			fmt.Fprintf(out, "ERROR: %v\n", err)
			return
		}
		io.WriteString(out, help.FormatText(result))

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printEnvironment displays all user-defined variables in the environment
func printEnvironment(env *evaluator.Environment, out io.Writer) {
	names := env.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, "(no user variables)")
		return
	}

	for _, name := range names {
		obj, _ := env.Get(name)
		kind := "let"
		if env.IsMutable(name) {
			kind = "var"
		}
		value := obj.Inspect()

		// For multi-line values, indent continuation lines by 2 spaces
		if strings.Contains(value, "\n") {
			value = strings.ReplaceAll(value, "\n", "\n  ")
		} else if len(value) > 60 {
			value = value[:57] + "..."
		}

		fmt.Fprintf(out, "  %s %s: %s = %s\n", kind, name, obj.Type(), value)
	}
}

var replCommands = []string{":help", ":env", ":clear", ":describe"}

// completionWords is every keyword and builtin, sorted.
var completionWords = func() []string {
	words := append(lexer.Keywords(), evaluator.BuiltinNames()...)
	sort.Strings(words)
	return words
}()

// filterCompletions returns full-line completions for the word being typed.
// names are the user's bindings.
func filterCompletions(line string, names []string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace (including tabs from pasting)
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		if strings.HasPrefix(trimmed, ":describe") {
			return prefixAll(line, help.Topics())
		}
		return nil
	}

	if strings.HasPrefix(line, ":") {
		if topic, ok := strings.CutPrefix(line, ":describe "); ok {
			return completeWord(":describe ", topic, help.Topics())
		}
		return completeWord("", line, replCommands)
	}

	// The word being typed starts after the last non-identifier character
	start := strings.LastIndexFunc(line, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) + 1
	head, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	// a method name after a dot
	if strings.HasSuffix(head, ".") {
		var methods []string
		for _, typeName := range evaluator.TypesWithMethods() {
			methods = append(methods, evaluator.GetRegistryForType(typeName).Names()...)
		}
		return completeWord(head, word, methods)
	}

	candidates := append(append([]string{}, names...), completionWords...)
	return completeWord(head, word, candidates)
}

func completeWord(head, word string, candidates []string) []string {
	seen := make(map[string]bool)
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) && !seen[c] {
			seen[c] = true
			matches = append(matches, head+c)
		}
	}
	sort.Strings(matches)
	return matches
}

func prefixAll(head string, words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = head + w
	}
	return out
}

// needsMoreInput checks if the input has unclosed braces, brackets or
// parentheses outside strings and comments.
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	depth := 0
	inString := false
	escapeNext := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inString {
			switch {
			case escapeNext:
				escapeNext = false
			case ch == '\\':
				escapeNext = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '/':
			// skip a // comment to the end of its line
			if i+1 < len(input) && input[i+1] == '/' {
				for i < len(input) && input[i] != '\n' {
					i++
				}
			}
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}

	return depth > 0 || inString
}

// plainReader reads lines from a non-terminal reader, echoing the prompt.
type plainReader struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *plainReader) Prompt(prompt string) (string, error) {
	io.WriteString(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *plainReader) AppendHistory(string) {}

func (p *plainReader) Close() error { return nil }

// linerReader wraps liner with history loading and saving.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader(ctx context.Context, store *history.Store) *linerReader {
	state := liner.NewLiner()
	// Enable Ctrl+C to abort current line
	state.SetCtrlCAborts(true)

	lr := &linerReader{state: state}

	if store != nil {
		if lines, err := store.Lines(ctx, historyLines); err == nil {
			for _, l := range lines {
				state.AppendHistory(l)
			}
		}
		return lr
	}

	lr.historyFile = filepath.Join(os.TempDir(), ".mila_history")
	if f, err := os.Open(lr.historyFile); err == nil {
		state.ReadHistory(f)
		f.Close()
	}
	return lr
}

func (lr *linerReader) Prompt(prompt string) (string, error) {
	return lr.state.Prompt(prompt)
}

func (lr *linerReader) AppendHistory(item string) {
	lr.state.AppendHistory(item)
}

func (lr *linerReader) Close() error {
	if lr.historyFile != "" {
		if f, err := os.Create(lr.historyFile); err == nil {
			lr.state.WriteHistory(f)
			f.Close()
		}
	}
	return lr.state.Close()
}
