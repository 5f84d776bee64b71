package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sambeau/mila/config"
	"github.com/sambeau/mila/pkg/mila/ast"
	milaerrors "github.com/sambeau/mila/pkg/mila/errors"
	"github.com/sambeau/mila/pkg/mila/history"
	"github.com/sambeau/mila/pkg/mila/mila"
	"github.com/sambeau/mila/pkg/mila/repl"
)

// Version information, set at build time via -ldflags
var (
	Version = "dev"     // -X main.Version=$(git describe --tags --always)
	Commit  = "unknown" // -X main.Commit=$(git rev-parse --short HEAD)
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	cancel()
	os.Exit(code)
}

// cli carries what every command needs.
type cli struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	cfg       *config.Config
	log       *logger
	noHistory bool
	// jsonErrors prints program errors as JSON objects, one per line.
	jsonErrors bool
}

// run is the main entry point, designed for testability (Mat Ryer pattern).
// It returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	flags := flag.NewFlagSet("mila", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		configPath  = flags.String("config", "", "Path to config file")
		maxDepth    = flags.Int("max-depth", 0, "Override the call depth limit")
		noHistory   = flags.Bool("no-history", false, "Do not record runs")
		evalCode    = flags.String("eval", "", "Evaluate code and print the result")
		checkOnly   = flags.Bool("check", false, "Check syntax without executing")
		watchMode   = flags.Bool("watch", false, "Re-run the file when it changes")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	flags.StringVar(evalCode, "e", "", "Alias for --eval")
	flags.BoolVar(showVersion, "V", false, "Alias for --version")
	flags.BoolVar(showHelp, "h", false, "Alias for --help")

	// Subcommands come after any flags
	if err := flags.Parse(args); err != nil {
		printUsage(stderr)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if *showHelp {
		printUsage(stdout)
		return 0
	}
	if *showVersion {
		fmt.Fprintf(stdout, "mila version %s (%s)\n", Version, Commit)
		return 0
	}

	cfg, configFile, err := config.LoadWithPath(*configPath, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "error: loading config: %v\n", err)
		return 1
	}

	// Apply CLI overrides
	if *maxDepth != 0 {
		cfg.MaxDepth = *maxDepth
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "error: config validation: %v\n", err)
		return 1
	}

	c := &cli{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		cfg:       cfg,
		log:       newLogger(stderr, cfg.Logging.Level, cfg.Logging.Format),
		noHistory: *noHistory || !cfg.History.Enabled,

		jsonErrors: cfg.Logging.Format == "json",
	}
	if configFile != "" {
		c.log.logDebug("loaded config %s", configFile)
	}
	for _, warning := range config.Warnings(cfg) {
		c.log.logWarn("%s", warning)
	}

	rest := flags.Args()
	evalSet := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "eval" || f.Name == "e" {
			evalSet = true
		}
	})

	switch {
	case evalSet:
		return c.evalInline(*evalCode)
	case *checkOnly:
		if len(rest) == 0 {
			fmt.Fprintln(stderr, "error: --check needs at least one file")
			return 2
		}
		return c.checkFiles(rest)
	case len(rest) > 0 && rest[0] == "describe":
		return c.describeCommand(rest[1:])
	case len(rest) > 0 && rest[0] == "history":
		return c.historyCommand(ctx, rest[1:])
	case *watchMode:
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "error: --watch needs exactly one file")
			return 2
		}
		return c.watchFile(ctx, rest[0])
	case len(rest) > 0:
		return c.runFile(ctx, rest[0])
	default:
		return c.startREPL(ctx)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `mila - Mila language interpreter version %s

Usage:
  mila [options] [file]
  mila -e "code"
  mila --check <file>...
  mila --watch <file>
  mila describe [--json|--html] <topic>
  mila history list [--since DATE] [--limit N]
  mila history export <file.gz>
  mila history clear

Commands:
  describe <topic>      Show help for a type, builtin list or operators
  history               Show, export or clear recorded runs

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <code>     Evaluate code and print the result
  --check               Check syntax without executing
  --watch               Run the file again whenever it changes
  --config <path>       Config file (default: ./mila.yaml, ~/.config/mila/mila.yaml)
  --max-depth <n>       Maximum call depth
  --no-history          Do not record this run

Examples:
  mila                      Start interactive REPL
  mila script.mil           Execute a Mila script
  mila -e "1 + 2"           Evaluate inline code (outputs: 3)
  mila --check *.mil        Check syntax of several files
  mila describe string      List the methods of strings
  mila history list --since yesterday
`, Version)
}

func (c *cli) options(filename string) mila.Options {
	return mila.Options{
		Filename: filename,
		Stdout:   mila.WriterLogger(c.stdout),
		Stderr:   mila.WriterLogger(c.stderr),
		Stdin:    c.stdin,
		MaxDepth: c.cfg.MaxDepth,
	}
}

// runFile executes a script and records the run.
func (c *cli) runFile(ctx context.Context, path string) int {
	started := time.Now()
	res, err := mila.RunFile(path, c.options(path))
	if err != nil {
		fmt.Fprintf(c.stderr, "Error reading file '%s': %v\n", path, err)
		return 1
	}
	elapsed := time.Since(started)

	if res.Failed() {
		c.printErrors(res)
	}
	status := res.Status()

	run := history.Run{
		File:        path,
		Status:      status,
		Started:     started,
		Duration:    elapsed,
		Fingerprint: history.Fingerprint([]byte(res.Source)),
	}
	if msgs := res.Errors(); len(msgs) > 0 {
		run.Error = strings.Join(msgs, "\n")
	}
	c.record(ctx, run)

	return status
}

// record stores a run in history. Failures are logged, never fatal.
func (c *cli) record(ctx context.Context, run history.Run) {
	if c.noHistory {
		return
	}
	store, err := c.openHistory(ctx)
	if err != nil {
		c.log.logWarn("history: %v", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, run); err != nil {
		c.log.logWarn("history: %v", err)
	}
}

func (c *cli) openHistory(ctx context.Context) (*history.Store, error) {
	return history.Open(ctx, c.cfg.History)
}

// evalInline evaluates code and prints the inspected result.
func (c *cli) evalInline(code string) int {
	res := mila.Run(code, c.options("<eval>"))
	if res.Failed() {
		c.printErrors(res)
	} else if res.Value != nil {
		fmt.Fprintln(c.stdout, res.Value.Inspect())
	}
	return res.Status()
}

// checkFiles parses each file without running it.
func (c *cli) checkFiles(files []string) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error reading %s: %v\n", filename, err)
			return 2 // File error
		}

		program, errs := mila.Parse(string(content), filename)
		if len(errs) != 0 {
			c.printStructuredErrors(string(content), errs)
			hasErrors = true
			continue
		}

		nodes := 0
		ast.Walk(program, func(ast.Node) bool {
			nodes++
			return true
		})
		fmt.Fprintf(c.stdout, "%s: ok (%d statements, %d nodes)\n", filename, len(program.Statements), nodes)
	}

	if hasErrors {
		return 1 // Syntax errors
	}
	return 0
}

func (c *cli) startREPL(ctx context.Context) int {
	opts := repl.Options{
		Version:  Version,
		Prompt:   c.cfg.REPL.Prompt,
		Banner:   c.cfg.REPL.Banner,
		MaxDepth: c.cfg.MaxDepth,
		Stderr:   c.stderr,
	}
	if !c.noHistory {
		store, err := c.openHistory(ctx)
		if err != nil {
			c.log.logWarn("history: %v", err)
		} else {
			defer store.Close()
			opts.History = store
		}
	}
	return repl.Start(c.stdin, c.stdout, opts)
}

// printErrors prints parse errors, or the runtime error, each followed by
// the offending source line.
func (c *cli) printErrors(res *mila.Result) {
	if len(res.ParseErrors) > 0 {
		c.printStructuredErrors(res.Source, res.ParseErrors)
		return
	}
	if res.RuntimeError != nil {
		c.printStructuredErrors(res.Source, []*milaerrors.MilaError{res.RuntimeError})
	}
}

// printStructuredErrors writes errs to stderr, as JSON lines when the log
// format is json.
func (c *cli) printStructuredErrors(source string, errs []*milaerrors.MilaError) {
	if c.jsonErrors {
		for _, err := range errs {
			data, jerr := err.ToJSON()
			if jerr != nil {
				fmt.Fprintln(c.stderr, err.String())
				continue
			}
			fmt.Fprintf(c.stderr, "%s\n", data)
		}
		return
	}

	lines := strings.Split(source, "\n")
	for _, err := range errs {
		fmt.Fprintln(c.stderr, err.String())
		printSourceContext(c.stderr, lines, err.Line, err.Column)
	}
}

// printSourceContext shows the source line with a caret under the error
// column. Leading indentation is trimmed; tabs count as 8 columns.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := strings.TrimRight(lines[lineNum-1], "\r")

	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}

	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(sourceLine, " \t"))

	if colNum > 0 {
		visualCol := 0
		for i, r := range []rune(sourceLine) {
			if i >= colNum-1 {
				break
			}
			if r == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}
