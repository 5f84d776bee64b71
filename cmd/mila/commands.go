package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sambeau/mila/pkg/mila/help"
	"github.com/sambeau/mila/pkg/mila/history"
)

const describeUsage = `Usage: mila describe [--json|--html] <topic>

Topics:
  types              List all available types
  builtins           List all builtin functions by category
  operators          List all operators
  <type>             Methods of a type (string, array, hash, ...)
  <builtin>          Help for a specific builtin (len, putsln, ...)

Examples:
  mila describe string
  mila describe builtins
  mila describe --json array
  mila describe --html operators > operators.html`

// describeCommand prints help for a topic.
func (c *cli) describeCommand(args []string) int {
	format := "text"
	var topic string

	for _, arg := range args {
		switch {
		case arg == "--json":
			format = "json"
		case arg == "--html":
			format = "html"
		case !strings.HasPrefix(arg, "-"):
			topic = arg
		}
	}

	if topic == "" {
		fmt.Fprintln(c.stderr, describeUsage)
		return 1
	}

	result, err := help.DescribeTopic(topic)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	switch format {
	case "json":
		data, err := help.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error formatting JSON: %v\n", err)
			return 1
		}
		fmt.Fprintln(c.stdout, string(data))
	case "html":
		html, err := help.FormatHTML(result)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error rendering HTML: %v\n", err)
			return 1
		}
		io.WriteString(c.stdout, html)
	default:
		io.WriteString(c.stdout, help.FormatText(result))
	}
	return 0
}

func printHistoryUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: mila history <command>

Commands:
  list [--since DATE] [--limit N]   Show recorded runs, newest first
  export <file.gz>                  Write all runs as gzipped JSON lines
  clear                             Delete all runs and REPL history

DATE is a duration back from now (90m, 36h, 7d), today, yesterday,
or a date such as 2026-03-01 or "March 1 2026 10:00".`)
}

// historyCommand dispatches the history subcommands.
func (c *cli) historyCommand(ctx context.Context, args []string) int {
	if len(args) == 0 {
		printHistoryUsage(c.stderr)
		return 2
	}

	store, err := c.openHistory(ctx)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error opening history: %v\n", err)
		return 1
	}
	defer store.Close()

	switch args[0] {
	case "list":
		return c.historyList(ctx, store, args[1:])
	case "export":
		if len(args) != 2 {
			printHistoryUsage(c.stderr)
			return 2
		}
		return c.historyExport(ctx, store, args[1])
	case "clear":
		n, err := store.Clear(ctx)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error clearing history: %v\n", err)
			return 1
		}
		fmt.Fprintf(c.stdout, "Cleared %d runs\n", n)
		return 0
	default:
		fmt.Fprintf(c.stderr, "Unknown history command: %s\n\n", args[0])
		printHistoryUsage(c.stderr)
		return 2
	}
}

func (c *cli) historyList(ctx context.Context, store *history.Store, args []string) int {
	flags := flag.NewFlagSet("mila history list", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	since := flags.String("since", "", "Only runs started after this")
	limit := flags.Int("limit", 20, "Maximum runs to show (0 for all)")
	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 2
	}

	var from time.Time
	if *since != "" {
		t, err := history.ParseSince(*since, time.Now())
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		from = t
	}

	runs, err := store.List(ctx, from, *limit)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error listing history: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.stdout, "No runs recorded.")
		return 0
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tDURATION\tFINGERPRINT\tFILE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			history.FormatTime(r.Started.Local(), c.cfg.History.Locale),
			r.Status,
			r.Duration.Round(time.Microsecond),
			history.ShortFingerprint(r.Fingerprint),
			r.File,
		)
		if r.Error != "" {
			first, _, _ := strings.Cut(r.Error, "\n")
			fmt.Fprintf(tw, "\t\t\t\t  %s\n", first)
		}
	}
	tw.Flush()
	return 0
}

func (c *cli) historyExport(ctx context.Context, store *history.Store, path string) int {
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error creating %s: %v\n", path, err)
		return 1
	}

	n, err := store.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "Error exporting history: %v\n", err)
		return 1
	}

	fmt.Fprintf(c.stdout, "Exported %d runs to %s\n", n, path)
	return 0
}
