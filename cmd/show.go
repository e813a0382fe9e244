package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/macro"
	"github.com/etnz/macro/renderer"
	"github.com/google/subcommands"
)

// showCmd prints the dashboard in the terminal.
type showCmd struct {
	date   string
	watch  int
	strict bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "display the dashboard in the terminal" }
func (*showCmd) Usage() string {
	return `mdash show [-d <date>] [-w n] [-strict]

  Fetches every indicator and the economic calendar, and prints the dashboard
  as markdown. Unavailable data is shown as a placeholder and reported on stderr.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "0d", "as-of date of the dashboard, also relative like -1w")
	f.IntVar(&c.watch, "w", 0, "refresh every n seconds")
	f.BoolVar(&c.strict, "strict", false, "exit with a failure if any element is unavailable")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	today, err := macro.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid date %q: %v\n", c.date, err)
		return subcommands.ExitUsageError
	}
	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sources, events := Sources()

	for {
		d := macro.Build(ctx, cat, sources, events, today)
		if c.watch > 0 {
			fmt.Println("\033[2J")
		}
		printMarkdown(renderer.RenderDashboard(d))
		reportErrors(d.Err())

		if c.watch <= 0 {
			if c.strict && d.Err() != nil {
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		}
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-time.After(time.Duration(c.watch) * time.Second):
		}
		if c.date == "0d" {
			today = macro.Today()
		}
	}
}
