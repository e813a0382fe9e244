package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/macro"
	"github.com/etnz/macro/renderer"
	"github.com/google/subcommands"
)

type calendarCmd struct {
	date string
	json bool
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "display the economic calendar of the next two weeks" }
func (*calendarCmd) Usage() string {
	return `mdash calendar [-d <date>] [-json]

  Lists the US economic events of the next 14 days, starring the important ones.
  Events come from Trading Economics when TRADING_ECON_API_KEY is set, from the
  catalogue's schedule otherwise.
`
}

func (c *calendarCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "0d", "first day of the calendar")
	f.BoolVar(&c.json, "json", false, "print the calendar as JSON")
}

func (c *calendarCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	_, events := Sources()
	sb := macro.BuildSidebar(ctx, cat, events, today)
	reportErrors(sb.Err)

	if c.json {
		if err := printJSON(os.Stdout, sb); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RenderCalendar(sb))
	return subcommands.ExitSuccess
}
