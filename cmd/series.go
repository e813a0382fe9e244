package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/macro"
	"github.com/etnz/macro/renderer"
	"github.com/google/subcommands"
)

type seriesCmd struct {
	rows      int
	since     string
	transform string
	json      bool
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "display the recent observations of indicators" }
func (*seriesCmd) Usage() string {
	return `mdash series [-n rows] [-since <date>] [-json [-transform yoy|mom]] <id>...

  Fetches catalogued series and prints their latest observations with their
  month-over-month and year-over-year changes.

Usage Examples:
$ mdash series CPIAUCSL
$ mdash series -json -transform yoy -since -2y CPIAUCSL PCEPI
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.rows, "n", renderer.SeriesRows, "number of observations to list")
	f.StringVar(&c.since, "since", "", "first observation date (defaults to the catalogue start)")
	f.StringVar(&c.transform, "transform", macro.TransformValue, "with -json: value, yoy or mom")
	f.BoolVar(&c.json, "json", false, "print the series as JSON")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing series id")
		return subcommands.ExitUsageError
	}
	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	from := cat.Start
	if c.since != "" {
		if from, err = macro.ParseDate(c.since); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q: %v\n", c.since, err)
			return subcommands.ExitUsageError
		}
	}
	sources, _ := Sources()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		ind, ok := cat.Indicator(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: %q is not in the catalogue\n", id)
			status = subcommands.ExitFailure
			continue
		}
		// Fetch from the catalogue start at least, so that the first changes are defined.
		start := cat.Start
		if from.Before(start) {
			start = from
		}
		s, err := macro.FetchIndicator(ctx, ind, sources, macro.NewRange(start, macro.Today()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		if c.json {
			if s, err = s.Transform(c.transform); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitUsageError
			}
			if err := printJSON(os.Stdout, s.Since(from)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				status = subcommands.ExitFailure
			}
			continue
		}
		view := renderer.NewSeriesView(ind, s, c.rows)
		view.Rows = slices.DeleteFunc(view.Rows, func(r renderer.SeriesRow) bool { return r.Date.Before(from) })
		printMarkdown(renderer.RenderSeries(view))
	}
	return status
}
