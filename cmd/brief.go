package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/macro"
	"github.com/etnz/macro/brief"
	"github.com/etnz/macro/renderer"
	"github.com/google/subcommands"
)

type briefCmd struct {
	model string
}

func (*briefCmd) Name() string     { return "brief" }
func (*briefCmd) Synopsis() string { return "ask Gemini for a commentary on the dashboard" }
func (*briefCmd) Usage() string {
	return `mdash brief [-model <name>]

  Builds the dashboard and asks Gemini for a short commentary on it.
  Requires the GEMINI_API_KEY environment variable or the -gemini-api-key flag.
`
}

func (c *briefCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.model, "model", brief.Model, "Gemini model")
}

func (c *briefCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	analyst, err := brief.New(ctx, apiKey(*geminiKeyFlag, EnvGeminiKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	analyst.Model = c.model

	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sources, events := Sources()
	d := macro.Build(ctx, cat, sources, events, macro.Today())
	reportErrors(d.Err())

	text, err := analyst.Brief(ctx, renderer.RenderDashboard(d))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(fmt.Sprintf("# Briefing, %s\n\n%s\n", d.AsOf, text))
	return subcommands.ExitSuccess
}
