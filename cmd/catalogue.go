package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

type catalogueCmd struct{}

func (*catalogueCmd) Name() string     { return "catalogue" }
func (*catalogueCmd) Synopsis() string { return "print the catalogue of indicators and charts" }
func (*catalogueCmd) Usage() string {
	return `mdash catalogue

  Prints the catalogue in use (the -config file, or the built-in one) as YAML.
  The output is a valid starting point for a custom -config file.
`
}

func (c *catalogueCmd) SetFlags(f *flag.FlagSet) {}

func (c *catalogueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	enc.Close()
	return subcommands.ExitSuccess
}
