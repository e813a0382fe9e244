// Command mdash is a US macroeconomic dashboard: employment, inflation and
// rates from FRED and BLS, plus the economic calendar of the next two weeks.
//
// Without arguments it serves the dashboard on http://localhost:8501.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/etnz/macro/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	cmd.Completion(commander).Complete("mdash")

	flag.Parse()
	cmd.SetupLogging()

	if flag.NArg() == 0 {
		flag.CommandLine.Parse([]string{"serve"})
	}
	if name := flag.Arg(0); !cmd.Known(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}
