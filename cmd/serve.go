package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/etnz/macro/brief"
	"github.com/etnz/macro/server"
	"github.com/google/subcommands"
)

// DefaultAddr is where the dashboard is served by default.
const DefaultAddr = ":8501"

type serveCmd struct {
	addr  string
	brief bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the dashboard over HTTP (default command)" }
func (*serveCmd) Usage() string {
	return `mdash serve [-addr host:port] [-brief]

  Serves the dashboard page on / and its data on /api/dashboard,
  /api/series/:id and /api/calendar. Metrics are on /metrics.

  The page is rebuilt on each request; upstream responses are cached daily.
  With -brief, /?brief=1 adds a Gemini commentary (requires GEMINI_API_KEY).
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", DefaultAddr, "address to listen on")
	f.BoolVar(&c.brief, "brief", false, "enable briefings on /?brief=1")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sources, events := Sources()
	level := slog.LevelInfo
	if *Verbose {
		level = slog.LevelDebug
	}
	s := &server.Server{
		Catalogue: cat,
		Sources:   sources,
		Events:    events,
		Logger:    server.NewLogger(os.Stderr, level),
	}
	if c.brief {
		analyst, err := brief.New(ctx, apiKey(*geminiKeyFlag, EnvGeminiKey))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		s.Briefer = analyst
	}
	if events == nil {
		fmt.Fprintf(os.Stderr, "Warning: %s is not set, the calendar uses the catalogue's schedule\n", EnvTradingKey)
	}

	if err := s.ListenAndServe(ctx, c.addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
