package cmd

import (
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "dashboard")
	c.Register(&showCmd{}, "dashboard")
	c.Register(&briefCmd{}, "dashboard")
	c.Register(&publishCmd{}, "dashboard")

	c.Register(&seriesCmd{}, "data")
	c.Register(&calendarCmd{}, "data")
	c.Register(&catalogueCmd{}, "data")

	c.Register(&topicCmd{}, "help")
}

// Known returns true if name is a registered subcommand.
func Known(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}
