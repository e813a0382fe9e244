package cmd

import (
	"flag"

	"github.com/etnz/macro"
	"github.com/etnz/macro/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the commander's commands.
//
// Series ids are predicted from the built-in catalogue.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flags(flag.CommandLine),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		root.Sub[cmd.Name()] = &complete.Command{Flags: flags(fs)}
	})

	var ids predict.Set
	for _, ind := range macro.DefaultCatalogue().Indicators {
		ids = append(ids, ind.ID)
	}
	if s, ok := root.Sub["series"]; ok {
		s.Args = ids
		s.Flags["transform"] = predict.Set{macro.TransformValue, macro.TransformYoY, macro.TransformMoM}
	}
	if s, ok := root.Sub["topic"]; ok {
		topics := predict.Set{"*"}
		if all, err := docs.List(); err == nil {
			for _, t := range all {
				topics = append(topics, t.Name)
			}
		}
		s.Args = topics
	}
	if s, ok := root.Sub["publish"]; ok {
		s.Flags["o"] = predict.Dirs("*")
		s.Flags["frontmatter"] = predict.Files("*")
	}
	root.Flags["config"] = predict.Files("*.yaml")
	root.Flags["secrets"] = predict.Files("*.yaml")
	root.Flags["cache-dir"] = predict.Dirs("*")
	root.Flags["cache-period"] = predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
	return root
}

// flags predicts the flags of a flag set: nothing for booleans, something
// for the others.
func flags(fs *flag.FlagSet) map[string]complete.Predictor {
	res := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			res[f.Name] = predict.Nothing
			return
		}
		res[f.Name] = predict.Something
	})
	return res
}
