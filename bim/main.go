package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/brokerimport/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion: runs and exits when invoked by the shell,
	// no-op otherwise.
	completion := &complete.Command{
		Sub: map[string]*complete.Command{
			"convert": {Flags: map[string]complete.Predictor{"o": predict.Files("*.jsonl")}},
			"record":  {Flags: map[string]complete.Predictor{"db": predict.Files("*.db")}},
		},
		Flags: map[string]complete.Predictor{"config": predict.Files("*.yaml")},
	}
	completion.Complete("bim")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
