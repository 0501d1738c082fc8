// Package cmd implements the CLI application that turns broker exports into
// a canonical transaction ledger.
package cmd

import (
	"flag"

	"github.com/etnz/brokerimport"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&convertCmd{}, "ledger")
	c.Register(&recordCmd{}, "ledger")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "brokerimport.yaml", "Path to the run configuration file (YAML)")

// loadRun loads the configuration and runs the full ingestion pipeline.
func loadRun() (*brokerimport.Config, []*brokerimport.Transaction, error) {
	cfg, err := brokerimport.LoadConfig(*configFile)
	if err != nil {
		return nil, nil, err
	}
	diag := brokerimport.NewDiagnosticsSink(cfg.LogLevel)
	ledger, err := brokerimport.ReadSchwab(cfg.Source(), diag)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ledger, nil
}
