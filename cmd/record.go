package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerimport"
	"github.com/google/subcommands"
)

// recordCmd holds the flags for the 'record' subcommand.
type recordCmd struct {
	database string
}

func (*recordCmd) Name() string     { return "record" }
func (*recordCmd) Synopsis() string { return "persist the canonical ledger to a SQLite database" }
func (*recordCmd) Usage() string {
	return `bim record [-db <file>]

  Runs the same pipeline as convert, then replaces the content of the SQLite
  ledger database with the result, for downstream tooling to query.
`
}

func (c *recordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.database, "db", "", "SQLite database file. Defaults to the configured one.")
}

func (c *recordCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ledger, err := loadRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading broker exports: %v\n", err)
		return subcommands.ExitFailure
	}

	database := c.database
	if database == "" {
		database = cfg.Output.SQLite
	}
	if database == "" {
		fmt.Fprintln(os.Stderr, "No database configured: set -db or output.sqlite in the configuration")
		return subcommands.ExitUsageError
	}

	recorder, err := brokerimport.OpenRecorder(database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger database %q: %v\n", database, err)
		return subcommands.ExitFailure
	}
	defer recorder.Close()

	if err := recorder.Record(ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %d transactions to %s\n", len(ledger), database)
	return subcommands.ExitSuccess
}
