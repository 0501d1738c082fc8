package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/brokerimport"
	"github.com/google/subcommands"
)

// convertCmd holds the flags for the 'convert' subcommand.
type convertCmd struct {
	output string
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "normalize broker exports into a canonical ledger" }
func (*convertCmd) Usage() string {
	return `bim convert [-o <file>]

  Reads the broker exports named in the configuration, reconciles them into a
  single canonical ledger and writes it out as JSONL, one transaction per
  line, in chronological order.
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file for the ledger (JSONL). Defaults to the configured one, or stdout.")
}

func (c *convertCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ledger, err := loadRun()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading broker exports: %v\n", err)
		return subcommands.ExitFailure
	}

	output := c.output
	if output == "" {
		output = cfg.Output.Ledger
	}

	w := os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating ledger file %q: %v\n", output, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	if err := brokerimport.EncodeLedger(w, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
