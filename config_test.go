package brokerimport

import (
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "brokerimport.yaml", `
schwab:
  transactions: exports/transactions.csv
  awards_folder: exports/awards
  equity_awards: exports/equity.json
ticker_renames:
  OLD: NEW
output:
  ledger: ledger.jsonl
  sqlite: ledger.db
log_level: warn
`)

	t.Setenv("SCHWAB_TRANSACTIONS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Schwab.Transactions != "exports/transactions.csv" {
		t.Errorf("Schwab.Transactions = %q", cfg.Schwab.Transactions)
	}
	if cfg.Schwab.AwardsFolder != "exports/awards" {
		t.Errorf("Schwab.AwardsFolder = %q", cfg.Schwab.AwardsFolder)
	}
	if cfg.Output.Ledger != "ledger.jsonl" || cfg.Output.SQLite != "ledger.db" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}

	src := cfg.Source()
	if src.Transactions != "exports/transactions.csv" || src.EquityAwards != "exports/equity.json" {
		t.Errorf("Source() = %+v", src)
	}
	// Configured renames extend the built-in table.
	if got := src.Renames.Normalize("OLD"); got != "NEW" {
		t.Errorf("Normalize(OLD) = %q, want NEW", got)
	}
	if got := src.Renames.Normalize("FB"); got != "META" {
		t.Errorf("Normalize(FB) = %q, want META", got)
	}
}

func TestLoadConfig_missingFileAndEnv(t *testing.T) {
	t.Setenv("SCHWAB_TRANSACTIONS", "env/transactions.csv")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want none for a missing file", err)
	}
	if cfg.Schwab.Transactions != "env/transactions.csv" {
		t.Errorf("Schwab.Transactions = %q, want the environment override", cfg.Schwab.Transactions)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want the info default", cfg.LogLevel)
	}
}
