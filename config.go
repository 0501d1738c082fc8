package brokerimport

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds one run's configuration: where the broker exports live and
// where the canonical ledger goes.
type Config struct {
	Schwab struct {
		Transactions       string `yaml:"transactions"`
		TransactionsFolder string `yaml:"transactions_folder"`
		Awards             string `yaml:"awards"`
		AwardsFolder       string `yaml:"awards_folder"`
		EquityAwards       string `yaml:"equity_awards"`
		EquityAwardsFolder string `yaml:"equity_awards_folder"`
	} `yaml:"schwab"`
	// TickerRenames extends the built-in historical ticker rename table.
	TickerRenames map[string]string `yaml:"ticker_renames"`
	Output        struct {
		Ledger string `yaml:"ledger"`
		SQLite string `yaml:"sqlite"`
	} `yaml:"output"`
	LogLevel string `yaml:"log_level"`
}

// LoadConfig reads config from a YAML file, then applies environment variable
// overrides. A missing file is not an error, everything can come from the
// environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SCHWAB_TRANSACTIONS"); v != "" {
		cfg.Schwab.Transactions = v
	}
	if v := os.Getenv("SCHWAB_TRANSACTIONS_FOLDER"); v != "" {
		cfg.Schwab.TransactionsFolder = v
	}
	if v := os.Getenv("SCHWAB_AWARDS"); v != "" {
		cfg.Schwab.Awards = v
	}
	if v := os.Getenv("SCHWAB_AWARDS_FOLDER"); v != "" {
		cfg.Schwab.AwardsFolder = v
	}
	if v := os.Getenv("SCHWAB_EQUITY_AWARDS"); v != "" {
		cfg.Schwab.EquityAwards = v
	}
	if v := os.Getenv("SCHWAB_EQUITY_AWARDS_FOLDER"); v != "" {
		cfg.Schwab.EquityAwardsFolder = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Source assembles the Schwab source description from the configuration.
func (c *Config) Source() SchwabSource {
	renames := TickerRenames{}
	for old, current := range DefaultTickerRenames {
		renames[old] = current
	}
	for old, current := range c.TickerRenames {
		renames[old] = current
	}
	return SchwabSource{
		Transactions:       c.Schwab.Transactions,
		TransactionsFolder: c.Schwab.TransactionsFolder,
		Awards:             c.Schwab.Awards,
		AwardsFolder:       c.Schwab.AwardsFolder,
		EquityAwards:       c.Schwab.EquityAwards,
		EquityAwardsFolder: c.Schwab.EquityAwardsFolder,
		Renames:            renames,
	}
}
