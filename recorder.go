package brokerimport

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder persists the canonical ledger to a SQLite database so downstream
// tooling can query it without re-running the ingestion. The ledger is
// rewritten wholesale on every run: the source exports stay the single source
// of truth, the database is a derived artifact.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (or creates) the SQLite database and runs migrations.
func OpenRecorder(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *Recorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			seq         INTEGER NOT NULL,
			day         TEXT NOT NULL,
			action      TEXT NOT NULL,
			symbol      TEXT,
			description TEXT,
			quantity    TEXT,
			price       TEXT,
			fees        TEXT NOT NULL,
			amount      TEXT,
			currency    TEXT NOT NULL,
			broker      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_day ON transactions(day)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Record replaces the stored ledger with the given one. The seq column
// preserves the reconciled order, including the stable equal-date order; each
// row gets a fresh id for downstream references.
func (r *Recorder) Record(txs []*Transaction) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO transactions
		(id, seq, day, action, symbol, description, quantity, price, fees, amount, currency, broker)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, t := range txs {
		var quantity, price, amount any
		if t.Quantity != nil {
			quantity = t.Quantity.String()
		}
		if t.Price != nil {
			price = t.Price.Decimal().String()
		}
		if t.Amount != nil {
			amount = t.Amount.Decimal().String()
		}
		if _, err := stmt.Exec(
			uuid.NewString(), seq, t.Date.String(), string(t.Action), t.Symbol, t.Description,
			quantity, price, t.Fees.Decimal().String(), amount, t.Currency, t.Broker,
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (r *Recorder) Close() error { return r.db.Close() }
