package brokerimport

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/brokerimport/date"
)

// This file contains the export format of the canonical ledger.
// It is a JSONL stream, one transaction per line: human readable, easy to
// diff, and trivial for a downstream tax engine to consume.

// jtransaction is the wire shape of one canonical transaction.
type jtransaction struct {
	Date        date.Date `json:"date"`
	Action      string    `json:"action"`
	Symbol      string    `json:"symbol,omitempty"`
	Description string    `json:"description,omitempty"`
	Quantity    *Quantity `json:"quantity,omitempty"`
	Price       *Money    `json:"price,omitempty"`
	Fees        Money     `json:"fees"`
	Amount      *Money    `json:"amount,omitempty"`
	Currency    string    `json:"currency"`
	Broker      string    `json:"broker"`
}

// EncodeTransaction marshals a single transaction and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx *Transaction) error {
	data, err := json.Marshal(jtransaction{
		Date:        tx.Date,
		Action:      string(tx.Action),
		Symbol:      tx.Symbol,
		Description: tx.Description,
		Quantity:    tx.Quantity,
		Price:       tx.Price,
		Fees:        tx.Fees,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Broker:      tx.Broker,
	})
	if err != nil {
		return fmt.Errorf("cannot marshal transaction %s: %w", tx, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write transaction: %w", err)
	}
	return nil
}

// EncodeLedger writes the canonical ledger to an io.Writer in JSONL format,
// preserving the order established by reconciliation.
func EncodeLedger(w io.Writer, txs []*Transaction) error {
	for _, tx := range txs {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
