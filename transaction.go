package brokerimport

import (
	"fmt"
	"sort"

	"github.com/etnz/brokerimport/date"
)

// ActionType is a typed string identifying the economic kind of a transaction.
type ActionType string

// The closed set of canonical actions every source converts into.
const (
	Buy               ActionType = "buy"
	Sell              ActionType = "sell"
	Transfer          ActionType = "transfer"
	StockActivity     ActionType = "stock-activity" // vest or award deposit
	Dividend          ActionType = "dividend"
	Tax               ActionType = "tax"
	Fee               ActionType = "fee"
	Adjustment        ActionType = "adjustment"
	CapitalGain       ActionType = "capital-gain"
	SpinOff           ActionType = "spin-off"
	Interest          ActionType = "interest"
	ReinvestShares    ActionType = "reinvest-shares"
	ReinvestDividends ActionType = "reinvest-dividends"
	WireFundsReceived ActionType = "wire-funds-received"
	StockSplit        ActionType = "stock-split"
	CashMerger        ActionType = "cash-merger"
)

// TickerRenames maps historical tickers to their current symbol.
type TickerRenames map[string]string

// DefaultTickerRenames covers the historical ticker changes seen in the
// supported exports.
var DefaultTickerRenames = TickerRenames{
	"FB": "META",
}

// Normalize returns the current symbol for a possibly historical ticker.
func (r TickerRenames) Normalize(symbol string) string {
	if renamed, ok := r[symbol]; ok {
		return renamed
	}
	return symbol
}

// Transaction is the canonical record all broker exports convert into.
//
// Optional fields are pointers: a nil Quantity, Price or Amount means the
// source genuinely did not report one, which is only legitimate for cash-only
// actions. Once a transaction has been through its source's fix-up passes it
// is treated as immutable: reconciliation filters and reorders but never
// mutates, so downstream auditing can trace a record back to its origin.
type Transaction struct {
	Date        date.Date
	Action      ActionType
	Symbol      string // normalized ticker, empty for pure cash events
	Description string // free-text origin label, preserved for audit
	Quantity    *Quantity
	Price       *Money
	Fees        Money // never absent, defaults to zero
	Amount      *Money
	Currency    string
	Broker      string

	// rawAction is the source's own action label, kept for the pairing
	// passes that need to distinguish e.g. "Cash Merger" from
	// "Cash Merger Adj" before both collapse to CashMerger.
	rawAction string
}

// RawAction returns the source's original action label.
func (t *Transaction) RawAction() string { return t.rawAction }

func (t *Transaction) String() string {
	qty, price, amount := "-", "-", "-"
	if t.Quantity != nil {
		qty = t.Quantity.String()
	}
	if t.Price != nil {
		price = t.Price.String()
	}
	if t.Amount != nil {
		amount = t.Amount.String()
	}
	return fmt.Sprintf("%s %s %s qty=%s price=%s amount=%s", t.Date, t.Action, t.Symbol, qty, price, amount)
}

// requiresQuantity lists the actions that move shares and therefore must
// carry a share count.
func requiresQuantity(a ActionType) bool {
	switch a {
	case Buy, Sell, StockActivity:
		return true
	}
	return false
}

// Validate checks the canonical invariants on a finalized transaction.
//
// A quantity, once present, is never negative: the sign of the economic event
// is encoded by the action, never by the value. Share-moving actions must
// carry a quantity, and a price unless it is still to be backfilled by the
// award price resolver (allowMissingPrice).
func (t *Transaction) Validate(allowMissingPrice bool) error {
	if t.Date.IsZero() {
		return fmt.Errorf("transaction has no date: %s", t)
	}
	if t.Quantity != nil && t.Quantity.IsNegative() {
		return fmt.Errorf("transaction quantity must not be negative, got %s: %s", t.Quantity, t)
	}
	if requiresQuantity(t.Action) {
		if t.Quantity == nil {
			return fmt.Errorf("%s transaction requires a quantity: %s", t.Action, t)
		}
		if t.Price == nil && !allowMissingPrice {
			return fmt.Errorf("%s transaction requires a price: %s", t.Action, t)
		}
	}
	return nil
}

// sortByDate stable-sorts transactions chronologically. Equal-date
// transactions keep their relative order, a contract the downstream tax
// engine's same-day matching rules depend on.
func sortByDate(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}
