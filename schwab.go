package brokerimport

import (
	"fmt"
	"os"
	"strings"

	"github.com/etnz/brokerimport/date"
)

// Charles Schwab transaction export reader.
//
// The export is a CSV, newest transaction first. Two layouts exist: the
// current 8 column one, and an older 9 column one whose trailing column is
// always empty.

const (
	schwabCurrency = "USD"
	schwabBroker   = "Charles Schwab"

	schwabColumns    = 8
	schwabOldColumns = 9
)

// Required headers of the Schwab transactions export.
const (
	schwabHeaderDate        = "Date"
	schwabHeaderAction      = "Action"
	schwabHeaderSymbol      = "Symbol"
	schwabHeaderDescription = "Description"
	schwabHeaderPrice       = "Price"
	schwabHeaderQuantity    = "Quantity"
	schwabHeaderFees        = "Fees & Comm"
	schwabHeaderAmount      = "Amount"
)

// SchwabSource names the input files of one Schwab account.
//
// Every entry is optional: a missing file or folder is reported as a warning
// and contributes zero transactions. The awards export feeds the price
// resolver for vestings the transactions export reports without a price; the
// equity-award JSON export is the higher-precision description of the same
// vesting events and takes precedence over them during reconciliation.
type SchwabSource struct {
	Transactions       string
	TransactionsFolder string
	Awards             string
	AwardsFolder       string
	EquityAwards       string
	EquityAwardsFolder string

	// Renames overrides the ticker rename table, nil means the default one.
	Renames TickerRenames
}

func (s SchwabSource) renames() TickerRenames {
	if s.Renames != nil {
		return s.Renames
	}
	return DefaultTickerRenames
}

// ReadSchwab reads the full Schwab source: equity-award JSON first, then the
// transactions export with award prices backfilled, and reconciles the two
// overlapping streams into one deduplicated, chronologically ordered ledger.
func ReadSchwab(src SchwabSource, diag *Diagnostics) ([]*Transaction, error) {
	var equityTxs []*Transaction
	equityPrices := NewAwardPricesWithRenames(src.renames())

	if src.EquityAwards != "" || src.EquityAwardsFolder != "" {
		var err error
		equityTxs, equityPrices, err = ReadEquityAwards(src.EquityAwards, src.EquityAwardsFolder, src.renames(), diag)
		if err != nil {
			return nil, err
		}
	} else {
		diag.Info("no equity award export provided")
	}

	var txs []*Transaction
	if src.Transactions != "" || src.TransactionsFolder != "" {
		csvPrices, err := ReadAwards(src.Awards, src.AwardsFolder, src.renames(), diag)
		if err != nil {
			return nil, err
		}
		// The awards CSV is merged over the JSON-derived prices, so it wins
		// on conflicting (date, symbol) keys.
		prices := equityPrices.Merge(csvPrices)

		txs, err = ReadSchwabTransactions(src.Transactions, src.TransactionsFolder, prices, src.renames(), diag)
		if err != nil {
			return nil, err
		}
	} else {
		diag.Info("no transactions export provided")
	}

	if len(equityTxs) == 0 {
		return txs, nil
	}
	return Reconcile(equityTxs, txs, diag), nil
}

// ReadSchwabTransactions reads the Schwab transactions export from a file
// and/or a folder of files, backfilling missing vesting prices from the
// award price table, and returns the transactions sorted by date.
func ReadSchwabTransactions(file, folder string, prices *AwardPrices, renames TickerRenames, diag *Diagnostics) ([]*Transaction, error) {
	files, err := sourceFiles(file, folder, "*.csv")
	if err != nil {
		return nil, err
	}

	var all []*Transaction
	for _, f := range files {
		diag.Info("parsing transactions export", "file", f)
		txs, err := readSchwabFile(f, prices, renames, diag)
		if err != nil {
			if os.IsNotExist(err) {
				diag.Warn("could not locate transactions file", "file", f)
				continue
			}
			return nil, err
		}
		all = append(all, txs...)
	}
	sortByDate(all)
	return all, nil
}

// readSchwabFile reads a single transactions export. Cash merger rows are
// unified while the sequence is still in the raw export order (newest first),
// because the adjustment row immediately follows its primary there; only then
// is the sequence reversed into chronological order.
func readSchwabFile(path string, prices *AwardPrices, renames TickerRenames, diag *Diagnostics) ([]*Transaction, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	if err := table.require(
		schwabHeaderDate, schwabHeaderAction, schwabHeaderSymbol, schwabHeaderDescription,
		schwabHeaderPrice, schwabHeaderQuantity, schwabHeaderFees, schwabHeaderAmount,
	); err != nil {
		return nil, err
	}

	txs := make([]*Transaction, 0, len(table.rows))
	for i, row := range table.rows {
		tx, err := parseSchwabRow(table, i, row, renames)
		if err != nil {
			return nil, err
		}
		if err := backfillAwardPrice(tx, prices, path, table.rowContext(i)); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	txs, err = unifyCashMergers(path, txs, diag)
	if err != nil {
		return nil, err
	}

	for i, tx := range txs {
		if err := tx.Validate(false); err != nil {
			return nil, &ParsingError{Source: path, Context: fmt.Sprintf("record %d", i+1), Message: err.Error()}
		}
	}

	// The export is newest first, flip it into chronological order.
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	return txs, nil
}

// parseSchwabRow decodes one raw CSV row into a canonical transaction.
func parseSchwabRow(table *csvTable, i int, row []string, renames TickerRenames) (*Transaction, error) {
	if len(row) < schwabColumns || len(row) > schwabOldColumns {
		return nil, &UnexpectedColumnCountError{Source: table.path, Row: row, Want: schwabColumns}
	}
	if len(row) == schwabOldColumns && row[schwabOldColumns-1] != "" {
		return nil, &ParsingError{
			Source:  table.path,
			Context: table.rowContext(i),
			Message: fmt.Sprintf("column %d should be empty", schwabOldColumns),
		}
	}

	// Pending settlements are exported as "<action> as of <date>"; the
	// trailing date is the transaction date.
	dateStr := table.field(row, schwabHeaderDate)
	if _, after, found := strings.Cut(dateStr, " as of "); found {
		dateStr = after
	}
	day, err := date.ParseLayout("01/02/2006", dateStr)
	if err != nil {
		return nil, &ParsingError{
			Source:  table.path,
			Context: table.rowContext(i),
			Message: fmt.Sprintf("invalid date %q", dateStr),
		}
	}

	rawAction := table.field(row, schwabHeaderAction)
	action, err := schwabAction(rawAction)
	if err != nil {
		return nil, &ParsingError{Source: table.path, Context: table.rowContext(i), Message: err.Error()}
	}

	tx := &Transaction{
		Date:        day,
		Action:      action,
		Description: table.field(row, schwabHeaderDescription),
		Fees:        M(0, schwabCurrency),
		Currency:    schwabCurrency,
		Broker:      schwabBroker,
		rawAction:   rawAction,
	}
	if symbol := table.field(row, schwabHeaderSymbol); symbol != "" {
		tx.Symbol = renames.Normalize(symbol)
	}

	setField := func(header string, set func(Money)) error {
		s := table.field(row, header)
		if s == "" {
			return nil
		}
		value, err := parseDecimal(s)
		if err != nil {
			return &ParsingError{
				Source:  table.path,
				Context: table.rowContext(i),
				Message: fmt.Sprintf("invalid %s %q: %v", strings.ToLower(header), s, err),
			}
		}
		set(M(value, schwabCurrency))
		return nil
	}
	if err := setField(schwabHeaderPrice, func(m Money) { tx.Price = &m }); err != nil {
		return nil, err
	}
	if err := setField(schwabHeaderAmount, func(m Money) { tx.Amount = &m }); err != nil {
		return nil, err
	}
	if err := setField(schwabHeaderFees, func(m Money) { tx.Fees = m }); err != nil {
		return nil, err
	}
	if s := table.field(row, schwabHeaderQuantity); s != "" {
		value, err := parseDecimal(s)
		if err != nil {
			return nil, &ParsingError{
				Source:  table.path,
				Context: table.rowContext(i),
				Message: fmt.Sprintf("invalid quantity %q: %v", s, err),
			}
		}
		q := Q(value)
		tx.Quantity = &q
	}
	return tx, nil
}

// backfillAwardPrice resolves the missing price of a vesting from the award
// price table. The export sometimes carries a vest date a few days off the
// true award date, so the resolved date replaces the transaction date.
func backfillAwardPrice(tx *Transaction, prices *AwardPrices, path, context string) error {
	if tx.Price != nil || tx.Action != StockActivity {
		return nil
	}
	if tx.Symbol == "" {
		return &ParsingError{Source: path, Context: context, Message: "stock activity without a symbol"}
	}
	day, price, err := prices.Resolve(tx.Date, tx.Symbol)
	if err != nil {
		return err
	}
	tx.Date = day
	tx.Price = &price
	return nil
}

// unifyCashMergers folds the two-row encoding of a cash merger into a single
// synthetic transaction.
//
// The export reports a cash merger as a primary row carrying the cash amount
// (no quantity, no price) immediately followed by an adjustment row carrying
// the negative share count (no amount). The fold runs over the raw, not yet
// reversed sequence and emits one SELL-shaped transaction per merger:
// quantity is the negated adjustment count (canonical quantities are
// positive, the action carries the sign), price is derived from the primary's
// own amount, and fees accumulate.
func unifyCashMergers(path string, txs []*Transaction, diag *Diagnostics) ([]*Transaction, error) {
	fail := func(format string, args ...any) ([]*Transaction, error) {
		return nil, &ConsistencyError{Source: path, Message: fmt.Sprintf(format, args...)}
	}

	out := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.rawAction != "Cash Merger Adj" {
			out = append(out, tx)
			continue
		}
		if len(out) == 0 {
			return fail("Cash Merger Adj must be preceded by a Cash Merger transaction")
		}
		primary := out[len(out)-1]
		switch {
		case primary.rawAction != "Cash Merger":
			return fail("Cash Merger Adj follows %q, want a Cash Merger", primary.rawAction)
		case primary.Description != tx.Description ||
			primary.Symbol != tx.Symbol ||
			primary.Date != tx.Date:
			return fail("Cash Merger Adj does not match its Cash Merger (%s vs %s)", tx, primary)
		case primary.Quantity != nil || primary.Price != nil || primary.Amount == nil:
			return fail("Cash Merger must carry an amount and no quantity or price: %s", primary)
		case tx.Amount != nil || tx.Quantity == nil:
			return fail("Cash Merger Adj must carry a quantity and no amount: %s", tx)
		case tx.Quantity.IsZero():
			// The quantity is the divisor of the price derivation below.
			return fail("Cash Merger Adj must carry a non-zero quantity: %s", tx)
		}

		// The adjustment reports the share count as negative, canonical
		// sell quantities are positive.
		quantity := tx.Quantity.Neg()
		price := primary.Amount.Div(quantity)
		unified := &Transaction{
			Date:        primary.Date,
			Action:      primary.Action,
			Symbol:      primary.Symbol,
			Description: primary.Description,
			Quantity:    &quantity,
			Price:       &price,
			Fees:        primary.Fees.Add(tx.Fees),
			Amount:      primary.Amount,
			Currency:    primary.Currency,
			Broker:      primary.Broker,
			rawAction:   primary.rawAction,
		}
		out[len(out)-1] = unified
		diag.Warn("cash merger support is partial: shares received aside from cash are not handled, review this transaction",
			"transaction", unified.String())
	}
	return out, nil
}

// schwabAction maps a transactions-export action label to its canonical kind.
func schwabAction(label string) (ActionType, error) {
	switch label {
	case "Buy":
		return Buy, nil
	case "Sell":
		return Sell, nil
	case "MoneyLink Transfer",
		"Misc Cash Entry",
		"Service Fee",
		"Wire Funds",
		"Wire Sent",
		"Funds Received",
		"Journal",
		"Cash In Lieu",
		"Visa Purchase",
		"MoneyLink Deposit",
		"MoneyLink Adj": // likely a returned transfer
		return Transfer, nil
	case "Stock Plan Activity":
		return StockActivity, nil
	case "Qualified Dividend",
		"Cash Dividend",
		"Qual Div Reinvest",
		"Div Adjustment",
		"Special Qual Div",
		"Non-Qualified Div":
		return Dividend, nil
	case "NRA Tax Adj", "NRA Withholding", "Foreign Tax Paid":
		return Tax, nil
	case "ADR Mgmt Fee":
		return Fee, nil
	case "Adjustment", "IRS Withhold Adj", "Wire Funds Adj":
		return Adjustment, nil
	case "Short Term Cap Gain", "Long Term Cap Gain":
		return CapitalGain, nil
	case "Spin-off":
		return SpinOff, nil
	case "Credit Interest":
		return Interest, nil
	case "Reinvest Shares":
		return ReinvestShares, nil
	case "Reinvest Dividend":
		return ReinvestDividends, nil
	case "Wire Funds Received":
		return WireFundsReceived, nil
	case "Stock Split":
		return StockSplit, nil
	case "Cash Merger", "Cash Merger Adj":
		return CashMerger, nil
	}
	return "", fmt.Errorf("unknown action: %q", label)
}
