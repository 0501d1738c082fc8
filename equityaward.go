package brokerimport

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/brokerimport/date"
	"github.com/shopspring/decimal"
)

// Charles Schwab Equity Award Center JSON export reader.
//
// This export is the authoritative description of vesting events: it carries
// the exact vest date and fair market value the transactions export lacks.
// Two schema versions exist in the wild, distinguished by the case of their
// top level field; the field name tables below cover both.

// equityRoundDigits keeps enough decimals to cover what the export gives us
// (up to 4) divided by the share-split factor (20), and no more: float noise
// from the JSON number representation must not leak into the decimals.
const equityRoundDigits = 6

// equityDetailsWrapper is the optional object some exports nest the
// transaction details under.
const equityDetailsWrapper = "Details"

// equityFields names the fields of one schema version.
type equityFields struct {
	transactions string
	description  string
	action       string
	symbol       string
	quantity     string
	amount       string
	fees         string
	details      string
	shares       string
	vestDate     string
	vestFMV      string
	fmv          string
	awardDate    string
	awardID      string
	date         string
	salePrice    string
	netShares    string
}

// The schema version is nothing official, just how this package tells the
// two observed layouts apart: the top level field naming the transaction list
// identifies the version.
var equitySchemas = []equityFields{
	{
		transactions: "Transactions",
		description:  "Description",
		action:       "Action",
		symbol:       "Symbol",
		quantity:     "Quantity",
		amount:       "Amount",
		fees:         "FeesAndCommissions",
		details:      "TransactionDetails",
		shares:       "Shares",
		vestDate:     "VestDate",
		vestFMV:      "VestFairMarketValue",
		fmv:          "FairMarketValuePrice",
		awardDate:    "AwardDate",
		awardID:      "AwardId",
		date:         "Date",
		salePrice:    "SalePrice",
		netShares:    "NetSharesDeposited",
	},
	{
		transactions: "transactions",
		description:  "description",
		action:       "action",
		symbol:       "symbol",
		quantity:     "quantity",
		amount:       "amount",
		fees:         "totalCommissionsAndFees",
		details:      "transactionDetails",
		shares:       "shares",
		vestDate:     "vestDate",
		vestFMV:      "vestFairMarketValue",
		fmv:          "fairMarketValuePrice",
		awardDate:    "awardDate",
		awardID:      "awardName",
		date:         "eventDate",
		salePrice:    "salePrice",
		netShares:    "netSharesDeposited",
	},
}

// ReadEquityAwards reads the equity award JSON export from a file and/or a
// folder of files. It returns the transactions sorted by date, along with the
// award price table derived from them, keyed by (date, symbol).
func ReadEquityAwards(file, folder string, renames TickerRenames, diag *Diagnostics) ([]*Transaction, *AwardPrices, error) {
	files, err := sourceFiles(file, folder, "*.json")
	if err != nil {
		return nil, nil, err
	}

	var all []*Transaction
	for _, f := range files {
		diag.Info("parsing equity award export", "file", f)
		txs, err := readEquityAwardsFile(f, renames)
		if err != nil {
			if os.IsNotExist(err) {
				diag.Warn("could not locate equity award file", "file", f)
				continue
			}
			return nil, nil, err
		}
		// The export is newest first, flip it into chronological order.
		for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
			txs[i], txs[j] = txs[j], txs[i]
		}
		all = append(all, txs...)
	}
	sortByDate(all)

	prices := NewAwardPricesWithRenames(renames)
	for _, tx := range all {
		if tx.Symbol != "" && tx.Price != nil {
			prices.Add(tx.Date, tx.Symbol, *tx.Price)
		}
	}
	return all, prices, nil
}

func readEquityAwardsFile(path string, renames TickerRenames) ([]*Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// UseNumber keeps amounts as their literal text, parsed into exact
	// decimals later instead of round-tripping through float64.
	var jobj map[string]any
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return nil, &ParsingError{Source: path, Message: fmt.Sprintf("could not parse content as JSON: %v", err)}
	}

	fields, err := equityFieldsFor(path, jobj)
	if err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get("$."+fields.transactions, jobj)
	if err != nil {
		return nil, &ParsingError{Source: path, Message: fmt.Sprintf("cannot read %q: %v", fields.transactions, err)}
	}
	list, ok := jval.([]any)
	if !ok {
		return nil, &ParsingError{
			Source:  path,
			Message: fmt.Sprintf("%q is not a list: the JSON data is not in the expected format", fields.transactions),
		}
	}

	var txs []*Transaction
	for i, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, &ParsingError{Source: path, Context: fmt.Sprintf("transaction %d", i), Message: "not a JSON object"}
		}
		label, _ := jsonString(row, fields.action)
		if label == "Journal" || label == "Wire Transfer" {
			// Pure cash plumbing, not relevant for the ledger.
			continue
		}
		tx, err := parseEquityRow(path, row, fields, renames)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// equityFieldsFor sniffs the schema version from the top level field names.
func equityFieldsFor(path string, jobj map[string]any) (equityFields, error) {
	for _, fields := range equitySchemas {
		if _, ok := jobj[fields.transactions]; ok {
			return fields, nil
		}
	}
	return equityFields{}, &ParsingError{
		Source:  path,
		Message: "expected top level field (Transactions, transactions) not found: the JSON data is not in the expected format",
	}
}

func parseEquityRow(path string, row map[string]any, fields equityFields, renames TickerRenames) (*Transaction, error) {
	label, _ := jsonString(row, fields.action)
	action, err := equityAction(label)
	if err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	description, _ := jsonString(row, fields.description)
	symbol, _ := jsonString(row, fields.symbol)
	symbol = renames.Normalize(symbol)

	quantity, _, err := equityDecimal(row, fields.quantity)
	if err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	amount, _, err := equityDecimal(row, fields.amount)
	if err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	fees, _, err := equityDecimal(row, fields.fees)
	if err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	initialAmount := amount

	var day date.Date
	var price decimal.Decimal

	switch action {
	case StockActivity:
		details, err := equityDetails(path, row, fields)
		if err != nil {
			return nil, err
		}
		if len(details) != 1 {
			return nil, &ParsingError{
				Source:  path,
				Message: fmt.Sprintf("expected a single transaction detail for a deposit, found %d", len(details)),
			}
		}
		detail := details[0]

		// The vest date inside the details is the true award date; the
		// top level event date is only a fallback.
		dateStr, ok := jsonString(detail, fields.vestDate)
		if !ok {
			dateStr, _ = jsonString(row, fields.date)
		}
		day, err = date.ParseLayout("01/02/2006", dateStr)
		if err != nil {
			return nil, &ParsingError{Source: path, Message: fmt.Sprintf("invalid vest date %q", dateStr)}
		}

		if net, ok, err := equityDecimal(detail, fields.netShares); err != nil {
			return nil, &ParsingError{Source: path, Message: err.Error()}
		} else if ok {
			quantity = net
		}

		// The export only provides the fair market value as a string.
		priceStr, ok := jsonString(detail, fields.vestFMV)
		if !ok {
			priceStr, ok = jsonString(detail, fields.fmv)
		}
		if !ok {
			return nil, &ParsingError{Source: path, Message: "vesting without a fair market value"}
		}
		price, err = parseDecimal(priceStr)
		if err != nil {
			return nil, &ParsingError{Source: path, Message: fmt.Sprintf("invalid fair market value %q: %v", priceStr, err)}
		}

		if amount.IsZero() {
			amount = price.Mul(quantity)
		}
		awardDate, _ := jsonString(detail, fields.awardDate)
		awardID, _ := jsonString(detail, fields.awardID)
		description = fmt.Sprintf("Vest from Award Date %s (ID %s)", awardDate, awardID)

	case Sell:
		dateStr, _ := jsonString(row, fields.date)
		day, err = date.ParseLayout("01/02/2006", dateStr)
		if err != nil {
			return nil, &ParsingError{Source: path, Message: fmt.Sprintf("invalid date %q", dateStr)}
		}
		price, quantity, err = equitySale(path, row, fields, quantity, amount, initialAmount, fees, day)
		if err != nil {
			return nil, err
		}

	default:
		return nil, &ParsingError{Source: path, Message: fmt.Sprintf("parsing for action %q is not implemented", label)}
	}

	q := Q(quantity)
	p := M(price, schwabCurrency)
	a := M(amount, schwabCurrency)
	tx := &Transaction{
		Date:        day,
		Action:      action,
		Symbol:      symbol,
		Description: description,
		Quantity:    &q,
		Price:       &p,
		Fees:        M(fees, schwabCurrency),
		Amount:      &a,
		Currency:    schwabCurrency,
		Broker:      schwabBroker,
		rawAction:   label,
	}
	normalizeSplit(tx)
	if err := tx.Validate(false); err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	return tx, nil
}

// equitySale works out the price and quantity of a sale.
//
// The export sometimes lacks decimals on sale quantities, in which case the
// quantity is inferred from the shares of the sub-transactions, or failing
// that from the amount and sale price, provided every sub-transaction sold at
// the same price.
func equitySale(path string, row map[string]any, fields equityFields, quantity, amount, initialAmount, fees decimal.Decimal, day date.Date) (price, qty decimal.Decimal, err error) {
	if !quantity.IsInteger() {
		return amount.Add(fees).Div(quantity), quantity, nil
	}

	details, err := equityDetails(path, row, fields)
	if err != nil {
		return price, qty, err
	}
	if len(details) == 0 {
		return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("sale of %s has no transaction details", day)}
	}

	sharesSum := decimal.Zero
	haveQuantities := true
	foundDecimals := false
	for _, detail := range details {
		s, ok := jsonString(detail, fields.shares)
		if !ok {
			haveQuantities = false
			break
		}
		// The export only provides the share count as a string.
		shares, err := parseDecimal(s)
		if err != nil {
			return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("invalid shares %q: %v", s, err)}
		}
		sharesSum = sharesSum.Add(shares)
		if !shares.IsInteger() {
			foundDecimals = true
		}
	}
	if haveQuantities && foundDecimals {
		quantity = sharesSum
		if quantity.IsZero() {
			return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("sale of %s has a zero total share count", day)}
		}
		return amount.Add(fees).Div(quantity), quantity, nil
	}

	// Only the overall amount and the per-sub-transaction sale prices are
	// usable: the quantity can only be worked out if every sub-transaction
	// sold at the same price.
	priceStr, ok := jsonString(details[0], fields.salePrice)
	if !ok {
		return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("sale of %s has no sale price", day)}
	}
	price, err = parseDecimal(priceStr)
	if err != nil {
		return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("invalid sale price %q: %v", priceStr, err)}
	}
	if price.IsZero() {
		// The price is the divisor of the quantity inference below.
		return price, qty, &ParsingError{Source: path, Message: fmt.Sprintf("sale of %s has a zero sale price", day)}
	}
	for _, detail := range details[1:] {
		s, _ := jsonString(detail, fields.salePrice)
		if s != priceStr {
			return price, qty, &ParsingError{
				Source: path,
				Message: fmt.Sprintf("impossible to work out quantity of sale of date %s and amount %s because different sub-transactions have different sale prices",
					day, amount),
			}
		}
	}

	// The quantity may genuinely be integral. Only infer it when the
	// recorded one does not reproduce the amount, otherwise broker-side
	// rounding would put tiny decimal deviations into the quantity and
	// trip downstream checks about selling more than was available.
	if !quantity.Mul(price).Sub(fees).Round(2).Equal(initialAmount) {
		quantity = amount.Add(fees).Div(price)
	}
	return price, quantity, nil
}

// equityDetails returns the transaction details of a row, unwrapping the
// optional "Details" nesting. The wrapped projection is tried first; a
// wildcard path only yields the entries it matches, so an export without the
// wrapper yields nothing and the plain projection takes over.
func equityDetails(path string, row map[string]any, fields equityFields) ([]map[string]any, error) {
	raw, ok := row[fields.details]
	if !ok {
		return nil, nil
	}
	if _, ok := raw.([]any); !ok {
		return nil, &ParsingError{Source: path, Message: fmt.Sprintf("%q is not a list", fields.details)}
	}

	jval, err := jsonpath.Get(fmt.Sprintf("$.%s[*].%s", fields.details, equityDetailsWrapper), row)
	list, _ := jval.([]any)
	if err != nil || len(list) == 0 {
		jval, err = jsonpath.Get(fmt.Sprintf("$.%s[*]", fields.details), row)
		if err != nil {
			return nil, &ParsingError{Source: path, Message: fmt.Sprintf("cannot read %q: %v", fields.details, err)}
		}
		list, _ = jval.([]any)
	}

	details := make([]map[string]any, 0, len(list))
	for _, item := range list {
		detail, ok := item.(map[string]any)
		if !ok {
			return nil, &ParsingError{Source: path, Message: fmt.Sprintf("%q entry is not a JSON object", fields.details)}
		}
		details = append(details, detail)
	}
	return details, nil
}

// normalizeSplit normalizes past GOOG transactions to post-split values.
//
// This is in the context of the 20:1 GOOG stock split at close on 2022-07-15.
// The export has some past transactions corrected for the split and others
// not. The share price was never above $175*20=$3500 before the split, so a
// higher price is a pre-split value to be normalized.
func normalizeSplit(tx *Transaction) {
	const splitFactor = 20
	threshold := M(175, schwabCurrency)

	if tx.Symbol != "GOOG" || tx.Price == nil || tx.Quantity == nil {
		return
	}
	if tx.Date.After(date.New(2022, 7, 15)) || !tx.Price.GreaterThan(threshold) {
		return
	}
	price := tx.Price.Div(Q(splitFactor)).Round(equityRoundDigits)
	quantity := tx.Quantity.Mul(Q(splitFactor)).Round(equityRoundDigits)
	tx.Price = &price
	tx.Quantity = &quantity
}

// equityAction maps an equity-award-export action label to its canonical kind.
func equityAction(label string) (ActionType, error) {
	switch label {
	case "Buy":
		return Buy, nil
	case "Sell", "Sale":
		return Sell, nil
	case "MoneyLink Transfer",
		"Misc Cash Entry",
		"Service Fee",
		"Wire Funds",
		"Wire Transfer",
		"Funds Received",
		"Journal",
		"Cash In Lieu":
		return Transfer, nil
	case "Stock Plan Activity", "Deposit", "Lapse":
		return StockActivity, nil
	case "Qualified Dividend", "Cash Dividend":
		return Dividend, nil
	case "NRA Tax Adj", "NRA Withholding", "Foreign Tax Paid":
		return Tax, nil
	case "ADR Mgmt Fee":
		return Fee, nil
	case "Adjustment", "IRS Withhold Adj":
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
	}
	return "", fmt.Errorf("unknown action: %q", label)
}

// jsonString returns the string value under a key, if present and a string.
func jsonString(row map[string]any, key string) (string, bool) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// equityDecimal reads a number from a row, preferring the native number
// field over its string representation sibling (suffixed "SortValue"), as
// more efficient and safer parsing. Reports ok=false when neither is there.
func equityDecimal(row map[string]any, base string) (value decimal.Decimal, ok bool, err error) {
	if v, present := row[base+"SortValue"]; present && v != nil {
		if n, isNum := v.(json.Number); isNum {
			value, err = decimal.NewFromString(n.String())
			if err != nil {
				return value, false, fmt.Errorf("invalid number %q for %s: %w", n.String(), base, err)
			}
			return value, true, nil
		}
	}
	if s, present := jsonString(row, base); present {
		if s == "" {
			return decimal.Zero, true, nil
		}
		value, err = parseDecimal(s)
		if err != nil {
			return value, false, fmt.Errorf("invalid value %q for %s: %w", s, base, err)
		}
		return value, true, nil
	}
	if n, present := row[base].(json.Number); present {
		value, err = decimal.NewFromString(n.String())
		if err != nil {
			return value, false, fmt.Errorf("invalid number %q for %s: %w", n.String(), base, err)
		}
		return value, true, nil
	}
	return decimal.Zero, false, nil
}
