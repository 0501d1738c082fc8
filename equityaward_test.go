package brokerimport

import (
	"errors"
	"testing"

	"github.com/etnz/brokerimport/date"
)

// A current-schema export: capitalized field names, details nested under a
// "Details" wrapper, newest event first. The vest predates the 20:1 share
// split and is exported in pre-split values.
const equityFixtureV2 = `{
  "Transactions": [
    {
      "Action": "Sale", "Symbol": "GOOG", "Description": "Share Sale",
      "Quantity": "62", "Amount": "$7,120.58", "FeesAndCommissions": "$0.17",
      "Date": "08/15/2022",
      "TransactionDetails": [
        {"Details": {"SalePrice": "$113.75", "Shares": "40"}},
        {"Details": {"SalePrice": "$113.75", "Shares": "22"}}
      ]
    },
    {
      "Action": "Sale", "Symbol": "GOOG", "Description": "Share Sale",
      "Quantity": "10", "Amount": "$1,137.33", "FeesAndCommissions": "$0.17",
      "Date": "08/01/2022",
      "TransactionDetails": [
        {"Details": {"SalePrice": "$113.75"}}
      ]
    },
    {
      "Action": "Sale", "Symbol": "GOOG", "Description": "Share Sale",
      "Quantity": "62.6", "Amount": "$7,120.58", "FeesAndCommissions": "$0.17",
      "Date": "07/05/2022"
    },
    {
      "Action": "Journal", "Symbol": "", "Description": "Cash Disbursement",
      "Quantity": "", "Amount": "-$7,120.58", "Date": "07/06/2022"
    },
    {
      "Action": "Deposit", "Symbol": "GOOG", "Description": "RS",
      "Quantity": "3.36", "Date": "04/25/2022",
      "TransactionDetails": [
        {"Details": {
          "VestDate": "04/25/2022", "VestFairMarketValue": "$2,512.89",
          "AwardDate": "01/15/2021", "AwardId": "C123456"
        }}
      ]
    }
  ]
}`

func TestReadEquityAwards(t *testing.T) {
	path := writeFile(t, t.TempDir(), "awards.json", equityFixtureV2)

	txs, prices, err := ReadEquityAwards(path, "", DefaultTickerRenames, Discard())
	if err != nil {
		t.Fatalf("ReadEquityAwards() error = %v", err)
	}
	// The Journal row is cash plumbing, it is dropped.
	if got, want := len(txs), 4; got != want {
		t.Fatalf("len(txs) = %d, want %d", got, want)
	}

	vest := txs[0]
	if vest.Date != date.New(2022, 4, 25) || vest.Action != StockActivity {
		t.Fatalf("txs[0] = %s, want the 2022-04-25 vest", vest)
	}
	// 3.36 shares at $2,512.89 are pre-split values, normalized 20:1.
	if !vest.Quantity.Equal(Q(67.2)) {
		t.Errorf("vest quantity = %s, want 67.2", vest.Quantity)
	}
	if !vest.Price.Equal(USD(125.6445)) {
		t.Errorf("vest price = %s, want $125.6445", vest.Price)
	}
	if vest.Description != "Vest from Award Date 01/15/2021 (ID C123456)" {
		t.Errorf("vest description = %q", vest.Description)
	}

	// Fractional recorded quantity: price derives from amount and fees,
	// (7120.58 + 0.17) / 62.6 = 113.75.
	fractional := txs[1]
	if fractional.Date != date.New(2022, 7, 5) || fractional.Action != Sell {
		t.Fatalf("txs[1] = %s, want the 2022-07-05 sale", fractional)
	}
	if !fractional.Quantity.Equal(Q(62.6)) || !fractional.Price.Equal(USD(113.75)) {
		t.Errorf("fractional sale = %s, want qty=62.6 price=$113.75", fractional)
	}

	// Integral recorded quantity that reproduces the amount: kept as is.
	exact := txs[2]
	if exact.Date != date.New(2022, 8, 1) {
		t.Fatalf("txs[2] = %s, want the 2022-08-01 sale", exact)
	}
	if !exact.Quantity.Equal(Q(10)) || !exact.Price.Equal(USD(113.75)) {
		t.Errorf("exact sale = %s, want qty=10 price=$113.75", exact)
	}

	// Integral recorded quantity that does not reproduce the amount: the
	// true quantity is inferred from the uniform sale price,
	// (7120.58 + 0.17) / 113.75 = 62.6.
	inferred := txs[3]
	if inferred.Date != date.New(2022, 8, 15) {
		t.Fatalf("txs[3] = %s, want the 2022-08-15 sale", inferred)
	}
	if !inferred.Quantity.Equal(Q(62.6)) || !inferred.Price.Equal(USD(113.75)) {
		t.Errorf("inferred sale = %s, want qty=62.6 price=$113.75", inferred)
	}

	// The derived price table serves the transactions-export backfill.
	day, price, err := prices.Resolve(date.New(2022, 4, 25), "GOOG")
	if err != nil {
		t.Fatalf("prices.Resolve() error = %v", err)
	}
	if day != date.New(2022, 4, 25) || !price.Equal(USD(125.6445)) {
		t.Errorf("prices.Resolve() = (%s, %s), want (2022-04-25, $125.6445)", day, price)
	}
}

// An old-schema export: lowercase field names, no "Details" wrapper, the
// quantity a bare JSON number overridden by the net shares deposited.
const equityFixtureV1 = `{
  "transactions": [
    {
      "action": "Lapse", "symbol": "GOOG", "description": "RS",
      "quantity": 100, "eventDate": "10/25/2022",
      "transactionDetails": [
        {
          "netSharesDeposited": "10.45",
          "vestFairMarketValue": "$112.42",
          "awardDate": "01/15/2021", "awardName": "RS1234"
        }
      ]
    }
  ]
}`

func TestReadEquityAwards_oldSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "awards.json", equityFixtureV1)

	txs, _, err := ReadEquityAwards(path, "", DefaultTickerRenames, Discard())
	if err != nil {
		t.Fatalf("ReadEquityAwards() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len(txs) = %d, want 1", len(txs))
	}
	vest := txs[0]
	if vest.Date != date.New(2022, 10, 25) || vest.Action != StockActivity {
		t.Fatalf("txs[0] = %s, want the 2022-10-25 vest", vest)
	}
	// The gross quantity is overridden by the net shares deposited.
	if !vest.Quantity.Equal(Q(10.45)) {
		t.Errorf("vest quantity = %s, want 10.45", vest.Quantity)
	}
	if !vest.Price.Equal(USD(112.42)) {
		t.Errorf("vest price = %s, want $112.42", vest.Price)
	}
	// Post-split price, no normalization.
	if vest.Description != "Vest from Award Date 01/15/2021 (ID RS1234)" {
		t.Errorf("vest description = %q", vest.Description)
	}
}

func TestReadEquityAwards_unknownSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "awards.json", `{"events": []}`)

	_, _, err := ReadEquityAwards(path, "", DefaultTickerRenames, Discard())
	var parsing *ParsingError
	if !errors.As(err, &parsing) {
		t.Fatalf("error = %v, want ParsingError on the unknown top level field", err)
	}
}

func TestReadEquityAwards_differentSalePrices(t *testing.T) {
	// An integral quantity and sub-transactions sold at different prices:
	// the true quantity cannot be worked out.
	path := writeFile(t, t.TempDir(), "awards.json", `{
  "Transactions": [
    {
      "Action": "Sale", "Symbol": "GOOG", "Description": "Share Sale",
      "Quantity": "62", "Amount": "$7,120.58", "FeesAndCommissions": "$0.17",
      "Date": "08/15/2022",
      "TransactionDetails": [
        {"Details": {"SalePrice": "$113.75"}},
        {"Details": {"SalePrice": "$113.80"}}
      ]
    }
  ]
}`)

	_, _, err := ReadEquityAwards(path, "", DefaultTickerRenames, Discard())
	var parsing *ParsingError
	if !errors.As(err, &parsing) {
		t.Fatalf("error = %v, want ParsingError on mixed sale prices", err)
	}
}

func TestReadEquityAwards_zeroSalePrice(t *testing.T) {
	// A zero sale price cannot divide the amount into a quantity; it must
	// surface as an error, not a division panic.
	path := writeFile(t, t.TempDir(), "awards.json", `{
  "Transactions": [
    {
      "Action": "Sale", "Symbol": "GOOG", "Description": "Share Sale",
      "Quantity": "62", "Amount": "$7,120.58", "FeesAndCommissions": "$0.17",
      "Date": "08/15/2022",
      "TransactionDetails": [
        {"Details": {"SalePrice": "$0.00"}}
      ]
    }
  ]
}`)

	_, _, err := ReadEquityAwards(path, "", DefaultTickerRenames, Discard())
	var parsing *ParsingError
	if !errors.As(err, &parsing) {
		t.Fatalf("error = %v, want ParsingError on the zero sale price", err)
	}
}

func TestReadEquityAwards_missingFileIsAWarning(t *testing.T) {
	txs, prices, err := ReadEquityAwards("nope.json", "", DefaultTickerRenames, Discard())
	if err != nil {
		t.Fatalf("ReadEquityAwards() error = %v, want none for a missing file", err)
	}
	if len(txs) != 0 || prices.Len() != 0 {
		t.Errorf("got %d transactions and %d prices, want none", len(txs), prices.Len())
	}
}

func TestNormalizeSplit(t *testing.T) {
	tx := func(symbol string, day date.Date, price, quantity float64) *Transaction {
		return &Transaction{Date: day, Action: Sell, Symbol: symbol, Quantity: qty(quantity), Price: usd(price)}
	}
	before := date.New(2022, 7, 1)
	after := date.New(2022, 8, 1)

	testCases := []struct {
		name         string
		tx           *Transaction
		wantPrice    Money
		wantQuantity Quantity
	}{
		{name: "pre-split value normalized", tx: tx("GOOG", before, 2512.89, 3.36), wantPrice: USD(125.6445), wantQuantity: Q(67.2)},
		{name: "already post-split", tx: tx("GOOG", before, 113.75, 10), wantPrice: USD(113.75), wantQuantity: Q(10)},
		{name: "after the split date", tx: tx("GOOG", after, 2512.89, 3.36), wantPrice: USD(2512.89), wantQuantity: Q(3.36)},
		{name: "other symbol", tx: tx("META", before, 2512.89, 3.36), wantPrice: USD(2512.89), wantQuantity: Q(3.36)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			normalizeSplit(tc.tx)
			if !tc.tx.Price.Equal(tc.wantPrice) {
				t.Errorf("price = %s, want %s", tc.tx.Price, tc.wantPrice)
			}
			if !tc.tx.Quantity.Equal(tc.wantQuantity) {
				t.Errorf("quantity = %s, want %s", tc.tx.Quantity, tc.wantQuantity)
			}
		})
	}
}
