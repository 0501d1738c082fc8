package brokerimport

import (
	"fmt"
	"os"

	"github.com/etnz/brokerimport/date"
)

// Required headers of the awards export.
const (
	awardsHeaderDate   = "Date"
	awardsHeaderSymbol = "Symbol"
	awardsHeaderPrice  = "FairMarketValuePrice"
)

// ReadAwards builds an award price table from an awards export file and/or a
// folder of them. Files are folded left to right (explicit file first, then
// folder files in sort order), later files winning on conflicting
// (date, symbol) keys. A missing file is a warning, not an error: the source
// simply contributes no prices.
func ReadAwards(file, folder string, renames TickerRenames, diag *Diagnostics) (*AwardPrices, error) {
	files, err := sourceFiles(file, folder, "*.csv")
	if err != nil {
		return nil, err
	}

	prices := NewAwardPricesWithRenames(renames)
	for _, f := range files {
		filePrices, err := readAwardsFile(f, renames)
		if err != nil {
			if os.IsNotExist(err) {
				diag.Warn("could not locate awards file", "file", f)
				continue
			}
			return nil, err
		}
		prices = prices.Merge(filePrices)
	}
	return prices, nil
}

// readAwardsFile reads one awards export.
//
// This format encodes each logical record as two physical rows whose columns
// are mutually exclusive: every cell is non-empty in exactly one of the two
// rows. Rows are paired by position (1st with 2nd, 3rd with 4th, ...), each
// column pair concatenated back into one logical row before parsing.
func readAwardsFile(path string, renames TickerRenames) (*AwardPrices, error) {
	table, err := readCSVTable(path)
	if err != nil {
		return nil, err
	}
	if err := table.require(awardsHeaderDate, awardsHeaderSymbol, awardsHeaderPrice); err != nil {
		return nil, err
	}

	if len(table.rows)%2 != 0 {
		return nil, &UnexpectedRowCountError{Source: path, Count: len(table.rows)}
	}

	prices := NewAwardPricesWithRenames(renames)
	for i := 0; i < len(table.rows); i += 2 {
		row, err := combineRows(path, table.rows[i], table.rows[i+1])
		if err != nil {
			return nil, err
		}
		if len(row) != len(table.headers) {
			return nil, &UnexpectedColumnCountError{Source: path, Row: row, Want: len(table.headers)}
		}

		dateStr := table.field(row, awardsHeaderDate)
		day, err := date.ParseLayout("2006/01/02", dateStr)
		if err != nil {
			// Older exports use the US layout instead.
			day, err = date.ParseLayout("01/02/2006", dateStr)
			if err != nil {
				return nil, &ParsingError{
					Source:  path,
					Context: table.rowContext(i),
					Message: fmt.Sprintf("invalid date %q", dateStr),
				}
			}
		}

		symbol := table.field(row, awardsHeaderSymbol)
		priceStr := table.field(row, awardsHeaderPrice)
		if symbol == "" || priceStr == "" {
			// Not an award record (e.g. a cash line), nothing to look up later.
			continue
		}
		value, err := parseDecimal(priceStr)
		if err != nil {
			return nil, &ParsingError{
				Source:  path,
				Context: table.rowContext(i),
				Message: fmt.Sprintf("invalid price %q: %v", priceStr, err),
			}
		}
		prices.Add(day, symbol, M(value, "USD"))
	}
	return prices, nil
}

// combineRows concatenates the column pairs of two physical rows into one
// logical row. Exactly one side of each pair must be non-empty: both sides
// carrying text means the pairing assumption of the format does not hold,
// which is fatal, not recoverable.
func combineRows(path string, upper, lower []string) ([]string, error) {
	if len(upper) != len(lower) {
		return nil, &ConsistencyError{
			Source:  path,
			Message: fmt.Sprintf("paired rows have different lengths (%d and %d)", len(upper), len(lower)),
		}
	}
	row := make([]string, len(upper))
	for i := range upper {
		if upper[i] != "" && lower[i] != "" {
			return nil, &ConsistencyError{
				Source:  path,
				Message: fmt.Sprintf("column %d is set in both paired rows (%q and %q)", i, upper[i], lower[i]),
			}
		}
		row[i] = upper[i] + lower[i]
	}
	return row, nil
}
