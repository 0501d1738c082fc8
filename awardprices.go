package brokerimport

import (
	"github.com/etnz/brokerimport/date"
)

// awardSearchWindow is how many days (the nominal date included) the resolver
// scans backward for an award price. Brokers report vest dates that drift a
// few days from the true award date around weekends and holidays; 7 days has
// proven sufficient in practice and downstream results depend on this exact
// window, so do not "fix" it.
const awardSearchWindow = 7

// AwardPrices stores the fair-market prices of awards, keyed by date then
// symbol. It is built once per run from one or more award exports, and
// read-only thereafter.
type AwardPrices struct {
	prices  map[date.Date]map[string]Money
	renames TickerRenames
}

// NewAwardPrices returns an empty table using the default ticker renames.
func NewAwardPrices() *AwardPrices {
	return &AwardPrices{
		prices:  make(map[date.Date]map[string]Money),
		renames: DefaultTickerRenames,
	}
}

// NewAwardPricesWithRenames returns an empty table using the given renames.
func NewAwardPricesWithRenames(renames TickerRenames) *AwardPrices {
	a := NewAwardPrices()
	if renames != nil {
		a.renames = renames
	}
	return a
}

// Len returns the number of (date, symbol) entries in the table.
func (a *AwardPrices) Len() int {
	n := 0
	for _, symbols := range a.prices {
		n += len(symbols)
	}
	return n
}

// Add records the price of a symbol on a date, overwriting an existing entry.
// The symbol is normalized through the ticker renames before storage.
func (a *AwardPrices) Add(on date.Date, symbol string, price Money) {
	symbol = a.renames.Normalize(symbol)
	symbols, ok := a.prices[on]
	if !ok {
		symbols = make(map[string]Money)
		a.prices[on] = symbols
	}
	symbols[symbol] = price
}

// Resolve returns the award price for a symbol at the given date, scanning
// backward day by day up to the search window. The returned date is the date
// the price was actually found at, which may be up to 6 days earlier than the
// nominal one: callers must adopt it as the effective transaction date.
func (a *AwardPrices) Resolve(on date.Date, symbol string) (date.Date, Money, error) {
	symbol = a.renames.Normalize(symbol)
	for i := 0; i < awardSearchWindow; i++ {
		day := on.Add(-i)
		if price, ok := a.prices[day][symbol]; ok {
			return day, price, nil
		}
	}
	return date.Date{}, Money{}, &PriceNotFoundError{Symbol: symbol, Day: on}
}

// Merge returns a new table with the union of both tables' entries. Where
// both tables hold a price for the same (date, symbol), other wins. Tables
// are merged in a defined left-to-right fold order over the sources (explicit
// file first, then folder files in sort order), so the effective precedence
// policy is: later-merged sources win on conflict.
func (a *AwardPrices) Merge(other *AwardPrices) *AwardPrices {
	merged := NewAwardPricesWithRenames(a.renames)
	for on, symbols := range a.prices {
		for symbol, price := range symbols {
			merged.Add(on, symbol, price)
		}
	}
	for on, symbols := range other.prices {
		for symbol, price := range symbols {
			merged.Add(on, symbol, price)
		}
	}
	return merged
}
