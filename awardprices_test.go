package brokerimport

import (
	"errors"
	"testing"

	"github.com/etnz/brokerimport/date"
)

func TestAwardPrices_Resolve(t *testing.T) {
	prices := NewAwardPrices()
	prices.Add(date.MustParse("2024-01-01"), "X", USD(10))

	testCases := []struct {
		name    string
		day     string
		symbol  string
		wantDay string
		wantErr bool
	}{
		{name: "exact date", day: "2024-01-01", symbol: "X", wantDay: "2024-01-01"},
		{name: "within the window", day: "2024-01-05", symbol: "X", wantDay: "2024-01-01"},
		{name: "last day of the window", day: "2024-01-07", symbol: "X", wantDay: "2024-01-01"},
		{name: "one day past the window", day: "2024-01-08", symbol: "X", wantErr: true},
		{name: "well past the window", day: "2024-01-09", symbol: "X", wantErr: true},
		{name: "unknown symbol", day: "2024-01-01", symbol: "Y", wantErr: true},
		{name: "before the entry", day: "2023-12-31", symbol: "X", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			day, price, err := prices.Resolve(date.MustParse(tc.day), tc.symbol)
			if tc.wantErr {
				var notFound *PriceNotFoundError
				if !errors.As(err, &notFound) {
					t.Fatalf("Resolve(%s, %s) error = %v, want PriceNotFoundError", tc.day, tc.symbol, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%s, %s) error = %v", tc.day, tc.symbol, err)
			}
			if day != date.MustParse(tc.wantDay) {
				t.Errorf("Resolve(%s, %s) day = %s, want %s", tc.day, tc.symbol, day, tc.wantDay)
			}
			if !price.Equal(USD(10)) {
				t.Errorf("Resolve(%s, %s) price = %s, want %s", tc.day, tc.symbol, price, USD(10))
			}
		})
	}
}

func TestAwardPrices_Resolve_renames(t *testing.T) {
	prices := NewAwardPrices()
	prices.Add(date.MustParse("2022-06-01"), "FB", USD(200))

	// Both the stored and the looked-up symbol go through the rename table,
	// so the historical ticker resolves to the same entry as the current one.
	if _, _, err := prices.Resolve(date.MustParse("2022-06-01"), "META"); err != nil {
		t.Errorf("Resolve(META) error = %v", err)
	}
	if _, _, err := prices.Resolve(date.MustParse("2022-06-01"), "FB"); err != nil {
		t.Errorf("Resolve(FB) error = %v", err)
	}
}

func TestAwardPrices_Merge(t *testing.T) {
	on := date.MustParse("2024-01-01")
	other := date.MustParse("2024-02-01")

	a := NewAwardPrices()
	a.Add(on, "X", USD(10))
	a.Add(on, "Y", USD(20))

	b := NewAwardPrices()
	b.Add(on, "X", USD(11))
	b.Add(other, "Z", USD(30))

	merged := a.Merge(b)

	// b wins on the overlapping (date, symbol) key.
	if _, price, err := merged.Resolve(on, "X"); err != nil || !price.Equal(USD(11)) {
		t.Errorf("merged X = %s (err %v), want %s", price, err, USD(11))
	}
	// non-overlapping keys from both sides survive.
	if _, price, err := merged.Resolve(on, "Y"); err != nil || !price.Equal(USD(20)) {
		t.Errorf("merged Y = %s (err %v), want %s", price, err, USD(20))
	}
	if _, price, err := merged.Resolve(other, "Z"); err != nil || !price.Equal(USD(30)) {
		t.Errorf("merged Z = %s (err %v), want %s", price, err, USD(30))
	}
	if got, want := merged.Len(), 3; got != want {
		t.Errorf("merged.Len() = %d, want %d", got, want)
	}

	// Merge returns a new table, the operands are untouched.
	if _, price, _ := a.Resolve(on, "X"); !price.Equal(USD(10)) {
		t.Errorf("a was mutated by Merge: X = %s", price)
	}
	if _, _, err := b.Resolve(on, "Y"); err == nil {
		t.Error("b was mutated by Merge: Y is present")
	}
}
