package brokerimport

import "github.com/etnz/brokerimport/date"

// daySymbol identifies one real-world equity event: a symbol on a date.
type daySymbol struct {
	day    date.Date
	symbol string
}

// Reconcile merges two transaction streams describing overlapping real-world
// events for the same account: a higher-precision source (the equity award
// export) and a lower-precision one (the general transactions export).
//
// The lower-precision source's entries for (date, symbol) pairs also covered
// by the higher-precision source are dropped to avoid double-counting; every
// other entry of both sources is kept. The result is sorted by date with a
// stable sort: equal-date transactions keep the concatenation order,
// higher-precision source first. Reconciliation never mutates a transaction,
// it only filters and reorders, so a record's identity is preserved for
// downstream auditing.
func Reconcile(precise, coarse []*Transaction, diag *Diagnostics) []*Transaction {
	covered := make(map[daySymbol]struct{}, len(precise))
	for _, tx := range precise {
		covered[daySymbol{tx.Date, tx.Symbol}] = struct{}{}
	}

	merged := make([]*Transaction, 0, len(precise)+len(coarse))
	merged = append(merged, precise...)
	for _, tx := range coarse {
		if _, ok := covered[daySymbol{tx.Date, tx.Symbol}]; ok {
			diag.Info("removing transaction already present in equity award data",
				"symbol", tx.Symbol, "date", tx.Date.String(), "transaction", tx.String())
			continue
		}
		merged = append(merged, tx)
	}

	sortByDate(merged)
	return merged
}
