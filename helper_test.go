package brokerimport

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// qty is a helper for test to create an optional quantity from const
func qty(v float64) *Quantity {
	q := Q(v)
	return &q
}

// usd is a helper for test to create an optional usd amount from const
func usd(v float64) *Money {
	m := USD(v)
	return &m
}
