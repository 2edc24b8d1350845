package models

// CategoryTotals is one category's share of the trip total, split by payer.
type CategoryTotals struct {
	TotalA float64
	TotalB float64
	Total  float64
}

// Balance is the derived settlement between a trip's two members.
// It is recomputed on demand from the current expense set and never persisted.
//
// Each monetary field is rounded to 2 decimals independently, so
// TotalA + TotalB may differ from GrandTotal by the last cent under
// adversarial inputs. That artifact is accepted, not hidden.
type Balance struct {
	// TotalA and TotalB are the sums paid by memberA and memberB.
	TotalA float64
	TotalB float64

	// GrandTotal is TotalA + TotalB.
	GrandTotal float64

	// FairShare is GrandTotal / 2: what each member should have paid
	// under even splitting.
	FairShare float64

	// Debtor owes Amount to Creditor.
	Debtor   string
	Creditor string
	Amount   float64

	// IsSettled holds when the exact outstanding difference, taken before
	// rounding, is below one cent. A fixed absolute tolerance absorbs
	// floating-point noise from repeated rounding; it is not a business
	// tolerance. Amount can still read 0.01 for a settled half-cent net.
	IsSettled bool

	// ByCategory breaks the totals down per expense category.
	ByCategory map[Category]CategoryTotals
}
