package models

import "fmt"

// Category is the closed set of expense categories. Unknown values are
// rejected at the boundary rather than stored as free-form strings.
type Category string

const (
	CategoryFlight        Category = "flight"
	CategoryCarRental     Category = "car_rental"
	CategoryAccommodation Category = "accommodation"
	CategoryFood          Category = "food"
	CategoryExcursion     Category = "excursion"
	CategoryOther         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryFlight,
	CategoryCarRental,
	CategoryAccommodation,
	CategoryFood,
	CategoryExcursion,
	CategoryOther,
}

// ParseCategory validates a raw category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// Expense represents a single payment logged against a trip.
// Expenses are exclusively owned by their trip and are deleted with it.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// PaidBy is the user ID of the payer. Must be a current member of the
	// trip; the store enforces this with a foreign key.
	PaidBy string

	// Category classifies the expense.
	Category Category

	// Description is an optional free-text note.
	Description string

	// Amount is the monetary amount. Always positive.
	Amount float64

	// Currency is the ISO 4217 code. Defaults to the trip currency.
	Currency string

	// Date is the calendar day of the expense in YYYY-MM-DD format
	// (no time component). The in-memory view sorts on it descending.
	Date string

	// CreatedAt is the Unix timestamp (milliseconds) when the expense was
	// recorded. Used as the tiebreak for expenses on the same day.
	CreatedAt int64
}

// ExpenseDraft carries the caller-supplied fields for a new expense.
// Zero-valued optional fields inherit trip defaults.
type ExpenseDraft struct {
	PaidBy      string
	Category    Category
	Description string
	Amount      float64
	Currency    string
	Date        string
}

// ExpensePatch carries the fields of an expense update. Nil fields are
// left unchanged.
type ExpensePatch struct {
	PaidBy      *string
	Category    *Category
	Description *string
	Amount      *float64
	Currency    *string
	Date        *string
}
