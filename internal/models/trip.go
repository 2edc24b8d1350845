package models

// Role of a member within a trip.
type Role string

const (
	// RoleOwner is the user who created the trip.
	RoleOwner Role = "owner"
	// RoleMember is the second participant, joined via invite code.
	RoleMember Role = "member"
)

// Trip represents a shared travel context for exactly two participants.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string

	// Name is the display name of the trip (e.g. "Lisbon 2026").
	Name string

	// Destination is an optional free-text destination.
	Destination string

	// StartDate and EndDate are optional calendar days in YYYY-MM-DD format.
	StartDate string
	EndDate   string

	// Currency is the ISO 4217 code expenses default to (e.g. "EUR").
	Currency string

	// CreatedBy is the user ID of the creator. Only the creator may delete
	// the trip.
	CreatedBy string

	// InviteCode is the short opaque token the second participant redeems
	// to join. Unique across trips.
	InviteCode string

	// CreatedAt is the Unix timestamp (milliseconds) when the trip was created.
	CreatedAt int64
}

// Member binds a user to a trip. A trip never has more than two members;
// the store enforces this with an atomic conditional insert.
type Member struct {
	TripID string
	UserID string
	Role   Role
}

// TripSummary is a trip with its expense grand total, used for listings.
type TripSummary struct {
	Trip

	// Total is the sum of all expense amounts logged against the trip.
	Total float64
}
