// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/duotrip/duotrip/internal/models"
)

// Store defines the interface for trip, member, expense and user persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Contract highlights the core relies on:
//   - AddMember performs the capacity check and the insert as one atomic
//     conditional write. Callers never count-then-insert.
//   - ListExpenses returns rows ordered by (date desc, created_at desc).
//   - Expense updates and deletes are scoped to a trip: an ID that exists
//     under a different trip reads as not found.
//   - An expense's payer must reference a member of the same trip; the
//     backend enforces this with a foreign-key-style constraint.
type Store interface {
	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email.
	// Returns models.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateTrip persists a trip and its creator as the sole owner member
	// in one transaction. The trip.ID field will be populated by the store
	// if empty.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by ID.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// GetTripByInviteCode resolves an invite code to its trip.
	// Returns models.ErrNotFound for unknown codes.
	GetTripByInviteCode(ctx context.Context, code string) (*models.Trip, error)

	// ListTripsForUser returns the trips the user is a member of, newest
	// first, each with its expense grand total.
	ListTripsForUser(ctx context.Context, userID string) ([]models.TripSummary, error)

	// DeleteTrip removes a trip, cascading to its members and expenses.
	DeleteTrip(ctx context.Context, tripID string) error

	// ListMembers returns the members of a trip (at most two).
	ListMembers(ctx context.Context, tripID string) ([]models.Member, error)

	// AddMember inserts userID as a regular member of the trip, checking
	// the two-member capacity in the same atomic statement. Returns
	// models.ErrConflict if the user is already a member and
	// models.ErrCapacityExceeded if the trip is full.
	AddMember(ctx context.Context, tripID, userID string) error

	// CreateExpense persists a new expense. ID and CreatedAt are populated
	// by the store if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)

	// UpdateExpense applies a patch to the trip's expense and returns the
	// updated row. Returns models.ErrNotFound if the expense does not
	// exist within that trip.
	UpdateExpense(ctx context.Context, tripID, id string, patch models.ExpensePatch) (*models.Expense, error)

	// DeleteExpense removes the trip's expense by ID.
	// Returns models.ErrNotFound if the expense does not exist within
	// that trip.
	DeleteExpense(ctx context.Context, tripID, id string) error

	// ListExpenses returns a trip's expenses ordered by date descending,
	// then creation timestamp descending.
	ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}
