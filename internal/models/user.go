package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Trips reference users by ID for
// membership and expense attribution.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique). Used for login.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp (milliseconds) when the account was
	// created.
	CreatedAt int64
}

// NewUser constructs a user with a fresh ID and creation timestamp.
func NewUser(email, name, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UnixMilli(),
	}
}
