package models

import "errors"

// Sentinel errors for the failure kinds the core distinguishes.
// Layers wrap them with fmt.Errorf("...: %w", Err...) so callers can test
// with errors.Is while the message keeps its context.

// ErrValidation is returned when input fails a business rule (empty trip name,
// non-positive amount, unknown category). Non-retryable; the caller must
// correct the input. The API maps it to HTTP 422.
var ErrValidation = errors.New("validation error")

// ErrNotFound is returned when a referenced trip, expense, user or invite code
// does not exist. The API maps it to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrCapacityExceeded is returned by a join attempt against a trip that
// already has two members. The API maps it to HTTP 409.
var ErrCapacityExceeded = errors.New("trip already has two members")

// ErrPermission is returned when the actor lacks rights for the operation
// (e.g. deleting a trip they did not create). The API maps it to HTTP 403.
var ErrPermission = errors.New("permission denied")

// ErrConflict signals a duplicate membership insert. It never escapes the
// service layer: joining a trip you already belong to is rewritten to success.
var ErrConflict = errors.New("duplicate membership")

// ErrNetwork is returned on transient failures reaching an external
// collaborator (the geo search provider). Retryable by the caller.
var ErrNetwork = errors.New("network error")

// ErrAnomaly is returned by the settlement calculation when an expense's payer
// is neither of the two known members. It indicates a data-integrity violation
// upstream and is surfaced rather than silently dropped.
var ErrAnomaly = errors.New("expense payer is not a trip member")
