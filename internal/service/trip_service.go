// Package service implements the application operations the API exposes:
// trip membership and lifecycle. Expense operations live in the ledger
// package, which this layer hands out per trip.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duotrip/duotrip/internal/models"
	"github.com/duotrip/duotrip/internal/storage"
)

// inviteAlphabet avoids look-alike characters (0/O, 1/I/L) so codes survive
// being read aloud.
const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// inviteCodeLength gives ~49 bits of entropy, plenty for an opaque
// non-guessable token with no expiry sweep.
const inviteCodeLength = 10

// TripService enforces trip membership rules: the creator becomes the owner
// atomically, a second participant joins by invite code, and the two-member
// capacity is checked-and-inserted in a single store operation.
type TripService struct {
	store storage.Store
}

// NewTripService creates a TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// TripAttrs carries the caller-supplied fields for a new trip.
type TripAttrs struct {
	Name        string
	Destination string
	StartDate   string
	EndDate     string
	Currency    string
}

// CreateTrip creates a trip and inserts ownerID as its sole owner member in
// one logically atomic unit.
func (s *TripService) CreateTrip(ctx context.Context, ownerID string, attrs TripAttrs) (*models.Trip, error) {
	if strings.TrimSpace(attrs.Name) == "" {
		return nil, fmt.Errorf("%w: trip name is required", models.ErrValidation)
	}
	currency := attrs.Currency
	if currency == "" {
		currency = "EUR"
	}

	trip := &models.Trip{
		Name:        strings.TrimSpace(attrs.Name),
		Destination: attrs.Destination,
		StartDate:   attrs.StartDate,
		EndDate:     attrs.EndDate,
		Currency:    currency,
		CreatedBy:   ownerID,
		InviteCode:  newInviteCode(),
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "owner_id", ownerID, "error", err)
		return nil, err
	}

	slog.Info("Trip created", "trip_id", trip.ID, "owner_id", ownerID)
	return trip, nil
}

// JoinByInviteCode resolves the code to a trip and adds userID as a member.
// Idempotent and race-safe: joining a trip the user already belongs to
// returns the trip ID without error, and the capacity check runs as a single
// atomic conditional insert at the store, so two simultaneous joiners cannot
// both land.
func (s *TripService) JoinByInviteCode(ctx context.Context, userID, code string) (string, error) {
	trip, err := s.store.GetTripByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", fmt.Errorf("invite code invalid or expired: %w", models.ErrNotFound)
		}
		return "", err
	}

	err = s.store.AddMember(ctx, trip.ID, userID)
	switch {
	case err == nil:
		slog.Info("Member joined trip", "trip_id", trip.ID, "user_id", userID)
		return trip.ID, nil
	case errors.Is(err, models.ErrConflict):
		// Already a member: the documented silent-success policy.
		slog.Debug("Duplicate join treated as success", "trip_id", trip.ID, "user_id", userID)
		return trip.ID, nil
	default:
		slog.Warn("Join rejected", "trip_id", trip.ID, "user_id", userID, "error", err)
		return "", err
	}
}

// GetTrip returns a trip with its members, if requesterID is one of them.
func (s *TripService) GetTrip(ctx context.Context, tripID, requesterID string) (*models.Trip, []models.Member, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.ListMembers(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	if !memberOf(members, requesterID) {
		return nil, nil, fmt.Errorf("user %q is not a member of trip %q: %w", requesterID, tripID, models.ErrPermission)
	}
	return trip, members, nil
}

// ListTrips returns the trips the user belongs to, newest first.
func (s *TripService) ListTrips(ctx context.Context, userID string) ([]models.TripSummary, error) {
	return s.store.ListTripsForUser(ctx, userID)
}

// DeleteTrip removes the trip with its members and expenses. Only the
// creator may delete.
func (s *TripService) DeleteTrip(ctx context.Context, tripID, requesterID string) error {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.CreatedBy != requesterID {
		return fmt.Errorf("only the trip creator may delete it: %w", models.ErrPermission)
	}

	if err := s.store.DeleteTrip(ctx, tripID); err != nil {
		return err
	}
	slog.Info("Trip deleted", "trip_id", tripID, "requester_id", requesterID)
	return nil
}

// Members returns the member rows of a trip.
func (s *TripService) Members(ctx context.Context, tripID string) ([]models.Member, error) {
	return s.store.ListMembers(ctx, tripID)
}

func memberOf(members []models.Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// newInviteCode returns a short opaque token from the unambiguous alphabet.
func newInviteCode() string {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf)
}
