package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duotrip/duotrip/internal/models"
)

// CreateTrip persists a trip and its creator as the sole owner member in one
// transaction, so a trip is never observable without its owner.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trips (id, name, destination, start_date, end_date, currency, created_by, invite_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trip.ID, trip.Name, trip.Destination, trip.StartDate, trip.EndDate,
		trip.Currency, trip.CreatedBy, trip.InviteCode, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO trip_members (trip_id, user_id, role) VALUES (?, ?, ?)",
		trip.ID, trip.CreatedBy, models.RoleOwner,
	)
	if err != nil {
		return fmt.Errorf("failed to insert owner member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTrip retrieves a trip by ID.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.getTrip(ctx, "id = ?", tripID)
}

// GetTripByInviteCode resolves an invite code to its trip.
func (s *SQLiteStore) GetTripByInviteCode(ctx context.Context, code string) (*models.Trip, error) {
	return s.getTrip(ctx, "invite_code = ?", code)
}

func (s *SQLiteStore) getTrip(ctx context.Context, where string, arg string) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, destination, start_date, end_date, currency, created_by, invite_code, created_at
		 FROM trips WHERE `+where,
		arg,
	).Scan(&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.Currency, &trip.CreatedBy, &trip.InviteCode, &trip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %q: %w", arg, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTripsForUser returns the trips the user belongs to, newest first,
// each with its expense grand total.
func (s *SQLiteStore) ListTripsForUser(ctx context.Context, userID string) ([]models.TripSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.destination, t.start_date, t.end_date, t.currency,
		        t.created_by, t.invite_code, t.created_at, COALESCE(SUM(e.amount), 0)
		 FROM trips t
		 JOIN trip_members m ON m.trip_id = t.id AND m.user_id = ?
		 LEFT JOIN expenses e ON e.trip_id = t.id
		 GROUP BY t.id
		 ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []models.TripSummary
	for rows.Next() {
		var t models.TripSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
			&t.Currency, &t.CreatedBy, &t.InviteCode, &t.CreatedAt, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// DeleteTrip removes a trip; members and expenses cascade.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("trip %q: %w", tripID, models.ErrNotFound)
	}
	return nil
}

// ListMembers returns the members of a trip, owner first.
func (s *SQLiteStore) ListMembers(ctx context.Context, tripID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trip_id, user_id, role FROM trip_members
		 WHERE trip_id = ? ORDER BY role = 'owner' DESC, user_id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.TripID, &m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// AddMember inserts userID as a regular member of the trip. The capacity
// check and the insert execute as one SQL statement, so two racing join
// attempts cannot both observe a free slot: SQLite holds the write lock for
// the whole statement and exactly one insert lands.
func (s *SQLiteStore) AddMember(ctx context.Context, tripID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trip_members (trip_id, user_id, role)
		 SELECT ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM trip_members WHERE trip_id = ?) < 2`,
		tripID, userID, models.RoleMember, tripID,
	)
	if err != nil {
		// The primary key fires when the user already holds a slot.
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q in trip %q: %w", userID, tripID, models.ErrConflict)
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	// No row landed: the trip is full. Distinguish "full and caller already
	// holds a slot" (duplicate join) from "full with two other members".
	var isMember bool
	err = s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = ? AND user_id = ?)",
		tripID, userID,
	).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return fmt.Errorf("user %q in trip %q: %w", userID, tripID, models.ErrConflict)
	}
	return fmt.Errorf("trip %q: %w", tripID, models.ErrCapacityExceeded)
}
