package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/duotrip/duotrip/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "duotrip-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, email, "x")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func createTestTrip(t *testing.T, store *SQLiteStore, owner *models.User, code string) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		Name:       "Lisbon",
		Currency:   "EUR",
		CreatedBy:  owner.ID,
		InviteCode: code,
	}
	if err := store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func TestTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")

	t.Run("CreateTrip inserts owner member atomically", func(t *testing.T) {
		trip := createTestTrip(t, store, owner, "CODE-1")

		if trip.ID == "" {
			t.Error("Expected trip ID to be generated")
		}
		if trip.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		members, err := store.ListMembers(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 1 {
			t.Fatalf("Expected 1 member, got %d", len(members))
		}
		if members[0].UserID != owner.ID || members[0].Role != models.RoleOwner {
			t.Errorf("Unexpected owner member: %+v", members[0])
		}
	})

	t.Run("GetTripByInviteCode resolves the trip", func(t *testing.T) {
		trip := createTestTrip(t, store, owner, "CODE-2")

		got, err := store.GetTripByInviteCode(ctx, "CODE-2")
		if err != nil {
			t.Fatalf("GetTripByInviteCode failed: %v", err)
		}
		if got.ID != trip.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, trip.ID)
		}

		_, err = store.GetTripByInviteCode(ctx, "NOPE")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for unknown code, got %v", err)
		}
	})

	t.Run("ListTripsForUser includes expense totals", func(t *testing.T) {
		member := createTestUser(t, store, "partner-totals@example.com")
		trip := createTestTrip(t, store, owner, "CODE-3")
		if err := store.AddMember(ctx, trip.ID, member.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		for _, amount := range []float64{10.50, 4.50} {
			err := store.CreateExpense(ctx, &models.Expense{
				TripID:   trip.ID,
				PaidBy:   member.ID,
				Category: models.CategoryFood,
				Amount:   amount,
				Currency: "EUR",
				Date:     "2026-08-01",
			})
			if err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		trips, err := store.ListTripsForUser(ctx, member.ID)
		if err != nil {
			t.Fatalf("ListTripsForUser failed: %v", err)
		}
		if len(trips) != 1 {
			t.Fatalf("Expected 1 trip for member, got %d", len(trips))
		}
		if trips[0].Total != 15.0 {
			t.Errorf("Total = %v, want 15.0", trips[0].Total)
		}
	})

	t.Run("DeleteTrip cascades to members and expenses", func(t *testing.T) {
		trip := createTestTrip(t, store, owner, "CODE-4")
		err := store.CreateExpense(ctx, &models.Expense{
			TripID:   trip.ID,
			PaidBy:   owner.ID,
			Category: models.CategoryOther,
			Amount:   5,
			Currency: "EUR",
			Date:     "2026-08-02",
		})
		if err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteTrip(ctx, trip.ID); err != nil {
			t.Fatalf("DeleteTrip failed: %v", err)
		}

		if _, err := store.GetTrip(ctx, trip.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		members, err := store.ListMembers(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 0 {
			t.Errorf("Expected members to cascade, got %d", len(members))
		}
		expenses, err := store.ListExpenses(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("Expected expenses to cascade, got %d", len(expenses))
		}
	})
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("second member joins, third is rejected", func(t *testing.T) {
		store := newTestStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		second := createTestUser(t, store, "second@example.com")
		third := createTestUser(t, store, "third@example.com")
		trip := createTestTrip(t, store, owner, "JOIN-1")

		if err := store.AddMember(ctx, trip.ID, second.ID); err != nil {
			t.Fatalf("AddMember(second) failed: %v", err)
		}
		if err := store.AddMember(ctx, trip.ID, third.ID); !errors.Is(err, models.ErrCapacityExceeded) {
			t.Errorf("Expected ErrCapacityExceeded for third member, got %v", err)
		}

		members, err := store.ListMembers(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(members))
		}
	})

	t.Run("duplicate join reports conflict", func(t *testing.T) {
		store := newTestStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		second := createTestUser(t, store, "second@example.com")
		trip := createTestTrip(t, store, owner, "JOIN-2")

		if err := store.AddMember(ctx, trip.ID, second.ID); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		if err := store.AddMember(ctx, trip.ID, second.ID); !errors.Is(err, models.ErrConflict) {
			t.Errorf("Expected ErrConflict on duplicate join, got %v", err)
		}
		// Owner re-joining a full trip also reports conflict, not capacity.
		if err := store.AddMember(ctx, trip.ID, owner.ID); !errors.Is(err, models.ErrConflict) {
			t.Errorf("Expected ErrConflict for existing owner, got %v", err)
		}

		// Re-joining while a slot is still free hits the primary key instead
		// of the capacity predicate; both must report conflict.
		halfFull := createTestTrip(t, store, owner, "JOIN-2B")
		if err := store.AddMember(ctx, halfFull.ID, owner.ID); !errors.Is(err, models.ErrConflict) {
			t.Errorf("Expected ErrConflict for owner with free slot, got %v", err)
		}
	})

	t.Run("concurrent joins admit exactly one", func(t *testing.T) {
		store := newTestStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		trip := createTestTrip(t, store, owner, "JOIN-3")

		const contenders = 8
		users := make([]*models.User, contenders)
		for i := range users {
			users[i] = createTestUser(t, store, string(rune('a'+i))+"@example.com")
		}

		errs := make([]error, contenders)
		var wg sync.WaitGroup
		for i := range users {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.AddMember(ctx, trip.ID, users[i].ID)
			}(i)
		}
		wg.Wait()

		var wins, capacity int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, models.ErrCapacityExceeded):
				capacity++
			default:
				t.Errorf("Unexpected join error: %v", err)
			}
		}
		if wins != 1 {
			t.Errorf("Expected exactly 1 successful join, got %d", wins)
		}
		if capacity != contenders-1 {
			t.Errorf("Expected %d capacity rejections, got %d", contenders-1, capacity)
		}

		members, err := store.ListMembers(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 2 {
			t.Errorf("Trip ended with %d members, want 2", len(members))
		}
	})
}

func TestExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, store, "owner@example.com")
	trip := createTestTrip(t, store, owner, "EXP-1")

	t.Run("ListExpenses orders by date desc then created_at desc", func(t *testing.T) {
		rows := []struct {
			id        string
			date      string
			createdAt int64
		}{
			{"e-old", "2026-08-01", 100},
			{"e-mid", "2026-08-02", 100},
			{"e-new", "2026-08-02", 200},
		}
		for _, r := range rows {
			err := store.CreateExpense(ctx, &models.Expense{
				ID:        r.id,
				TripID:    trip.ID,
				PaidBy:    owner.ID,
				Category:  models.CategoryFood,
				Amount:    1,
				Currency:  "EUR",
				Date:      r.date,
				CreatedAt: r.createdAt,
			})
			if err != nil {
				t.Fatalf("CreateExpense(%s) failed: %v", r.id, err)
			}
		}

		expenses, err := store.ListExpenses(ctx, trip.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		var got []string
		for _, e := range expenses {
			got = append(got, e.ID)
		}
		want := []string{"e-new", "e-mid", "e-old"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Order = %v, want %v", got, want)
			}
		}
	})

	t.Run("UpdateExpense patches only set fields", func(t *testing.T) {
		amount := 42.5
		desc := "tapas"
		updated, err := store.UpdateExpense(ctx, trip.ID, "e-old", models.ExpensePatch{
			Amount:      &amount,
			Description: &desc,
		})
		if err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		if updated.Amount != 42.5 || updated.Description != "tapas" {
			t.Errorf("Patched fields not applied: %+v", updated)
		}
		if updated.Date != "2026-08-01" {
			t.Errorf("Unpatched Date changed: %s", updated.Date)
		}
	})

	t.Run("UpdateExpense on missing id returns ErrNotFound", func(t *testing.T) {
		amount := 1.0
		_, err := store.UpdateExpense(ctx, trip.ID, "nope", models.ExpensePatch{Amount: &amount})
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteExpense removes the row", func(t *testing.T) {
		if err := store.DeleteExpense(ctx, trip.ID, "e-mid"); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, trip.ID, "e-mid"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("mutations are scoped to the trip", func(t *testing.T) {
		other := createTestTrip(t, store, owner, "EXP-2")

		amount := 9999.0
		_, err := store.UpdateExpense(ctx, other.ID, "e-new", models.ExpensePatch{Amount: &amount})
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound updating through another trip, got %v", err)
		}
		if err := store.DeleteExpense(ctx, other.ID, "e-new"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound deleting through another trip, got %v", err)
		}

		got, err := store.GetExpense(ctx, "e-new")
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount != 1 || got.TripID != trip.ID {
			t.Errorf("Expense changed through another trip: %+v", got)
		}
	})

	t.Run("payer must be a trip member", func(t *testing.T) {
		outsider := createTestUser(t, store, "outsider@example.com")
		err := store.CreateExpense(ctx, &models.Expense{
			TripID:   trip.ID,
			PaidBy:   outsider.ID,
			Category: models.CategoryFood,
			Amount:   9,
			Currency: "EUR",
			Date:     "2026-08-03",
		})
		if !errors.Is(err, models.ErrValidation) {
			t.Errorf("Expected ErrValidation for non-member payer, got %v", err)
		}
	})
}
