package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duotrip/duotrip/internal/models"
)

const expenseColumns = "id, trip_id, paid_by, category, description, amount, currency, date, created_at"

// CreateExpense persists a new expense, populating ID and CreatedAt if unset.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.PaidBy, expense.Category,
		expense.Description, expense.Amount, expense.Currency, expense.Date, expense.CreatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: expense violates a constraint: %v", models.ErrValidation, err)
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	return s.getExpense(ctx, "id = ?", id)
}

func (s *SQLiteStore) getExpense(ctx context.Context, where string, args ...any) (*models.Expense, error) {
	e := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+where, args...,
	).Scan(&e.ID, &e.TripID, &e.PaidBy, &e.Category, &e.Description,
		&e.Amount, &e.Currency, &e.Date, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %q: %w", args[0], models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense applies the non-nil fields of patch and returns the updated
// row. The trip ID scopes the write: an expense belonging to another trip is
// not found, never mutated.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, tripID, id string, patch models.ExpensePatch) (*models.Expense, error) {
	var sets []string
	var args []any

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.PaidBy != nil {
		set("paid_by", *patch.PaidBy)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Amount != nil {
		set("amount", *patch.Amount)
	}
	if patch.Currency != nil {
		set("currency", *patch.Currency)
	}
	if patch.Date != nil {
		set("date", *patch.Date)
	}

	if len(sets) > 0 {
		query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ? AND trip_id = ?"
		args = append(args, id, tripID)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			if isConstraintViolation(err) {
				return nil, fmt.Errorf("%w: expense violates a constraint: %v", models.ErrValidation, err)
			}
			return nil, fmt.Errorf("failed to update expense: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("expense %q: %w", id, models.ErrNotFound)
		}
	}

	return s.getExpense(ctx, "id = ? AND trip_id = ?", id, tripID)
}

// DeleteExpense removes the trip's expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, tripID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND trip_id = ?", id, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %q: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListExpenses returns a trip's expenses ordered by date descending, then
// creation timestamp descending. The ledger's in-memory view preserves this
// ordering across every mutation and merge.
func (s *SQLiteStore) ListExpenses(ctx context.Context, tripID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE trip_id = ?
		 ORDER BY date DESC, created_at DESC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.TripID, &e.PaidBy, &e.Category, &e.Description,
			&e.Amount, &e.Currency, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
