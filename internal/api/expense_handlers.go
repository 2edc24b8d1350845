package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duotrip/duotrip/internal/ledger"
	"github.com/duotrip/duotrip/internal/middleware"
	"github.com/duotrip/duotrip/internal/models"
)

type createExpenseRequest struct {
	PaidBy      string  `json:"paid_by"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
}

type updateExpenseRequest struct {
	PaidBy      *string  `json:"paid_by"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Currency    *string  `json:"currency"`
	Date        *string  `json:"date"`
}

// openLedger gates on trip membership and returns the shared ledger together
// with the trip's member rows.
func (s *Server) openLedger(r *http.Request) (*ledger.Ledger, []models.Member, error) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	_, members, err := s.trips.GetTrip(r.Context(), tripID, userID)
	if err != nil {
		return nil, nil, err
	}

	l, err := s.ledgers.Get(r.Context(), tripID)
	if err != nil {
		return nil, nil, err
	}
	return l, members, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.openLedger(r)
	if err != nil {
		writeError(w, err)
		return
	}

	expenses := l.Expenses()
	out := make([]expenseResponse, 0, len(expenses))
	for i := range expenses {
		out = append(out, toExpenseResponse(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.openLedger(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	expense, err := l.Add(r.Context(), models.ExpenseDraft{
		PaidBy:      req.PaidBy,
		Category:    models.Category(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.openLedger(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := models.ExpensePatch{
		PaidBy:      req.PaidBy,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        req.Date,
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		patch.Category = &category
	}

	expense, err := l.Update(r.Context(), chi.URLParam(r, "expenseID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	l, _, err := s.openLedger(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := l.Remove(r.Context(), chi.URLParam(r, "expenseID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	l, members, err := s.openLedger(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// ListMembers returns the owner first; a solo trip settles against an
	// absent second member.
	memberA := members[0].UserID
	memberB := ""
	if len(members) > 1 {
		memberB = members[1].UserID
	}

	balance, err := l.Balance(memberA, memberB)
	if err != nil {
		// Stray-payer anomalies still yield a usable balance over the valid
		// expenses; surface the warning instead of failing the request.
		if balance != nil && errors.Is(err, models.ErrAnomaly) {
			resp := toBalanceResponse(balance)
			resp.Anomaly = err.Error()
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceResponse(balance))
}
