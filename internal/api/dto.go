package api

import "github.com/duotrip/duotrip/internal/models"

// Wire types for the JSON API. Domain models stay tag-free; conversion
// happens here so the wire shape can evolve without touching the core.

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type memberResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type tripResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Destination string `json:"destination,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Currency    string `json:"currency"`
	CreatedBy   string `json:"created_by"`
	InviteCode  string `json:"invite_code"`
	CreatedAt   int64  `json:"created_at"`

	Members []memberResponse `json:"members,omitempty"`
	Total   *float64         `json:"total,omitempty"`
}

func toTripResponse(t *models.Trip, members []models.Member) tripResponse {
	resp := tripResponse{
		ID:          t.ID,
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Currency:    t.Currency,
		CreatedBy:   t.CreatedBy,
		InviteCode:  t.InviteCode,
		CreatedAt:   t.CreatedAt,
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberResponse{UserID: m.UserID, Role: string(m.Role)})
	}
	return resp
}

func toTripSummaryResponse(s models.TripSummary) tripResponse {
	resp := toTripResponse(&s.Trip, nil)
	total := s.Total
	resp.Total = &total
	return resp
}

type expenseResponse struct {
	ID          string  `json:"id"`
	TripID      string  `json:"trip_id"`
	PaidBy      string  `json:"paid_by"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	CreatedAt   int64   `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		TripID:      e.TripID,
		PaidBy:      e.PaidBy,
		Category:    string(e.Category),
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
	}
}

type categoryTotalsResponse struct {
	TotalA float64 `json:"total_a"`
	TotalB float64 `json:"total_b"`
	Total  float64 `json:"total"`
}

type balanceResponse struct {
	TotalA     float64                           `json:"total_a"`
	TotalB     float64                           `json:"total_b"`
	GrandTotal float64                           `json:"grand_total"`
	FairShare  float64                           `json:"fair_share"`
	Debtor     string                            `json:"debtor,omitempty"`
	Creditor   string                            `json:"creditor,omitempty"`
	Amount     float64                           `json:"amount"`
	IsSettled  bool                              `json:"is_settled"`
	ByCategory map[string]categoryTotalsResponse `json:"by_category"`

	// Anomaly carries a warning when expenses with an unknown payer were
	// excluded from the calculation.
	Anomaly string `json:"anomaly,omitempty"`
}

func toBalanceResponse(b *models.Balance) balanceResponse {
	resp := balanceResponse{
		TotalA:     b.TotalA,
		TotalB:     b.TotalB,
		GrandTotal: b.GrandTotal,
		FairShare:  b.FairShare,
		Debtor:     b.Debtor,
		Creditor:   b.Creditor,
		Amount:     b.Amount,
		IsSettled:  b.IsSettled,
		ByCategory: make(map[string]categoryTotalsResponse, len(b.ByCategory)),
	}
	for cat, totals := range b.ByCategory {
		resp.ByCategory[string(cat)] = categoryTotalsResponse{
			TotalA: totals.TotalA,
			TotalB: totals.TotalB,
			Total:  totals.Total,
		}
	}
	return resp
}

type placeResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	OpeningHours string  `json:"opening_hours,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Website      string  `json:"website,omitempty"`
	Cuisine      string  `json:"cuisine,omitempty"`
	Category     string  `json:"category"`
}

func toPlaceResponses(places []models.Place) []placeResponse {
	out := make([]placeResponse, 0, len(places))
	for _, p := range places {
		out = append(out, placeResponse{
			ID:           p.ID,
			Name:         p.Name,
			Lat:          p.Lat,
			Lng:          p.Lng,
			OpeningHours: p.OpeningHours,
			Phone:        p.Phone,
			Website:      p.Website,
			Cuisine:      p.Cuisine,
			Category:     p.Category,
		})
	}
	return out
}
