// Package ledger maintains the authoritative in-memory expense view for an
// open trip. Local mutations are persisted first and applied optimistically;
// remote changes arrive as events through the realtime hub and are merged
// into the same view. Any read of the view can be fed to the calculator to
// produce a balance.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/duotrip/duotrip/internal/calculator"
	"github.com/duotrip/duotrip/internal/metrics"
	"github.com/duotrip/duotrip/internal/models"
	"github.com/duotrip/duotrip/internal/realtime"
	"github.com/duotrip/duotrip/internal/storage"
)

// State of a ledger. A ledger moves Loading → Ready, oscillates through
// Mutating/Reconciling while in use, and ends at Closed.
type State string

const (
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateMutating    State = "mutating"
	StateReconciling State = "reconciling"
	StateClosed      State = "closed"
)

// Ledger is the open view of one trip's expenses. All methods are safe for
// concurrent use; the view itself is mutated only under the internal mutex,
// with remote events applied one at a time in arrival order.
type Ledger struct {
	tripID string
	trip   *models.Trip
	store  storage.Store
	hub    *realtime.Hub
	sub    *realtime.Subscription

	mu    sync.Mutex
	view  []models.Expense
	state State
}

// Open loads the trip's current expense snapshot and subscribes to its
// change events. The caller owns the returned ledger and must Close it.
func Open(ctx context.Context, store storage.Store, hub *realtime.Hub, tripID string) (*Ledger, error) {
	l := &Ledger{
		tripID: tripID,
		store:  store,
		hub:    hub,
		state:  StateLoading,
	}

	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	l.trip = trip

	snapshot, err := store.ListExpenses(ctx, tripID)
	if err != nil {
		return nil, err
	}
	l.view = snapshot

	l.sub = hub.Subscribe(tripID)
	l.state = StateReady
	metrics.LedgersOpen.Inc()

	go l.reconcileLoop()

	return l, nil
}

// reconcileLoop applies remote events in arrival order until the
// subscription channel closes.
func (l *Ledger) reconcileLoop() {
	for event := range l.sub.C {
		l.applyRemote(event)
	}
}

func (l *Ledger) applyRemote(event realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A closed handle is inert: late deliveries are discarded here, under
	// the same mutex Close takes, so no event lands after Close returns.
	if l.state == StateClosed {
		return
	}
	// Events for other trips never belong in this view. The hub already
	// scopes subscriptions per trip; this guards against misrouted records.
	if event.Expense.TripID != "" && event.Expense.TripID != l.tripID {
		return
	}

	l.state = StateReconciling
	l.view = Merge(l.view, event)
	l.state = StateReady
}

// Add validates the draft, persists it, applies it optimistically to the
// view, and announces it to the trip's other subscribers.
func (l *Ledger) Add(ctx context.Context, draft models.ExpenseDraft) (*models.Expense, error) {
	if draft.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if _, err := models.ParseCategory(string(draft.Category)); err != nil {
		return nil, err
	}
	if draft.Date == "" {
		return nil, fmt.Errorf("%w: date is required", models.ErrValidation)
	}

	members, err := l.store.ListMembers(ctx, l.tripID)
	if err != nil {
		return nil, err
	}
	payer := draft.PaidBy
	if payer == "" {
		if len(members) > 1 {
			return nil, fmt.Errorf("%w: payer is required when the trip has two members", models.ErrValidation)
		}
		payer = members[0].UserID
	}
	if !isMember(members, payer) {
		return nil, fmt.Errorf("%w: payer %q is not a trip member", models.ErrValidation, payer)
	}

	currency := draft.Currency
	if currency == "" {
		currency = l.trip.Currency
	}

	expense := &models.Expense{
		TripID:      l.tripID,
		PaidBy:      payer,
		Category:    draft.Category,
		Description: draft.Description,
		Amount:      draft.Amount,
		Currency:    currency,
		Date:        draft.Date,
	}

	if err := l.mutate(func() error { return l.store.CreateExpense(ctx, expense) }); err != nil {
		return nil, err
	}
	metrics.ExpenseMutations.WithLabelValues("add").Inc()

	l.applyLocal(realtime.Event{Kind: realtime.EventInserted, Expense: *expense})
	l.hub.Publish(l.tripID, realtime.Event{Kind: realtime.EventInserted, Expense: *expense})

	slog.Debug("expense added", "trip_id", l.tripID, "expense_id", expense.ID, "amount", expense.Amount)
	return expense, nil
}

// Update persists a patch and replaces the entry in the view.
func (l *Ledger) Update(ctx context.Context, id string, patch models.ExpensePatch) (*models.Expense, error) {
	if patch.Amount != nil && *patch.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}
	if patch.Category != nil {
		if _, err := models.ParseCategory(string(*patch.Category)); err != nil {
			return nil, err
		}
	}

	var updated *models.Expense
	err := l.mutate(func() error {
		var err error
		updated, err = l.store.UpdateExpense(ctx, l.tripID, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ExpenseMutations.WithLabelValues("update").Inc()

	l.applyLocal(realtime.Event{Kind: realtime.EventUpdated, Expense: *updated})
	l.hub.Publish(l.tripID, realtime.Event{Kind: realtime.EventUpdated, Expense: *updated})

	return updated, nil
}

// Remove persists the deletion and filters the entry out of the view.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	if err := l.mutate(func() error { return l.store.DeleteExpense(ctx, l.tripID, id) }); err != nil {
		return err
	}
	metrics.ExpenseMutations.WithLabelValues("remove").Inc()

	event := realtime.Event{Kind: realtime.EventDeleted, Expense: models.Expense{ID: id, TripID: l.tripID}}
	l.applyLocal(event)
	l.hub.Publish(l.tripID, event)

	return nil
}

// mutate runs a persistence call with the state set to Mutating for its
// duration. The store call happens outside the view mutex so reconciliation
// is not blocked on I/O.
func (l *Ledger) mutate(persist func() error) error {
	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return fmt.Errorf("%w: ledger is closed", models.ErrValidation)
	}
	l.state = StateMutating
	l.mu.Unlock()

	err := persist()

	l.mu.Lock()
	if l.state == StateMutating {
		l.state = StateReady
	}
	l.mu.Unlock()
	return err
}

// applyLocal merges a locally-originated event into the view. The hub will
// echo the same event back through the subscription; Merge suppresses the
// duplicate by ID.
func (l *Ledger) applyLocal(event realtime.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateClosed {
		return
	}
	// Same misrouted-record guard as applyRemote: a record from another
	// trip never enters this view.
	if event.Expense.TripID != "" && event.Expense.TripID != l.tripID {
		return
	}
	l.view = Merge(l.view, event)
}

// Expenses returns a copy of the current view, ordered by date descending
// then creation timestamp descending.
func (l *Ledger) Expenses() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Expense, len(l.view))
	copy(out, l.view)
	return out
}

// Balance feeds the current view to the settlement calculator.
func (l *Ledger) Balance(memberA, memberB string) (*models.Balance, error) {
	return calculator.CalculateBalance(l.Expenses(), memberA, memberB)
}

// Trip returns the trip this ledger is open for.
func (l *Ledger) Trip() *models.Trip {
	return l.trip
}

// State reports the ledger's current lifecycle state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close unsubscribes and marks the handle inert. No reconciliation is
// applied after Close returns; late events are silently discarded.
func (l *Ledger) Close() {
	l.mu.Lock()
	if l.state == StateClosed {
		l.mu.Unlock()
		return
	}
	l.state = StateClosed
	l.mu.Unlock()

	l.sub.Unsubscribe()
	metrics.LedgersOpen.Dec()
}

func isMember(members []models.Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
