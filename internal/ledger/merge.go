package ledger

import (
	"sort"

	"github.com/duotrip/duotrip/internal/models"
	"github.com/duotrip/duotrip/internal/realtime"
)

// Merge applies one change event to an expense view and returns the new view.
// It is pure: the input slice is never mutated, so it can be unit-tested
// without any live subscription.
//
// Rules:
//   - inserted: insert unless an entry with the same ID already exists. The
//     existence check suppresses duplicate application of a locally-originated
//     change echoed back through the channel.
//   - updated: replace the matching entry, or insert it if absent. Inserting
//     on a miss resyncs a view that lost the original insert.
//   - deleted: remove the matching entry; a miss is a no-op.
//
// The result is always re-sorted to the view's standing ordering invariant
// (date descending, creation timestamp descending). Applying the same event
// twice yields the same view, and events for disjoint IDs commute, which is
// what makes at-least-once, loosely ordered delivery safe.
func Merge(view []models.Expense, event realtime.Event) []models.Expense {
	out := make([]models.Expense, 0, len(view)+1)

	switch event.Kind {
	case realtime.EventInserted:
		for _, e := range view {
			if e.ID == event.Expense.ID {
				return append(out, view...) // duplicate delivery or local echo
			}
		}
		out = append(out, view...)
		out = append(out, event.Expense)

	case realtime.EventUpdated:
		replaced := false
		for _, e := range view {
			if e.ID == event.Expense.ID {
				out = append(out, event.Expense)
				replaced = true
			} else {
				out = append(out, e)
			}
		}
		if !replaced {
			out = append(out, event.Expense)
		}

	case realtime.EventDeleted:
		for _, e := range view {
			if e.ID != event.Expense.ID {
				out = append(out, e)
			}
		}

	default:
		return append(out, view...)
	}

	sortView(out)
	return out
}

// sortView restores the ordering invariant in place.
func sortView(view []models.Expense) {
	sort.SliceStable(view, func(i, j int) bool {
		if view[i].Date != view[j].Date {
			return view[i].Date > view[j].Date
		}
		return view[i].CreatedAt > view[j].CreatedAt
	})
}
