// Package models defines the core domain models for duotrip.
//
// # Models
//
//   - Trip: a shared travel context two people track expenses under
//   - Member: a user bound to a trip, capped at 2 per trip
//   - Expense: a single payment logged against a trip by one of its members
//   - Balance: the derived settlement between the two members (never persisted)
//   - Place: a nearby point of interest returned by the geo search provider
//   - User: a registered account
//
// # Design Principles
//
// 1. **Two-party by construction**: the member cap is a hard invariant, not a
// default. The settlement algorithm depends on it.
// 2. **Avoid circular references**: models reference each other by ID strings,
// never by pointer.
// 3. **Derived data stays derived**: Balance is recomputed from the expense set
// on every read and has no table behind it.
package models
