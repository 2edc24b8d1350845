package ledger

import (
	"context"
	"sync"

	"github.com/duotrip/duotrip/internal/realtime"
	"github.com/duotrip/duotrip/internal/storage"
)

// Manager hands out one shared ledger per trip. The first request for a trip
// opens its ledger; later requests reuse it, so every reader of the trip sees
// the same converging view.
type Manager struct {
	store storage.Store
	hub   *realtime.Hub

	mu   sync.Mutex
	open map[string]*Ledger
}

// NewManager creates a manager over the given store and hub.
func NewManager(store storage.Store, hub *realtime.Hub) *Manager {
	return &Manager{
		store: store,
		hub:   hub,
		open:  make(map[string]*Ledger),
	}
}

// Get returns the open ledger for tripID, opening it on first use.
func (m *Manager) Get(ctx context.Context, tripID string) (*Ledger, error) {
	m.mu.Lock()
	if l, ok := m.open[tripID]; ok {
		m.mu.Unlock()
		return l, nil
	}
	m.mu.Unlock()

	// Open outside the lock: loading the snapshot hits the store.
	l, err := Open(ctx, m.store, m.hub, tripID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.open[tripID]; ok {
		// Lost the race to another opener; keep theirs.
		l.Close()
		return existing, nil
	}
	m.open[tripID] = l
	return l, nil
}

// Drop closes and forgets the ledger for tripID, if open. Used when the trip
// itself is deleted.
func (m *Manager) Drop(tripID string) {
	m.mu.Lock()
	l, ok := m.open[tripID]
	delete(m.open, tripID)
	m.mu.Unlock()
	if ok {
		l.Close()
	}
}

// CloseAll closes every open ledger. Called on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ledgers := make([]*Ledger, 0, len(m.open))
	for _, l := range m.open {
		ledgers = append(ledgers, l)
	}
	m.open = make(map[string]*Ledger)
	m.mu.Unlock()

	for _, l := range ledgers {
		l.Close()
	}
}
