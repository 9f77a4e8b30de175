package tickerguard

import (
	"context"
	"sync"

	"github.com/mreyes/confluence/internal/contracts"
)

// MemoryStore is an in-memory contracts.BlacklistStore. It backs tests
// and single-shot CLI runs that have no database configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*contracts.BlacklistEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*contracts.BlacklistEntry),
	}
}

// Get returns the entry for a ticker, or nil when absent.
func (s *MemoryStore) Get(_ context.Context, ticker string) (*contracts.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[ticker]
	if !ok {
		return nil, nil
	}
	cp := *entry
	cp.History = append([]contracts.FailureEvent(nil), entry.History...)
	return &cp, nil
}

// Put stores the entry keyed by its ticker.
func (s *MemoryStore) Put(_ context.Context, entry *contracts.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	cp.History = append([]contracts.FailureEvent(nil), entry.History...)
	s.entries[entry.Ticker] = &cp
	return nil
}

// Delete removes the entry for a ticker.
func (s *MemoryStore) Delete(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, ticker)
	return nil
}

// List returns all entries.
func (s *MemoryStore) List(_ context.Context) ([]*contracts.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*contracts.BlacklistEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		cp := *entry
		cp.History = append([]contracts.FailureEvent(nil), entry.History...)
		out = append(out, &cp)
	}
	return out, nil
}
