package shelf

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps shelves in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	shelves map[string]map[string]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shelves: make(map[string]map[string]Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Add(_ context.Context, userID string, entry Entry) (err error) {
	defer func() { record("memory", "add", err) }()

	entry, err = prepare(userID, entry, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	shelf, ok := s.shelves[userID]
	if !ok {
		shelf = make(map[string]Entry)
		s.shelves[userID] = shelf
	}
	if _, exists := shelf[entry.ID]; !exists {
		shelf[entry.ID] = entry
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.shelves[userID]))
	for _, e := range s.shelves[userID] {
		entries = append(entries, e)
	}
	sortEntries(entries)
	record("memory", "list", nil)
	return entries, nil
}

func (s *MemoryStore) Remove(_ context.Context, userID, id string) (err error) {
	defer func() { record("memory", "remove", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shelves[userID][id]; !ok {
		return ErrNotFound
	}
	delete(s.shelves[userID], id)
	return nil
}
