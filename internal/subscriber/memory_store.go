package subscriber

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory subscriber store for tests and demo mode.
type MemoryStore struct {
	mu          sync.RWMutex
	subscribers map[int64]*Subscriber
	nextID      int64
}

// NewMemoryStore creates a new in-memory subscriber store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[int64]*Subscriber),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.subscribers {
		if strings.EqualFold(existing.Email, s.Email) {
			return ErrEmailTaken
		}
	}

	m.nextID++
	s.ID = m.nextID
	if s.Preferences == nil {
		s.Preferences = json.RawMessage(`{}`)
	}
	cp := *s
	m.subscribers[s.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subscribers[id]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Subscriber, 0, len(m.subscribers))
	for _, s := range m.subscribers {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) UpdatePreferences(_ context.Context, id int64, prefs json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subscribers[id]
	if !ok {
		return ErrSubscriberNotFound
	}
	s.Preferences = append(json.RawMessage(nil), prefs...)
	return nil
}

var _ Store = (*MemoryStore)(nil)
