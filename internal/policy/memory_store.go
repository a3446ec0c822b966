package policy

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory setting store for tests and demo mode.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string]*Setting
}

// NewMemoryStore creates a new in-memory setting store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string]*Setting),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[key]
	if !ok {
		return nil, ErrSettingNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Set(_ context.Context, s *Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	// Keep existing description when the update doesn't carry one.
	if cp.Description == "" {
		if existing, ok := m.settings[s.Key]; ok {
			cp.Description = existing.Description
		}
	}
	m.settings[s.Key] = &cp
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Setting, 0, len(m.settings))
	for _, s := range m.settings {
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

var _ Store = (*MemoryStore)(nil)
