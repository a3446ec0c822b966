package customer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory customer store for tests and demo mode.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[int64]*Customer
	nextID    int64
}

// NewMemoryStore creates a new in-memory customer store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[int64]*Customer),
	}
}

func (m *MemoryStore) Create(_ context.Context, c *Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return ErrEmailTaken
		}
	}

	m.nextID++
	c.ID = m.nextID
	c.Active = true
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]*Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	var result []*Customer
	for _, c := range m.customers {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.FullName), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) SetFrozen(_ context.Context, id int64, frozen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	c.Frozen = frozen
	return nil
}

func (m *MemoryStore) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return ErrCustomerNotFound
	}
	c.Active = active
	return nil
}

func (m *MemoryStore) ListActiveIDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []int64
	for _, c := range m.customers {
		if c.Active {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

var _ Store = (*MemoryStore)(nil)
