package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, r Record) error {
	if err := validate(r, m.now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Profile] = r
	return nil
}

func (m *MemoryStore) Get(_ context.Context, profile string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[profile]
	if !ok {
		return nil, nil
	}
	if r.Expired(m.now()) {
		delete(m.records, profile)
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryStore) Delete(_ context.Context, profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, profile)
	return nil
}
