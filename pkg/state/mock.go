package state

import "sync"

// mockStore implements StateStore in memory, for tests and examples.
type mockStore struct {
	mu       sync.Mutex
	snapshot Snapshot
	saves    int
}

func NewMockStore() StateStore {
	return &mockStore{}
}

func (m *mockStore) Save(snapshot Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
	m.saves++
	return nil
}

func (m *mockStore) Load() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, nil
}
