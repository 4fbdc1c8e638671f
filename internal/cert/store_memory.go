package cert

import (
	"context"
	"sync"
)

type pairKey struct{ learnerID, courseID string }

// MemoryStore mirrors the SQL store's insert-if-absent semantics behind a
// single lock, for tests and the offline profile.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]Certificate
	byPair map[pairKey]string // (learner, course) -> verification id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   map[string]Certificate{},
		byPair: map[pairKey]string{},
	}
}

func (m *MemoryStore) PutIfAbsent(_ context.Context, c Certificate) (Certificate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{c.LearnerID, c.CourseID}
	if id, ok := m.byPair[k]; ok {
		return m.byID[id], false, nil
	}
	m.byPair[k] = c.VerificationID
	m.byID[c.VerificationID] = c
	return c, true, nil
}

func (m *MemoryStore) Get(_ context.Context, verificationID string) (Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[verificationID]
	if !ok {
		return Certificate{}, ErrNotFound
	}
	return c, nil
}

// Len reports how many certificates exist, for tests.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
