package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
)

// MemoryStore keeps surveys in a map. It backs tests and single-process
// development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	surveys map[string]survey.Survey
	closed  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{surveys: make(map[string]survey.Survey)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, enketoID string) (*survey.Survey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	s, ok := m.surveys[enketoID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", survey.ErrNotFound, enketoID)
	}
	return checkActive(&s)
}

// Put implements Store. Only the persistent fields are kept.
func (m *MemoryStore) Put(_ context.Context, s *survey.Survey) error {
	if err := validate(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.surveys[s.EnketoID] = survey.Survey{
		EnketoID:       s.EnketoID,
		OpenRosaServer: s.OpenRosaServer,
		OpenRosaID:     s.OpenRosaID,
		Active:         s.Active,
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Count returns the number of stored surveys.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.surveys)
}
