package presence

import (
	"context"
	"sync"
)

// MemoryStore is an in-process presence store. It backs single-node
// deployments without Redis and doubles as a deterministic test double.
type MemoryStore struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{online: make(map[string]struct{})}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) MarkOnline(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = struct{}{}
	return nil
}

func (s *MemoryStore) MarkOffline(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.online, userID)
	return nil
}

func (s *MemoryStore) IsOnline(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok, nil
}

func (s *MemoryStore) ListOnline(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	return ids, nil
}
