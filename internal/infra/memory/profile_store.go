package memory

import (
	"context"
	"sync"

	"academy-quiz-service/internal/domain"
)

// ProfileStore keeps user point totals in memory. A profile exists once
// points were first credited.
type ProfileStore struct {
	mu     sync.RWMutex
	points map[string]int
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{points: make(map[string]int)}
}

func (s *ProfileStore) Points(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points, ok := s.points[userID]
	if !ok {
		return 0, domain.ErrProfileNotFound
	}
	return points, nil
}

func (s *ProfileStore) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[userID] += delta
	return s.points[userID], nil
}
