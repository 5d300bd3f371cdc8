package memory

import (
	"context"
	"sync"
)

type outcomeTally struct {
	attempts int
	correct  int
}

// StatusStore keeps per-user answer tallies and the failed set in memory.
type StatusStore struct {
	mu      sync.RWMutex
	tallies map[string]map[string]*outcomeTally
	failed  map[string][]string
}

func NewStatusStore() *StatusStore {
	return &StatusStore{
		tallies: make(map[string]map[string]*outcomeTally),
		failed:  make(map[string][]string),
	}
}

func (s *StatusStore) MarkOutcome(_ context.Context, userID, questionID string, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	perUser, ok := s.tallies[userID]
	if !ok {
		perUser = make(map[string]*outcomeTally)
		s.tallies[userID] = perUser
	}
	t, ok := perUser[questionID]
	if !ok {
		t = &outcomeTally{}
		perUser[questionID] = t
	}
	t.attempts++
	if correct {
		t.correct++
	}
	return nil
}

// FailedQuestionIDs returns the failed set in the order questions were added.
func (s *StatusStore) FailedQuestionIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.failed[userID]...), nil
}

func (s *StatusStore) AddFailed(_ context.Context, userID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.failed[userID] {
		if id == questionID {
			return nil
		}
	}
	s.failed[userID] = append(s.failed[userID], questionID)
	return nil
}

func (s *StatusStore) RemoveFailed(_ context.Context, userID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.failed[userID]
	for i, id := range ids {
		if id == questionID {
			s.failed[userID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.failed[userID]) == 0 {
		delete(s.failed, userID)
	}
	return nil
}

func (s *StatusStore) CountFailed(_ context.Context, userID string, ids []string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	failed := make(map[string]struct{}, len(s.failed[userID]))
	for _, id := range s.failed[userID] {
		failed[id] = struct{}{}
	}
	n := 0
	for _, id := range ids {
		if _, ok := failed[id]; ok {
			n++
		}
	}
	return n, nil
}

// Tally sums correct answers and attempts over ids.
func (s *StatusStore) Tally(_ context.Context, userID string, ids []string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	correct, attempts := 0, 0
	for _, id := range ids {
		if t, ok := s.tallies[userID][id]; ok {
			correct += t.correct
			attempts += t.attempts
		}
	}
	return correct, attempts, nil
}
