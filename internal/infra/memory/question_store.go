package memory

import (
	"context"
	"sync"

	"academy-quiz-service/internal/domain"
)

// QuestionStore is an in-memory question bank (useful for tests/demos and
// as the default when no database is configured).
type QuestionStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Question
	order  []string
	topics map[string][]string
}

func NewQuestionStore(questions []domain.Question) *QuestionStore {
	s := &QuestionStore{
		byID:   make(map[string]domain.Question),
		topics: make(map[string][]string),
	}
	for _, q := range questions {
		s.Put(q)
	}
	return s
}

// Put adds or replaces a question.
func (s *QuestionStore) Put(q domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[q.ID]; !ok {
		s.order = append(s.order, q.ID)
		key := topicKey(q.AcademyID, q.TopicID)
		s.topics[key] = append(s.topics[key], q.ID)
	}
	s.byID[q.ID] = q
}

func (s *QuestionStore) QuestionsByIDs(_ context.Context, ids []string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.byID[id]; ok {
			out = append(out, cloneQuestion(q))
		}
	}
	return out, nil
}

func (s *QuestionStore) QuestionsByTopic(_ context.Context, academyID, topicID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.topics[topicKey(academyID, topicID)]
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneQuestion(s.byID[id]))
	}
	return out, nil
}

func topicKey(academyID, topicID string) string {
	return academyID + "/" + topicID
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]domain.Option(nil), q.Options...)
	return q
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		out[i] = cloneQuestion(q)
	}
	return out
}
