package memory

import (
	"context"
	"testing"
	"time"

	"academy-quiz-service/internal/domain"
)

func TestQuestionStoreLookups(t *testing.T) {
	store := NewQuestionStore(append(sampleQuestions(3, "a1", "t1"), sampleQuestions(2, "a1", "t2")...))
	ctx := context.Background()

	byTopic, err := store.QuestionsByTopic(ctx, "a1", "t1")
	if err != nil {
		t.Fatalf("by topic: %v", err)
	}
	if len(byTopic) != 3 {
		t.Fatalf("expected 3 questions in t1, got %d", len(byTopic))
	}

	byIDs, err := store.QuestionsByIDs(ctx, []string{"t2-q2", "missing", "t1-q1"})
	if err != nil {
		t.Fatalf("by ids: %v", err)
	}
	if len(byIDs) != 2 || byIDs[0].ID != "t2-q2" || byIDs[1].ID != "t1-q1" {
		t.Fatalf("expected requested order without missing ids, got %+v", byIDs)
	}

	// Callers get copies.
	byIDs[0].Options[0].Text = "mutated"
	again, _ := store.QuestionsByIDs(ctx, []string{"t2-q2"})
	if again[0].Options[0].Text != "first" {
		t.Fatalf("store leaked internal slice")
	}
}

func TestCachedQuestionStoreCaches(t *testing.T) {
	loader := &countingLoader{QuestionStore: NewQuestionStore(sampleQuestions(2, "a1", "t1"))}
	repo := NewCachedQuestionStore(loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.QuestionsByTopic(ctx, "a1", "t1"); err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if _, err := repo.QuestionsByTopic(ctx, "a1", "t1"); err != nil {
		t.Fatalf("get topic 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	qs, err := repo.QuestionsByIDs(ctx, []string{"t1-q2", "t1-q1"})
	if err != nil {
		t.Fatalf("get ids: %v", err)
	}
	qs, err = repo.QuestionsByIDs(ctx, []string{"t1-q1", "t1-q2"})
	if err != nil {
		t.Fatalf("get ids 2: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected one load per distinct id set, got %d", loader.calls)
	}
	if qs[0].ID != "t1-q1" {
		t.Fatalf("expected request order, got %s first", qs[0].ID)
	}
}

func TestCachedQuestionStoreExpires(t *testing.T) {
	loader := &countingLoader{QuestionStore: NewQuestionStore(sampleQuestions(1, "a1", "t1"))}
	repo := NewCachedQuestionStore(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.QuestionsByTopic(context.Background(), "a1", "t1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.QuestionsByTopic(context.Background(), "a1", "t1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

type countingLoader struct {
	*QuestionStore
	calls int
}

func (l *countingLoader) QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionStore.QuestionsByTopic(ctx, academyID, topicID)
}

func (l *countingLoader) QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionStore.QuestionsByIDs(ctx, ids)
}
