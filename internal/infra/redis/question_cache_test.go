package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesTopicInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionStore: memory.NewQuestionStore(sampleQuestions(3))}
	repo := NewQuestionCache(newClient(mr), loader, time.Minute)

	qs, err := repo.QuestionsByTopic(context.Background(), "a1", "t1")
	if err != nil {
		t.Fatalf("get topic: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:topic:a1:t1") || !mr.Exists("quiz:question:q1") {
		t.Fatalf("expected topic and question keys in redis")
	}

	// Second call should hit cache, loader not incremented.
	qs, _ = repo.QuestionsByTopic(context.Background(), "a1", "t1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if qs[1].CorrectOption != "B" || len(qs[1].Options) != 2 {
		t.Fatalf("cached question lost fields: %+v", qs[1])
	}
}

func TestQuestionCacheLoadsOnlyMissingIDs(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionStore: memory.NewQuestionStore(sampleQuestions(3))}
	repo := NewQuestionCache(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	if _, err := repo.QuestionsByIDs(ctx, []string{"q1"}); err != nil {
		t.Fatalf("get q1: %v", err)
	}
	qs, err := repo.QuestionsByIDs(ctx, []string{"q3", "q1", "missing"})
	if err != nil {
		t.Fatalf("get q3,q1: %v", err)
	}
	if len(qs) != 2 || qs[0].ID != "q3" || qs[1].ID != "q1" {
		t.Fatalf("unexpected questions %+v", qs)
	}
	if len(loader.lastIDs) != 2 || loader.lastIDs[0] != "q3" || loader.lastIDs[1] != "missing" {
		t.Fatalf("expected only uncached ids loaded, got %v", loader.lastIDs)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{QuestionStore: memory.NewQuestionStore(sampleQuestions(1))}
	repo := NewQuestionCache(newClient(mr), loader, time.Minute)

	_, _ = repo.QuestionsByTopic(context.Background(), "a1", "t1")
	mr.FastForward(2 * time.Minute)
	_, _ = repo.QuestionsByTopic(context.Background(), "a1", "t1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	*memory.QuestionStore
	calls   int
	lastIDs []string
}

func (l *countingLoader) QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionStore.QuestionsByTopic(ctx, academyID, topicID)
}

func (l *countingLoader) QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	l.calls++
	l.lastIDs = append([]string(nil), ids...)
	return l.QuestionStore.QuestionsByIDs(ctx, ids)
}

func sampleQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, domain.Question{
			ID:     fmt.Sprintf("q%d", i),
			Prompt: "What is 2 + 2?",
			Options: []domain.Option{
				{Label: "A", Text: "3"},
				{Label: "B", Text: "4"},
			},
			CorrectOption: "B",
			AcademyID:     "a1",
			TopicID:       "t1",
		})
	}
	return qs
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
