package memory

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedQuestionStore caches question batches with TTL to avoid repeated
// DB hits. Topic batches and explicit id sets are cached separately.
type CachedQuestionStore struct {
	loader app.QuestionStore
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBatch
}

type cachedBatch struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedQuestionStore(loader app.QuestionStore, ttl time.Duration) *CachedQuestionStore {
	return &CachedQuestionStore{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBatch),
	}
}

func (r *CachedQuestionStore) QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error) {
	return r.get(ctx, "topic:"+topicKey(academyID, topicID), func() ([]domain.Question, error) {
		return r.loader.QuestionsByTopic(ctx, academyID, topicID)
	})
}

func (r *CachedQuestionStore) QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	qs, err := r.get(ctx, "ids:"+idsKey(ids), func() ([]domain.Question, error) {
		return r.loader.QuestionsByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return inRequestOrder(qs, ids), nil
}

// inRequestOrder reorders qs to follow ids, since cached batches are
// shared by every permutation of the same id set.
func inRequestOrder(qs []domain.Question, ids []string) []domain.Question {
	byID := make(map[string]domain.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(qs))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
			delete(byID, id)
		}
	}
	return out
}

func (r *CachedQuestionStore) get(_ context.Context, key string, load func() ([]domain.Question, error)) ([]domain.Question, error) {
	if qs, ok := r.lookup(key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		if qs, ok := r.lookup(key); ok {
			return qs, nil
		}
		qs, err := load()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[key] = cachedBatch{
			questions: cloneQuestions(qs),
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

func (r *CachedQuestionStore) lookup(key string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func (r *CachedQuestionStore) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func idsKey(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
