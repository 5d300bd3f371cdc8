package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache caches questions in Redis and falls back to a loader on
// cache miss.
// Questions are stored as JSON:  SET quiz:question:{id} {json}
// Topic membership is stored as: SET quiz:topic:{academyID}:{topicID} {json array of ids}
type QuestionCache struct {
	client *redis.Client
	loader app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionCache(client *redis.Client, loader app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionCache) QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error) {
	key := r.topicKey(academyID, topicID)
	if qs, ok := r.cachedTopic(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cachedTopic(ctx, key); ok {
			return qs, nil
		}
		qs, err := r.loader.QuestionsByTopic(ctx, academyID, topicID)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(qs))
		for _, q := range qs {
			ids = append(ids, q.ID)
		}
		r.store(ctx, qs, map[string][]string{key: ids})
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionCache) QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, missing := r.cachedQuestions(ctx, ids)
	if len(missing) > 0 {
		loaded, err := r.loader.QuestionsByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		r.store(ctx, loaded, nil)
		for _, q := range loaded {
			found[q.ID] = q
		}
	}

	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := found[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *QuestionCache) cachedTopic(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	found, missing := r.cachedQuestions(ctx, ids)
	if len(missing) > 0 {
		// Membership outlived a question entry; reload the whole topic.
		return nil, false
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		out = append(out, found[id])
	}
	return out, true
}

func (r *QuestionCache) cachedQuestions(ctx context.Context, ids []string) (map[string]domain.Question, []string) {
	found := make(map[string]domain.Question, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.questionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return found, ids
	}
	var missing []string
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var q domain.Question
		if err := json.Unmarshal([]byte(s), &q); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		found[ids[i]] = q
	}
	return found, missing
}

// store writes questions and topic memberships; failures only cost a
// cache miss later.
func (r *QuestionCache) store(ctx context.Context, qs []domain.Question, topics map[string][]string) {
	ttl := r.ttlWithJitter()
	pipe := r.client.Pipeline()
	for _, q := range qs {
		data, err := json.Marshal(q)
		if err != nil {
			continue
		}
		pipe.Set(ctx, r.questionKey(q.ID), data, ttl)
	}
	for key, ids := range topics {
		data, err := json.Marshal(ids)
		if err != nil {
			continue
		}
		pipe.Set(ctx, key, data, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *QuestionCache) questionKey(id string) string {
	return "quiz:question:" + id
}

func (r *QuestionCache) topicKey(academyID, topicID string) string {
	return "quiz:topic:" + academyID + ":" + topicID
}

func (r *QuestionCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
