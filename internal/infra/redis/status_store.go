package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusStore keeps answer tallies and the failed set in Redis.
// Failed set:  ZADD quiz:failed:{userID} {unix nanos} {questionID} (ordered by when it failed)
// Tallies:     HINCRBY quiz:status:{userID} {questionID}:attempts|{questionID}:correct
type StatusStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewStatusStore(client *redis.Client) *StatusStore {
	return &StatusStore{client: client, now: time.Now}
}

func (s *StatusStore) MarkOutcome(ctx context.Context, userID, questionID string, correct bool) error {
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, s.statusKey(userID), questionID+":attempts", 1)
	if correct {
		pipe.HIncrBy(ctx, s.statusKey(userID), questionID+":correct", 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark outcome: %w", err)
	}
	return nil
}

func (s *StatusStore) FailedQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.ZRange(ctx, s.failedKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed questions: %w", err)
	}
	return ids, nil
}

func (s *StatusStore) AddFailed(ctx context.Context, userID, questionID string) error {
	err := s.client.ZAddNX(ctx, s.failedKey(userID), redis.Z{
		Score:  float64(s.now().UnixNano()),
		Member: questionID,
	}).Err()
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}
	return nil
}

func (s *StatusStore) RemoveFailed(ctx context.Context, userID, questionID string) error {
	if err := s.client.ZRem(ctx, s.failedKey(userID), questionID).Err(); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	return nil
}

func (s *StatusStore) CountFailed(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.FloatCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.ZScore(ctx, s.failedKey(userID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	n := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			n++
		}
	}
	return n, nil
}

// Tally sums correct answers and attempts over ids.
func (s *StatusStore) Tally(ctx context.Context, userID string, ids []string) (int, int, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	fields := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		fields = append(fields, id+":correct", id+":attempts")
	}
	values, err := s.client.HMGet(ctx, s.statusKey(userID), fields...).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("tally: %w", err)
	}
	correct, attempts := 0, 0
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			continue
		}
		if i%2 == 0 {
			correct += n
		} else {
			attempts += n
		}
	}
	return correct, attempts, nil
}

func (s *StatusStore) failedKey(userID string) string {
	return "quiz:failed:" + userID
}

func (s *StatusStore) statusKey(userID string) string {
	return "quiz:status:" + userID
}
