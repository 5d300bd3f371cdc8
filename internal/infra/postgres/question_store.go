package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"academy-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const questionColumns = `id, prompt, options, correct_option, academy_id, topic_id, part`

// QuestionStore loads questions from Postgres. Options are stored as JSONB.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions by id: %w", err)
	}
	found, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(found))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
			delete(byID, id)
		}
	}
	return out, nil
}

func (s *QuestionStore) QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE academy_id = $1 AND topic_id = $2 ORDER BY id`,
		academyID, topicID)
	if err != nil {
		return nil, fmt.Errorf("load questions by topic: %w", err)
	}
	return scanQuestions(rows)
}

// Upsert inserts or replaces questions; used by seeding and imports.
func (s *QuestionStore) Upsert(ctx context.Context, questions []domain.Question) error {
	batch := &pgx.Batch{}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		batch.Queue(`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET prompt = EXCLUDED.prompt, options = EXCLUDED.options,
			correct_option = EXCLUDED.correct_option, academy_id = EXCLUDED.academy_id,
			topic_id = EXCLUDED.topic_id, part = EXCLUDED.part`,
			q.ID, q.Prompt, string(options), q.CorrectOption, q.AcademyID, q.TopicID, q.Part)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert question: %w", err)
		}
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var (
			q   domain.Question
			raw []byte
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &raw, &q.CorrectOption, &q.AcademyID, &q.TopicID, &q.Part); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}
