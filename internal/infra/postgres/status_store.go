package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// StatusStore keeps answer tallies (question_status) and the failed set
// (failed_questions) in Postgres.
type StatusStore struct {
	db *bun.DB
}

func NewStatusStore(db *bun.DB) *StatusStore {
	return &StatusStore{db: db}
}

func (s *StatusStore) MarkOutcome(ctx context.Context, userID, questionID string, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO question_status (user_id, question_id, attempts, correct_count, last_correct)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			attempts = question_status.attempts + 1,
			correct_count = question_status.correct_count + EXCLUDED.correct_count,
			last_correct = EXCLUDED.last_correct,
			updated_at = now()`,
		userID, questionID, correctInc, correct)
	if err != nil {
		return fmt.Errorf("mark outcome: %w", err)
	}
	return nil
}

func (s *StatusStore) FailedQuestionIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id FROM failed_questions WHERE user_id = ? ORDER BY failed_at, question_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed questions: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan failed question: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *StatusStore) AddFailed(ctx context.Context, userID, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failed_questions (user_id, question_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		userID, questionID)
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}
	return nil
}

func (s *StatusStore) RemoveFailed(ctx context.Context, userID, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM failed_questions WHERE user_id = ? AND question_id = ?`, userID, questionID)
	if err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	return nil
}

func (s *StatusStore) CountFailed(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM failed_questions WHERE user_id = ? AND question_id IN (?)`,
		userID, bun.In(ids)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// Tally sums correct answers and attempts over ids.
func (s *StatusStore) Tally(ctx context.Context, userID string, ids []string) (int, int, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}
	var correct, attempts int
	err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(sum(correct_count), 0), coalesce(sum(attempts), 0)
		FROM question_status WHERE user_id = ? AND question_id IN (?)`,
		userID, bun.In(ids)).Scan(&correct, &attempts)
	if err != nil {
		return 0, 0, fmt.Errorf("tally: %w", err)
	}
	return correct, attempts, nil
}
