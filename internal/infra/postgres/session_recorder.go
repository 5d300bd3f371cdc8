package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionRecorder persists quiz sessions. Answers are scored server side
// against the questions table, and completion runs the
// complete_quiz_session function, which also credits the profile points.
type SessionRecorder struct {
	db               *bun.DB
	pointsPerCorrect int
	newID            func() string
}

func NewSessionRecorder(db *bun.DB, pointsPerCorrect int) *SessionRecorder {
	return &SessionRecorder{db: db, pointsPerCorrect: pointsPerCorrect, newID: uuid.NewString}
}

func (r *SessionRecorder) OpenSession(ctx context.Context, req app.OpenSessionRequest) (string, error) {
	id := r.newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quiz_sessions (id, user_id, academy_id, topic_id, mode, total_questions, points_per_correct)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.UserID, req.AcademyID, req.TopicID, string(req.Mode), req.QuestionCount, r.pointsPerCorrect)
	if err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return id, nil
}

func (r *SessionRecorder) RecordAnswer(ctx context.Context, req app.RecordAnswerRequest) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_answers (session_id, question_id, selected_option, is_correct, elapsed_seconds)
		SELECT s.id, q.id, ?, upper(trim(q.correct_option)) = upper(trim(?)), ?
		FROM quiz_sessions s JOIN questions q ON q.id = ?
		WHERE s.id = ? AND s.completed_at IS NULL
		ON CONFLICT (session_id, question_id) DO NOTHING`,
		req.SelectedOption, req.SelectedOption, req.ElapsedSeconds, req.QuestionID, req.SessionID)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return r.explainSkippedAnswer(ctx, req)
	}
	return nil
}

// explainSkippedAnswer tells a duplicate answer (fine) apart from a missing
// session or question.
func (r *SessionRecorder) explainSkippedAnswer(ctx context.Context, req app.RecordAnswerRequest) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM session_answers WHERE session_id = ? AND question_id = ?)`,
		req.SessionID, req.QuestionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if exists {
		return nil
	}
	return fmt.Errorf("record answer %s/%s: %w", req.SessionID, req.QuestionID, domain.ErrSessionNotFound)
}

func (r *SessionRecorder) CompleteSession(ctx context.Context, sessionID string) (json.RawMessage, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT complete_quiz_session(?)`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if raw == nil {
		return nil, domain.ErrSessionNotFound
	}
	return json.RawMessage(raw), nil
}
