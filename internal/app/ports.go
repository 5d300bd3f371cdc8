package app

import (
	"context"
	"encoding/json"

	"academy-quiz-service/internal/domain"
)

// QuestionStore loads question content (database, cache, static fixtures).
type QuestionStore interface {
	// QuestionsByIDs returns the questions that exist among ids, in the
	// order given. Unknown ids are skipped.
	QuestionsByIDs(ctx context.Context, ids []string) ([]domain.Question, error)
	// QuestionsByTopic returns every question of an academy/topic.
	QuestionsByTopic(ctx context.Context, academyID, topicID string) ([]domain.Question, error)
}

// OpenSessionRequest starts a trackable attempt on the session recorder.
type OpenSessionRequest struct {
	UserID        string
	AcademyID     string
	TopicID       string
	Mode          domain.Mode
	QuestionCount int
}

// RecordAnswerRequest persists one answer of an open session.
type RecordAnswerRequest struct {
	SessionID      string
	QuestionID     string
	SelectedOption string
	ElapsedSeconds int
}

// SessionRecorder tracks quiz sessions and owns the authoritative aggregate.
type SessionRecorder interface {
	OpenSession(ctx context.Context, req OpenSessionRequest) (string, error)
	RecordAnswer(ctx context.Context, req RecordAnswerRequest) error
	// CompleteSession closes the session and returns its summary document.
	// The document is decoded with ParseSessionSummary.
	CompleteSession(ctx context.Context, sessionID string) (json.RawMessage, error)
}

// QuestionStatusStore keeps per-user answer history and the failed set used
// to build practice quizzes.
type QuestionStatusStore interface {
	MarkOutcome(ctx context.Context, userID, questionID string, correct bool) error
	FailedQuestionIDs(ctx context.Context, userID string) ([]string, error)
	AddFailed(ctx context.Context, userID, questionID string) error
	RemoveFailed(ctx context.Context, userID, questionID string) error
	// CountFailed counts how many of ids are currently in the failed set.
	CountFailed(ctx context.Context, userID string, ids []string) (int, error)
}

// ProfileStore holds the user's point total.
type ProfileStore interface {
	Points(ctx context.Context, userID string) (int, error)
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
}
