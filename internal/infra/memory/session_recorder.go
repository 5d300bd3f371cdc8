package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// OutcomeTallier sums historical correct answers and attempts for mastery.
type OutcomeTallier interface {
	Tally(ctx context.Context, userID string, ids []string) (correct, attempts int, err error)
}

// SessionRecorder is an in-memory implementation of app.SessionRecorder.
// It scores answers against the question store, credits points to the
// profile store on completion and reports topic mastery.
type SessionRecorder struct {
	questions        app.QuestionStore
	profiles         app.ProfileStore
	tallier          OutcomeTallier
	pointsPerCorrect int
	now              func() time.Time

	mu       sync.Mutex
	sessions map[string]*recordedSession
}

type recordedSession struct {
	req       app.OpenSessionRequest
	answers   map[string]answerRow
	order     []string
	openedAt  time.Time
	completed bool
	summary   json.RawMessage
}

type answerRow struct {
	correct bool
	elapsed int
}

// summaryDocument mirrors what complete_quiz_session returns in Postgres.
type summaryDocument struct {
	TotalQuestions   int     `json:"total_questions"`
	CorrectAnswers   int     `json:"correct_answers"`
	IncorrectAnswers int     `json:"incorrect_answers"`
	Percentage       float64 `json:"percentage"`
	PointsEarned     int     `json:"points_earned"`
	AverageSeconds   float64 `json:"average_seconds"`
	Mastery          string  `json:"mastery,omitempty"`
}

// NewSessionRecorder builds a recorder. profiles and tallier may be nil.
func NewSessionRecorder(questions app.QuestionStore, profiles app.ProfileStore, tallier OutcomeTallier, pointsPerCorrect int) *SessionRecorder {
	return &SessionRecorder{
		questions:        questions,
		profiles:         profiles,
		tallier:          tallier,
		pointsPerCorrect: pointsPerCorrect,
		now:              time.Now,
		sessions:         make(map[string]*recordedSession),
	}
}

func (r *SessionRecorder) OpenSession(_ context.Context, req app.OpenSessionRequest) (string, error) {
	if req.UserID == "" {
		return "", domain.ErrNoUser
	}
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &recordedSession{
		req:      req,
		answers:  make(map[string]answerRow),
		openedAt: r.now(),
	}
	return id, nil
}

func (r *SessionRecorder) RecordAnswer(ctx context.Context, req app.RecordAnswerRequest) error {
	qs, err := r.questions.QuestionsByIDs(ctx, []string{req.QuestionID})
	if err != nil {
		return fmt.Errorf("lookup question: %w", err)
	}
	if len(qs) == 0 {
		return domain.ErrQuestionNotFound
	}
	correct := domain.IsCorrect(req.SelectedOption, qs[0].CorrectOption)

	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[req.SessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.completed {
		return fmt.Errorf("session %s already completed", req.SessionID)
	}
	if _, dup := session.answers[req.QuestionID]; dup {
		return nil
	}
	session.answers[req.QuestionID] = answerRow{correct: correct, elapsed: req.ElapsedSeconds}
	session.order = append(session.order, req.QuestionID)
	return nil
}

func (r *SessionRecorder) CompleteSession(ctx context.Context, sessionID string) (json.RawMessage, error) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	if session.completed {
		summary := session.summary
		r.mu.Unlock()
		return summary, nil
	}
	doc := summaryDocument{TotalQuestions: session.req.QuestionCount}
	elapsed := 0
	for _, id := range session.order {
		row := session.answers[id]
		if row.correct {
			doc.CorrectAnswers++
		}
		elapsed += row.elapsed
	}
	answered := len(session.order)
	doc.IncorrectAnswers = answered - doc.CorrectAnswers
	if doc.TotalQuestions < answered {
		doc.TotalQuestions = answered
	}
	if doc.TotalQuestions > 0 {
		doc.Percentage = math.Round(float64(doc.CorrectAnswers) * 100 / float64(doc.TotalQuestions))
	}
	if answered > 0 {
		doc.AverageSeconds = math.Round(float64(elapsed)/float64(answered)*100) / 100
	}
	doc.PointsEarned = doc.CorrectAnswers * r.pointsPerCorrect
	ids := append([]string(nil), session.order...)
	req := session.req
	r.mu.Unlock()

	if r.tallier != nil {
		mastery, err := r.mastery(ctx, req, ids)
		if err != nil {
			return nil, err
		}
		doc.Mastery = string(mastery)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session.completed {
		return session.summary, nil
	}
	if r.profiles != nil && doc.PointsEarned > 0 {
		if _, err := r.profiles.AddPoints(ctx, req.UserID, doc.PointsEarned); err != nil {
			return nil, fmt.Errorf("credit points: %w", err)
		}
	}
	session.completed = true
	session.summary = raw
	return raw, nil
}

// mastery classifies the user's history over the session's topic, or over
// the answered questions when the session has no topic (practice, explicit
// ids). complete_quiz_session uses the same scope.
func (r *SessionRecorder) mastery(ctx context.Context, req app.OpenSessionRequest, answered []string) (domain.Mastery, error) {
	ids := answered
	if req.AcademyID != "" && req.TopicID != "" {
		topic, err := r.questions.QuestionsByTopic(ctx, req.AcademyID, req.TopicID)
		if err != nil {
			return "", fmt.Errorf("topic questions: %w", err)
		}
		ids = make([]string, 0, len(topic))
		for _, q := range topic {
			ids = append(ids, q.ID)
		}
	}
	if len(ids) == 0 {
		return domain.MasteryNone, nil
	}
	correct, attempts, err := r.tallier.Tally(ctx, req.UserID, ids)
	if err != nil {
		return "", fmt.Errorf("tally outcomes: %w", err)
	}
	return domain.ClassifyMastery(correct, attempts), nil
}
