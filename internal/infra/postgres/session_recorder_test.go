package postgres

import (
	"context"
	"errors"
	"testing"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecorderOpenSession(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)
	rec.newID = func() string { return "sess-1" }

	mock.ExpectExec(`INSERT INTO quiz_sessions .*'sess-1', 'u1', 'a1', 't1', 'test', 5, 10`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := rec.OpenSession(context.Background(), app.OpenSessionRequest{
		UserID: "u1", AcademyID: "a1", TopicID: "t1", Mode: domain.ModeTest, QuestionCount: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)
}

func TestSessionRecorderOpenSessionError(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	mock.ExpectExec(`INSERT INTO quiz_sessions`).WillReturnError(errors.New("connection reset"))

	_, err := rec.OpenSession(context.Background(), app.OpenSessionRequest{UserID: "u1", Mode: domain.ModeTest})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open session")
}

func TestSessionRecorderRecordAnswer(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	mock.ExpectExec(`INSERT INTO session_answers .*JOIN questions q ON q.id = 'q1'.*WHERE s.id = 'sess-1'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := rec.RecordAnswer(context.Background(), app.RecordAnswerRequest{
		SessionID: "sess-1", QuestionID: "q1", SelectedOption: "B", ElapsedSeconds: 4,
	})
	require.NoError(t, err)
}

func TestSessionRecorderRecordAnswerDuplicateIsIgnored(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	mock.ExpectExec(`INSERT INTO session_answers`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := rec.RecordAnswer(context.Background(), app.RecordAnswerRequest{SessionID: "sess-1", QuestionID: "q1", SelectedOption: "A"})
	require.NoError(t, err)
}

func TestSessionRecorderRecordAnswerUnknownSession(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	mock.ExpectExec(`INSERT INTO session_answers`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := rec.RecordAnswer(context.Background(), app.RecordAnswerRequest{SessionID: "missing", QuestionID: "q1", SelectedOption: "A"})
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRecorderCompleteSession(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	summary := `{"total_questions":3,"correct_answers":2,"incorrect_answers":1,"percentage":67,"points_earned":20}`
	mock.ExpectQuery(`SELECT complete_quiz_session\('sess-1'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"complete_quiz_session"}).AddRow([]byte(summary)))

	raw, err := rec.CompleteSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, summary, string(raw))

	stats, err := app.ParseSessionSummary(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CorrectAnswers)
	assert.Equal(t, 20, stats.PointsEarned)
}

func TestSessionRecorderCompleteUnknownSession(t *testing.T) {
	db, mock := newMockDB(t)
	rec := NewSessionRecorder(db, 10)

	mock.ExpectQuery(`SELECT complete_quiz_session`).
		WillReturnRows(sqlmock.NewRows([]string{"complete_quiz_session"}).AddRow(nil))

	_, err := rec.CompleteSession(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
