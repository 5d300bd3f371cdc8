package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStoreMarkOutcome(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	mock.ExpectExec(`INSERT INTO question_status .*VALUES \('u1', 'q1', 1, 1, TRUE\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO question_status .*VALUES \('u1', 'q2', 1, 0, FALSE\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.MarkOutcome(context.Background(), "u1", "q1", true))
	require.NoError(t, store.MarkOutcome(context.Background(), "u1", "q2", false))
}

func TestStatusStoreFailedSet(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO failed_questions .*ON CONFLICT DO NOTHING`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT question_id FROM failed_questions WHERE user_id = 'u1'`).
		WillReturnRows(sqlmock.NewRows([]string{"question_id"}).AddRow("q3").AddRow("q1"))
	mock.ExpectExec(`DELETE FROM failed_questions WHERE user_id = 'u1' AND question_id = 'q3'`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.AddFailed(ctx, "u1", "q1"))
	ids, err := store.FailedQuestionIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q3", "q1"}, ids)
	require.NoError(t, store.RemoveFailed(ctx, "u1", "q3"))
}

func TestStatusStoreCountFailed(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)

	mock.ExpectQuery(`question_id IN \('q1', 'q2'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := store.CountFailed(context.Background(), "u1", []string{"q1", "q2"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.CountFailed(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStatusStoreTally(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStatusStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`FROM question_status WHERE user_id = 'u1' AND question_id IN \('q1'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"correct", "attempts"}).AddRow(4, 5))

	correct, attempts, err := store.Tally(ctx, "u1", []string{"q1"})
	require.NoError(t, err)
	assert.Equal(t, 4, correct)
	assert.Equal(t, 5, attempts)
}
