package postgres

import (
	"context"
	"testing"

	"academy-quiz-service/internal/domain"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStorePoints(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	mock.ExpectQuery(`SELECT points FROM profiles WHERE user_id = 'u1'`).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(120))
	mock.ExpectQuery(`SELECT points FROM profiles WHERE user_id = 'ghost'`).
		WillReturnRows(sqlmock.NewRows([]string{"points"}))

	points, err := store.Points(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 120, points)

	_, err = store.Points(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileStoreAddPoints(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewProfileStore(db)

	mock.ExpectQuery(`INSERT INTO profiles .*VALUES \('u1', 70\).*RETURNING points`).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(190))

	total, err := store.AddPoints(context.Background(), "u1", 70)
	require.NoError(t, err)
	assert.Equal(t, 190, total)
}
