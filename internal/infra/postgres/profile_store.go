package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"academy-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

// ProfileStore reads and credits user points in the profiles table.
type ProfileStore struct {
	db *bun.DB
}

func NewProfileStore(db *bun.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Points(ctx context.Context, userID string) (int, error) {
	var points int
	err := s.db.QueryRowContext(ctx, `SELECT points FROM profiles WHERE user_id = ?`, userID).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read points: %w", err)
	}
	return points, nil
}

func (s *ProfileStore) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	var points int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, points) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET points = profiles.points + EXCLUDED.points, updated_at = now()
		RETURNING points`,
		userID, delta).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return points, nil
}
