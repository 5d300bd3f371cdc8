package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_complete_quiz_session.sql
var completeQuizSessionSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, completeQuizSessionSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP FUNCTION IF EXISTS complete_quiz_session(TEXT)`)
			return err
		},
	)
}
