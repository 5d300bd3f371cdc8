package cli

import (
	"context"
	"errors"
	"fmt"

	"academy-quiz-service/internal/config"
	"academy-quiz-service/internal/infra/postgres"
	pgmigrations "academy-quiz-service/internal/infra/postgres/migrations"
	"academy-quiz-service/internal/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.New("quiz-service", cfg.Log.Level)
			if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
				return err
			}
			if seed {
				return seedQuestions(cmd.Context(), cfg, log)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the built-in demo questions")
	return cmd
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Info("schema up to date")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}

func seedQuestions(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	questions := sampleQuestions()
	if err := postgres.NewQuestionStore(pool).Upsert(ctx, questions); err != nil {
		return err
	}
	log.WithField("questions", len(questions)).Info("demo questions seeded")
	return nil
}
