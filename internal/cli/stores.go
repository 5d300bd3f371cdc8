package cli

import (
	"context"
	"fmt"
	"time"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/config"
	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/infra/memory"
	"academy-quiz-service/internal/infra/postgres"
	redisinfra "academy-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// statusStore is what the session recorders need from the status backend
// on top of the controller contract.
type statusStore interface {
	app.QuestionStatusStore
	memory.OutcomeTallier
}

// backends holds the collaborators built from config and the connections
// they own.
type backends struct {
	deps    app.Dependencies
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// buildBackends picks Postgres, Redis or in-memory adapters for every
// collaborator depending on what is configured. Without any backend the
// service runs fully in memory on the built-in question bank.
func buildBackends(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*backends, error) {
	b := &backends{}
	points := pointsPerCorrect(cfg)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		db = postgres.OpenBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
	}

	var loader app.QuestionStore = memory.NewQuestionStore(sampleQuestions())
	if pool != nil {
		loader = postgres.NewQuestionStore(pool)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionStore
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, quizTTL))
	} else {
		questions = memory.NewCachedQuestionStore(loader, quizTTL)
	}

	var statuses statusStore
	switch {
	case db != nil:
		statuses = postgres.NewStatusStore(db)
	case redisClient != nil:
		statuses = redisinfra.NewStatusStore(redisClient)
	default:
		statuses = memory.NewStatusStore()
	}

	var (
		profiles app.ProfileStore
		recorder app.SessionRecorder
	)
	if db != nil {
		profiles = postgres.NewProfileStore(db)
		recorder = postgres.NewSessionRecorder(db, points)
	} else {
		memProfiles := memory.NewProfileStore()
		profiles = memProfiles
		recorder = memory.NewSessionRecorder(questions, memProfiles, statuses, points)
	}

	log.WithFields(logrus.Fields{
		"postgres": pool != nil,
		"redis":    redisClient != nil,
	}).Info("backends ready")

	b.deps = app.Dependencies{
		Questions: questions,
		Recorder:  recorder,
		Statuses:  statuses,
		Profiles:  profiles,
		Logger:    log,
	}
	return b, nil
}

func pointsPerCorrect(cfg config.Config) int {
	if cfg.Quiz.PointsPerCorrect > 0 {
		return cfg.Quiz.PointsPerCorrect
	}
	return app.DefaultPointsPerCorrect
}

func controllerOptions(cfg config.Config) []app.Option {
	return []app.Option{
		app.WithPointsPerCorrect(pointsPerCorrect(cfg)),
		app.WithTestBatchSize(cfg.Quiz.TestBatchSize),
	}
}

// sampleQuestions is the built-in bank served when no database is configured
// and seeded by `migrate --seed`.
func sampleQuestions() []domain.Question {
	opts := func(a, b, c, d string) []domain.Option {
		out := []domain.Option{{Label: "A", Text: a}, {Label: "B", Text: b}}
		if c != "" {
			out = append(out, domain.Option{Label: "C", Text: c})
		}
		if d != "" {
			out = append(out, domain.Option{Label: "D", Text: d})
		}
		return out
	}
	return []domain.Question{
		{ID: "go-1", Prompt: "Which keyword starts a goroutine?", Options: opts("defer", "go", "async", "spawn"), CorrectOption: "B", AcademyID: "demo", TopicID: "go-basics", Part: "1"},
		{ID: "go-2", Prompt: "What is the zero value of a map?", Options: opts("nil", "an empty map", "0", ""), CorrectOption: "A", AcademyID: "demo", TopicID: "go-basics", Part: "1"},
		{ID: "go-3", Prompt: "Which statement waits on several channel operations?", Options: opts("switch", "for", "select", "case"), CorrectOption: "C", AcademyID: "demo", TopicID: "go-basics", Part: "1"},
		{ID: "go-4", Prompt: "Can a method be declared on a non-local type?", Options: opts("No", "Yes", "", ""), CorrectOption: "A", AcademyID: "demo", TopicID: "go-basics", Part: "2"},
		{ID: "go-5", Prompt: "Which package wraps errors with %w?", Options: opts("errors", "log", "strings", "fmt"), CorrectOption: "D", AcademyID: "demo", TopicID: "go-basics", Part: "2"},
	}
}
