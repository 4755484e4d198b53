package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/mongodb"
	pgstore "quiz-attempt-service/internal/infra/postgres"

	"github.com/jackc/pgx/v4/pgxpool"
)

// quizSource loads quiz content and accepts seeded quizzes.
type quizSource interface {
	memory.QuizLoader
	PutQuizzes(ctx context.Context, quizzes []domain.Quiz) error
}

// attemptStore is the submission store plus user seeding.
type attemptStore interface {
	app.AttemptStore
	PutUsers(ctx context.Context, users []domain.User) error
}

type backends struct {
	quizzes quizSource
	store   attemptStore
	close   func()
}

// openBackends connects the configured storage driver.
func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return &backends{
			quizzes: memory.NewStaticQuizLoader(nil),
			store:   memory.NewStore(),
			close:   func() {},
		}, nil

	case config.DriverPostgres:
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &backends{
			quizzes: pgstore.NewQuizLoader(pool),
			store:   pgstore.NewStore(pool),
			close:   pool.Close,
		}, nil

	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &backends{
			quizzes: mongodb.NewQuizLoader(db),
			store:   mongodb.NewStore(client, db),
			close: func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Disconnect(shutdownCtx); err != nil {
					logger.Warn("mongo disconnect failed", slog.Any("error", err))
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// seed writes quizzes and users into the backends.
func (b *backends) seed(ctx context.Context, data seedData) error {
	if err := b.quizzes.PutQuizzes(ctx, data.Quizzes); err != nil {
		return fmt.Errorf("seed quizzes: %w", err)
	}
	if err := b.store.PutUsers(ctx, data.Users); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	return nil
}
