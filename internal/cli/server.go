package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/event"
	"quiz-attempt-service/internal/infra/memory"
	infraredis "quiz-attempt-service/internal/infra/redis"
	transport "quiz-attempt-service/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	if cfg.Storage.Driver == config.DriverMemory {
		data, err := readSeedData("")
		if err != nil {
			return err
		}
		if err := b.seed(ctx, data); err != nil {
			return err
		}
		logger.Info("memory store seeded with sample data", slog.Int("quizzes", len(data.Quizzes)))
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		locker   app.Locker
	)
	if redisClient != nil {
		quizRepo = infraredis.NewQuizRepository(redisClient, b.quizzes, quizTTL)
		locker = infraredis.NewLocker(redisClient, config.TTLDuration(cfg.Redis.LockTTL, 10*time.Second))
	} else {
		quizRepo = memory.NewQuizRepository(b.quizzes, quizTTL)
		locker = memory.NewLocker()
	}

	publisher, err := event.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	opts := []app.Option{app.WithLogger(logger)}
	if publisher.Enabled() {
		opts = append(opts, app.WithPublisher(publisher))
	}
	service := app.NewQuizService(quizRepo, b.store, locker, opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, cfg.Server.AllowedOrigins),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting quiz service",
			slog.String("addr", server.Addr),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("redis", redisClient != nil),
			slog.Bool("events", publisher.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
