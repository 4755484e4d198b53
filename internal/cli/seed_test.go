package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
)

func TestBundledSampleDataSeedsMemoryBackends(t *testing.T) {
	ctx := context.Background()
	data, err := readSeedData("")
	if err != nil {
		t.Fatalf("read sample data: %v", err)
	}
	if len(data.Quizzes) == 0 || len(data.Users) == 0 {
		t.Fatalf("expected bundled quizzes and users, got %+v", data)
	}

	cfg := config.Config{}
	cfg.Storage.Driver = config.DriverMemory
	b, err := openBackends(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	defer b.close()

	if err := b.seed(ctx, data); err != nil {
		t.Fatalf("seed: %v", err)
	}
	defaults, err := b.quizzes.ListQuizzes(ctx, domain.QuizFilter{DefaultOnly: true})
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(defaults) != len(data.Quizzes) {
		t.Fatalf("expected %d default quizzes, got %d", len(data.Quizzes), len(defaults))
	}
	for _, quiz := range defaults {
		for _, q := range quiz.Questions {
			if !hasCorrectOption(q) {
				t.Fatalf("quiz %s question %s has no correct option", quiz.ID, q.ID)
			}
		}
	}
	if _, err := b.store.GetUser(ctx, data.Users[0].ID); err != nil {
		t.Fatalf("expected seeded user: %v", err)
	}
}

func TestReadSeedDataRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"missing quiz id": "quizzes:\n  - title: No id\n",
		"bad difficulty":  "quizzes:\n  - id: x\n    difficulty: Extreme\n",
		"missing user id": "users:\n  - name: Nobody\n",
		"malformed yaml":  "quizzes: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.yaml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("write seed: %v", err)
			}
			if _, err := readSeedData(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestOpenBackendsUnknownDriver(t *testing.T) {
	cfg := config.Config{}
	cfg.Storage.Driver = "cassandra"
	_, err := openBackends(context.Background(), cfg, slog.Default())
	if err == nil || !strings.Contains(err.Error(), "unknown storage driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func hasCorrectOption(q domain.Question) bool {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return true
		}
	}
	return false
}
