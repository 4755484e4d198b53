package http

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.QuizService) {
	t.Helper()
	store := memory.NewStore()
	if err := store.PutUsers(context.Background(), []domain.User{
		{ID: "u1", Name: "Alice"},
		{ID: "u2", Name: "Bob"},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewQuizService(quizRepo, store, memory.NewLocker(), app.WithLogger(logger))

	server := httptest.NewServer(NewRouter(service, logger, []string{"http://localhost:3000"}))
	t.Cleanup(server.Close)
	return server, service
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:         "quiz-1",
			Title:      "Arithmetic",
			Category:   "Math",
			Difficulty: domain.DifficultyEasy,
			IsDefault:  true,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Options: []domain.Option{
						{Text: "3"},
						{Text: "4", IsCorrect: true},
						{Text: "5"},
					},
				},
				{
					ID:   "q2",
					Text: "What is 3 * 3?",
					Options: []domain.Option{
						{Text: "6"},
						{Text: "9", IsCorrect: true},
					},
				},
			},
		},
		"quiz-2": {
			ID:         "quiz-2",
			Title:      "Geography",
			Category:   "General",
			Difficulty: domain.DifficultyHard,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "Capital of France?",
					Options: []domain.Option{
						{Text: "Paris", IsCorrect: true},
						{Text: "Lyon"},
					},
				},
			},
		},
	}
}
