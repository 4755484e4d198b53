package http

import (
	"log/slog"
	"net/http"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

// NewRouter mounts the REST API, the websocket feed, health and metrics endpoints.
func NewRouter(service *app.QuizService, logger *slog.Logger, allowedOrigins []string) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	api := NewHandler(service, logger)
	ws := NewWSHandler(service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(requestLogger(logger))

		r.Post("/responses", api.SubmitResponse)
		r.Post("/responses/status", api.CheckStatus)
		r.Get("/responses/{responseId}/results", api.Results)

		r.Get("/quizzes", api.ListQuizzes)
		r.Get("/default-quizzes", api.DefaultQuizzes)
		r.Get("/quizzes/{quizId}", api.GetQuiz)
		r.Get("/quizzes/{quizId}/questions/count", api.QuestionCount)

		r.Get("/users/{userId}", api.GetUser)
		r.Get("/users/{userId}/responses", api.ListResponses)
		r.Get("/users/{userId}/quizzes/{quizId}/status", api.UserQuizStatus)

		r.Get("/leaderboard", api.Leaderboard)
	})
	return r
}

// requestLogger records each API request in the access log and the request metrics.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			metrics.ObserveRequest(r.Method, route, status, elapsed)
			logger.Debug("request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Duration("elapsed", elapsed),
			)
		})
	}
}
