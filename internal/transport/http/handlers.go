package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// Handler serves the REST API on top of the quiz use cases.
type Handler struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewHandler(service *app.QuizService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type submitResponse struct {
	Message    string `json:"message"`
	Score      int    `json:"score"`
	ResponseID string `json:"responseId"`
	Retake     bool   `json:"retake"`
}

type statusRequest struct {
	UserID string `json:"userId"`
	QuizID string `json:"quizId"`
}

type questionCountResponse struct {
	NumberOfQuestions int `json:"numberOfQuestions"`
}

// SubmitResponse handles POST /api/responses.
func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	message := "Quiz submitted successfully"
	if result.Retake {
		message = "Quiz retake saved successfully"
	}
	respondJSON(w, http.StatusCreated, submitResponse{
		Message:    message,
		Score:      result.Score,
		ResponseID: result.ResponseID,
		Retake:     result.Retake,
	})
}

// CheckStatus handles POST /api/responses/status.
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.writeStatus(w, r, req.UserID, req.QuizID)
}

// UserQuizStatus handles GET /api/users/{userId}/quizzes/{quizId}/status.
func (h *Handler) UserQuizStatus(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, r, chi.URLParam(r, "userId"), chi.URLParam(r, "quizId"))
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, userID, quizID string) {
	status, err := h.service.Status(r.Context(), userID, quizID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), chi.URLParam(r, "responseId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) QuestionCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.QuestionCount(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, questionCountResponse{NumberOfQuestions: count})
}

// ListQuizzes handles GET /api/quizzes?difficulty=&category=.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	h.listQuizzes(w, r, domain.QuizFilter{
		Difficulty: domain.Difficulty(r.URL.Query().Get("difficulty")),
		Category:   r.URL.Query().Get("category"),
	})
}

func (h *Handler) DefaultQuizzes(w http.ResponseWriter, r *http.Request) {
	h.listQuizzes(w, r, domain.QuizFilter{DefaultOnly: true})
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request, filter domain.QuizFilter) {
	quizzes, err := h.service.ListQuizzes(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quiz)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) ListResponses(w http.ResponseWriter, r *http.Request) {
	responses, err := h.service.ListResponses(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, responses)
}

// Leaderboard handles GET /api/leaderboard?limit=N.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, r, domain.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	board, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "is required")
		}
		return &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err), Err: err}
	}
	return nil
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	attrs := []any{
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", code),
		slog.Any("error", err),
	}
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
		message = "internal server error"
	} else {
		h.logger.Info("request rejected", attrs...)
	}
	respondJSON(w, code, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
