package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quiz-attempt-service/internal/domain"

	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
}

// AttemptTx is the transactional view of the store used while a submission is applied.
// Writes made through it become visible together when the transaction commits.
type AttemptTx interface {
	FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	CreateResponse(ctx context.Context, resp domain.Response) error
	SaveResponse(ctx context.Context, resp domain.Response) error
	SaveUser(ctx context.Context, user domain.User) error
}

// AttemptStore persists responses and user aggregates (in-memory, Postgres, MongoDB).
type AttemptStore interface {
	FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error)
	GetResponse(ctx context.Context, responseID string) (domain.Response, error)
	ListResponses(ctx context.Context, userID string) ([]domain.Response, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	TopUsers(ctx context.Context, limit int) ([]domain.User, error)

	// WithinTx runs fn in a transaction. Returning an error from fn discards every write.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AttemptTx) error) error
}

// Locker serializes work on a key across requests (and instances, for distributed implementations).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EventPublisher forwards committed submissions to external consumers.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, event domain.SubmissionEvent) error
}

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	quizzes   QuizRepository
	store     AttemptStore
	locker    Locker
	feed      *Feed
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithPublisher forwards committed submissions to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *QuizService) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *QuizService) { s.logger = l }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithIDGenerator overrides how response ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *QuizService) { s.newID = gen }
}

func NewQuizService(quizzes QuizRepository, store AttemptStore, locker Locker, opts ...Option) *QuizService {
	s := &QuizService{
		quizzes: quizzes,
		store:   store,
		locker:  locker,
		feed:    NewFeed(),
		logger:  slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed exposes the submission feed for transports that stream it.
func (s *QuizService) Feed() *Feed {
	return s.feed
}

// QuestionCount returns the number of questions in a quiz.
func (s *QuizService) QuestionCount(ctx context.Context, quizID string) (int, error) {
	if quizID == "" {
		return 0, domain.NewValidationError("quizId", "is required")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return len(quiz.Questions), nil
}

// Results rebuilds the breakdown of a stored response against its quiz.
func (s *QuizService) Results(ctx context.Context, responseID string) (domain.Results, error) {
	if responseID == "" {
		return domain.Results{}, domain.NewValidationError("responseId", "is required")
	}
	resp, err := s.store.GetResponse(ctx, responseID)
	if err != nil {
		return domain.Results{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, resp.QuizID)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results for response %s: %w", responseID, err)
	}
	return buildResults(resp, quiz), nil
}

// Status reports whether the user already submitted the quiz.
func (s *QuizService) Status(ctx context.Context, userID, quizID string) (domain.AttemptStatus, error) {
	if err := requireIDs(userID, quizID); err != nil {
		return domain.AttemptStatus{}, err
	}
	resp, found, err := s.store.FindResponse(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptStatus{}, err
	}
	if !found {
		return domain.AttemptStatus{Taken: false}, nil
	}
	score := resp.Score
	return domain.AttemptStatus{Taken: true, Score: &score}, nil
}

// ListQuizzes returns the catalogue, optionally filtered.
func (s *QuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizSummary, error) {
	if !filter.Difficulty.Valid() {
		return nil, domain.NewValidationError("difficulty", fmt.Sprintf("unknown difficulty %q", filter.Difficulty))
	}
	quizzes, err := s.quizzes.ListQuizzes(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		if filter.Matches(quiz) {
			summaries = append(summaries, quiz.Summary())
		}
	}
	return summaries, nil
}

// GetQuiz returns a quiz ready to be taken, without correctness flags.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.PublicQuiz, error) {
	if quizID == "" {
		return domain.PublicQuiz{}, domain.NewValidationError("quizId", "is required")
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return quiz.Public(), nil
}

func (s *QuizService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, domain.NewValidationError("userId", "is required")
	}
	return s.store.GetUser(ctx, userID)
}

// ListResponses returns the user's submissions, newest first.
func (s *QuizService) ListResponses(ctx context.Context, userID string) ([]domain.Response, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "is required")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListResponses(ctx, userID)
}

// Leaderboard ranks users by cumulative score. limit <= 0 selects the default size.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	users, err := s.store.TopUsers(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:        u.ID,
			Name:          u.Name,
			Score:         u.Score,
			QuizzesPlayed: u.QuizzesPlayed,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

func requireIDs(userID, quizID string) error {
	if userID == "" {
		return domain.NewValidationError("userId", "is required")
	}
	if quizID == "" {
		return domain.NewValidationError("quizId", "is required")
	}
	return nil
}

// attemptKey identifies the (user, quiz) pair that submissions serialize on.
func attemptKey(userID, quizID string) string {
	return "attempt:" + userID + ":" + quizID
}
