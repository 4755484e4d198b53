package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (e.g., document DB).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
}

// QuizRepository caches quizzes with TTL to avoid repeated DB hits.
// Listings always go to the loader.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.lookup(quizID); ok {
		metrics.ObserveCacheLookup("memory", true)
		return quiz, nil
	}
	metrics.ObserveCacheLookup("memory", false)

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := r.lookup(quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if ttl := r.ttlWithJitter(); ttl > 0 {
			r.mu.Lock()
			r.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: r.clock().Add(ttl)}
			r.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	return r.loader.ListQuizzes(ctx, filter)
}

// Invalidate drops a cached quiz so the next read reloads it.
func (r *QuizRepository) Invalidate(quizID string) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
}

func (r *QuizRepository) lookup(quizID string) (domain.Quiz, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[quizID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	copied := make(map[string]domain.Quiz, len(quizzes))
	for id, quiz := range quizzes {
		copied[id] = quiz
	}
	return &StaticQuizLoader{quizzes: copied}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// ListQuizzes returns matching quizzes ordered by title, then id.
func (l *StaticQuizLoader) ListQuizzes(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	quizzes := make([]domain.Quiz, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		if filter.Matches(quiz) {
			quizzes = append(quizzes, quiz)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if quizzes[i].Title != quizzes[j].Title {
			return quizzes[i].Title < quizzes[j].Title
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

// PutQuizzes inserts or replaces quizzes.
func (l *StaticQuizLoader) PutQuizzes(_ context.Context, quizzes []domain.Quiz) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, quiz := range quizzes {
		l.quizzes[quiz.ID] = quiz
	}
	return nil
}
