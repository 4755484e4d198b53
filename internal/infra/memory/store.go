package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

var errDuplicateAttempt = errors.New("response already exists for user and quiz")

// Store is an in-memory implementation of app.AttemptStore.
// Transactions are serialized and stage their writes until the callback succeeds.
type Store struct {
	mu        sync.RWMutex
	responses map[string]domain.Response
	byAttempt map[attemptKey]string
	users     map[string]domain.User
}

type attemptKey struct {
	userID string
	quizID string
}

func NewStore() *Store {
	return &Store{
		responses: make(map[string]domain.Response),
		byAttempt: make(map[attemptKey]string),
		users:     make(map[string]domain.User),
	}
}

func (s *Store) FindResponse(_ context.Context, userID, quizID string) (domain.Response, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAttempt[attemptKey{userID, quizID}]
	if !ok {
		return domain.Response{}, false, nil
	}
	return cloneResponse(s.responses[id]), true, nil
}

func (s *Store) GetResponse(_ context.Context, responseID string) (domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[responseID]
	if !ok {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	return cloneResponse(resp), nil
}

// ListResponses returns the user's responses, newest first.
func (s *Store) ListResponses(_ context.Context, userID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Response, 0)
	for _, resp := range s.responses {
		if resp.UserID == userID {
			out = append(out, cloneResponse(resp))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// TopUsers orders by score desc, then earliest update, then name.
func (s *Store) TopUsers(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		if !users[i].UpdatedAt.Equal(users[j].UpdatedAt) {
			return users[i].UpdatedAt.Before(users[j].UpdatedAt)
		}
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// PutUsers inserts or replaces users.
func (s *Store) PutUsers(_ context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.AttemptTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{
		store:     s,
		responses: make(map[string]domain.Response),
		users:     make(map[string]domain.User),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for id, resp := range tx.responses {
		s.responses[id] = resp
		s.byAttempt[attemptKey{resp.UserID, resp.QuizID}] = id
	}
	for id, u := range tx.users {
		s.users[id] = u
	}
	return nil
}

// storeTx reads through staged writes to the committed state. The store lock is held by WithinTx.
type storeTx struct {
	store     *Store
	responses map[string]domain.Response
	users     map[string]domain.User
}

func (t *storeTx) FindResponse(_ context.Context, userID, quizID string) (domain.Response, bool, error) {
	for _, resp := range t.responses {
		if resp.UserID == userID && resp.QuizID == quizID {
			return cloneResponse(resp), true, nil
		}
	}
	id, ok := t.store.byAttempt[attemptKey{userID, quizID}]
	if !ok {
		return domain.Response{}, false, nil
	}
	return cloneResponse(t.store.responses[id]), true, nil
}

func (t *storeTx) GetUser(_ context.Context, userID string) (domain.User, error) {
	if u, ok := t.users[userID]; ok {
		return u, nil
	}
	u, ok := t.store.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (t *storeTx) CreateResponse(ctx context.Context, resp domain.Response) error {
	if _, found, _ := t.FindResponse(ctx, resp.UserID, resp.QuizID); found {
		return domain.WrapStore("create response", errDuplicateAttempt)
	}
	t.responses[resp.ID] = cloneResponse(resp)
	return nil
}

func (t *storeTx) SaveResponse(_ context.Context, resp domain.Response) error {
	if _, ok := t.responses[resp.ID]; !ok {
		if _, ok := t.store.responses[resp.ID]; !ok {
			return domain.ErrResponseNotFound
		}
	}
	t.responses[resp.ID] = cloneResponse(resp)
	return nil
}

func (t *storeTx) SaveUser(_ context.Context, user domain.User) error {
	if _, ok := t.users[user.ID]; !ok {
		if _, ok := t.store.users[user.ID]; !ok {
			return domain.ErrUserNotFound
		}
	}
	t.users[user.ID] = user
	return nil
}

func cloneResponse(resp domain.Response) domain.Response {
	entries := make([]domain.AnswerEntry, len(resp.Responses))
	copy(entries, resp.Responses)
	resp.Responses = entries
	return resp
}
