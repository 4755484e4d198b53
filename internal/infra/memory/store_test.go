package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func TestStoreCommitsStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.PutUsers(ctx, []domain.User{{ID: "u1", Name: "Alice"}})

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.AttemptTx) error {
		if err := tx.CreateResponse(ctx, domain.Response{ID: "r1", UserID: "u1", QuizID: "quiz-1", Score: 10}); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, "u1")
		if err != nil {
			return err
		}
		user.Score += 10
		user.QuizzesPlayed++
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	resp, found, err := store.FindResponse(ctx, "u1", "quiz-1")
	if err != nil || !found || resp.ID != "r1" {
		t.Fatalf("expected committed response r1, got %+v found=%v err=%v", resp, found, err)
	}
	user, _ := store.GetUser(ctx, "u1")
	if user.Score != 10 || user.QuizzesPlayed != 1 {
		t.Fatalf("expected committed user stats, got %+v", user)
	}
}

func TestStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.PutUsers(ctx, []domain.User{{ID: "u1", Name: "Alice"}})
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, tx app.AttemptTx) error {
		if err := tx.CreateResponse(ctx, domain.Response{ID: "r1", UserID: "u1", QuizID: "quiz-1", Score: 10}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, found, _ := store.FindResponse(ctx, "u1", "quiz-1"); found {
		t.Fatalf("expected response to be discarded")
	}
	if _, err := store.GetResponse(ctx, "r1"); !errors.Is(err, domain.ErrResponseNotFound) {
		t.Fatalf("expected ErrResponseNotFound, got %v", err)
	}
}

func TestStoreRejectsSecondResponseForPair(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	create := func(id string) error {
		return store.WithinTx(ctx, func(ctx context.Context, tx app.AttemptTx) error {
			return tx.CreateResponse(ctx, domain.Response{ID: id, UserID: "u1", QuizID: "quiz-1"})
		})
	}
	if err := create("r1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := create("r2"); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error for duplicate pair, got %v", err)
	}
}

func TestStoreSaveUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	err := store.WithinTx(ctx, func(ctx context.Context, tx app.AttemptTx) error {
		return tx.SaveUser(ctx, domain.User{ID: "ghost"})
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStoreTopUsersOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.PutUsers(ctx, []domain.User{
		{ID: "u1", Name: "Carol", Score: 20, UpdatedAt: base.Add(time.Minute)},
		{ID: "u2", Name: "Bob", Score: 20, UpdatedAt: base},
		{ID: "u3", Name: "Alice", Score: 30, UpdatedAt: base.Add(time.Hour)},
		{ID: "u4", Name: "Dave", Score: 0, UpdatedAt: base},
	})

	users, err := store.TopUsers(ctx, 3)
	if err != nil {
		t.Fatalf("top users: %v", err)
	}
	got := []string{users[0].ID, users[1].ID, users[2].ID}
	want := []string{"u3", "u2", "u1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestStoreListResponsesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.WithinTx(ctx, func(ctx context.Context, tx app.AttemptTx) error {
		_ = tx.CreateResponse(ctx, domain.Response{ID: "r1", UserID: "u1", QuizID: "a", SubmittedAt: base})
		_ = tx.CreateResponse(ctx, domain.Response{ID: "r2", UserID: "u1", QuizID: "b", SubmittedAt: base.Add(time.Hour)})
		return tx.CreateResponse(ctx, domain.Response{ID: "r3", UserID: "u2", QuizID: "a", SubmittedAt: base})
	})

	list, err := store.ListResponses(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "r2" || list[1].ID != "r1" {
		t.Fatalf("expected [r2 r1], got %+v", list)
	}
}
