package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestLockerExcludesSecondHolder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewLocker(newClient(mr), time.Minute)
	unlock, err := locker.Lock(context.Background(), "attempt:u1:quiz-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("quiz:lock:attempt:u1:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "attempt:u1:quiz-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second lock to time out, got %v", err)
	}

	unlock()
	if mr.Exists("quiz:lock:attempt:u1:quiz-1") {
		t.Fatalf("expected redis key to be removed")
	}

	unlock2, err := locker.Lock(context.Background(), "attempt:u1:quiz-1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	unlock2()
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	locker := NewLocker(newClient(mr), time.Second)
	unlock, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// lock expired and was taken over by another instance
	mr.FastForward(2 * time.Second)
	if err := mr.Set("quiz:lock:k", "someone-else"); err != nil {
		t.Fatalf("set: %v", err)
	}

	unlock()
	if got, _ := mr.Get("quiz:lock:k"); got != "someone-else" {
		t.Fatalf("release must not delete a lock owned by another token, got %q", got)
	}
}
