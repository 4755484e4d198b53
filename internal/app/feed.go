package app

import (
	"sync"

	"quiz-attempt-service/internal/domain"
)

// Feed fans out committed submissions to in-process subscribers, keyed by user.
type Feed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.SubmissionEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[string]map[chan domain.SubmissionEvent]struct{})}
}

// Subscribe returns a channel receiving the user's submission events.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(userID string) (<-chan domain.SubmissionEvent, func()) {
	ch := make(chan domain.SubmissionEvent, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[userID]
	if !ok {
		subs = make(map[chan domain.SubmissionEvent]struct{})
		f.subscribers[userID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, userID)
		}
	}
	return ch, cancel
}

// Publish delivers event to every subscriber of event.UserID without blocking.
func (f *Feed) Publish(event domain.SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[event.UserID] {
		select {
		case ch <- event:
		default:
			// slow subscriber: drop its oldest event to make room
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (f *Feed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[userID])
}
