package app

import (
	"context"
	"fmt"
	"log/slog"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/metrics"
)

// Submit scores a first attempt or a retake and persists the response together with
// the owning user's aggregates.
//
// Submissions for the same (user, quiz) pair are serialized through the locker, and the
// response and user writes commit in one store transaction, so User.Score always equals
// the sum of that user's response scores.
func (s *QuizService) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error) {
	if err := requireIDs(req.UserID, req.QuizID); err != nil {
		return domain.SubmitResult{}, err
	}

	quiz, err := s.quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	entries, score, err := scoreAnswers(quiz, req.Responses)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	unlock, err := s.locker.Lock(ctx, attemptKey(req.UserID, req.QuizID))
	if err != nil {
		return domain.SubmitResult{}, domain.WrapStore("lock attempt", err)
	}
	defer unlock()

	now := s.now()
	var (
		result domain.SubmitResult
		user   domain.User
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx AttemptTx) error {
		// user first: row-locking stores then serialize every submission of this user
		var err error
		user, err = tx.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		existing, found, err := tx.FindResponse(ctx, req.UserID, req.QuizID)
		if err != nil {
			return err
		}

		if found {
			user.Score -= existing.Score
			existing.Responses = entries
			existing.Score = score
			existing.SubmittedAt = now
			if err := tx.SaveResponse(ctx, existing); err != nil {
				return err
			}
			user.Score += score
			result = domain.SubmitResult{ResponseID: existing.ID, Score: score, Retake: true}
		} else {
			resp := domain.Response{
				ID:          s.newID(),
				UserID:      req.UserID,
				QuizID:      req.QuizID,
				Responses:   entries,
				Score:       score,
				SubmittedAt: now,
			}
			if err := tx.CreateResponse(ctx, resp); err != nil {
				return err
			}
			user.Score += score
			user.QuizzesPlayed++
			result = domain.SubmitResult{ResponseID: resp.ID, Score: score, Retake: false}
		}

		user.UpdatedAt = now
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("submit quiz %s for user %s: %w", req.QuizID, req.UserID, err)
	}

	s.announce(ctx, domain.SubmissionEvent{
		UserID:        req.UserID,
		QuizID:        req.QuizID,
		ResponseID:    result.ResponseID,
		Score:         score,
		TotalScore:    user.Score,
		QuizzesPlayed: user.QuizzesPlayed,
		Retake:        result.Retake,
		SubmittedAt:   now,
	})
	return result, nil
}

// announce fans a committed submission out to metrics, the live feed and the event bus.
// Failures here never undo the submission.
func (s *QuizService) announce(ctx context.Context, event domain.SubmissionEvent) {
	metrics.ObserveSubmission(event.Retake, event.Score)
	if s.feed != nil {
		s.feed.Publish(event)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSubmission(ctx, event); err != nil {
		s.logger.Warn("publish submission event failed",
			slog.String("user_id", event.UserID),
			slog.String("quiz_id", event.QuizID),
			slog.Any("error", err),
		)
	}
}
