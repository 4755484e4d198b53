package app

import (
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// PointsPerCorrectAnswer is awarded for every correctly answered question.
const PointsPerCorrectAnswer = 10

// scoreAnswers validates the submitted answers against quiz content and returns the
// entries to persist together with the total score.
//
// Every questionId must belong to the quiz. When a question is answered more than once
// the last answer wins, so each question contributes at most once to the score.
func scoreAnswers(quiz domain.Quiz, answers []domain.AnswerSubmission) ([]domain.AnswerEntry, int, error) {
	entries := make([]domain.AnswerEntry, 0, len(answers))
	position := make(map[string]int, len(answers))

	for i, answer := range answers {
		if answer.QuestionID == "" {
			return nil, 0, domain.NewValidationError(fmt.Sprintf("responses[%d].questionId", i), "is required")
		}
		question := quiz.QuestionByID(answer.QuestionID)
		if question == nil {
			return nil, 0, &domain.ValidationError{
				Field:  fmt.Sprintf("responses[%d].questionId", i),
				Reason: fmt.Sprintf("question %q is not part of quiz %q", answer.QuestionID, quiz.ID),
				Err:    domain.ErrQuestionNotFound,
			}
		}

		entry := domain.AnswerEntry{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			IsCorrect:      isCorrectOption(*question, answer.SelectedOption),
		}
		if idx, seen := position[answer.QuestionID]; seen {
			entries[idx] = entry
			continue
		}
		position[answer.QuestionID] = len(entries)
		entries = append(entries, entry)
	}

	score := 0
	for _, entry := range entries {
		if entry.IsCorrect {
			score += PointsPerCorrectAnswer
		}
	}
	return entries, score, nil
}

// isCorrectOption reports whether some option of question has the selected text and is flagged correct.
func isCorrectOption(question domain.Question, selected string) bool {
	for _, opt := range question.Options {
		if opt.Text == selected && opt.IsCorrect {
			return true
		}
	}
	return false
}

// buildResults classifies every quiz question against the stored answers.
// Correctness is re-derived from the current quiz options; the stored score is reported as is.
func buildResults(resp domain.Response, quiz domain.Quiz) domain.Results {
	answers := make(map[string]domain.AnswerEntry, len(resp.Responses))
	for _, entry := range resp.Responses {
		if _, ok := answers[entry.QuestionID]; !ok {
			answers[entry.QuestionID] = entry
		}
	}

	results := domain.Results{
		Score:              resp.Score,
		TotalQuestions:     len(quiz.Questions),
		CorrectResponses:   []domain.AnsweredQuestion{},
		IncorrectResponses: []domain.AnsweredQuestion{},
		SkippedQuestions:   []domain.SkippedQuestion{},
	}

	for _, question := range quiz.Questions {
		entry, ok := answers[question.ID]
		if !ok {
			results.SkippedQuestions = append(results.SkippedQuestions, domain.SkippedQuestion{QuestionText: question.Text})
			continue
		}
		answered := domain.AnsweredQuestion{QuestionText: question.Text, SelectedOption: entry.SelectedOption}
		if isCorrectOption(question, entry.SelectedOption) {
			results.CorrectResponses = append(results.CorrectResponses, answered)
		} else {
			results.IncorrectResponses = append(results.IncorrectResponses, answered)
		}
	}

	results.ScorePercentage = formatPercentage(len(results.CorrectResponses), results.TotalQuestions)
	return results
}

// formatPercentage renders correct/total*100 with two decimals. An empty quiz yields "0.00".
func formatPercentage(correct, total int) string {
	if total <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(correct)/float64(total)*100)
}
