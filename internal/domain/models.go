package domain

import "time"

// Difficulty grades a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty levels. The empty value is allowed.
func (d Difficulty) Valid() bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Option represents a possible answer for a question. Options are matched by text.
type Option struct {
	Text      string `json:"text" bson:"text" yaml:"text"`
	IsCorrect bool   `json:"isCorrect" bson:"isCorrect" yaml:"isCorrect"`
}

// Question models a multiple-choice question; at least one option is expected to be correct.
type Question struct {
	ID      string   `json:"id" bson:"id" yaml:"id"`
	Text    string   `json:"text" bson:"text" yaml:"text"`
	Options []Option `json:"options" bson:"options" yaml:"options"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID          string     `json:"id" bson:"_id" yaml:"id"`
	Title       string     `json:"title" bson:"title" yaml:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty" yaml:"description"`
	Category    string     `json:"category,omitempty" bson:"category,omitempty" yaml:"category"`
	Difficulty  Difficulty `json:"difficulty,omitempty" bson:"difficulty,omitempty" yaml:"difficulty"`
	Questions   []Question `json:"questions" bson:"questions" yaml:"questions"`
	CreatedBy   string     `json:"createdBy,omitempty" bson:"createdBy,omitempty" yaml:"createdBy"`
	IsDefault   bool       `json:"isDefault" bson:"isDefault" yaml:"isDefault"`
}

// QuestionByID returns the question with the given id, or nil.
func (q Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// QuizFilter narrows catalogue listings. Zero values match everything.
type QuizFilter struct {
	Difficulty  Difficulty
	Category    string
	DefaultOnly bool
}

// Matches reports whether quiz passes the filter.
func (f QuizFilter) Matches(quiz Quiz) bool {
	if f.Difficulty != "" && quiz.Difficulty != f.Difficulty {
		return false
	}
	if f.Category != "" && quiz.Category != f.Category {
		return false
	}
	if f.DefaultOnly && !quiz.IsDefault {
		return false
	}
	return true
}

// QuizSummary is the catalogue view of a quiz.
type QuizSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	QuestionCount int        `json:"questionCount"`
	IsDefault     bool       `json:"isDefault"`
}

// Summary builds the catalogue view of q.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		QuestionCount: len(q.Questions),
		IsDefault:     q.IsDefault,
	}
}

// PublicQuestion is a question as shown to a quiz taker: option texts only.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// PublicQuiz is a quiz with the correctness flags stripped.
type PublicQuiz struct {
	QuizSummary
	Questions []PublicQuestion `json:"questions"`
}

// Public strips correctness flags from q.
func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := make([]string, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, opt.Text)
		}
		questions = append(questions, PublicQuestion{ID: question.ID, Text: question.Text, Options: options})
	}
	return PublicQuiz{QuizSummary: q.Summary(), Questions: questions}
}

// AnswerSubmission is one answer sent by a client.
type AnswerSubmission struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption"`
}

// AnswerEntry is a scored answer persisted with a Response.
type AnswerEntry struct {
	QuestionID     string `json:"questionId" bson:"questionId"`
	SelectedOption string `json:"selectedOption" bson:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect" bson:"isCorrect"`
}

// Response is the single submission record for a (user, quiz) pair.
type Response struct {
	ID          string        `json:"id" bson:"_id"`
	UserID      string        `json:"userId" bson:"userId"`
	QuizID      string        `json:"quizId" bson:"quizId"`
	Responses   []AnswerEntry `json:"responses" bson:"responses"`
	Score       int           `json:"score" bson:"score"`
	SubmittedAt time.Time     `json:"submittedAt" bson:"submittedAt"`
}

// User holds the per-user aggregates maintained by submissions.
type User struct {
	ID            string    `json:"id" bson:"_id" yaml:"id"`
	Name          string    `json:"name" bson:"name" yaml:"name"`
	Score         int       `json:"score" bson:"score" yaml:"score"`
	QuizzesPlayed int       `json:"quizzesPlayed" bson:"quizzesPlayed" yaml:"quizzesPlayed"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

// SubmitRequest is the input of a quiz submission.
type SubmitRequest struct {
	UserID    string             `json:"userId"`
	QuizID    string             `json:"quizId"`
	Responses []AnswerSubmission `json:"responses"`
}

// SubmitResult summarizes a persisted submission.
type SubmitResult struct {
	ResponseID string `json:"responseId"`
	Score      int    `json:"score"`
	Retake     bool   `json:"retake"`
}

// AnsweredQuestion is a question the user answered, as shown in results.
type AnsweredQuestion struct {
	QuestionText   string `json:"questionText"`
	SelectedOption string `json:"selectedOption"`
}

// SkippedQuestion is a question without an answer entry.
type SkippedQuestion struct {
	QuestionText string `json:"questionText"`
}

// Results is the detailed breakdown of a stored response.
type Results struct {
	Score              int                `json:"score"`
	TotalQuestions     int                `json:"totalQuestions"`
	CorrectResponses   []AnsweredQuestion `json:"correctResponses"`
	IncorrectResponses []AnsweredQuestion `json:"incorrectResponses"`
	SkippedQuestions   []SkippedQuestion  `json:"skippedQuestions"`
	ScorePercentage    string             `json:"scorePercentage"`
}

// AttemptStatus reports whether a user already submitted a quiz.
type AttemptStatus struct {
	Taken bool `json:"taken"`
	Score *int `json:"score,omitempty"`
}

// LeaderboardEntry is a snapshot-friendly view of a user.
type LeaderboardEntry struct {
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	QuizzesPlayed int    `json:"quizzesPlayed"`
}

// Leaderboard captures users ordered by cumulative score.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SubmissionEvent is emitted after a submission has been committed.
type SubmissionEvent struct {
	UserID        string    `json:"userId"`
	QuizID        string    `json:"quizId"`
	ResponseID    string    `json:"responseId"`
	Score         int       `json:"score"`
	TotalScore    int       `json:"totalScore"`
	QuizzesPlayed int       `json:"quizzesPlayed"`
	Retake        bool      `json:"retake"`
	SubmittedAt   time.Time `json:"submittedAt"`
}
