package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz JSONB documents from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.WrapStore("load quiz", err)
	}
	return decodeQuiz(quizID, raw)
}

// ListQuizzes filters in SQL and orders by title, then id.
func (l *QuizLoader) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, data FROM quizzes
		WHERE ($1 = '' OR data->>'difficulty' = $1)
		  AND ($2 = '' OR data->>'category' = $2)
		  AND (NOT $3 OR COALESCE((data->>'isDefault')::boolean, false))
		ORDER BY data->>'title', id`,
		string(filter.Difficulty), filter.Category, filter.DefaultOnly,
	)
	if err != nil {
		return nil, domain.WrapStore("list quizzes", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, domain.WrapStore("scan quiz", err)
		}
		quiz, err := decodeQuiz(id, raw)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("list quizzes", err)
	}
	return quizzes, nil
}

// PutQuizzes upserts quiz documents.
func (l *QuizLoader) PutQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	batch := &pgx.Batch{}
	for _, quiz := range quizzes {
		data, err := json.Marshal(quiz)
		if err != nil {
			return fmt.Errorf("marshal quiz %s: %w", quiz.ID, err)
		}
		batch.Queue(`INSERT INTO quizzes (id, data) VALUES ($1, $2::jsonb)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, quiz.ID, string(data))
	}
	results := l.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range quizzes {
		if _, err := results.Exec(); err != nil {
			return domain.WrapStore("put quiz", err)
		}
	}
	return nil
}

func decodeQuiz(id string, raw []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, domain.WrapStore("unmarshal quiz", err)
	}
	quiz.ID = id
	return quiz, nil
}
