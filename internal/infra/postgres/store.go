package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements app.AttemptStore on Postgres.
// Submissions run in one transaction that row-locks the user first.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const responseColumns = `id, user_id, quiz_id, answers, score, submitted_at`

func (s *Store) FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error) {
	return findResponse(s.pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE user_id=$1 AND quiz_id=$2`, userID, quizID))
}

func (s *Store) GetResponse(ctx context.Context, responseID string) (domain.Response, error) {
	resp, found, err := findResponse(s.pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE id=$1`, responseID))
	if err != nil {
		return domain.Response{}, err
	}
	if !found {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	return resp, nil
}

func (s *Store) ListResponses(ctx context.Context, userID string) ([]domain.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE user_id=$1 ORDER BY submitted_at DESC, id`, userID)
	if err != nil {
		return nil, domain.WrapStore("list responses", err)
	}
	defer rows.Close()

	out := make([]domain.Response, 0)
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("list responses", err)
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(s.pool.QueryRow(ctx,
		`SELECT id, name, score, quizzes_played, updated_at FROM users WHERE id=$1`, userID))
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, score, quizzes_played, updated_at FROM users
		ORDER BY score DESC, updated_at ASC, name ASC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, domain.WrapStore("top users", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Score, &u.QuizzesPlayed, &u.UpdatedAt); err != nil {
			return nil, domain.WrapStore("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("top users", err)
	}
	return users, nil
}

// PutUsers upserts users, used for seeding.
func (s *Store) PutUsers(ctx context.Context, users []domain.User) error {
	for _, u := range users {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO users (id, name, score, quizzes_played) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			u.ID, u.Name, u.Score, u.QuizzesPlayed)
		if err != nil {
			return domain.WrapStore("put user", err)
		}
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.AttemptTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.WrapStore("begin tx", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(ctx, &storeTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.WrapStore("commit tx", err)
	}
	return nil
}

type storeTx struct {
	tx pgx.Tx
}

func (t *storeTx) FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error) {
	return findResponse(t.tx.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE user_id=$1 AND quiz_id=$2 FOR UPDATE`, userID, quizID))
}

func (t *storeTx) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(t.tx.QueryRow(ctx,
		`SELECT id, name, score, quizzes_played, updated_at FROM users WHERE id=$1 FOR UPDATE`, userID))
}

func (t *storeTx) CreateResponse(ctx context.Context, resp domain.Response) error {
	answers, err := json.Marshal(resp.Responses)
	if err != nil {
		return domain.WrapStore("marshal answers", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO responses (id, user_id, quiz_id, answers, score, submitted_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		resp.ID, resp.UserID, resp.QuizID, string(answers), resp.Score, resp.SubmittedAt)
	return domain.WrapStore("create response", err)
}

func (t *storeTx) SaveResponse(ctx context.Context, resp domain.Response) error {
	answers, err := json.Marshal(resp.Responses)
	if err != nil {
		return domain.WrapStore("marshal answers", err)
	}
	tag, err := t.tx.Exec(ctx, `
		UPDATE responses SET answers=$2::jsonb, score=$3, submitted_at=$4 WHERE id=$1`,
		resp.ID, string(answers), resp.Score, resp.SubmittedAt)
	if err != nil {
		return domain.WrapStore("save response", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResponseNotFound
	}
	return nil
}

func (t *storeTx) SaveUser(ctx context.Context, user domain.User) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE users SET score=$2, quizzes_played=$3, updated_at=$4 WHERE id=$1`,
		user.ID, user.Score, user.QuizzesPlayed, user.UpdatedAt)
	if err != nil {
		return domain.WrapStore("save user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func findResponse(row pgx.Row) (domain.Response, bool, error) {
	resp, err := scanResponse(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Response{}, false, nil
	}
	if err != nil {
		return domain.Response{}, false, err
	}
	return resp, true, nil
}

func scanResponse(row pgx.Row) (domain.Response, error) {
	var (
		resp    domain.Response
		answers []byte
	)
	if err := row.Scan(&resp.ID, &resp.UserID, &resp.QuizID, &answers, &resp.Score, &resp.SubmittedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Response{}, err
		}
		return domain.Response{}, domain.WrapStore("scan response", err)
	}
	if err := json.Unmarshal(answers, &resp.Responses); err != nil {
		return domain.Response{}, domain.WrapStore("unmarshal answers", err)
	}
	return resp, nil
}

func getUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Score, &u.QuizzesPlayed, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, domain.WrapStore("get user", err)
	}
	return u, nil
}
