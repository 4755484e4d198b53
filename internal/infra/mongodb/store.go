package mongodb

import (
	"context"
	"errors"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store implements app.AttemptStore with multi-document transactions.
type Store struct {
	client    *mongo.Client
	responses *mongo.Collection
	users     *mongo.Collection
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:    client,
		responses: db.Collection(responsesCollection),
		users:     db.Collection(usersCollection),
	}
}

func (s *Store) FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error) {
	return findResponse(ctx, s.responses, userID, quizID)
}

func (s *Store) GetResponse(ctx context.Context, responseID string) (domain.Response, error) {
	var resp domain.Response
	err := s.responses.FindOne(ctx, bson.M{"_id": responseID}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Response{}, domain.ErrResponseNotFound
	}
	if err != nil {
		return domain.Response{}, domain.WrapStore("get response", err)
	}
	return resp, nil
}

func (s *Store) ListResponses(ctx context.Context, userID string) ([]domain.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.responses.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, domain.WrapStore("list responses", err)
	}
	defer cursor.Close(ctx)

	out := make([]domain.Response, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, domain.WrapStore("decode responses", err)
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(ctx, s.users, userID)
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{
			{Key: "score", Value: -1},
			{Key: "updatedAt", Value: 1},
			{Key: "name", Value: 1},
			{Key: "_id", Value: 1},
		}).
		SetLimit(int64(limit))
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.WrapStore("top users", err)
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, domain.WrapStore("decode users", err)
	}
	return users, nil
}

// PutUsers upserts users, keeping the aggregates of existing ones.
func (s *Store) PutUsers(ctx context.Context, users []domain.User) error {
	for _, u := range users {
		update := bson.M{
			"$set": bson.M{"name": u.Name},
			"$setOnInsert": bson.M{
				"score":         u.Score,
				"quizzesPlayed": u.QuizzesPlayed,
				"updatedAt":     u.UpdatedAt,
			},
		}
		opts := options.UpdateOne().SetUpsert(true)
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, update, opts); err != nil {
			return domain.WrapStore("put user", err)
		}
	}
	return nil
}

// WithinTx runs fn inside a session transaction. The driver may retry fn on transient errors.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.AttemptTx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return domain.WrapStore("start session", err)
	}
	defer session.EndSession(context.Background())

	tx := &storeTx{responses: s.responses, users: s.users}
	_, err = session.WithTransaction(ctx, func(sc context.Context) (any, error) {
		return nil, fn(sc, tx)
	})
	if err != nil {
		return domain.WrapStore("submit transaction", err)
	}
	return nil
}

type storeTx struct {
	responses *mongo.Collection
	users     *mongo.Collection
}

func (t *storeTx) FindResponse(ctx context.Context, userID, quizID string) (domain.Response, bool, error) {
	return findResponse(ctx, t.responses, userID, quizID)
}

func (t *storeTx) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(ctx, t.users, userID)
}

func (t *storeTx) CreateResponse(ctx context.Context, resp domain.Response) error {
	_, err := t.responses.InsertOne(ctx, resp)
	return domain.WrapStore("create response", err)
}

func (t *storeTx) SaveResponse(ctx context.Context, resp domain.Response) error {
	res, err := t.responses.ReplaceOne(ctx, bson.M{"_id": resp.ID}, resp)
	if err != nil {
		return domain.WrapStore("save response", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrResponseNotFound
	}
	return nil
}

func (t *storeTx) SaveUser(ctx context.Context, user domain.User) error {
	res, err := t.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"score":         user.Score,
		"quizzesPlayed": user.QuizzesPlayed,
		"updatedAt":     user.UpdatedAt,
	}})
	if err != nil {
		return domain.WrapStore("save user", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func findResponse(ctx context.Context, col *mongo.Collection, userID, quizID string) (domain.Response, bool, error) {
	var resp domain.Response
	err := col.FindOne(ctx, bson.M{"userId": userID, "quizId": quizID}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Response{}, false, nil
	}
	if err != nil {
		return domain.Response{}, false, domain.WrapStore("find response", err)
	}
	return resp, true, nil
}

func getUser(ctx context.Context, col *mongo.Collection, userID string) (domain.User, error) {
	var u domain.User
	err := col.FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, domain.WrapStore("get user", err)
	}
	return u, nil
}
