package mongodb

import (
	"context"
	"errors"

	"quiz-attempt-service/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuizLoader reads quiz documents from the quizzes collection.
type QuizLoader struct {
	collection *mongo.Collection
}

func NewQuizLoader(db *mongo.Database) *QuizLoader {
	return &QuizLoader{collection: db.Collection(quizzesCollection)}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.collection.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, domain.WrapStore("load quiz", err)
	}
	return quiz, nil
}

func (l *QuizLoader) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	query := bson.M{}
	if filter.Difficulty != "" {
		query["difficulty"] = filter.Difficulty
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.DefaultOnly {
		query["isDefault"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := l.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, domain.WrapStore("list quizzes", err)
	}
	defer cursor.Close(ctx)

	var quizzes []domain.Quiz
	if err := cursor.All(ctx, &quizzes); err != nil {
		return nil, domain.WrapStore("decode quizzes", err)
	}
	return quizzes, nil
}

// PutQuizzes upserts quiz documents.
func (l *QuizLoader) PutQuizzes(ctx context.Context, quizzes []domain.Quiz) error {
	for _, quiz := range quizzes {
		opts := options.Replace().SetUpsert(true)
		if _, err := l.collection.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, quiz, opts); err != nil {
			return domain.WrapStore("put quiz", err)
		}
	}
	return nil
}
