// Package mongodb stores quizzes, responses and users in MongoDB.
// Submission transactions need a replica set (a single-node one is enough).
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	quizzesCollection   = "quizzes"
	responsesCollection = "responses"
	usersCollection     = "users"
)

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the store relies on. The unique (userId, quizId)
// index backs the one-response-per-attempt rule.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(responsesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "quizId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "submittedAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create response indexes: %w", err)
	}
	_, err = db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "score", Value: -1}, {Key: "updatedAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = db.Collection(quizzesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "difficulty", Value: 1}, {Key: "category", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create quiz indexes: %w", err)
	}
	return nil
}
