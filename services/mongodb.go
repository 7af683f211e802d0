package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("Connected to MongoDB")
	return client, nil
}

// CreateSessionIndexes creates the indexes backing session and credential
// lookups.
func CreateSessionIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sessions := db.Collection(sessionCollection)
	if _, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.M{"session_id": 1},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.M{"expires_at": 1}},
		{Keys: bson.M{"is_active": 1, "expires_at": 1}},
	}); err != nil {
		return err
	}

	credentials := db.Collection(credentialCollection)
	_, err := credentials.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"session_id": 1},
		Options: options.Index().SetUnique(true),
	})
	return err
}
