package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpenMongo connects to MongoDB, prepares indexes and returns a Store
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	users := NewMongoUserRepository(db)
	thoughts := NewMongoThoughtRepository(db)

	if err := users.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := thoughts.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Store{
		Driver:   "mongo",
		Users:    users,
		Thoughts: thoughts,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

// mongoDuplicateField extracts the offending field from an E11000 message,
// e.g. "index: username_1 dup key".
func mongoDuplicateField(err error) string {
	msg := err.Error()
	for _, field := range []string{"username", "email"} {
		if strings.Contains(msg, "index: "+field+"_") {
			return field
		}
	}
	return "key"
}
