package database

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongoClient connects to MongoDB and waits until the primary answers a ping.
func NewMongoClient(ctx context.Context, uri string, maxRetries int) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	err = connectWithRetry(ctx, "mongo", maxRetries, func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
