package app

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongoClient connects to MongoDB and validates connectivity.
// Index management lives with the stores, not here.
func NewMongoClient(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(cfg.MongoMaxPool)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, client, 3*time.Second); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client, nil
}

// PingDB checks the primary is reachable within timeout.
func PingDB(parent context.Context, client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}
