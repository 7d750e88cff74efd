package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"chatdb/pkg/logger"
)

// Collection names owned or joined by this layer.
const (
	MessagesCollection = "messages"
	RoomsCollection    = "rooms"
)

var (
	client *mongo.Client
	db     *mongo.Database
)

// Open connects to the document store at the given URI and keeps a global
// handle for simple usage in this package.
func Open(uri, dbName string) error {
	logger.Info("opening_mongo", "db", dbName)
	c, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("mongo_connect_failed", "error", err)
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		logger.Error("mongo_ping_failed", "error", err)
		return fmt.Errorf("failed to ping document store: %w", err)
	}
	client = c
	db = c.Database(dbName)
	logger.Info("mongo_connected", "db", dbName)
	return nil
}

// Close disconnects the client if present.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Disconnect(context.Background())
	client = nil
	db = nil
	if err != nil {
		return err
	}
	logger.Info("mongo_closed")
	return nil
}

// Ready reports whether the store is connected and ready.
func Ready() bool {
	return db != nil
}

// Database returns the global database handle.
func Database() *mongo.Database {
	return db
}

// Collection returns a handle for the named collection.
func Collection(name string) *mongo.Collection {
	return db.Collection(name)
}

// SecondaryCollection returns a handle that prefers reading from a
// secondary replica. Reporting aggregations use it to keep analytics load
// off the primary.
func SecondaryCollection(name string) *mongo.Collection {
	return db.Collection(name, options.Collection().SetReadPreference(readpref.SecondaryPreferred()))
}
