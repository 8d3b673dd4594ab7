package db

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	Activities      = "activities"
	Attractions     = "attractions"
	Categories      = "categories"
	Subcategories   = "subcategories"
	Tags            = "tags"
	UserActivities  = "userActivities"
	UserPreferences = "userPreferences"
	Users           = "users"
)

// Connect opens a client to uri and pings it before returning the database.
func Connect(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info().Str("db", name).Msg("connected to MongoDB")
	return client, client.Database(name), nil
}

// EnsureIndexes creates the secondary indexes the list, search and auth
// queries rely on.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UserActivities: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		},
		Activities: {
			{Keys: bson.D{{Key: "activity_full_name", Value: 1}}},
		},
		Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
			{Keys: bson.D{{Key: "provider", Value: 1}, {Key: "providerSubject", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
