package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommandLogIndexes are the indexes backing the stats queries on the
// command log collection.
func CommandLogIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_command_logs_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_command_logs_user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "success", Value: 1}, {Key: "command_name", Value: 1}},
			Options: options.Index().SetName("idx_command_logs_success_command"),
		},
	}
}

// EnsureMongoCollection creates collection if it is missing and applies indexes.
// Indexes that already exist are left alone.
func EnsureMongoCollection(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if len(names) == 0 {
		if err := db.CreateCollection(ctx, collection); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("failed to create collection %s: %w", collection, err)
		}
	}

	if len(indexes) == 0 {
		return nil
	}
	if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	var cmdErr mongo.CommandError
	// 48 NamespaceExists, 85 IndexOptionsConflict
	if errors.As(err, &cmdErr) && (cmdErr.Code == 48 || cmdErr.Code == 85) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}
