package config

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongorepo "github.com/yoockh/sheetlens/internal/repositories/mongo"
)

func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chunks := db.Collection(mongorepo.InsightChunksCollection)
	_, err := chunks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// expires_at must be a Date for the TTL monitor
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_expires_at").
				SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().
				SetName("uniq_run_seq").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "upload_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("by_upload_ts"),
		},
	})
	return err
}
