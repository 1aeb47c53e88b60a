package mongo

import (
	"context"
	"time"

	"github.com/yoockh/sheetlens/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const InsightChunksCollection = "insight_chunks"

type InsightRepository interface {
	InsertChunk(ctx context.Context, c *models.InsightChunk) error
	ListByRun(ctx context.Context, runID string, limit int64) ([]models.InsightChunk, error)
}

type insightRepo struct {
	col *mongo.Collection
}

func NewInsightRepo(db *mongo.Database) InsightRepository {
	return &insightRepo{col: db.Collection(InsightChunksCollection)}
}

func (r *insightRepo) InsertChunk(ctx context.Context, c *models.InsightChunk) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *insightRepo) ListByRun(ctx context.Context, runID string, limit int64) ([]models.InsightChunk, error) {
	if limit <= 0 {
		limit = 2000
	}

	cur, err := r.col.Find(ctx,
		bson.M{"run_id": runID},
		options.Find().
			SetSort(bson.D{{Key: "seq", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.InsightChunk, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
