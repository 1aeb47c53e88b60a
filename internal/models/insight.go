package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InsightChunk struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	RunID    string             `bson:"run_id" json:"run_id"`
	UploadID string             `bson:"upload_id" json:"upload_id"`
	UserID   string             `bson:"user_id" json:"user_id"`
	Seq      int64              `bson:"seq" json:"seq"`
	Text     string             `bson:"text" json:"chunk"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	ExpiresAt time.Time `bson:"expires_at" json:"-"` // for TTL index
}
