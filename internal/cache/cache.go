package cache

import (
	"context"
	"strconv"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Incr bumps a counter and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// GetInt reads a counter; a missing key reads as 0.
	GetInt(ctx context.Context, key string) (int64, error)
}

// UploadListGenKey holds the owner's list generation. Every insert bumps it,
// so lists computed before the insert land under a key nobody reads again.
func UploadListGenKey(userID string) string {
	return "uploads:owner:" + userID + ":gen"
}

// UploadListKey is where an owner's upload list for one generation is cached.
func UploadListKey(userID string, gen int64) string {
	return "uploads:owner:" + userID + ":v" + strconv.FormatInt(gen, 10)
}
