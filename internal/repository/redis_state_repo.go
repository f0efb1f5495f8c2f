package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/pau-bookit/bookit-api/internal/models"
)

// DefaultSnapshotKey is the redis key holding the booking document.
const DefaultSnapshotKey = "bookit:state"

type redisStateRepository struct {
	client *redis.Client
	key    string
}

// NewRedisStateRepository stores the booking document under a single redis key.
func NewRedisStateRepository(client *redis.Client, key string) StateRepository {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &redisStateRepository{client: client, key: key}
}

func (r *redisStateRepository) Load(ctx context.Context) (models.BookingDocument, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.BookingDocument{}, nil
	}
	if err != nil {
		return models.BookingDocument{}, err
	}
	return decodeDocument(raw)
}

func (r *redisStateRepository) Save(ctx context.Context, doc models.BookingDocument) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, 0).Err()
}
