package webhook

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	updateQueueKey  = "telegram:updates"
	dedupeKeyPrefix = "telegram:update:"
)

// Deduper claims an update_id for at-most-once processing
type Deduper interface {
	// FirstDelivery returns true when updateID has not been seen within the TTL
	FirstDelivery(ctx context.Context, updateID int64) (bool, error)
	// Release frees a claimed updateID so a later redelivery can succeed
	Release(ctx context.Context, updateID int64) error
}

// Enqueuer hands an accepted update off for asynchronous processing
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper dedupes update_ids with SET NX over a shared Redis
func NewRedisDeduper(client *redis.Client, ttl time.Duration) Deduper {
	return &redisDeduper{client: client, ttl: ttl}
}

func (d *redisDeduper) FirstDelivery(ctx context.Context, updateID int64) (bool, error) {
	return d.client.SetNX(ctx, dedupeKey(updateID), 1, d.ttl).Result()
}

func (d *redisDeduper) Release(ctx context.Context, updateID int64) error {
	return d.client.Del(ctx, dedupeKey(updateID)).Err()
}

func dedupeKey(updateID int64) string {
	return dedupeKeyPrefix + strconv.FormatInt(updateID, 10)
}

type redisEnqueuer struct {
	client *redis.Client
}

// NewRedisEnqueuer pushes raw update payloads onto the worker queue list
func NewRedisEnqueuer(client *redis.Client) Enqueuer {
	return &redisEnqueuer{client: client}
}

func (e *redisEnqueuer) Enqueue(ctx context.Context, payload []byte) error {
	return e.client.LPush(ctx, updateQueueKey, payload).Err()
}
