// Package cart implements the per-tourist shopping cart as an explicit
// key-value store backed by Redis. Carts are ephemeral: they are not part of
// the relational model and survive only as long as the Redis instance does.
package cart

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store holds tour ids a tourist intends to purchase.
type Store interface {
	Add(ctx context.Context, touristID, tourID string) error
	Remove(ctx context.Context, touristID, tourID string) error
	TourIDs(ctx context.Context, touristID string) ([]string, error)
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed cart store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func cartKey(touristID string) string {
	return fmt.Sprintf("cart:%s", touristID)
}

func (s *redisStore) Add(ctx context.Context, touristID, tourID string) error {
	return s.client.SAdd(ctx, cartKey(touristID), tourID).Err()
}

func (s *redisStore) Remove(ctx context.Context, touristID, tourID string) error {
	return s.client.SRem(ctx, cartKey(touristID), tourID).Err()
}

func (s *redisStore) TourIDs(ctx context.Context, touristID string) ([]string, error) {
	return s.client.SMembers(ctx, cartKey(touristID)).Result()
}
