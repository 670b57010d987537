package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cartTTL = 30 * 24 * time.Hour

// CartStore keeps each user's cart as a hash of reward id to quantity under
// cart:<user>. The cart expires after a month without changes.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

func (s *CartStore) Increment(ctx context.Context, userID, rewardID string) (int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, s.key(userID), rewardID, 1)
	pipe.Expire(ctx, s.key(userID), cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cart increment: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *CartStore) Remove(ctx context.Context, userID, rewardID string) error {
	if err := s.client.HDel(ctx, s.key(userID), rewardID).Err(); err != nil {
		return fmt.Errorf("cart remove: %w", err)
	}
	return nil
}

func (s *CartStore) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	out := make(map[string]int, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[id] = n
	}
	return out, nil
}

func (s *CartStore) key(userID string) string {
	return "cart:" + userID
}
