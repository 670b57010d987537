package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// profileJobTTL bounds how long a materialised profile suppresses repeat
// jobs for the same subject.
const profileJobTTL = 24 * time.Hour

// DedupChecker remembers handled job subjects under dedup:<namespace>:<subject>.
type DedupChecker struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewDedupChecker(client *redis.Client, namespace string, ttl time.Duration) *DedupChecker {
	return &DedupChecker{client: client, namespace: namespace, ttl: ttl}
}

func (d *DedupChecker) IsDuplicate(ctx context.Context, subject string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(subject)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup %s: %w", d.namespace, err)
	}
	return n == 1, nil
}

func (d *DedupChecker) Mark(ctx context.Context, subject string) error {
	if err := d.client.Set(ctx, d.key(subject), time.Now().Unix(), d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup %s: %w", d.namespace, err)
	}
	return nil
}

func (d *DedupChecker) key(subject string) string {
	return "dedup:" + d.namespace + ":" + subject
}
