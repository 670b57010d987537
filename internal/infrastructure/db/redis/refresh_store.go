package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clickclean/civic-platform/internal/core/ports"
)

// RefreshStore keeps refresh sessions as JSON under refresh:<token> with a
// TTL matching their expiry, and indexes them per subject in the set
// refresh:subject:<subject> so a sign-out can drop them all.
type RefreshStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRefreshStore(client *redis.Client) *RefreshStore {
	return &RefreshStore{client: client, now: time.Now}
}

func (s *RefreshStore) Save(ctx context.Context, rs ports.RefreshSession) error {
	b, err := json.Marshal(rs)
	if err != nil {
		return err
	}
	ttl := time.Unix(rs.ExpiresAt, 0).Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.tokenKey(rs.Token), b, ttl)
	pipe.SAdd(ctx, s.subjectKey(rs.Subject), rs.Token)
	pipe.Expire(ctx, s.subjectKey(rs.Subject), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// Consume reads and deletes the token in one transaction.
func (s *RefreshStore) Consume(ctx context.Context, token string) (*ports.RefreshSession, error) {
	pipe := s.client.TxPipeline()
	get := pipe.Get(ctx, s.tokenKey(token))
	pipe.Del(ctx, s.tokenKey(token))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	b, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var rs ports.RefreshSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, err
	}
	_ = s.client.SRem(ctx, s.subjectKey(rs.Subject), token).Err()

	if s.now().Unix() >= rs.ExpiresAt {
		return nil, nil
	}
	return &rs, nil
}

func (s *RefreshStore) DeleteAllForSubject(ctx context.Context, subject string) error {
	tokens, err := s.client.SMembers(ctx, s.subjectKey(subject)).Result()
	if err != nil {
		return fmt.Errorf("list refresh sessions: %w", err)
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, s.tokenKey(t))
	}
	keys = append(keys, s.subjectKey(subject))
	return s.client.Del(ctx, keys...).Err()
}

func (s *RefreshStore) tokenKey(token string) string {
	return "refresh:" + token
}

func (s *RefreshStore) subjectKey(subject string) string {
	return "refresh:subject:" + subject
}
