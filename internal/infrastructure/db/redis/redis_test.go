package redis

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

func newTestClient(t *testing.T) (*mr.Miniredis, *redis.Client) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, client
}

func TestConnect(t *testing.T) {
	m, _ := newTestClient(t)

	client, err := Connect(context.Background(), Config{Addr: m.Addr(), PoolSize: 4})
	require.NoError(t, err)
	require.Equal(t, 4, client.Options().PoolSize)
	require.NoError(t, client.Close())
}

func TestConnect_URLOverridesAddr(t *testing.T) {
	m, _ := newTestClient(t)

	client, err := Connect(context.Background(), Config{
		Addr: "127.0.0.1:1",
		URL:  "redis://" + m.Addr() + "/2",
	})
	require.NoError(t, err)
	require.Equal(t, 2, client.Options().DB)
	require.NoError(t, client.Close())
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.ErrorContains(t, err, "redis ping 127.0.0.1:1")
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "http://nope"})
	require.ErrorContains(t, err, "redis url")
}

func TestDedupChecker(t *testing.T) {
	m, client := newTestClient(t)
	d := NewDedupChecker(client, "profile", profileJobTTL)
	ctx := context.Background()

	dup, err := d.IsDuplicate(ctx, "u1")
	require.NoError(t, err)
	require.False(t, dup)

	require.NoError(t, d.Mark(ctx, "u1"))
	require.True(t, m.Exists("dedup:profile:u1"))
	dup, err = d.IsDuplicate(ctx, "u1")
	require.NoError(t, err)
	require.True(t, dup)

	m.FastForward(profileJobTTL + time.Second)
	dup, err = d.IsDuplicate(ctx, "u1")
	require.NoError(t, err)
	require.False(t, dup)
}

func TestRevocationStore_ExpiresWithToken(t *testing.T) {
	m, client := newTestClient(t)
	s := NewRevocationStore(client)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(2*time.Second).Unix()+1))

	ok, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)

	m.FastForward(5 * time.Second)
	ok, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevocationStore_AlreadyExpiredIsNoop(t *testing.T) {
	m, client := newTestClient(t)
	s := NewRevocationStore(client)

	require.NoError(t, s.Revoke(context.Background(), "jti-old", time.Now().Add(-time.Minute).Unix()))
	require.False(t, m.Exists("revoked:jti-old"))
}

func TestRefreshStore_ConsumeIsSingleUse(t *testing.T) {
	_, client := newTestClient(t)
	s := NewRefreshStore(client)
	ctx := context.Background()

	rs := ports.RefreshSession{Token: "tok-1", Subject: "u1", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	require.NoError(t, s.Save(ctx, rs))

	got, err := s.Consume(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "u1", got.Subject)

	again, err := s.Consume(ctx, "tok-1")
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestRefreshStore_UnknownToken(t *testing.T) {
	_, client := newTestClient(t)
	s := NewRefreshStore(client)

	got, err := s.Consume(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRefreshStore_ExpiredValueIsIgnored(t *testing.T) {
	_, client := newTestClient(t)
	s := NewRefreshStore(client)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, ports.RefreshSession{Token: "tok-1", Subject: "u1", ExpiresAt: time.Now().Add(time.Hour).Unix()}))
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	got, err := s.Consume(ctx, "tok-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRefreshStore_DeleteAllForSubject(t *testing.T) {
	m, client := newTestClient(t)
	s := NewRefreshStore(client)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Unix()

	require.NoError(t, s.Save(ctx, ports.RefreshSession{Token: "a", Subject: "u1", ExpiresAt: exp}))
	require.NoError(t, s.Save(ctx, ports.RefreshSession{Token: "b", Subject: "u1", ExpiresAt: exp}))
	require.NoError(t, s.Save(ctx, ports.RefreshSession{Token: "c", Subject: "u2", ExpiresAt: exp}))

	require.NoError(t, s.DeleteAllForSubject(ctx, "u1"))

	require.False(t, m.Exists("refresh:a"))
	require.False(t, m.Exists("refresh:b"))
	require.True(t, m.Exists("refresh:c"))

	got, err := s.Consume(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestCartStore(t *testing.T) {
	_, client := newTestClient(t)
	s := NewCartStore(client)
	ctx := context.Background()

	n, err := s.Increment(ctx, "u1", "reward-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = s.Increment(ctx, "u1", "reward-1")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = s.Increment(ctx, "u1", "reward-3")
	require.NoError(t, err)

	items, err := s.Items(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"reward-1": 2, "reward-3": 1}, items)

	require.NoError(t, s.Remove(ctx, "u1", "reward-1"))
	items, err = s.Items(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"reward-3": 1}, items)

	empty, err := s.Items(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	_, client := newTestClient(t)
	bus := NewEventBus(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, stop, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer stop()

	require.NoError(t, bus.Publish(ctx, "u2", domain.EventSignedOut))
	require.NoError(t, bus.Publish(ctx, "u1", domain.EventUserUpdated))
	require.NoError(t, bus.Publish(ctx, "u1", domain.EventSignedOut))

	var got []domain.SessionEventType
	for len(got) < 2 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	require.Equal(t, []domain.SessionEventType{domain.EventUserUpdated, domain.EventSignedOut}, got)
}
