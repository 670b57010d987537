package sessionstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// watchEvents follows GET /auth/events for the current session, reconnecting
// after failures and whenever the session generation changes.
func (c *Client) watchEvents(ctx context.Context, done chan struct{}) {
	defer close(done)
	log := c.log.With().Str("component", "session-events").Logger()

	for {
		sess, gen := c.generation()
		if sess == nil {
			select {
			case <-ctx.Done():
				return
			case <-c.changed:
				continue
			}
		}

		err := c.readStream(ctx, sess, gen)
		if ctx.Err() != nil {
			return
		}
		if isUnauthorized(err) {
			if _, rerr := c.refresh(ctx, sess); rerr == nil {
				continue
			}
		}
		if err != nil {
			log.Debug().Err(err).Msg("event stream dropped")
		}

		select {
		case <-ctx.Done():
			return
		case <-c.changed:
		case <-time.After(c.retryDelay):
		}
	}
}

// readStream reads one SSE connection until it ends. The connection is torn
// down early when the session generation moves on.
func (c *Client) readStream(ctx context.Context, sess *domain.Session, gen uint64) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}
	c.streamCancel = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.streamCancel = nil
		c.mu.Unlock()
	}()

	req, err := c.newRequest(sctx, http.MethodGet, "/auth/events", sess.AccessToken, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if sctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseResponse(resp, nil)
	}
	defer resp.Body.Close()

	var eventType string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if eventType != "" {
				c.dispatch(domain.SessionEventType(eventType), gen)
			}
			eventType = ""
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) && sctx.Err() == nil {
		return err
	}
	return nil
}

// dispatch turns a server event for generation gen into a local
// notification. Events about a generation that has already ended are
// dropped, which covers the echo of a local sign-out.
func (c *Client) dispatch(t domain.SessionEventType, gen uint64) {
	switch t {
	case domain.EventSignedOut:
		c.commit(domain.EventSignedOut, func() (*domain.Session, bool) {
			return nil, c.replace(nil, &gen)
		})
	case domain.EventUserUpdated:
		c.commit(domain.EventUserUpdated, func() (*domain.Session, bool) {
			cur, g := c.generation()
			return cur, cur != nil && g == gen
		})
	}
}
