// Package sessionstore is the client side of the civic API's session store.
//
// Client keeps the caller's session in memory (and optionally in a file
// between runs), emits session-change notifications to subscribers in the
// order they happen, and exposes the data endpoints the civic shell uses.
package sessionstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("too many attempts, try again later")
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// SessionFile persists the session between runs. Empty keeps it in
	// memory only.
	SessionFile string
	Timeout     time.Duration
	// WatchEvents follows the server's session event stream while there are
	// subscribers, so a sign-out from another device reaches this process.
	WatchEvents bool
	// RetryDelay is the pause before reconnecting a dropped event stream.
	RetryDelay time.Duration
	Logger     zerolog.Logger
}

// Client talks to the civic API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *http.Client
	stream     *http.Client
	file       string
	watch      bool
	retryDelay time.Duration
	log        zerolog.Logger

	mu      sync.Mutex
	session *domain.Session
	// gen changes on sign-in and sign-out, never on refresh.
	gen          uint64
	changed      chan struct{}
	streamCancel context.CancelFunc

	refreshMu sync.Mutex

	subMu       sync.Mutex
	subs        map[int]ports.SessionHandler
	nextID      int
	watchCancel context.CancelFunc
	watchDone   chan struct{}

	emitMu sync.Mutex
}

var _ ports.SessionStore = (*Client)(nil)

// New builds a Client and restores the session from opts.SessionFile when
// one was saved.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	c := &Client{
		baseURL:    opts.BaseURL,
		http:       &http.Client{Timeout: opts.Timeout},
		stream:     &http.Client{},
		file:       opts.SessionFile,
		watch:      opts.WatchEvents,
		retryDelay: opts.RetryDelay,
		log:        opts.Logger,
		changed:    make(chan struct{}, 1),
		subs:       make(map[int]ports.SessionHandler),
	}
	c.session = c.load()
	return c
}

// Session returns a copy of the stored session, or nil.
func (c *Client) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session)
}

func copySession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// replace installs s (nil to clear) as a new generation, which restarts the
// event stream. With want set, nothing happens unless the generation is
// still *want.
func (c *Client) replace(s *domain.Session, want *uint64) bool {
	c.mu.Lock()
	if want != nil && c.gen != *want {
		c.mu.Unlock()
		return false
	}
	c.session = copySession(s)
	c.gen++
	cancel := c.streamCancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	select {
	case c.changed <- struct{}{}:
	default:
	}
	c.persist(s)
	return true
}

// update swaps the session within generation gen.
func (c *Client) update(s *domain.Session, gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.session = copySession(s)
	c.mu.Unlock()
	c.persist(s)
	return true
}

func (c *Client) generation() (*domain.Session, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session), c.gen
}

func (c *Client) load() *domain.Session {
	if c.file == "" {
		return nil
	}
	data, err := os.ReadFile(c.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn().Err(err).Str("file", c.file).Msg("could not read session file")
		}
		return nil
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil || s.AccessToken == "" {
		c.log.Warn().Str("file", c.file).Msg("ignoring unreadable session file")
		return nil
	}
	return &s
}

func (c *Client) persist(s *domain.Session) {
	if c.file == "" {
		return
	}
	if s == nil {
		if err := os.Remove(c.file); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warn().Err(err).Str("file", c.file).Msg("could not remove session file")
		}
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.log.Error().Err(err).Msg("could not encode session")
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.file), 0o700); err != nil {
		c.log.Warn().Err(err).Str("file", c.file).Msg("could not create session directory")
		return
	}
	if err := os.WriteFile(c.file, data, 0o600); err != nil {
		c.log.Warn().Err(err).Str("file", c.file).Msg("could not write session file")
	}
}

// Subscribe registers handler for session-change notifications. Handlers
// run on the goroutine that caused the change and must not block.
func (c *Client) Subscribe(handler ports.SessionHandler) ports.Subscription {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs[id] = handler

	if c.watch && c.watchCancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.watchCancel = cancel
		c.watchDone = make(chan struct{})
		go c.watchEvents(ctx, c.watchDone)
	}
	return &subscription{client: c, id: id}
}

type subscription struct {
	client *Client
	id     int
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.client.unsubscribe(s.id) })
}

func (c *Client) unsubscribe(id int) {
	c.subMu.Lock()
	delete(c.subs, id)
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	if len(c.subs) == 0 && c.watchCancel != nil {
		cancel, done = c.watchCancel, c.watchDone
		c.watchCancel, c.watchDone = nil, nil
	}
	c.subMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Close stops the event watcher, if any. Subscriptions stay registered.
func (c *Client) Close() {
	c.subMu.Lock()
	cancel, done := c.watchCancel, c.watchDone
	c.watchCancel, c.watchDone = nil, nil
	c.subMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	c.http.CloseIdleConnections()
	c.stream.CloseIdleConnections()
}

// commit applies a session change and notifies subscribers while holding
// emitMu, so notifications go out in the order the changes were made.
// apply reports the session to announce and whether anything changed.
func (c *Client) commit(t domain.SessionEventType, apply func() (*domain.Session, bool)) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	s, ok := apply()
	if !ok {
		return false
	}

	c.subMu.Lock()
	handlers := make([]ports.SessionHandler, 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.subMu.Unlock()

	c.log.Debug().Str("event", string(t)).Int("subscribers", len(handlers)).Msg("session event")
	for _, h := range handlers {
		h(domain.SessionEvent{Type: t, Session: copySession(s)})
	}
	return true
}

// apiError is a non-2xx response. It unwraps to the domain error matching
// its status.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

func (e *apiError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	case e.Status == http.StatusUnauthorized:
		return domain.ErrSessionExpired
	case e.Status == http.StatusForbidden:
		return domain.ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return domain.ErrUserExists
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return domain.ErrStoreUnavailable
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// newRequest builds a JSON request; token is sent as a bearer credential
// when set.
func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do performs one request and decodes a 2xx body into target.
func (c *Client) do(ctx context.Context, method, path, token string, body, target any) error {
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrStoreUnavailable, err)
	}
	return parseResponse(resp, target)
}

func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return &apiError{Status: resp.StatusCode, Message: errResp.Error}
		}
		return &apiError{Status: resp.StatusCode}
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return nil
}

// authorized sends a request with the current access token, refreshing
// and retrying once when the server rejects it.
func (c *Client) authorized(ctx context.Context, method, path string, body, target any) error {
	sess := c.Session()
	if sess == nil {
		return domain.ErrLoginRequired
	}
	err := c.do(ctx, method, path, sess.AccessToken, body, target)
	if !isUnauthorized(err) {
		return err
	}
	sess, err = c.refresh(ctx, sess)
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrLoginRequired
	}
	return c.do(ctx, method, path, sess.AccessToken, body, target)
}

// optional behaves like authorized when signed in and sends an anonymous
// request otherwise.
func (c *Client) optional(ctx context.Context, method, path string, target any) error {
	if c.Session() == nil {
		return c.do(ctx, method, path, "", nil, target)
	}
	err := c.authorized(ctx, method, path, nil, target)
	if errors.Is(err, domain.ErrLoginRequired) {
		return c.do(ctx, method, path, "", nil, target)
	}
	return err
}

func isUnauthorized(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}
