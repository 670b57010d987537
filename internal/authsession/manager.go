// Package authsession keeps the signed-in user of a client process in sync
// with the session store.
//
// A Manager bootstraps from the store's current session, then follows the
// store's session-change notifications one at a time, in the order they were
// emitted. Every session-present event re-resolves the user from the
// subject's profile, falling back to the session metadata when the profile
// does not exist yet or cannot be read.
package authsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// State is a point-in-time view of the manager.
type State struct {
	User    *domain.ResolvedUser
	Loading bool
}

// Manager owns the resolved user of one client process.
type Manager struct {
	store ports.SessionStore
	log   zerolog.Logger
	queue *eventQueue

	mu      sync.RWMutex
	user    *domain.ResolvedUser
	loading bool
	closed  bool

	started   bool
	cancel    context.CancelFunc
	sub       ports.Subscription
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a Manager in the initializing state. Call Start to begin
// following the store.
func New(store ports.SessionStore, log zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		log:     log,
		queue:   newEventQueue(),
		loading: true,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to session changes and launches the loop that performs
// the initial fetch and then drains notifications. It subscribes before
// fetching so no change emitted during the fetch is lost. Start is a no-op
// after the first call or after Close.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	sub := m.store.Subscribe(m.queue.push)

	m.mu.Lock()
	m.sub = sub
	closed := m.closed
	m.mu.Unlock()
	if closed {
		// Close ran while we were subscribing and found nothing to release.
		sub.Unsubscribe()
	}

	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	m.bootstrap(ctx)

	for {
		ev, ok := m.queue.pop(ctx)
		if !ok {
			return
		}
		m.log.Debug().Str("event", string(ev.Type)).Msg("session change")
		m.set(m.resolve(ctx, ev.Session))
	}
}

func (m *Manager) bootstrap(ctx context.Context) {
	sess, err := m.store.CurrentSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("initial session fetch failed, continuing signed out")
		sess = nil
	}
	user := m.resolve(ctx, sess)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.user = user
	m.loading = false
	close(m.ready)
}

// resolve never fails: a profile lookup error is treated as "no profile".
func (m *Manager) resolve(ctx context.Context, sess *domain.Session) *domain.ResolvedUser {
	if sess == nil {
		return nil
	}
	profile, err := m.store.FindProfile(ctx, sess.User.ID)
	if err != nil {
		m.log.Warn().Err(err).Str("subject", sess.User.ID).Msg("profile lookup failed, using session metadata")
		profile = nil
	}
	return domain.ResolveUser(sess, profile)
}

// set stores user unless the manager has been closed.
func (m *Manager) set(user *domain.ResolvedUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.user = user
}

// Close releases the store subscription exactly once and stops the loop.
// It does not wait for an in-flight lookup; results arriving later are
// discarded. Use Done to wait for the loop to exit.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		cancel, sub, started := m.cancel, m.sub, m.started
		m.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if sub != nil {
			sub.Unsubscribe()
		}
		if !started {
			close(m.done)
		}
	})
}

// Ready is closed once the initial session fetch has been applied.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Done is closed when the manager's loop has exited.
func (m *Manager) Done() <-chan struct{} { return m.done }

// User returns a copy of the resolved user, or nil when signed out.
func (m *Manager) User() *domain.ResolvedUser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// State returns the user and loading flag read together.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := State{Loading: m.loading}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Login checks credentials with the store. The resolved user is updated
// by the resulting session notification, not by Login itself.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if _, err := m.store.SignInWithPassword(ctx, email, password); err != nil {
		m.log.Warn().Err(err).Msg("login failed")
		return fmt.Errorf("login: %w", kind(err))
	}
	return nil
}

// Signup creates an account. name and role travel as session metadata so the
// user resolves before the profile exists.
func (m *Manager) Signup(ctx context.Context, email, password, name string, role domain.Role) error {
	meta := domain.Metadata{FullName: name, Role: string(role)}
	if _, err := m.store.SignUp(ctx, email, password, meta); err != nil {
		m.log.Warn().Err(err).Msg("signup failed")
		return fmt.Errorf("signup: %w", kind(err))
	}
	return nil
}

// Logout ends the session with the store and clears the user before
// returning, whether or not the store call succeeded.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.SignOut(ctx)
	m.set(nil)
	if err != nil {
		m.log.Warn().Err(err).Msg("sign out failed, cleared locally")
		return fmt.Errorf("logout: %w", kind(err))
	}
	return nil
}

var knownKinds = []error{
	domain.ErrInvalidCredentials,
	domain.ErrUserExists,
	domain.ErrInvalidInput,
	domain.ErrSessionExpired,
	domain.ErrLoginRequired,
	domain.ErrForbidden,
	domain.ErrStoreUnavailable,
}

// kind reduces a store error to one of the domain sentinels. Anything
// unrecognised is reported as the store being unavailable.
func kind(err error) error {
	for _, k := range knownKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return domain.ErrStoreUnavailable
}
