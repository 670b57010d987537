package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionUserResponse struct {
	User *domain.SessionUser `json:"user"`
}

// CurrentSession returns the stored session after checking it with the
// server. An expired or rejected access token is refreshed once; when that
// fails the session is cleared and (nil, nil) is returned.
func (c *Client) CurrentSession(ctx context.Context) (*domain.Session, error) {
	sess, gen := c.generation()
	if sess == nil {
		return nil, nil
	}
	if !sess.ExpiresAt.IsZero() && time.Now().After(sess.ExpiresAt) {
		return c.refresh(ctx, sess)
	}

	var out sessionUserResponse
	err := c.do(ctx, http.MethodGet, "/auth/session", sess.AccessToken, nil, &out)
	if isUnauthorized(err) {
		return c.refresh(ctx, sess)
	}
	if err != nil {
		return nil, err
	}
	if out.User != nil {
		sess.User = *out.User
		c.update(sess, gen)
	}
	return sess, nil
}

// SignInWithPassword exchanges credentials for a session and announces it
// with SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	var sess domain.Session
	err := c.do(ctx, http.MethodPost, "/auth/login", "", credentialsRequest{Email: email, Password: password}, &sess)
	if isUnauthorized(err) {
		return nil, fmt.Errorf("sign in: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	c.commit(domain.EventSignedIn, func() (*domain.Session, bool) {
		return &sess, c.replace(&sess, nil)
	})
	return copySession(&sess), nil
}

// SignUp creates an account carrying meta and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string, meta domain.Metadata) (*domain.Session, error) {
	req := signUpRequest{Email: email, Password: password, FullName: meta.FullName, Role: meta.Role}
	var sess domain.Session
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &sess); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	c.commit(domain.EventSignedIn, func() (*domain.Session, bool) {
		return &sess, c.replace(&sess, nil)
	})
	return copySession(&sess), nil
}

// SignOut forgets the local session, announces SIGNED_OUT and then asks the
// server to revoke it. The local session is gone even when the server call
// fails.
func (c *Client) SignOut(ctx context.Context) error {
	var token string
	c.commit(domain.EventSignedOut, func() (*domain.Session, bool) {
		cur := c.Session()
		if cur == nil {
			return nil, false
		}
		token = cur.AccessToken
		return nil, c.replace(nil, nil)
	})
	if token == "" {
		return nil
	}

	err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
	if err == nil || isUnauthorized(err) {
		return nil
	}
	return fmt.Errorf("sign out: %w", err)
}

// refresh trades stale's refresh token for a new session. Refresh tokens
// are single use, so concurrent callers are serialised and a caller whose
// token was already traded gets the newer session. A rejected token clears
// the session and announces SIGNED_OUT.
func (c *Client) refresh(ctx context.Context, stale *domain.Session) (*domain.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur, gen := c.generation()
	if cur == nil {
		return nil, nil
	}
	if cur.RefreshToken != stale.RefreshToken {
		return cur, nil
	}

	var next domain.Session
	err := c.do(ctx, http.MethodPost, "/auth/refresh", "", refreshRequest{RefreshToken: cur.RefreshToken}, &next)
	if isUnauthorized(err) || errors.Is(err, domain.ErrInvalidInput) {
		c.log.Info().Str("subject", cur.User.ID).Msg("refresh rejected, signing out")
		c.commit(domain.EventSignedOut, func() (*domain.Session, bool) {
			return nil, c.replace(nil, &gen)
		})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if !c.commit(domain.EventTokenRefreshed, func() (*domain.Session, bool) {
		return &next, c.update(&next, gen)
	}) {
		return c.Session(), nil
	}
	return copySession(&next), nil
}

// FindProfile fetches the profile of subjectID. It returns (nil, nil) when
// there is none or when there is no session to ask with.
func (c *Client) FindProfile(ctx context.Context, subjectID string) (*domain.Profile, error) {
	var p domain.Profile
	err := c.authorized(ctx, http.MethodGet, "/profiles/"+url.PathEscape(subjectID), nil, &p)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, domain.ErrLoginRequired):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}
