package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/api/middleware"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

type stubAuthService struct {
	signUpFn  func(ctx context.Context, in ports.SignUpInput) (*domain.Session, error)
	signInFn  func(ctx context.Context, email, password string) (*domain.Session, error)
	refreshFn func(ctx context.Context, token string) (*domain.Session, error)
	signedOut []ports.Claims
	users     map[string]*domain.SessionUser
}

func (s *stubAuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Session, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) SignOut(_ context.Context, claims ports.Claims) error {
	s.signedOut = append(s.signedOut, claims)
	return nil
}

func (s *stubAuthService) CurrentUser(_ context.Context, subject string) (*domain.SessionUser, error) {
	u, ok := s.users[subject]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubAuthService) Verify(context.Context, string) (*ports.Claims, error) {
	return nil, domain.ErrInvalidCredentials
}

type stubEventSource struct {
	ch      chan domain.SessionEventType
	stopped bool
}

func (s *stubEventSource) Subscribe(context.Context, string) (<-chan domain.SessionEventType, func(), error) {
	return s.ch, func() { s.stopped = true }, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withClaims(c echo.Context, subject string, role domain.Role) {
	c.Set(middleware.ClaimsKey, &ports.Claims{Subject: subject, Role: role, TokenID: "jti-1"})
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func sampleSession(id string) *domain.Session {
	return &domain.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         domain.SessionUser{ID: id, Email: id + "@example.com"},
	}
}

func TestAuthHandler_SignUp_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signUpFn: func(_ context.Context, in ports.SignUpInput) (*domain.Session, error) {
			if in.Email != "asha@example.com" || in.FullName != "Asha" || in.Role != "reporter" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return sampleSession("u1"), nil
		},
	}
	h := NewAuthHandler(stub, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/signup",
		`{"email":"asha@example.com","password":"secret1","full_name":"Asha","role":"reporter"}`)
	rec := httptest.NewRecorder()

	if err := h.SignUp(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "access" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_SignUp_ShortPassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.Session, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/signup",
		`{"email":"asha@example.com","password":"123","full_name":"Asha"}`)
	err := h.SignUp(e.NewContext(req, httptest.NewRecorder()))

	if code := httpStatus(t, err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if !strings.Contains(err.Error(), "password must be at least 6 characters") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestAuthHandler_SignUp_StaffRoleRejected(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/signup",
		`{"email":"asha@example.com","password":"secret1","full_name":"Asha","role":"admin"}`)
	err := h.SignUp(e.NewContext(req, httptest.NewRecorder()))

	if code := httpStatus(t, err); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
}

func TestAuthHandler_SignUp_UserExists(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signUpFn: func(context.Context, ports.SignUpInput) (*domain.Session, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/signup",
		`{"email":"asha@example.com","password":"secret1","full_name":"Asha"}`)
	err := h.SignUp(e.NewContext(req, httptest.NewRecorder()))

	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/login", "not-json")
	err := h.Login(e.NewContext(req, httptest.NewRecorder()))

	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		signInFn: func(_ context.Context, email, password string) (*domain.Session, error) {
			if email != "asha@example.com" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return sampleSession("u1"), nil
		},
	}
	h := NewAuthHandler(stub, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"secret1"}`)
	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Refresh_Expired(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		refreshFn: func(context.Context, string) (*domain.Session, error) {
			return nil, domain.ErrSessionExpired
		},
	}
	h := NewAuthHandler(stub, &stubEventSource{})

	req := jsonRequest(http.MethodPost, "/auth/refresh", `{"refresh_token":"stale"}`)
	err := h.Refresh(e.NewContext(req, httptest.NewRecorder()))
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{}
	h := NewAuthHandler(stub, &stubEventSource{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)
	withClaims(c, "u1", domain.RoleCitizen)

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(stub.signedOut) != 1 || stub.signedOut[0].TokenID != "jti-1" {
		t.Fatalf("expected one sign out for jti-1, got %+v", stub.signedOut)
	}
}

func TestAuthHandler_Session_MissingClaims(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubEventSource{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/session", nil), httptest.NewRecorder())
	if code := httpStatus(t, h.Session(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthHandler_Session(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{users: map[string]*domain.SessionUser{
		"u1": {ID: "u1", Email: "asha@example.com", Metadata: domain.Metadata{FullName: "Asha"}},
	}}
	h := NewAuthHandler(stub, &stubEventSource{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/session", nil), rec)
	withClaims(c, "u1", domain.RoleCitizen)

	if err := h.Session(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sessionUserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User == nil || resp.User.Metadata.FullName != "Asha" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestAuthHandler_Events_StreamsUntilSignedOut(t *testing.T) {
	e := newTestEcho()
	src := &stubEventSource{ch: make(chan domain.SessionEventType, 3)}
	src.ch <- domain.EventTokenRefreshed
	src.ch <- domain.EventSignedOut
	src.ch <- domain.EventSignedIn
	h := NewAuthHandler(&stubAuthService{}, src)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/events", nil), rec)
	withClaims(c, "u1", domain.RoleCitizen)

	if err := h.Events(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	body := rec.Body.String()
	if got := rec.Header().Get(echo.HeaderContentType); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(body, "event: TOKEN_REFRESHED\ndata: {\"type\":\"TOKEN_REFRESHED\"}\n\n") {
		t.Fatalf("missing refresh event in %q", body)
	}
	if !strings.Contains(body, "event: SIGNED_OUT") {
		t.Fatalf("missing sign out event in %q", body)
	}
	if strings.Contains(body, "SIGNED_IN") {
		t.Fatalf("stream should end at SIGNED_OUT, got %q", body)
	}
	if !src.stopped {
		t.Fatalf("subscription was not stopped")
	}
}
