package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

type stubVerifier struct {
	claims *ports.Claims
	err    error
}

func (v stubVerifier) Verify(_ context.Context, token string) (*ports.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, header string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := mw(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotRun(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	v := stubVerifier{claims: &ports.Claims{Subject: "u1", Email: "asha@example.com", Role: domain.RoleReporter, TokenID: "jti"}}

	called := false
	rec := runAuth(t, Auth(v), "Bearer good", func(c echo.Context) error {
		called = true
		if c.Get(UserIDKey) != "u1" {
			t.Fatalf("user_id not set")
		}
		if c.Get(RoleKey) != "reporter" {
			t.Fatalf("role not set")
		}
		if ClaimsFrom(c) == nil || ClaimsFrom(c).TokenID != "jti" {
			t.Fatalf("claims not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := runAuth(t, Auth(stubVerifier{}), "", mustNotRun(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec := runAuth(t, Auth(stubVerifier{}), "Token abc", mustNotRun(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_VerifierErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrSessionExpired, http.StatusUnauthorized},
		{domain.ErrTokenRevoked, http.StatusUnauthorized},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := runAuth(t, Auth(stubVerifier{err: tc.err}), "Bearer tok", mustNotRun(t))
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
	}
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	called := false
	rec := runAuth(t, OptionalAuth(stubVerifier{}), "", func(c echo.Context) error {
		called = true
		if ClaimsFrom(c) != nil {
			t.Fatalf("expected no claims for anonymous request")
		}
		return c.NoContent(http.StatusOK)
	})
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected anonymous request to pass, got %d", rec.Code)
	}
}

func TestOptionalAuth_BadTokenStillRejected(t *testing.T) {
	rec := runAuth(t, OptionalAuth(stubVerifier{err: domain.ErrInvalidCredentials}), "Bearer bad", mustNotRun(t))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
