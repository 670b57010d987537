package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

func runAction(t *testing.T, action domain.Action, claims *ports.Claims) (int, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(ClaimsKey, claims)
	}

	called := false
	handler := RequireAction(domain.DefaultPolicy, action)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, called
}

func TestRequireAction_Allows(t *testing.T) {
	code, called := runAction(t, domain.ActionUpdateIssueStatus, &ports.Claims{Subject: "u9", Role: domain.RoleMunicipal})
	if !called || code != http.StatusOK {
		t.Fatalf("expected municipal to update status, got %d", code)
	}
}

func TestRequireAction_AnonymousNeedsLogin(t *testing.T) {
	code, called := runAction(t, domain.ActionReportIssue, nil)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAction_Forbids(t *testing.T) {
	code, called := runAction(t, domain.ActionSetRole, &ports.Claims{Subject: "u1", Role: domain.RoleReporter})
	if called {
		t.Fatalf("should not reach next handler")
	}
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}
