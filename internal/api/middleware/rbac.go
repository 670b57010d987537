package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// RequireAction enforces the access policy entry for action. It must run
// after Auth or OptionalAuth: anonymous callers get 401 when the action
// needs a login, signed-in callers with the wrong role get 403.
func RequireAction(policy domain.AccessPolicy, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var user *domain.ResolvedUser
			if claims := ClaimsFrom(c); claims != nil {
				user = &domain.ResolvedUser{ID: claims.Subject, Email: claims.Email, Role: claims.Role}
			}

			if err := policy.Check(action, user); err != nil {
				if errors.Is(err, domain.ErrLoginRequired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "login required")
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
