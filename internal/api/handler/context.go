package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/api/middleware"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// ctxClaims extracts the claims injected by the Auth middleware. A missing
// subject means the route was mounted without Auth; reject with 401 rather
// than act anonymously.
func ctxClaims(c echo.Context) (*ports.Claims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.Subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// bindAndValidate decodes the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	return nil
}
