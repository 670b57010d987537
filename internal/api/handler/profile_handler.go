package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/core/ports"
)

type ProfileHandler struct {
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get returns a profile. A freshly created account may not have one yet.
//
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subject id"
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /profiles/{id} [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateMe changes the caller's display name.
//
// @Summary      Update own profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "New name"
// @Success      200   {object}  domain.Profile
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /profiles/me [patch]
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.UpdateName(c.Request().Context(), claims.Subject, req.FullName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// SetRole grants a role to a user. Admin only.
//
// @Summary      Set a user's role
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Subject id"
// @Param        body  body      setRoleRequest  true  "Role"
// @Success      200   {object}  domain.Profile
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /profiles/{id}/role [put]
func (h *ProfileHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.SetRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
