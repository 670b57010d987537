package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const sseHeartbeat = 25 * time.Second

// SessionEventSource streams session events for one subject.
type SessionEventSource interface {
	Subscribe(ctx context.Context, subject string) (<-chan domain.SessionEventType, func(), error)
}

type AuthHandler struct {
	authService ports.AuthService
	events      SessionEventSource
	heartbeat   time.Duration
}

func NewAuthHandler(authService ports.AuthService, events SessionEventSource) *AuthHandler {
	return &AuthHandler{authService: authService, events: events, heartbeat: sseHeartbeat}
}

// SignUp creates an account and returns its first session.
//
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Account details"
// @Success      201   {object}  domain.Session
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login authenticates with email and password.
//
// @Summary      Sign in with a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  domain.Session
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh exchanges a refresh token for a new session.
//
// @Summary      Refresh a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  domain.Session
// @Failure      401   {object}  errorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout revokes the caller's tokens on every device.
//
// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.authService.SignOut(c.Request().Context(), *claims); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the account behind the presented access token.
//
// @Summary      Current session user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionUserResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.authService.CurrentUser(c.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionUserResponse{User: user})
}

// Events streams the caller's session events as server-sent events. The
// stream ends after a SIGNED_OUT event.
//
// @Summary      Session event stream
// @Tags         auth
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Failure      401  {object}  errorResponse
// @Router       /auth/events [get]
func (h *AuthHandler) Events(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	events, stop, err := h.events.Subscribe(ctx, claims.Subject)
	if err != nil {
		return err
	}
	defer stop()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case t, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: {\"type\":%q}\n\n", t, t); err != nil {
				return nil
			}
			res.Flush()
			if t == domain.EventSignedOut {
				return nil
			}
		}
	}
}
