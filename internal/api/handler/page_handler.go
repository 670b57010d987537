package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/api/middleware"
	"github.com/clickclean/civic-platform/internal/core/catalog"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// PageHandler serves the read-mostly pages: dashboard, departments,
// training, leaderboard and marketplace.
type PageHandler struct {
	community   ports.CommunityService
	training    ports.TrainingService
	marketplace ports.MarketplaceService
}

func NewPageHandler(community ports.CommunityService, training ports.TrainingService, marketplace ports.MarketplaceService) *PageHandler {
	return &PageHandler{community: community, training: training, marketplace: marketplace}
}

// Dashboard godoc
//
// @Summary      Platform statistics
// @Tags         pages
// @Produce      json
// @Success      200  {object}  domain.DashboardStats
// @Router       /v1/dashboard [get]
func (h *PageHandler) Dashboard(c echo.Context) error {
	stats, err := h.community.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Departments godoc
//
// @Summary      Municipal departments
// @Tags         pages
// @Produce      json
// @Param        type  query  string  false  "Department type, or all"
// @Success      200   {array}  domain.Department
// @Router       /v1/departments [get]
func (h *PageHandler) Departments(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.Departments(c.QueryParam("type")))
}

// Training lists the modules, with the caller's progress when signed in.
//
// @Summary      Training modules
// @Tags         pages
// @Produce      json
// @Success      200  {array}  ports.ModuleView
// @Router       /v1/training [get]
func (h *PageHandler) Training(c echo.Context) error {
	userID := ""
	if claims := middleware.ClaimsFrom(c); claims != nil {
		userID = claims.Subject
	}
	views, err := h.training.Modules(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// AdvanceTraining godoc
//
// @Summary      Complete the next lesson of a module
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Module id"
// @Success      200  {object}  domain.TrainingProgress
// @Failure      404  {object}  errorResponse
// @Router       /v1/training/{id}/advance [post]
func (h *PageHandler) AdvanceTraining(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	p, err := h.training.Advance(c.Request().Context(), claims.Subject, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Leaderboard godoc
//
// @Summary      Top reporters by resolved issues
// @Tags         pages
// @Produce      json
// @Param        limit  query  int  false  "Rows, max 50"
// @Success      200    {array}  domain.ReporterStanding
// @Router       /v1/leaderboard [get]
func (h *PageHandler) Leaderboard(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		limit = n
	}
	rows, err := h.community.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// Rewards godoc
//
// @Summary      Marketplace rewards
// @Tags         marketplace
// @Produce      json
// @Param        category  query  string  false  "Reward category, or all"
// @Success      200       {object}  rewardsResponse
// @Router       /v1/rewards [get]
func (h *PageHandler) Rewards(c echo.Context) error {
	return c.JSON(http.StatusOK, rewardsResponse{
		Categories: catalog.RewardCategories,
		Items:      h.marketplace.Rewards(c.QueryParam("category")),
	})
}

// Cart godoc
//
// @Summary      Caller's cart
// @Tags         marketplace
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Cart
// @Router       /v1/cart [get]
func (h *PageHandler) Cart(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	cart, err := h.marketplace.Cart(c.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// AddToCart godoc
//
// @Summary      Add a reward to the cart
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addCartItemRequest  true  "Reward"
// @Success      200   {object}  domain.Cart
// @Failure      404   {object}  errorResponse
// @Router       /v1/cart/items [post]
func (h *PageHandler) AddToCart(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req addCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cart, err := h.marketplace.AddToCart(c.Request().Context(), claims.Subject, req.RewardID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// RemoveFromCart godoc
//
// @Summary      Remove a reward from the cart
// @Tags         marketplace
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reward id"
// @Success      200  {object}  domain.Cart
// @Failure      404  {object}  errorResponse
// @Router       /v1/cart/items/{id} [delete]
func (h *PageHandler) RemoveFromCart(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	cart, err := h.marketplace.RemoveFromCart(c.Request().Context(), claims.Subject, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}
