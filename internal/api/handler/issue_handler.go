package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clickclean/civic-platform/internal/api/middleware"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// IssueHandler handles HTTP requests for civic issues.
type IssueHandler struct {
	service ports.IssueService
}

func NewIssueHandler(service ports.IssueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Create handles POST /v1/issues.
//
// @Summary      Report a civic issue
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reportIssueRequest  true  "Issue details"
// @Success      201   {object}  domain.CivicIssue
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/issues [post]
func (h *IssueHandler) Create(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req reportIssueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	issue, err := h.service.Report(c.Request().Context(), ports.ReportIssueInput{
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Priority:    req.Priority,
		ReportedBy:  claims.Subject,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, issue)
}

// List handles GET /v1/issues.
//
// @Summary      List civic issues
// @Tags         issues
// @Produce      json
// @Param        status      query     string  false  "pending, in_progress, resolved or all"
// @Param        type        query     string  false  "Issue type"
// @Param        department  query     string  false  "Assigned department id"
// @Param        mine        query     bool    false  "Only issues reported by the caller"
// @Param        page        query     int     false  "Page (1-based)"
// @Param        limit       query     int     false  "Page size, max 100"
// @Success      200         {object}  listIssuesResponse
// @Failure      401         {object}  errorResponse
// @Failure      422         {object}  errorResponse
// @Router       /v1/issues [get]
func (h *IssueHandler) List(c echo.Context) error {
	var q listIssuesQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	in := ports.ListIssuesInput{
		Status:     q.Status,
		Type:       q.Type,
		Department: q.Department,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.Mine {
		claims := middleware.ClaimsFrom(c)
		if claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		in.ReportedBy = claims.Subject
	}

	res, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listIssuesResponse{
		Items:      res.Items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// Get handles GET /v1/issues/:id.
//
// @Summary      Get an issue
// @Tags         issues
// @Produce      json
// @Param        id   path      string  true  "Issue id"
// @Success      200  {object}  domain.CivicIssue
// @Failure      404  {object}  errorResponse
// @Router       /v1/issues/{id} [get]
func (h *IssueHandler) Get(c echo.Context) error {
	issue, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// UpdateStatus handles PATCH /v1/issues/:id/status.
//
// @Summary      Move an issue to a new status
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Issue id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.CivicIssue
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/issues/{id}/status [patch]
func (h *IssueHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	issue, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// Assign handles PATCH /v1/issues/:id/assign.
//
// @Summary      Assign an issue to a department
// @Tags         issues
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Issue id"
// @Param        body  body      assignIssueRequest  true  "Department"
// @Success      200   {object}  domain.CivicIssue
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/issues/{id}/assign [patch]
func (h *IssueHandler) Assign(c echo.Context) error {
	var req assignIssueRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	issue, err := h.service.Assign(c.Request().Context(), c.Param("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}
