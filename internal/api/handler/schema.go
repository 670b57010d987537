package handler

import (
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type signUpRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role"      validate:"omitempty,oneof=citizen reporter"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionUserResponse struct {
	User *domain.SessionUser `json:"user"`
}

// --- Profiles ---

type updateProfileRequest struct {
	FullName string `json:"full_name" validate:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=citizen reporter municipal admin"`
}

// --- Issues ---

type reportIssueRequest struct {
	Type        string   `json:"type"        validate:"required"`
	Location    string   `json:"location"    validate:"required"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"    validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude"   validate:"omitempty,min=-180,max=180"`
	Priority    string   `json:"priority"    validate:"omitempty,oneof=high medium low"`
}

type listIssuesQuery struct {
	Status     string `query:"status"`
	Type       string `query:"type"`
	Department string `query:"department"`
	Mine       bool   `query:"mine"`
	Page       int    `query:"page"`
	Limit      int    `query:"limit"`
}

type listIssuesResponse struct {
	Items      []*domain.CivicIssue `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress resolved"`
}

type assignIssueRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
}

// --- Pages ---

type addCartItemRequest struct {
	RewardID string `json:"reward_id" validate:"required"`
}

type rewardsResponse struct {
	Categories []string        `json:"categories"`
	Items      []domain.Reward `json:"items"`
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
