package ports

import (
	"context"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// ReportIssueInput carries a new issue report.
type ReportIssueInput struct {
	Type        string
	Location    string
	Description string
	Latitude    *float64
	Longitude   *float64
	Priority    string
	ReportedBy  string
}

// ListIssuesInput carries the list endpoint parameters.
type ListIssuesInput struct {
	Status     string
	Type       string
	Department string
	ReportedBy string
	Page       int
	Limit      int
}

// ListIssuesResult is a page of issues.
type ListIssuesResult struct {
	Items      []*domain.CivicIssue
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// IssueService defines use-case operations for civic issues.
type IssueService interface {
	Report(ctx context.Context, in ReportIssueInput) (*domain.CivicIssue, error)
	Get(ctx context.Context, id string) (*domain.CivicIssue, error)
	List(ctx context.Context, in ListIssuesInput) (*ListIssuesResult, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.CivicIssue, error)
	Assign(ctx context.Context, id, departmentID string) (*domain.CivicIssue, error)
}

// ModuleView is a training module with the caller's progress.
type ModuleView struct {
	domain.TrainingModule
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// TrainingService serves the training page.
type TrainingService interface {
	Modules(ctx context.Context, userID string) ([]ModuleView, error)
	Advance(ctx context.Context, userID, moduleID string) (*domain.TrainingProgress, error)
}

// MarketplaceService serves rewards and carts.
type MarketplaceService interface {
	Rewards(category string) []domain.Reward
	AddToCart(ctx context.Context, userID, rewardID string) (*domain.Cart, error)
	RemoveFromCart(ctx context.Context, userID, rewardID string) (*domain.Cart, error)
	Cart(ctx context.Context, userID string) (*domain.Cart, error)
}

// CommunityService serves the dashboard and leaderboard.
type CommunityService interface {
	Dashboard(ctx context.Context) (*domain.DashboardStats, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.ReporterStanding, error)
}
