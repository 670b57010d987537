package ports

import (
	"context"
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// ListIssuesFilter carries the query parameters for listing issues.
type ListIssuesFilter struct {
	Status     string // optional
	Type       string // optional
	AssignedTo string // optional: department id
	ReportedBy string // optional: subject id
	Page       int    // 1-based
	Limit      int
}

// ReporterCount is the number of resolved issues for one reporter.
type ReporterCount struct {
	UserID   string
	Resolved int
}

// IssueRepository defines persistence operations for civic issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.CivicIssue) error
	FindByID(ctx context.Context, id string) (*domain.CivicIssue, error)
	List(ctx context.Context, filter ListIssuesFilter) ([]*domain.CivicIssue, int64, error)
	// UpdateStatus moves an issue from one status to another. It returns
	// domain.ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.IssueStatus, at time.Time) error
	Assign(ctx context.Context, id, departmentID string, at time.Time) error
	CountByStatus(ctx context.Context) (map[domain.IssueStatus]int64, error)
	// TopReporters returns the limit reporters with the most resolved issues
	// plus any reporters tied with the last of them.
	TopReporters(ctx context.Context, limit int) ([]ReporterCount, error)
}

// ProgressRepository persists training progress per user and module.
type ProgressRepository interface {
	// Find returns (nil, nil) when the user has not started the module.
	Find(ctx context.Context, userID, moduleID string) (*domain.TrainingProgress, error)
	// Save stores p only if the stored progress is still from (0 when no
	// row exists yet) and returns domain.ErrProgressConflict otherwise.
	Save(ctx context.Context, p *domain.TrainingProgress, from int) error
	ListByUser(ctx context.Context, userID string) ([]*domain.TrainingProgress, error)
	CompletedCounts(ctx context.Context, userIDs []string) (map[string]int, error)
}

// CartStore keeps per-user reward quantities.
type CartStore interface {
	Increment(ctx context.Context, userID, rewardID string) (int, error)
	Remove(ctx context.Context, userID, rewardID string) error
	Items(ctx context.Context, userID string) (map[string]int, error)
}
