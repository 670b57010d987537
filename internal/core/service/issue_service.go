package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/api/metrics"
	"github.com/clickclean/civic-platform/internal/core/catalog"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type IssueService struct {
	repo   ports.IssueRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewIssueService(repo ports.IssueRepository, logger zerolog.Logger) *IssueService {
	return &IssueService{repo: repo, logger: logger, now: time.Now}
}

// Report files a new pending issue. Priority defaults to medium.
func (s *IssueService) Report(ctx context.Context, in ports.ReportIssueInput) (*domain.CivicIssue, error) {
	issueType := strings.TrimSpace(in.Type)
	location := strings.TrimSpace(in.Location)
	if issueType == "" || location == "" {
		return nil, fmt.Errorf("%w: type and location are required", domain.ErrInvalidInput)
	}

	priority := domain.PriorityMedium
	if in.Priority != "" {
		priority = domain.Priority(in.Priority)
		if !priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", domain.ErrInvalidInput, in.Priority)
		}
	}

	now := s.now().UTC()
	issue := &domain.CivicIssue{
		ID:           uuid.NewString(),
		Type:         issueType,
		Location:     location,
		Description:  strings.TrimSpace(in.Description),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Status:       domain.IssuePending,
		Priority:     priority,
		ReportedBy:   in.ReportedBy,
		DateReported: now,
		LastUpdate:   now,
	}

	if err := s.repo.Create(ctx, issue); err != nil {
		s.logger.Error().Err(err).Msg("failed to create issue")
		return nil, err
	}

	metrics.IssuesReportedTotal.WithLabelValues(string(priority)).Inc()
	s.logger.Info().Str("issue_id", issue.ID).Str("type", issueType).Str("reported_by", in.ReportedBy).Msg("issue reported")
	return issue, nil
}

func (s *IssueService) Get(ctx context.Context, id string) (*domain.CivicIssue, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a page of issues. Limit defaults to 20 and is capped at 100.
func (s *IssueService) List(ctx context.Context, in ports.ListIssuesInput) (*ports.ListIssuesResult, error) {
	if in.Status != "" && in.Status != "all" && !domain.IssueStatus(in.Status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
	}
	status := in.Status
	if status == "all" {
		status = ""
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListIssuesFilter{
		Status:     status,
		Type:       in.Type,
		AssignedTo: in.Department,
		ReportedBy: in.ReportedBy,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	return &ports.ListIssuesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// UpdateStatus moves an issue along pending -> in_progress -> resolved.
func (s *IssueService) UpdateStatus(ctx context.Context, id, status string) (*domain.CivicIssue, error) {
	next := domain.IssueStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !issue.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, issue.Status, next)
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, issue.Status, next, now); err != nil {
		return nil, err
	}

	metrics.IssueTransitionsTotal.WithLabelValues(string(next)).Inc()
	s.logger.Info().Str("issue_id", id).Str("from", string(issue.Status)).Str("to", string(next)).Msg("issue status updated")

	issue.Status = next
	issue.LastUpdate = now
	return issue, nil
}

// Assign routes an issue to a department from the catalog.
func (s *IssueService) Assign(ctx context.Context, id, departmentID string) (*domain.CivicIssue, error) {
	if _, ok := catalog.Department(departmentID); !ok {
		return nil, domain.ErrDepartmentNotFound
	}

	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.Assign(ctx, id, departmentID, now); err != nil {
		return nil, err
	}

	s.logger.Info().Str("issue_id", id).Str("department_id", departmentID).Msg("issue assigned")
	issue.AssignedTo = departmentID
	issue.LastUpdate = now
	return issue, nil
}
