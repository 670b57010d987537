package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/core/catalog"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 50
	anonymousReporter      = "Anonymous reporter"
)

type CommunityService struct {
	issues   ports.IssueRepository
	profiles ports.ProfileRepository
	progress ports.ProgressRepository
	logger   zerolog.Logger
}

func NewCommunityService(
	issues ports.IssueRepository,
	profiles ports.ProfileRepository,
	progress ports.ProgressRepository,
	logger zerolog.Logger,
) *CommunityService {
	return &CommunityService{issues: issues, profiles: profiles, progress: progress, logger: logger}
}

// Dashboard summarises issue counts and department availability.
func (s *CommunityService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	counts, err := s.issues.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{ByStatus: make(map[domain.IssueStatus]int64, 3)}
	for _, st := range []domain.IssueStatus{domain.IssuePending, domain.IssueInProgress, domain.IssueResolved} {
		stats.ByStatus[st] = counts[st]
		stats.TotalIssues += counts[st]
	}
	if stats.TotalIssues > 0 {
		stats.ResolutionRate = int((stats.ByStatus[domain.IssueResolved]*100 + stats.TotalIssues/2) / stats.TotalIssues)
	}

	depts := catalog.Departments("")
	stats.Departments = len(depts)
	for _, d := range depts {
		if d.Status == "operational" {
			stats.OperationalDeps++
		}
	}
	return stats, nil
}

// Leaderboard ranks reporters by resolved issues, most first, breaking ties
// by name.
func (s *CommunityService) Leaderboard(ctx context.Context, limit int) ([]domain.ReporterStanding, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	top, err := s.issues.TopReporters(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(top) == 0 {
		return []domain.ReporterStanding{}, nil
	}

	ids := make([]string, 0, len(top))
	for _, r := range top {
		ids = append(ids, r.UserID)
	}

	profiles, err := s.profiles.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("leaderboard: profile lookup failed")
		profiles = nil
	}
	completed, err := s.progress.CompletedCounts(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("leaderboard: training counts failed")
		completed = nil
	}

	out := make([]domain.ReporterStanding, 0, len(top))
	for _, r := range top {
		name := anonymousReporter
		if p, ok := profiles[r.UserID]; ok && p.FullName != "" {
			name = p.FullName
		}
		out = append(out, domain.ReporterStanding{
			UserID:            r.UserID,
			Name:              name,
			IssuesResolved:    r.Resolved,
			TrainingCompleted: completed[r.UserID],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IssuesResolved != out[j].IssuesResolved {
			return out[i].IssuesResolved > out[j].IssuesResolved
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
