package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clickclean/civic-platform/internal/api/metrics"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis) for profile jobs.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, subject string) (bool, error)
	Mark(ctx context.Context, subject string) error
}

type profileService struct {
	repo   ports.ProfileRepository
	events ports.SessionEventPublisher
	dedup  DedupChecker
	log    zerolog.Logger
	now    func() time.Time
}

// NewProfileService returns a ProfileService implementation.
func NewProfileService(
	repo ports.ProfileRepository,
	events ports.SessionEventPublisher,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.ProfileService {
	return &profileService{
		repo:   repo,
		events: events,
		dedup:  dedup,
		log:    log,
		now:    time.Now,
	}
}

func (s *profileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateName changes the display name and notifies the subject's clients.
func (s *profileService) UpdateName(ctx context.Context, id, fullName string) (*domain.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", domain.ErrInvalidInput)
	}
	p, err := s.repo.UpdateName(ctx, id, fullName)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, id)
	return p, nil
}

// SetRole grants a role. Only the canonical role set is accepted.
func (s *profileService) SetRole(ctx context.Context, id string, role string) (*domain.Profile, error) {
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	p, err := s.repo.UpdateRole(ctx, id, r)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("role", string(r)).Msg("role updated")
	s.notify(ctx, id)
	return p, nil
}

// Materialize creates the profile for a new account from its signup
// metadata. Existing profiles are never overwritten.
func (s *profileService) Materialize(ctx context.Context, job ports.ProfileJob) error {
	// 1. Idempotency check: skip jobs already handled.
	isDup, err := s.dedup.IsDuplicate(ctx, job.Subject)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", job.Subject).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.ProfileMaterializationsTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	// 2. Role from metadata, clamped to the canonical set.
	role, ok := domain.ParseRole(job.Metadata.Role)
	if !ok {
		role = domain.RoleCitizen
	}

	now := s.now().UTC()
	created, err := s.repo.CreateIfAbsent(ctx, &domain.Profile{
		ID:        job.Subject,
		Email:     job.Email,
		FullName:  job.Metadata.FullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		metrics.ProfileMaterializationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("materialize profile: %w", err)
	}

	if markErr := s.dedup.Mark(ctx, job.Subject); markErr != nil {
		s.log.Warn().Err(markErr).Str("user_id", job.Subject).Msg("failed to set dedup key")
	}

	if !created {
		metrics.ProfileMaterializationsTotal.WithLabelValues("exists").Inc()
		return nil
	}

	metrics.ProfileMaterializationsTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("user_id", job.Subject).Str("role", string(role)).Msg("profile materialized")
	s.notify(ctx, job.Subject)
	return nil
}

func (s *profileService) notify(ctx context.Context, id string) {
	if err := s.events.Publish(ctx, id, domain.EventUserUpdated); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to publish user update")
	}
}
