package ports

import (
	"context"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// ProfileRepository persists display profiles.
type ProfileRepository interface {
	// FindByID returns domain.ErrProfileNotFound when the subject has none.
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
	// FindByIDs returns the profiles that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
	// CreateIfAbsent inserts p unless a profile with the same id exists. It
	// reports whether an insert happened.
	CreateIfAbsent(ctx context.Context, p *domain.Profile) (bool, error)
	UpdateName(ctx context.Context, id, fullName string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Profile, error)
}

// ProfileJob asks the backend to materialise a profile from signup data.
type ProfileJob struct {
	Subject  string
	Email    string
	Metadata domain.Metadata
}

// ProfileJobQueue accepts materialisation jobs for asynchronous processing.
// Enqueue never blocks; it fails when the job cannot be accepted.
type ProfileJobQueue interface {
	Enqueue(job ProfileJob) error
}

// ProfileService exposes profile reads and updates.
type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	UpdateName(ctx context.Context, id, fullName string) (*domain.Profile, error)
	SetRole(ctx context.Context, id string, role string) (*domain.Profile, error)
	Materialize(ctx context.Context, job ProfileJob) error
}
