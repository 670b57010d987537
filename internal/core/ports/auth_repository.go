package ports

import (
	"context"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// AuthRepository defines the interface for account persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RefreshSession is a stored refresh token bound to a subject.
type RefreshSession struct {
	Token     string
	Subject   string
	ExpiresAt int64
}

// RefreshStore keeps refresh tokens until they are used, expire, or the
// subject signs out everywhere.
type RefreshStore interface {
	Save(ctx context.Context, s RefreshSession) error
	// Consume atomically fetches and deletes a refresh token. It returns
	// (nil, nil) for unknown or expired tokens.
	Consume(ctx context.Context, token string) (*RefreshSession, error)
	DeleteAllForSubject(ctx context.Context, subject string) error
}

// RevocationStore blacklists access token ids until they would expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until int64) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionEventPublisher fans session-change events out to subscribers of a
// subject.
type SessionEventPublisher interface {
	Publish(ctx context.Context, subject string, eventType domain.SessionEventType) error
}
