package ports

import (
	"context"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// SessionHandler receives session-change notifications in emission order.
type SessionHandler func(event domain.SessionEvent)

// Subscription is the handle returned by SessionStore.Subscribe.
type Subscription interface {
	Unsubscribe()
}

// SessionStore is the auth and profile backend consumed by the session
// manager. FindProfile returns (nil, nil) when the subject has no profile.
type SessionStore interface {
	CurrentSession(ctx context.Context) (*domain.Session, error)
	Subscribe(handler SessionHandler) Subscription
	FindProfile(ctx context.Context, subjectID string) (*domain.Profile, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string, meta domain.Metadata) (*domain.Session, error)
	SignOut(ctx context.Context) error
}
