package authsession

import (
	"context"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// Auth is the view of the session manager handed to consumers.
type Auth interface {
	User() *domain.ResolvedUser
	IsAuthenticated() bool
	Loading() bool
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password, name string, role domain.Role) error
	Logout(ctx context.Context) error
}

var _ Auth = (*Manager)(nil)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying auth.
func NewContext(ctx context.Context, auth Auth) context.Context {
	return context.WithValue(ctx, ctxKey{}, auth)
}

// FromContext returns the Auth installed by NewContext. It panics when there
// is none: reading auth outside a provider is a programming error.
func FromContext(ctx context.Context) Auth {
	auth, ok := ctx.Value(ctxKey{}).(Auth)
	if !ok || auth == nil {
		panic("authsession: FromContext called outside an auth provider")
	}
	return auth
}

// Gate checks action against policy for the user in ctx. It returns
// domain.ErrLoginRequired when the caller should be sent to the login flow.
func Gate(ctx context.Context, policy domain.AccessPolicy, action domain.Action) error {
	return policy.Check(action, FromContext(ctx).User())
}
