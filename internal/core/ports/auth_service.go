package ports

import (
	"context"
	"time"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// SignUpInput carries the data needed to create an account.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	Email     string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// AuthService is the server side of the session store.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, claims Claims) error
	CurrentUser(ctx context.Context, subject string) (*domain.SessionUser, error)
	Verify(ctx context.Context, token string) (*Claims, error)
}
