package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clickclean/civic-platform/internal/api/metrics"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/core/ports"
)

const (
	tokenIssuer       = "clickclean"
	minPasswordLength = 6
)

// AuthDeps holds the collaborators of AuthService.
type AuthDeps struct {
	Users    ports.AuthRepository
	Profiles ports.ProfileRepository
	Refresh  ports.RefreshStore
	Revoked  ports.RevocationStore
	Events   ports.SessionEventPublisher
	Jobs     ports.ProfileJobQueue
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthService implements account creation, password sign-in, token refresh
// and global sign-out.
type AuthService struct {
	deps       AuthDeps
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewAuthService(deps AuthDeps, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		deps:       deps,
		jwtSecret:  []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		log:        log,
		now:        time.Now,
	}
}

// SignUp creates an account and signs it in. The profile is materialised
// asynchronously from the signup metadata.
func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "invalid").Inc()
		return nil, domain.ErrInvalidInput
	}
	role := domain.RoleCitizen
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok || !r.SelfService() {
			metrics.AuthAttemptsTotal.WithLabelValues("signup", "invalid").Inc()
			return nil, fmt.Errorf("%w: role %q is not available at signup", domain.ErrInvalidInput, in.Role)
		}
		role = r
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.deps.Users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata: domain.Metadata{
			FullName: strings.TrimSpace(in.FullName),
			Role:     string(role),
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthAttemptsTotal.WithLabelValues("signup", "invalid").Inc()
		} else {
			metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		}
		return nil, err
	}

	if err := s.deps.Jobs.Enqueue(ports.ProfileJob{Subject: user.ID, Email: user.Email, Metadata: user.Metadata}); err != nil {
		// The account stands; clients fall back to the signup metadata.
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile job not queued")
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "ok").Inc()
	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("account created")
	s.publish(ctx, user.ID, domain.EventSignedIn)
	return sess, nil
}

// SignIn checks a password and issues a session. Unknown emails and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "ok").Inc()
	s.publish(ctx, user.ID, domain.EventSignedIn)
	return sess, nil
}

// Refresh exchanges a refresh token for a new session. Refresh tokens are
// single use.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, domain.ErrSessionExpired
	}
	stored, err := s.deps.Refresh.Consume(ctx, refreshToken)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "error").Inc()
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if stored == nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "invalid").Inc()
		return nil, domain.ErrSessionExpired
	}

	user, err := s.deps.Users.FindByID(ctx, stored.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("refresh", "error").Inc()
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "ok").Inc()
	s.publish(ctx, user.ID, domain.EventTokenRefreshed)
	return sess, nil
}

// SignOut revokes the presented access token and every refresh token of the
// subject, then notifies the subject's other clients.
func (s *AuthService) SignOut(ctx context.Context, claims ports.Claims) error {
	if claims.TokenID != "" {
		if err := s.deps.Revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Unix()); err != nil {
			metrics.AuthAttemptsTotal.WithLabelValues("logout", "error").Inc()
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	if err := s.deps.Refresh.DeleteAllForSubject(ctx, claims.Subject); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("logout", "error").Inc()
		return fmt.Errorf("delete refresh sessions: %w", err)
	}
	metrics.AuthAttemptsTotal.WithLabelValues("logout", "ok").Inc()
	s.publish(ctx, claims.Subject, domain.EventSignedOut)
	return nil
}

// CurrentUser returns the session view of an account.
func (s *AuthService) CurrentUser(ctx context.Context, subject string) (*domain.SessionUser, error) {
	user, err := s.deps.Users.FindByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &domain.SessionUser{ID: user.ID, Email: user.Email, Metadata: user.Metadata}, nil
}

// Verify parses an access token and checks it has not been revoked.
func (s *AuthService) Verify(ctx context.Context, token string) (*ports.Claims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrInvalidCredentials
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidCredentials
	}

	revoked, err := s.deps.Revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error().Err(err).Str("jti", claims.ID).Msg("revocation check failed")
		return nil, fmt.Errorf("%w: revocation check: %v", domain.ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	role, _ := domain.ParseRole(claims.Role)
	out := &ports.Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	profile, err := s.deps.Profiles.FindByID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("profile lookup failed, using signup metadata")
		}
		profile = nil
	}
	role := domain.ResolveRole(profile, user.Metadata)

	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := s.generateToken(user, role, now, expiresAt)
	if err != nil {
		return nil, err
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.deps.Refresh.Save(ctx, ports.RefreshSession{
		Token:     refresh,
		Subject:   user.ID,
		ExpiresAt: now.Add(s.refreshTTL).Unix(),
	}); err != nil {
		return nil, fmt.Errorf("save refresh session: %w", err)
	}

	return &domain.Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.UTC(),
		User: domain.SessionUser{
			ID:       user.ID,
			Email:    user.Email,
			Metadata: user.Metadata,
		},
	}, nil
}

func (s *AuthService) generateToken(user *domain.User, role domain.Role, now, expiresAt time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
		Role:  string(role),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

func (s *AuthService) publish(ctx context.Context, subject string, eventType domain.SessionEventType) {
	if err := s.deps.Events.Publish(ctx, subject, eventType); err != nil {
		s.log.Warn().Err(err).Str("user_id", subject).Str("event", string(eventType)).Msg("failed to publish session event")
	}
}

func newRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
