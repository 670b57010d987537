package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrSessionExpired     = errors.New("session expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrLoginRequired      = errors.New("login required")
	ErrForbidden          = errors.New("access forbidden")
)

var (
	ErrModuleNotFound = errors.New("training module not found")
	ErrRewardNotFound = errors.New("reward not found")
	// ErrProgressConflict means stored training progress moved underneath
	// an update.
	ErrProgressConflict = errors.New("training progress changed concurrently")
)
