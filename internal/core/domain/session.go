package domain

import "time"

// Metadata is attached to an account at signup and travels with every
// session for that account.
type Metadata struct {
	FullName string `json:"full_name,omitempty" bson:"full_name,omitempty"`
	Role     string `json:"role,omitempty"      bson:"role,omitempty"`
}

// SessionUser is the subject carried by a session.
type SessionUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Metadata Metadata `json:"user_metadata"`
}

// Session is the credential bundle issued by the session store.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         SessionUser `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionEventType names a session-change notification.
type SessionEventType string

const (
	EventInitialSession SessionEventType = "INITIAL_SESSION"
	EventSignedIn       SessionEventType = "SIGNED_IN"
	EventSignedOut      SessionEventType = "SIGNED_OUT"
	EventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
	EventUserUpdated    SessionEventType = "USER_UPDATED"
)

// SessionEvent is a session-change notification. Session is nil when the
// subject no longer has a session.
type SessionEvent struct {
	Type    SessionEventType `json:"type"`
	Session *Session         `json:"session,omitempty"`
}

// ResolveRole applies the ordered role policy. An existing profile is
// authoritative and the metadata is consulted only when there is none; in
// either case a missing or unknown role becomes citizen.
func ResolveRole(profile *Profile, meta Metadata) Role {
	if profile != nil {
		if profile.Role.Valid() {
			return profile.Role
		}
		return RoleCitizen
	}
	if r, ok := ParseRole(meta.Role); ok {
		return r
	}
	return RoleCitizen
}

// ResolveUser merges a session with its profile. When profile is nil the
// session metadata fills name and role. Returns nil for a nil session.
func ResolveUser(s *Session, profile *Profile) *ResolvedUser {
	if s == nil {
		return nil
	}
	u := &ResolvedUser{
		ID:    s.User.ID,
		Email: s.User.Email,
		Role:  ResolveRole(profile, s.User.Metadata),
	}
	if profile != nil {
		u.Name = profile.FullName
	} else {
		u.Name = s.User.Metadata.FullName
	}
	return u
}
