package domain

import (
	"context"
	"time"
)

// Storage keys used to persist the Session Credential.
const (
	TokenKey = "auth_token"
	RoleKey  = "user_role"
)

// SessionCredential is an opaque bearer token plus the role of the authenticated user.
type SessionCredential struct {
	Token string
	Role  Role
}

// CredentialSource gives read access to the current Session Credential.
// ok is false when nobody is logged in.
type CredentialSource interface {
	Credential() (cred SessionCredential, ok bool)
}

// KeyValueStore persists small string values across process restarts.
// Get returns ErrNotFound when key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// TokenInfo is what can be read from a bearer token without verifying it.
type TokenInfo struct {
	Subject   string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry at or before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !t.ExpiresAt.After(now)
}

// TokenInspector reads claims from JWT-shaped tokens. ok is false for opaque tokens.
type TokenInspector interface {
	Inspect(token string) (info TokenInfo, ok bool)
}
