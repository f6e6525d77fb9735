package domain

import (
	"context"
)

// Role of the authenticated actor.
type Role string

const (
	RoleOrganizer Role = "organizer"
	RoleStudent   Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RoleStudent
}

// User is the authenticated user as returned by the auth endpoints.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// ProfilePatch is a partial profile update. Email is not editable.
type ProfilePatch struct {
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// AuthAPI is the Auth resource client contract. It performs no credential writes.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Signup(ctx context.Context, name, email, password string, role Role) (*AuthResponse, error)
	Logout(ctx context.Context) error
	GetProfile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error)
}

// SessionService owns the Session Credential: it is the only writer.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*User, error)
	Signup(ctx context.Context, name, email, password string, role Role) (*User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (SessionCredential, error)
	HandleUnauthorized()
	Profile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, patch ProfilePatch) (*User, error)
}
