package campusapi

import (
	"context"
	"net/http"

	"campusevents/internal/adapters/transport"
	"campusevents/internal/domain"
)

type authClient struct {
	gw *transport.Gateway
}

// NewAuthClient returns an AuthAPI backed by gw. It never writes the session credential;
// persisting the returned token is the caller's job. Login and signup never send the held
// credential.
func NewAuthClient(gw *transport.Gateway) domain.AuthAPI {
	return &authClient{gw: gw}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

func (c *authClient) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	resp, err := transport.Do[domain.AuthResponse](transport.Anonymous(ctx), c.gw, http.MethodPost, "/auth/login",
		loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authClient) Signup(ctx context.Context, name, email, password string, role domain.Role) (*domain.AuthResponse, error) {
	resp, err := transport.Do[domain.AuthResponse](transport.Anonymous(ctx), c.gw, http.MethodPost, "/auth/signup",
		signupRequest{Name: name, Email: email, Password: password, Role: role})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *authClient) Logout(ctx context.Context) error {
	return c.gw.Send(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *authClient) GetProfile(ctx context.Context) (*domain.User, error) {
	u, err := transport.Do[domain.User](ctx, c.gw, http.MethodGet, "/auth/profile", nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *authClient) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	u, err := transport.Do[domain.User](ctx, c.gw, http.MethodPut, "/auth/profile", patch)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
