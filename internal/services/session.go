package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"campusevents/internal/domain"
)

// Holder keeps the Session Credential for the process. Anyone may read it through
// domain.CredentialSource; only the session service in this package writes it.
type Holder struct {
	mu   sync.RWMutex
	cred domain.SessionCredential
	ok   bool
}

// NewHolder returns an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Credential implements domain.CredentialSource.
func (h *Holder) Credential() (domain.SessionCredential, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cred, h.ok
}

func (h *Holder) set(cred domain.SessionCredential) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cred = cred
	h.ok = true
}

func (h *Holder) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cred = domain.SessionCredential{}
	h.ok = false
}

type sessionService struct {
	auth   domain.AuthAPI
	holder *Holder
	store  domain.KeyValueStore
	tokens domain.TokenInspector
	now    func() time.Time
}

// NewSessionService returns the SessionService that owns holder and persists it to store.
func NewSessionService(auth domain.AuthAPI, holder *Holder, store domain.KeyValueStore, tokens domain.TokenInspector) domain.SessionService {
	return &sessionService{
		auth:   auth,
		holder: holder,
		store:  store,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, resp, resp.User.Role); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (s *sessionService) Signup(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	resp, err := s.auth.Signup(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}
	if resp.User.Role == "" {
		resp.User.Role = role
	}
	if err := s.establish(ctx, resp, resp.User.Role); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// establish persists the credential and then publishes it to the holder.
func (s *sessionService) establish(ctx context.Context, resp *domain.AuthResponse, role domain.Role) error {
	if resp.Token == "" {
		return fmt.Errorf("auth response carried no token")
	}
	if err := s.store.Set(ctx, domain.TokenKey, resp.Token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.store.Set(ctx, domain.RoleKey, string(role)); err != nil {
		return fmt.Errorf("persist role: %w", err)
	}
	s.holder.set(domain.SessionCredential{Token: resp.Token, Role: role})
	return nil
}

// Logout notifies the backend when a session exists, then always drops the local
// credential. The backend error, if any, is returned after local cleanup.
func (s *sessionService) Logout(ctx context.Context) error {
	var remoteErr error
	if _, ok := s.holder.Credential(); ok {
		remoteErr = s.auth.Logout(ctx)
	}
	if err := s.destroy(ctx); err != nil {
		return err
	}
	return remoteErr
}

func (s *sessionService) destroy(ctx context.Context) error {
	s.holder.clear()
	var errs []error
	for _, key := range []string{domain.TokenKey, domain.RoleKey} {
		if err := s.store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Restore loads a persisted credential. Expired JWTs are discarded; opaque tokens are
// accepted as they are.
func (s *sessionService) Restore(ctx context.Context) (domain.SessionCredential, error) {
	token, err := s.store.Get(ctx, domain.TokenKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SessionCredential{}, domain.ErrNoSession
		}
		return domain.SessionCredential{}, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return domain.SessionCredential{}, domain.ErrNoSession
	}

	role := domain.Role("")
	if stored, err := s.store.Get(ctx, domain.RoleKey); err == nil {
		role = domain.Role(stored)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.SessionCredential{}, fmt.Errorf("load role: %w", err)
	}

	if info, ok := s.tokens.Inspect(token); ok {
		if info.Expired(s.now()) {
			if err := s.destroy(ctx); err != nil {
				return domain.SessionCredential{}, err
			}
			return domain.SessionCredential{}, domain.ErrNoSession
		}
		if !role.Valid() {
			role = info.Role
		}
	}

	cred := domain.SessionCredential{Token: token, Role: role}
	s.holder.set(cred)
	return cred, nil
}

// HandleUnauthorized destroys the credential after the backend rejected it.
func (s *sessionService) HandleUnauthorized() {
	_ = s.destroy(context.Background())
}

func (s *sessionService) Profile(ctx context.Context) (*domain.User, error) {
	return s.auth.GetProfile(ctx)
}

func (s *sessionService) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	return s.auth.UpdateProfile(ctx, patch)
}
