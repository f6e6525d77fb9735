package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/campusapi"
	"campusevents/internal/adapters/storage"
	"campusevents/internal/adapters/transport"
	"campusevents/internal/domain"
	"campusevents/internal/services"
)

// backend is a small in-memory campus API used to drive the real client stack.
type backend struct {
	mu            sync.Mutex
	users         map[string]domain.User // by token
	revoked       map[string]bool
	events        []domain.Event
	registrations map[string]map[string]bool // event id -> user id
	registerCalls int
}

func newBackend() *backend {
	b := &backend{
		users:         make(map[string]domain.User),
		revoked:       make(map[string]bool),
		registrations: make(map[string]map[string]bool),
	}
	for _, u := range []domain.User{
		{ID: "org", Email: "org@college.edu", Name: "Organizer", Role: domain.RoleOrganizer},
		{ID: "alice", Email: "alice@college.edu", Name: "Alice", Role: domain.RoleStudent},
		{ID: "bob", Email: "bob@college.edu", Name: "Bob", Role: domain.RoleStudent},
	} {
		b.users["token-"+u.Email] = u
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		token := "token-" + req.Email
		b.mu.Lock()
		u, ok := b.users[token]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, domain.AuthResponse{Token: token, User: u})
	})
	mux.HandleFunc("GET /events", b.authed(func(w http.ResponseWriter, _ *http.Request, u domain.User) {
		writeJSON(w, http.StatusOK, b.eventsFor(u))
	}))
	mux.HandleFunc("GET /events/registered", b.authed(func(w http.ResponseWriter, _ *http.Request, u domain.User) {
		out := []domain.Event{}
		for _, e := range b.eventsFor(u) {
			if e.IsRegistered {
				out = append(out, e)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}))
	mux.HandleFunc("POST /events", b.authed(func(w http.ResponseWriter, r *http.Request, u domain.User) {
		var data domain.EventFormData
		_ = json.NewDecoder(r.Body).Decode(&data)
		b.mu.Lock()
		e := domain.Event{
			ID:            "ev-" + strconv.Itoa(len(b.events)+1),
			Title:         data.Title,
			Date:          data.Date,
			Category:      data.Category,
			Capacity:      data.Capacity,
			OrganizerID:   u.ID,
			OrganizerName: u.Name,
		}
		b.events = append(b.events, e)
		b.registrations[e.ID] = make(map[string]bool)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, e)
	}))
	mux.HandleFunc("POST /events/{id}/register", b.authed(func(w http.ResponseWriter, r *http.Request, u domain.User) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.registerCalls++
		id := r.PathValue("id")
		regs, ok := b.registrations[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Event not found"})
			return
		}
		for i := range b.events {
			if b.events[i].ID != id {
				continue
			}
			if b.events[i].Registered >= b.events[i].Capacity {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "Event is full"})
				return
			}
			b.events[i].Registered++
		}
		regs[u.ID] = true
		writeJSON(w, http.StatusOK, map[string]string{"message": "Registered"})
	}))
	return mux
}

func (b *backend) authed(next func(http.ResponseWriter, *http.Request, domain.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		u, ok := b.users[token]
		revoked := b.revoked[token]
		b.mu.Unlock()
		if !ok || revoked {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		next(w, r, u)
	}
}

func (b *backend) eventsFor(u domain.User) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Event, 0, len(b.events))
	for _, e := range b.events {
		e.IsRegistered = b.registrations[e.ID][u.ID]
		out = append(out, e)
	}
	return out
}

// client is one user's complete client stack.
type client struct {
	holder  *services.Holder
	session domain.SessionService
	store   *services.EventStore
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	c := &client{holder: services.NewHolder()}
	gw := transport.New(srv.URL, c.holder,
		transport.WithHTTPClient(srv.Client()),
		transport.WithUnauthorizedHandler(func() { c.session.HandleUnauthorized() }),
	)
	c.session = services.NewSessionService(campusapi.NewAuthClient(gw), c.holder, storage.NewMemoryStore(), auth.NewJWTInspector())
	c.store = services.NewEventStore(campusapi.NewEventsClient(gw))
	return c
}

func loggedIn(t *testing.T, srv *httptest.Server, email string) *client {
	t.Helper()
	c := newClient(t, srv)
	_, err := c.session.Login(context.Background(), email, "password")
	require.NoError(t, err)
	return c
}

func TestEndToEnd_SecondRegistrationOnFullEventIsRejected(t *testing.T) {
	be := newBackend()
	srv := httptest.NewServer(be.handler())
	defer srv.Close()
	ctx := context.Background()

	organizer := loggedIn(t, srv, "org@college.edu")
	created, err := organizer.store.Create(ctx, domain.EventFormData{
		Title: "Robotics Lab Tour", Date: "2025-03-20", Category: domain.CategoryTechnical, Capacity: 1,
	})
	require.NoError(t, err)

	alice := loggedIn(t, srv, "alice@college.edu")
	require.NoError(t, alice.store.LoadBrowse(ctx, domain.FilterCriteria{}))
	require.NoError(t, alice.store.Register(ctx, created.ID))
	got, ok := alice.store.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Registered)
	assert.True(t, got.IsRegistered)

	bob := loggedIn(t, srv, "bob@college.edu")
	require.NoError(t, bob.store.LoadBrowse(ctx, domain.FilterCriteria{}))
	seen, ok := bob.store.Get(created.ID)
	require.True(t, ok)
	require.Equal(t, seen.Capacity, seen.Registered)
	assert.False(t, seen.IsRegistered)

	err = bob.store.Register(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrEventFull)
	assert.True(t, domain.IsPrecondition(err))
	assert.Equal(t, 1, be.registerCalls, "a full event is rejected without a network call")

	after, _ := bob.store.Get(created.ID)
	assert.Equal(t, seen, after)
}

func TestEndToEnd_StaleViewGetsServerRejection(t *testing.T) {
	be := newBackend()
	srv := httptest.NewServer(be.handler())
	defer srv.Close()
	ctx := context.Background()

	organizer := loggedIn(t, srv, "org@college.edu")
	created, err := organizer.store.Create(ctx, domain.EventFormData{Title: "Open Mic", Capacity: 1})
	require.NoError(t, err)

	alice := loggedIn(t, srv, "alice@college.edu")
	bob := loggedIn(t, srv, "bob@college.edu")
	require.NoError(t, alice.store.LoadBrowse(ctx, domain.FilterCriteria{}))
	require.NoError(t, bob.store.LoadBrowse(ctx, domain.FilterCriteria{}))

	require.NoError(t, alice.store.Register(ctx, created.ID))

	err = bob.store.Register(ctx, created.ID)
	require.Error(t, err)
	assert.False(t, domain.IsPrecondition(err))
	assert.Equal(t, http.StatusConflict, transport.StatusOf(err))
	apiErr, ok := transport.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Event is full", apiErr.Message)

	stale, _ := bob.store.Get(created.ID)
	assert.Equal(t, 0, stale.Registered, "a rejected call leaves the store untouched")
	assert.False(t, stale.IsRegistered)
	assert.False(t, bob.store.Pending(created.ID))
}

func TestEndToEnd_RevokedTokenClearsSession(t *testing.T) {
	be := newBackend()
	srv := httptest.NewServer(be.handler())
	defer srv.Close()
	ctx := context.Background()

	alice := loggedIn(t, srv, "alice@college.edu")
	_, ok := alice.holder.Credential()
	require.True(t, ok)

	be.mu.Lock()
	be.revoked["token-alice@college.edu"] = true
	be.mu.Unlock()

	err := alice.store.LoadBrowse(ctx, domain.FilterCriteria{})
	require.Error(t, err)
	assert.True(t, transport.IsUnauthorized(err))
	_, ok = alice.holder.Credential()
	assert.False(t, ok)

	_, err = alice.session.Restore(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestEndToEnd_FailedLoginKeepsSession(t *testing.T) {
	be := newBackend()
	srv := httptest.NewServer(be.handler())
	defer srv.Close()
	ctx := context.Background()

	alice := loggedIn(t, srv, "alice@college.edu")

	_, err := alice.session.Login(ctx, "mallory@college.edu", "wrong")
	require.Error(t, err)
	assert.True(t, transport.IsUnauthorized(err))

	cred, ok := alice.holder.Credential()
	require.True(t, ok)
	assert.Equal(t, "token-alice@college.edu", cred.Token)
	restored, err := alice.session.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-alice@college.edu", restored.Token)
	require.NoError(t, alice.store.LoadBrowse(ctx, domain.FilterCriteria{}))
}

func TestEndToEnd_UnparsableSuccessLeavesStoreUnchanged(t *testing.T) {
	var registerCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Event{{ID: "e1", Title: "Robotics", Capacity: 2}})
	})
	mux.HandleFunc("GET /events/registered", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Event{})
	})
	mux.HandleFunc("POST /events/{id}/register", func(w http.ResponseWriter, _ *http.Request) {
		registerCalls++
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>captive portal</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()

	c := newClient(t, srv)
	require.NoError(t, c.store.LoadBrowse(ctx, domain.FilterCriteria{}))

	err := c.store.Register(ctx, "e1")
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrMalformedResponse)
	assert.Equal(t, 1, registerCalls)

	e, ok := c.store.Get("e1")
	require.True(t, ok)
	assert.Equal(t, 0, e.Registered)
	assert.False(t, e.IsRegistered)
	assert.False(t, c.store.Pending("e1"))
}
