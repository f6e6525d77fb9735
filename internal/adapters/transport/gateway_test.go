package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusevents/internal/domain"
)

// staticCreds implements domain.CredentialSource for tests.
type staticCreds struct {
	cred domain.SessionCredential
	ok   bool
}

func (s staticCreds) Credential() (domain.SessionCredential, bool) { return s.cred, s.ok }

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

// recorder is a test server that records requests and replies with a fixed status and body.
type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{
		method: req.Method,
		path:   req.URL.Path,
		query:  req.URL.RawQuery,
		header: req.Header.Clone(),
		body:   b,
	})
	r.mu.Unlock()
	w.WriteHeader(r.status)
	_, _ = io.WriteString(w, r.body)
}

func (r *recorder) last(t *testing.T) recordedRequest {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func newTestGateway(t *testing.T, rec *recorder, creds domain.CredentialSource, opts ...Option) *Gateway {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", creds, opts...)
}

func TestGateway_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name       string
		creds      domain.CredentialSource
		wantHeader string
	}{
		{
			name:       "credential present",
			creds:      staticCreds{cred: domain.SessionCredential{Token: "abc", Role: domain.RoleStudent}, ok: true},
			wantHeader: "Bearer abc",
		},
		{
			name:       "no credential",
			creds:      staticCreds{},
			wantHeader: "",
		},
		{
			name:       "nil source",
			creds:      nil,
			wantHeader: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{status: http.StatusOK, body: `{"ok":true}`}
			g := newTestGateway(t, rec, tt.creds)

			for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
				require.NoError(t, g.Send(context.Background(), method, "/events", nil, nil))
				req := rec.last(t)
				assert.Equal(t, "application/json", req.header.Get("Content-Type"))
				assert.Equal(t, tt.wantHeader, req.header.Get("Authorization"))
				if tt.wantHeader == "" {
					_, present := req.header["Authorization"]
					assert.False(t, present, "Authorization header must be absent")
				}
			}
		})
	}
}

func TestGateway_Send_AnonymousContext(t *testing.T) {
	rec := &recorder{status: http.StatusOK, body: `{}`}
	g := newTestGateway(t, rec, staticCreds{cred: domain.SessionCredential{Token: "abc"}, ok: true})

	require.NoError(t, g.Send(Anonymous(context.Background()), http.MethodPost, "/auth/login", nil, nil))
	_, present := rec.last(t).header["Authorization"]
	assert.False(t, present)

	require.NoError(t, g.Send(context.Background(), http.MethodGet, "/auth/profile", nil, nil))
	assert.Equal(t, "Bearer abc", rec.last(t).header.Get("Authorization"))
}

func TestGateway_Send_EncodesBodyAndDecodesResponse(t *testing.T) {
	rec := &recorder{status: http.StatusCreated, body: `{"id":"ev-1","title":"Web Development Workshop","capacity":30}`}
	g := newTestGateway(t, rec, nil, WithRequestIDFunc(func() string { return "req-1" }))

	in := domain.EventFormData{Title: "Web Development Workshop", Capacity: 30}
	got, err := Do[domain.Event](context.Background(), g, http.MethodPost, "/events", in)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, 30, got.Capacity)

	req := rec.last(t)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/events", req.path)
	assert.Equal(t, "req-1", req.header.Get("X-Request-ID"))
	var sent domain.EventFormData
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, in, sent)
}

func TestGateway_Send_NoBodyWhenNil(t *testing.T) {
	rec := &recorder{status: http.StatusOK, body: `[]`}
	g := newTestGateway(t, rec, nil)

	_, err := Do[[]domain.Event](context.Background(), g, http.MethodGet, "/events", nil)
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).body)
}

func TestGateway_Send_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  int
		wantMessage string
		wantErrIs   error
	}{
		{
			name:        "not found with message",
			status:      http.StatusNotFound,
			body:        `{"message":"not found"}`,
			wantStatus:  http.StatusNotFound,
			wantMessage: "not found",
		},
		{
			name:        "server error unparsable body",
			status:      http.StatusInternalServerError,
			body:        `<html>oops</html>`,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: DefaultErrorMessage,
		},
		{
			name:        "envelope error message",
			status:      http.StatusBadRequest,
			body:        `{"data":null,"error":{"code":"bad_request","message":"capacity must be positive"}}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "capacity must be positive",
		},
		{
			name:        "string error field",
			status:      http.StatusConflict,
			body:        `{"error":"already registered"}`,
			wantStatus:  http.StatusConflict,
			wantMessage: "already registered",
		},
		{
			name:        "json without message",
			status:      http.StatusForbidden,
			body:        `{"code":"forbidden"}`,
			wantStatus:  http.StatusForbidden,
			wantMessage: DefaultErrorMessage,
		},
		{
			name:        "success with unparsable body",
			status:      http.StatusOK,
			body:        `{"id":`,
			wantStatus:  http.StatusOK,
			wantMessage: malformedMessage,
			wantErrIs:   ErrMalformedResponse,
		},
		{
			name:        "success with empty body",
			status:      http.StatusOK,
			body:        ``,
			wantStatus:  http.StatusOK,
			wantMessage: malformedMessage,
			wantErrIs:   ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{status: tt.status, body: tt.body}
			g := newTestGateway(t, rec, nil)

			got, err := Do[domain.Event](context.Background(), g, http.MethodGet, "/events/ev-1", nil)
			require.Error(t, err)
			assert.Equal(t, domain.Event{}, got, "no partial data on failure")

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "error should be *APIError")
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.NotEmpty(t, apiErr.RequestID)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			assert.False(t, domain.IsPrecondition(err))
		})
	}
}

func TestGateway_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := New(url, nil)
	err := g.Send(context.Background(), http.MethodGet, "/events", nil, nil)
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, unreachableMessage, apiErr.Message)
	assert.NotNil(t, apiErr.Unwrap())
}

func TestGateway_Send_CancelledContext(t *testing.T) {
	rec := &recorder{status: http.StatusOK, body: `{}`}
	g := newTestGateway(t, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Send(ctx, http.MethodGet, "/events", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, StatusOf(err))
}

func TestGateway_Send_UnauthorizedHook(t *testing.T) {
	signedIn := staticCreds{cred: domain.SessionCredential{Token: "tok"}, ok: true}
	tests := []struct {
		name       string
		creds      domain.CredentialSource
		status     int
		wantCalled bool
		want401    bool
	}{
		{"401 with credential triggers hook", signedIn, http.StatusUnauthorized, true, true},
		{"401 without credential does not", nil, http.StatusUnauthorized, false, true},
		{"401 with empty token does not", staticCreds{ok: true}, http.StatusUnauthorized, false, true},
		{"403 does not", signedIn, http.StatusForbidden, false, false},
		{"200 does not", signedIn, http.StatusOK, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			rec := &recorder{status: tt.status, body: `{"message":"token expired"}`}
			g := newTestGateway(t, rec, tt.creds, WithUnauthorizedHandler(func() { called = true }))

			err := g.Send(context.Background(), http.MethodGet, "/auth/profile", nil, nil)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.want401, IsUnauthorized(err))
		})
	}
}

func TestGateway_Send_NoOutputBody(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"empty body", http.StatusOK, ``, false},
		{"no content", http.StatusNoContent, ``, false},
		{"whitespace", http.StatusOK, " \n", false},
		{"json object", http.StatusOK, `{"message":"Registered"}`, false},
		{"html page", http.StatusOK, `<html>captive portal</html>`, true},
		{"truncated json", http.StatusOK, `{"message":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{status: tt.status, body: tt.body}
			g := newTestGateway(t, rec, nil)

			err := g.Send(context.Background(), http.MethodPost, "/events/e1/register", nil, nil)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestGateway_Send_LogsCall(t *testing.T) {
	var cap capturingHandler
	rec := &recorder{status: http.StatusOK, body: `{}`}
	g := newTestGateway(t, rec,
		staticCreds{cred: domain.SessionCredential{Token: "secret-token"}, ok: true},
		WithLogger(slog.New(&cap)),
	)

	require.NoError(t, g.Send(context.Background(), http.MethodGet, "/events/my-events", nil, nil))

	require.Equal(t, "api request", cap.record.Message)
	attrs := make(map[string]slog.Value)
	cap.record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value
		assert.NotContains(t, a.Value.String(), "secret-token")
		return true
	})
	assert.Equal(t, http.MethodGet, attrs["method"].String())
	assert.Equal(t, "/events/my-events", attrs["path"].String())
	assert.Equal(t, int64(http.StatusOK), attrs["status"].Int64())
	assert.Contains(t, attrs, "duration_ms")
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "api error 404: not found", (&APIError{Status: 404, Message: "not found"}).Error())
	assert.Equal(t, "unable to reach server: boom",
		(&APIError{Message: unreachableMessage, Err: errors.New("boom")}).Error())
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

// capturingHandler records the last log record for assertions.
type capturingHandler struct {
	record slog.Record
}

func (h *capturingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *capturingHandler) Handle(_ context.Context, r slog.Record) error {
	h.record = r.Clone()
	return nil
}

func (h *capturingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

func (h *capturingHandler) WithGroup(_ string) slog.Handler { return h }
