// Package transport is the single chokepoint for backend calls. It attaches the bearer
// credential, encodes JSON bodies and normalizes every failure into *APIError.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"campusevents/internal/domain"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

const tracerName = "campusevents/transport"

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient sets the client used for calls. Its Timeout is the only timeout applied.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the logger for per-call debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithUnauthorizedHandler registers fn to be called whenever the backend answers 401.
// The Gateway never modifies the credential itself.
func WithUnauthorizedHandler(fn func()) Option {
	return func(g *Gateway) {
		g.onUnauthorized = fn
	}
}

// WithTracerProvider sets the provider for per-call client spans. The global provider is
// used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithPropagator sets how trace context is written into outgoing headers.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(g *Gateway) {
		if p != nil {
			g.propagator = p
		}
	}
}

type anonymousKey struct{}

// Anonymous marks ctx so requests made with it carry no Authorization header, even when a
// credential is held. Used for calls that establish a session.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.newRequestID = fn
		}
	}
}

// Gateway sends JSON requests to the campus events backend.
type Gateway struct {
	baseURL        string
	creds          domain.CredentialSource
	client         *http.Client
	logger         *slog.Logger
	onUnauthorized func()
	newRequestID   func() string
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
}

// New returns a Gateway for baseURL. creds may be nil, in which case no Authorization
// header is ever sent.
func New(baseURL string, creds domain.CredentialSource, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		creds:        creds,
		client:       http.DefaultClient,
		logger:       slog.New(slog.DiscardHandler),
		newRequestID: uuid.NewString,
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		propagator:   otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the normalized base URL.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Send performs method on endpoint. body, when non-nil, is encoded as JSON. On success the
// response body is decoded into out unless out is nil. Every failure is an *APIError.
// out must not be used when Send returns an error.
func (g *Gateway) Send(ctx context.Context, method, endpoint string, body, out any) (err error) {
	reqID := g.newRequestID()
	ctx, span := g.tracer.Start(ctx, "campusapi "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("campus.request_id", reqID),
		),
	)
	defer func() { endSpan(span, err) }()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: "failed to encode request body", RequestID: reqID, Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, reader)
	if err != nil {
		return &APIError{Message: "failed to create request", RequestID: reqID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	g.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.SetAttributes(attribute.String("url.path", req.URL.Path))
	authenticated := false
	if g.creds != nil && !isAnonymous(ctx) {
		if cred, ok := g.creds.Credential(); ok && cred.Token != "" {
			req.Header.Set("Authorization", "Bearer "+cred.Token)
			authenticated = true
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logCall(ctx, req, 0, start, reqID)
		return &APIError{Message: unreachableMessage, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	g.logCall(ctx, req, resp.StatusCode, start, reqID)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: malformedMessage, RequestID: reqID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Only a rejected credential ends the session; a failed login sent none.
		if resp.StatusCode == http.StatusUnauthorized && authenticated && g.onUnauthorized != nil {
			g.onUnauthorized()
		}
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw), RequestID: reqID}
	}

	trimmed := bytes.TrimSpace(raw)
	if out == nil {
		if len(trimmed) > 0 && !json.Valid(trimmed) {
			return &APIError{Status: resp.StatusCode, Message: malformedMessage, RequestID: reqID,
				Err: fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)}
		}
		return nil
	}
	if len(trimmed) == 0 {
		return &APIError{Status: resp.StatusCode, Message: malformedMessage, RequestID: reqID,
			Err: fmt.Errorf("%w: empty body", ErrMalformedResponse)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: malformedMessage, RequestID: reqID,
			Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

// Do is a typed wrapper around Send. On failure it returns the zero T, never a partially
// decoded value.
func Do[T any](ctx context.Context, g *Gateway, method, endpoint string, body any) (T, error) {
	var out T
	if err := g.Send(ctx, method, endpoint, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (g *Gateway) logCall(ctx context.Context, req *http.Request, status int, start time.Time, reqID string) {
	g.logger.DebugContext(ctx, "api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", reqID,
	)
}
