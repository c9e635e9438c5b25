package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jrsteele09/setlist-gate/auth"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyRequestID stores the request correlation ID
	ContextKeyRequestID ContextKey = "request_id"
)

// UserIDFromContext returns the principal attached by RequireAuth. Handlers
// must use this rather than reading the cookie themselves.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok && id != ""
}

// RequireAuth runs the gate before next. Credential problems answer 401 with
// no detail; a misconfigured gate or a broken request context answers 500.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), "auth.authenticate", trace.WithSpanKind(trace.SpanKindInternal))

		authenticated, err := s.gate.Authenticate(requestContextFromHTTP(r))
		if err != nil {
			span.SetAttributes(attribute.String("auth.outcome", outcomeOf(err)))
			span.SetStatus(codes.Error, err.Error())
			span.End()

			if errors.Is(err, auth.ErrNotAuthenticated) {
				s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Not authenticated")
				return
			}
			s.logger.Error().
				Err(err).
				Str("request_id", RequestIDFromContext(ctx)).
				Str("path", r.URL.Path).
				Msg("authentication unavailable")
			s.writeError(w, r, http.StatusInternalServerError, "server_error", "Authentication unavailable")
			return
		}
		span.SetAttributes(attribute.String("auth.outcome", "authenticated"))
		span.End()

		ctx = context.WithValue(ctx, ContextKeyUserID, authenticated.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		return "rejected"
	case errors.Is(err, auth.ErrConfiguration):
		return "misconfigured"
	case errors.Is(err, auth.ErrContextInvalid):
		return "context_invalid"
	default:
		return "error"
	}
}

// requestContextFromHTTP copies cookies and headers into the gate's view of
// the request. The first cookie wins when a name repeats, as with
// http.Request.Cookie. The Cookie header itself is left out so the raw token
// only lives in Cookies.
func requestContextFromHTTP(r *http.Request) *auth.RequestContext {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		if _, exists := cookies[c.Name]; !exists {
			cookies[c.Name] = c.Value
		}
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if name == "Cookie" || len(values) == 0 {
			continue
		}
		headers[name] = values[0]
	}

	return &auth.RequestContext{Cookies: cookies, Headers: headers}
}
