package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/setlist-gate/auth"
	"github.com/jrsteele09/setlist-gate/internal/config"
	"github.com/jrsteele09/setlist-gate/server"
	"github.com/jrsteele09/setlist-gate/token"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	testSecret = "1234"
	testUserID = "user-1"
	testOrigin = "https://setlists.example.com"
)

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

type serverFixture struct {
	server *server.Server
	logs   *bytes.Buffer
}

func setupServer(t *testing.T, gateSecret string, options ...server.Option) *serverFixture {
	t.Helper()

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ENV", "TEST")
	t.Setenv("CORS_ALLOWED_ORIGINS", testOrigin)
	cfg, err := config.Load()
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics, err := auth.NewMetrics(registry)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	gate := auth.New(gateSecret,
		auth.WithCodec(token.NewCodec(token.WithNowTime(func() time.Time { return testNow }))),
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
	)

	options = append([]server.Option{server.WithLogger(logger), server.WithGatherer(registry)}, options...)
	return &serverFixture{server: server.New(cfg, gate, options...), logs: logs}
}

func (f *serverFixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	return w
}

func sessionCookie(t *testing.T, secret string, exp time.Time) *http.Cookie {
	t.Helper()
	raw, err := token.NewHMACSigner(secret).Sign(jwt.MapClaims{
		"userId": testUserID,
		"iat":    testNow.Add(-time.Minute).Unix(),
		"exp":    exp.Unix(),
	})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.DefaultCookieName, Value: raw}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestSession_Authenticated(t *testing.T) {
	f := setupServer(t, testSecret)

	r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	r.AddCookie(sessionCookie(t, testSecret, testNow.Add(time.Hour)))
	w := f.do(r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Equal(t, map[string]string{"userId": testUserID}, decodeBody(t, w))
}

func TestSession_Rejected(t *testing.T) {
	f := setupServer(t, testSecret)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"expired", sessionCookie(t, testSecret, testNow.Add(-time.Second))},
		{"wrong secret", sessionCookie(t, "other-secret", testNow.Add(time.Hour))},
		{"garbage", &http.Cookie{Name: auth.DefaultCookieName, Value: "garbage"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := f.do(r)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, map[string]string{
				"error":             "unauthorized",
				"error_description": "Not authenticated",
			}, decodeBody(t, w))
		})
	}
}

func TestSession_MisconfiguredGate(t *testing.T) {
	f := setupServer(t, "")

	r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	r.AddCookie(sessionCookie(t, testSecret, testNow.Add(time.Hour)))
	w := f.do(r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "server_error", decodeBody(t, w)["error"])
	require.Contains(t, f.logs.String(), "authentication unavailable")
}

func TestProtectedRoutes(t *testing.T) {
	var seen string
	f := setupServer(t, testSecret, server.WithProtectedRoutes(func(r chi.Router) {
		r.Post("/setlists", func(w http.ResponseWriter, r *http.Request) {
			seen, _ = server.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusCreated)
		})
	}))

	t.Run("runs after the gate", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/setlists", strings.NewReader(`{}`))
		r.AddCookie(sessionCookie(t, testSecret, testNow.Add(time.Hour)))
		w := f.do(r)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, testUserID, seen)
	})

	t.Run("never reached without a session", func(t *testing.T) {
		seen = ""
		w := f.do(httptest.NewRequest(http.MethodPost, "/api/setlists", strings.NewReader(`{}`)))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Empty(t, seen)
	})

	t.Run("panics are recovered", func(t *testing.T) {
		f := setupServer(t, testSecret, server.WithProtectedRoutes(func(r chi.Router) {
			r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
		}))
		r := httptest.NewRequest(http.MethodGet, "/api/boom", nil)
		r.AddCookie(sessionCookie(t, testSecret, testNow.Add(time.Hour)))
		w := f.do(r)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Contains(t, f.logs.String(), "recovered from panic")
	})
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupServer(t, testSecret)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	f.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))

	w = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `setlist_auth_decisions_total{outcome="rejected",reason="no_cookie"} 1`)
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	f := setupServer(t, testSecret)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Len(t, w.Header().Get("X-Request-ID"), 36)
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("X-Request-ID", "req-42")
	w = f.do(r)
	require.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	f := setupServer(t, testSecret)

	t.Run("allowed origin with credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
		r.Header.Set("Origin", testOrigin)
		r.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := f.do(r)

		require.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		w := f.do(r)

		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequireAuth_RecordsSpan(t *testing.T) {
	tests := []struct {
		name       string
		gateSecret string
		cookie     *http.Cookie
		outcome    string
		status     codes.Code
	}{
		{"authenticated", testSecret, sessionCookie(t, testSecret, testNow.Add(time.Hour)), "authenticated", codes.Unset},
		{"rejected", testSecret, sessionCookie(t, "other-secret", testNow.Add(time.Hour)), "rejected", codes.Error},
		{"misconfigured", "", sessionCookie(t, testSecret, testNow.Add(time.Hour)), "misconfigured", codes.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

			f := setupServer(t, tt.gateSecret, server.WithTracerProvider(tp))
			r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			r.AddCookie(tt.cookie)
			f.do(r)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			require.Equal(t, "auth.authenticate", spans[0].Name())
			require.Contains(t, spans[0].Attributes(), attribute.String("auth.outcome", tt.outcome))
			require.Equal(t, tt.status, spans[0].Status().Code)
		})
	}
}
