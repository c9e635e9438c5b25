package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/setlist-gate/internal/errors"
	"github.com/jrsteele09/setlist-gate/token"
	"github.com/stretchr/testify/require"
)

func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func signed(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	raw, err := token.NewHMACSigner(secret).Sign(jwt.MapClaims{
		"userId": "u1",
		"iat":    time.Now().Add(-time.Minute).Unix(),
		"exp":    exp.Unix(),
		"plan":   "band",
	})
	require.NoError(t, err)
	return raw
}

func TestTokenVerify(t *testing.T) {
	t.Setenv("JWT_SECRET", "1234")
	t.Setenv("ENV", "TEST")
	t.Setenv("LOG_LEVEL", "error")

	t.Run("valid token prints claims", func(t *testing.T) {
		out, err := executeRoot(t, "", "token", "verify", signed(t, "1234", time.Now().Add(time.Hour)))
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		require.Equal(t, "u1", result["userId"])
		require.Equal(t, map[string]any{"plan": "band"}, result["extra"])
	})

	t.Run("token from stdin", func(t *testing.T) {
		raw := signed(t, "1234", time.Now().Add(time.Hour))
		out, err := executeRoot(t, raw+"\n", "token", "verify", "-")
		require.NoError(t, err)
		require.Contains(t, out, `"userId": "u1"`)
	})

	t.Run("expired token reports the kind", func(t *testing.T) {
		_, err := executeRoot(t, "", "token", "verify", signed(t, "1234", time.Now().Add(-time.Minute)))
		require.ErrorIs(t, err, token.ErrExpired)
		require.Contains(t, err.Error(), "token rejected (expired")
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := executeRoot(t, "", "token", "verify", signed(t, "5678", time.Now().Add(time.Hour)))
		require.ErrorIs(t, err, token.ErrSignatureInvalid)
	})
}

func TestRoot_MissingSecretIsFatal(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := executeRoot(t, "", "token", "verify", "anything")
	require.ErrorIs(t, err, apperrors.ErrMissingSecret)
	require.Contains(t, err.Error(), "failed to load configuration")
}

type securityStub struct {
	algorithm string
}

func (s securityStub) GetJWTSecret() string                 { return "1234" }
func (s securityStub) GetJWTAlgorithm() string              { return s.algorithm }
func (s securityStub) GetClockSkew() time.Duration          { return time.Second }
func (s securityStub) GetAuthCookieName() string            { return "auth_token" }
func (s securityStub) GetRejectionLogWindow() time.Duration { return time.Minute }

func TestNewCodec(t *testing.T) {
	codec, err := newCodec(securityStub{algorithm: "HS384"})
	require.NoError(t, err)
	require.Equal(t, "HS384", codec.Algorithm())

	_, err = newCodec(securityStub{algorithm: "RS256"})
	require.Error(t, err)
}
