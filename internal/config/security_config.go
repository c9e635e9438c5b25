package config

import (
	"time"

	apperrors "github.com/jrsteele09/setlist-gate/internal/errors"
)

const (
	jwtSecretEnvVar          = "JWT_SECRET"
	jwtAlgorithmEnvVar       = "JWT_ALGORITHM"
	jwtClockSkewEnvVar       = "JWT_CLOCK_SKEW"
	authCookieNameEnvVar     = "AUTH_COOKIE_NAME"
	rejectionLogWindowEnvVar = "AUTH_REJECTION_LOG_WINDOW"
)

var supportedAlgorithms = map[string]struct{}{"HS256": {}, "HS384": {}, "HS512": {}}

type SecurityConfig interface {
	GetJWTSecret() string
	GetJWTAlgorithm() string
	GetClockSkew() time.Duration
	GetAuthCookieName() string
	GetRejectionLogWindow() time.Duration
}

type Security struct {
	jwtSecret          string
	jwtAlgorithm       string
	clockSkew          time.Duration
	authCookieName     string
	rejectionLogWindow time.Duration
}

var _ SecurityConfig = Security{}

func loadSecurity() (Security, error) {
	secret := GetEnv(jwtSecretEnvVar, "")
	if secret == "" {
		return Security{}, apperrors.ErrMissingSecret
	}

	algorithm := GetEnv(jwtAlgorithmEnvVar, "HS256")
	if _, ok := supportedAlgorithms[algorithm]; !ok {
		return Security{}, apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s %q", jwtAlgorithmEnvVar, algorithm)
	}

	skew, err := durationEnv(jwtClockSkewEnvVar, 30*time.Second)
	if err != nil {
		return Security{}, err
	}
	window, err := durationEnv(rejectionLogWindowEnvVar, time.Minute)
	if err != nil {
		return Security{}, err
	}

	return Security{
		jwtSecret:          secret,
		jwtAlgorithm:       algorithm,
		clockSkew:          skew,
		authCookieName:     GetEnv(authCookieNameEnvVar, "auth_token"),
		rejectionLogWindow: window,
	}, nil
}

func durationEnv(envVar string, defaultValue time.Duration) (time.Duration, error) {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidConfig, "%s %q", envVar, raw)
	}
	return d, nil
}

func (s Security) GetJWTSecret() string {
	return s.jwtSecret
}

func (s Security) GetJWTAlgorithm() string {
	return s.jwtAlgorithm
}

func (s Security) GetClockSkew() time.Duration {
	return s.clockSkew
}

func (s Security) GetAuthCookieName() string {
	return s.authCookieName
}

func (s Security) GetRejectionLogWindow() time.Duration {
	return s.rejectionLogWindow
}
