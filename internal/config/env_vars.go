package config

import (
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	envEnvVar      = "ENV"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct {
	port     string
	appName  string
	env      string
	logLevel string
}

var _ EnvConfig = EnvVars{}

func loadEnvVars() EnvVars {
	return EnvVars{
		port:     GetEnv(portEnvVar, "8080"),
		appName:  GetEnv(appNameVar, "Setlist Gate"),
		env:      GetEnv(envEnvVar, "DEV"),
		logLevel: GetEnv(logLevelEnvVar, "info"),
	}
}

// GetPort returns the listen address, e.g. ":8080".
func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.port, ":") {
		return e.port
	}
	return ":" + e.port
}

func (e EnvVars) GetAppName() string {
	return e.appName
}

// GetEnv returns the deployment environment, "DEV" unless set.
func (e EnvVars) GetEnv() string {
	return e.env
}

func (e EnvVars) GetLogLevel() string {
	return e.logLevel
}

func GetEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}
