package config

// Config is the process-wide configuration. It is loaded once at start and
// never mutated afterwards.
type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	ObservabilityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	Observability
}

// Load reads the environment. A missing JWT_SECRET is an error so the process
// refuses to start rather than rejecting every request later.
func Load() (Config, error) {
	security, err := loadSecurity()
	if err != nil {
		return nil, err
	}
	observability, err := loadObservability()
	if err != nil {
		return nil, err
	}
	return mainConfig{
		EnvVars:       loadEnvVars(),
		Cors:          loadCors(),
		Security:      security,
		Observability: observability,
	}, nil
}
